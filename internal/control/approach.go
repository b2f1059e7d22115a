// Package control implements the phase-locking approach controller: it
// drives the mobile swimmer's radius in the flow's phase space toward a
// desired radius computed from the target's phase error, until the two
// agents phase-lock for a sustained dwell time.
package control

import (
	"fmt"
	"math"

	"github.com/san-kum/gyresim/internal/angle"
	"github.com/san-kum/gyresim/internal/flow"
	"github.com/san-kum/gyresim/internal/swimmer"
)

// Orientation is the rotational sense of the flow: how increasing phase
// maps to the direction of circulation.
type Orientation int

const (
	CW  Orientation = -1
	CCW Orientation = 1
)

func (o Orientation) String() string {
	if o == CW {
		return "cw"
	}
	return "ccw"
}

// ParseOrientation maps a config/CLI name to an Orientation.
func ParseOrientation(name string) (Orientation, error) {
	switch name {
	case "cw":
		return CW, nil
	case "ccw":
		return CCW, nil
	default:
		return 0, fmt.Errorf("control: unknown orientation %q", name)
	}
}

// Direction selects whether convergence drives the radius inward or
// outward.
type Direction int

const (
	In  Direction = -1
	Out Direction = 1
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// ParseDirection maps a config/CLI name to a Direction.
func ParseDirection(name string) (Direction, error) {
	switch name {
	case "in":
		return In, nil
	case "out":
		return Out, nil
	default:
		return 0, fmt.Errorf("control: unknown direction %q", name)
	}
}

// Control parameters. The gain and thrust magnitude are properties of the
// thruster model, fixed across runs.
const (
	Kp            = 0.5
	ThrusterSpeed = 0.01

	// ConvergenceThreshold bounds sqrt(rErr^2 + phaseErr^2). Radius error
	// is in meters and phase error in radians; the mixed-unit norm is the
	// threshold semantics the study defined, kept as-is and pinned by a
	// regression test.
	ConvergenceThreshold = 0.01

	// TimeToConvergence is the dwell the error must stay under threshold,
	// in simulated seconds.
	TimeToConvergence = 2.0
)

// Approach is the phase-locking feedback controller. One instance serves
// one simulation run; it owns its dwell counter and last-step errors and
// is not safe for concurrent use.
type Approach struct {
	field *flow.Field
	ori   Orientation
	dir   Direction

	dwell     int
	dwellNeed float64

	rErr     float64
	phaseErr float64
}

// New creates a controller bound to a shared read-only flow field. The
// timestep only sizes the dwell threshold.
func New(field *flow.Field, ori Orientation, dir Direction, timestep float64) (*Approach, error) {
	if field == nil {
		return nil, fmt.Errorf("control: nil flow field")
	}
	if timestep <= 0 {
		return nil, fmt.Errorf("control: timestep must be positive, got %g", timestep)
	}
	return &Approach{
		field:     field,
		ori:       ori,
		dir:       dir,
		dwellNeed: TimeToConvergence / timestep,
		rErr:      math.Inf(1),
		phaseErr:  math.Inf(1),
	}, nil
}

// ControlVelocity computes the thrust to apply to the mobile swimmer:
//
//	err   = wrap(theta_target - theta_mobile) * orientation
//	r_des = r_target + Kp * err * direction
//
// with a fixed-magnitude bang-bang thrust along the mobile swimmer's
// radial axis, outward when the desired radius exceeds the current one.
// It also records the radius and phase errors consulted by Converged.
func (a *Approach) ControlVelocity(mobile, target flow.Vec2) swimmer.Vel {
	mob := a.field.PhaseStateOf(mobile)
	targ := a.field.PhaseStateOf(target)

	err := angle.WrapToPi(targ.Phase-mob.Phase) * float64(a.ori)
	rDes := targ.Radius + Kp*err*float64(a.dir)

	sign := -1.0
	if rDes > mob.Radius {
		sign = 1.0
	}

	a.rErr = targ.Radius - mob.Radius
	a.phaseErr = err

	return swimmer.Vel{
		X: sign * ThrusterSpeed * math.Cos(mob.Phase),
		Y: sign * ThrusterSpeed * math.Sin(mob.Phase),
	}
}

// Converged advances the dwell state machine and reports whether the
// total error has stayed under threshold for the full dwell time. Call
// exactly once per control step, after ControlVelocity; before any
// control step has run the error is infinite and the result is false.
func (a *Approach) Converged() bool {
	total := math.Sqrt(a.rErr*a.rErr + a.phaseErr*a.phaseErr)

	if total <= ConvergenceThreshold {
		a.dwell++
	} else {
		a.dwell = 0
	}
	return float64(a.dwell) >= a.dwellNeed
}

// Errors returns the radius and phase error recorded by the last
// ControlVelocity call.
func (a *Approach) Errors() (rErr, phaseErr float64) {
	return a.rErr, a.phaseErr
}

// Dwell returns the current count of consecutive in-tolerance steps.
func (a *Approach) Dwell() int { return a.dwell }
