// Package sim orchestrates single phase-locking simulation runs: one
// flow field, a mobile and a target swimmer, and an approach controller,
// advanced in lockstep until convergence or the step budget runs out.
package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/gyresim/internal/control"
	"github.com/san-kum/gyresim/internal/flow"
	"github.com/san-kum/gyresim/internal/metrics"
	"github.com/san-kum/gyresim/internal/swimmer"
)

// Metric observes every simulation step and reduces to one scalar.
type Metric interface {
	Name() string
	Observe(mobile, target swimmer.Pose, u swimmer.Vel, t float64)
	Value() float64
	Reset()
}

// Params configures one run. It is immutable and passed by value; no run
// reads ambient process state.
type Params struct {
	TotalTime   float64
	Timestep    float64
	Flow        flow.Spec
	Orientation control.Orientation
	Direction   control.Direction
}

func (p Params) validate() error {
	if p.Timestep <= 0 {
		return fmt.Errorf("sim: timestep must be positive, got %g", p.Timestep)
	}
	if p.TotalTime < 2*p.Timestep {
		return fmt.Errorf("sim: total time %g leaves no room for a step at dt=%g", p.TotalTime, p.Timestep)
	}
	return nil
}

// Problem is one complete, independent simulation task. ID keys the
// result in batch aggregation; Radius annotates sweep problems with the
// spawn radius they were drawn from.
type Problem struct {
	Params      Params
	MobileStart swimmer.Pose
	TargetStart swimmer.Pose
	ID          string
	Radius      float64
}

// Output is the result of a completed run. A run that failed with a core
// error produces no Output; the error carries the kind.
type Output struct {
	ID          string
	Mobile      *swimmer.Swimmer
	Target      *swimmer.Swimmer
	Converged   bool
	ConvergedAt float64
	ControlCost float64
	Steps       int
	Metrics     map[string]float64
}

// Session is a run in progress, stepped one control cycle at a time. The
// run layer and the live view share it; a Session is single-threaded by
// contract.
type Session struct {
	params  Params
	field   *flow.Field
	mobile  *swimmer.Swimmer
	target  *swimmer.Swimmer
	ctrl    *control.Approach
	metrics []Metric
	effort  *metrics.ControlEffort

	step        int
	iters       int
	converged   bool
	convergedAt float64
}

// NewSession validates the problem and assembles the run. The swimmers'
// lifespans are sized to the step budget, so a session that is stepped
// only through Done never exhausts them.
func NewSession(prob Problem) (*Session, error) {
	if err := prob.Params.validate(); err != nil {
		return nil, err
	}

	field, err := flow.New(prob.Params.Flow)
	if err != nil {
		return nil, err
	}

	iters := int(prob.Params.TotalTime / prob.Params.Timestep)
	mobile, err := swimmer.New(prob.MobileStart, iters)
	if err != nil {
		return nil, err
	}
	target, err := swimmer.New(prob.TargetStart, iters)
	if err != nil {
		return nil, err
	}

	ctrl, err := control.New(field, prob.Params.Orientation, prob.Params.Direction, prob.Params.Timestep)
	if err != nil {
		return nil, err
	}

	effort := metrics.NewControlEffort(prob.Params.Timestep)
	s := &Session{
		params:  prob.Params,
		field:   field,
		mobile:  mobile,
		target:  target,
		ctrl:    ctrl,
		metrics: []Metric{effort, metrics.NewPhaseLag(field)},
		effort:  effort,
		step:    1,
		iters:   iters,
	}
	for _, m := range s.metrics {
		m.Reset()
	}
	return s, nil
}

// Step advances one control cycle: read both poses, query the flow,
// compute the control velocity, advance both swimmers, then update the
// convergence oracle. It reports whether the session is finished.
func (s *Session) Step() (done bool, err error) {
	if s.Done() {
		return true, nil
	}

	t := s.params.Timestep * float64(s.step)

	mobPose := s.mobile.Pose()
	targPose := s.target.Pose()

	mobVel := s.field.VelocityAt(flow.Vec2{X: mobPose.X, Y: mobPose.Y})
	targVel := s.field.VelocityAt(flow.Vec2{X: targPose.X, Y: targPose.Y})

	u := s.ctrl.ControlVelocity(
		flow.Vec2{X: mobPose.X, Y: mobPose.Y},
		flow.Vec2{X: targPose.X, Y: targPose.Y},
	)

	if err := s.mobile.Advance(t, swimmer.Vel{X: mobVel.X, Y: mobVel.Y}, u); err != nil {
		return true, err
	}
	if err := s.target.Advance(t, swimmer.Vel{X: targVel.X, Y: targVel.Y}, swimmer.Vel{}); err != nil {
		return true, err
	}

	for _, m := range s.metrics {
		m.Observe(mobPose, targPose, u, t)
	}

	s.step++
	if s.ctrl.Converged() {
		s.converged = true
		s.convergedAt = t
	}
	return s.Done(), nil
}

// Done reports whether the session has converged or spent its budget.
func (s *Session) Done() bool {
	return s.converged || s.step >= s.iters
}

// Time returns the simulated time of the last completed step.
func (s *Session) Time() float64 {
	return s.params.Timestep * float64(s.step-1)
}

func (s *Session) Converged() bool            { return s.converged }
func (s *Session) Mobile() *swimmer.Swimmer   { return s.mobile }
func (s *Session) Target() *swimmer.Swimmer   { return s.target }
func (s *Session) Field() *flow.Field         { return s.field }
func (s *Session) Dwell() int                 { return s.ctrl.Dwell() }
func (s *Session) Errors() (float64, float64) { return s.ctrl.Errors() }

// output freezes the session into a result.
func (s *Session) output(id string) *Output {
	vals := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		vals[m.Name()] = m.Value()
	}
	return &Output{
		ID:          id,
		Mobile:      s.mobile,
		Target:      s.target,
		Converged:   s.converged,
		ConvergedAt: s.convergedAt,
		ControlCost: s.effort.Value(),
		Steps:       s.step - 1,
		Metrics:     vals,
	}
}

// Run executes a problem to completion. Convergence stops the run early;
// otherwise it ends after the configured step budget without exhausting
// the swimmers. Cancellation is honored between steps; any core error
// aborts the run with its kind intact.
func Run(ctx context.Context, prob Problem) (*Output, error) {
	s, err := NewSession(prob)
	if err != nil {
		return nil, err
	}

	for !s.Done() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if _, err := s.Step(); err != nil {
			return nil, err
		}
	}
	return s.output(prob.ID), nil
}
