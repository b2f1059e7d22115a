// Package swimmer implements the point-mass kinematic agents that ride a
// flow field: a 2D pose with orientation, advanced by explicit Euler
// integration, with a bounded append-only pose history.
package swimmer

import (
	"errors"
	"fmt"
	"math"
)

// ErrExhausted indicates an advance past the agent's lifespan. The caller
// under-sized the step budget relative to its loop; the run is invalid,
// not retried.
var ErrExhausted = errors.New("swimmer: pose history exhausted")

// Pose is a planar pose. Theta is stored unconstrained and interpreted
// modulo 2*pi. Poses recorded into history are never mutated in place.
type Pose struct {
	X, Y, Theta float64
}

// Vel is a planar velocity with an angular rate. A flow that supplies
// only linear components leaves Omega zero.
type Vel struct {
	X, Y, Omega float64
}

func (v Vel) Add(o Vel) Vel {
	return Vel{v.X + o.X, v.Y + o.Y, v.Omega + o.Omega}
}

// Norm returns the linear speed, ignoring the angular rate.
func (v Vel) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// Sample is one recorded (timestamp, pose) pair.
type Sample struct {
	T    float64
	Pose Pose
}

// Swimmer owns a preallocated pose history of fixed lifespan. It is
// alive for step indexes 0..lifespan-1 and exhausted after.
type Swimmer struct {
	hist []Sample
	life int
}

// New creates a swimmer at an initial pose with a fixed number of
// simulation steps it may record.
func New(initial Pose, lifespan int) (*Swimmer, error) {
	if lifespan < 1 {
		return nil, fmt.Errorf("swimmer: lifespan must be positive, got %d", lifespan)
	}
	s := &Swimmer{hist: make([]Sample, 1, lifespan)}
	s.hist[0] = Sample{T: 0, Pose: initial}
	return s, nil
}

// Pose returns the most recently recorded pose.
func (s *Swimmer) Pose() Pose {
	return s.hist[s.life].Pose
}

// Step returns the current step index.
func (s *Swimmer) Step() int { return s.life }

// Lifespan returns the total step budget set at creation.
func (s *Swimmer) Lifespan() int { return cap(s.hist) }

// Exhausted reports whether the swimmer has used its full step budget.
func (s *Swimmer) Exhausted() bool { return s.life >= cap(s.hist)-1 }

// Advance integrates one explicit Euler step to time t: the combined
// flow and control velocity is held constant over dt = t minus the last
// recorded timestamp. The new pose is appended to history.
func (s *Swimmer) Advance(t float64, flowVel, controlVel Vel) error {
	if s.Exhausted() {
		return fmt.Errorf("%w: step %d of %d", ErrExhausted, s.life+1, cap(s.hist))
	}

	last := s.hist[s.life]
	if t <= last.T {
		return fmt.Errorf("swimmer: non-increasing timestamp %g after %g", t, last.T)
	}
	dt := t - last.T

	v := flowVel.Add(controlVel)
	s.hist = append(s.hist, Sample{
		T: t,
		Pose: Pose{
			X:     last.Pose.X + v.X*dt,
			Y:     last.Pose.Y + v.Y*dt,
			Theta: last.Pose.Theta + v.Omega*dt,
		},
	})
	s.life++
	return nil
}

// History returns the recorded (t, pose) samples, oldest first. The
// returned slice is a read-only view for plotting and persistence.
func (s *Swimmer) History() []Sample {
	return s.hist[:s.life+1]
}
