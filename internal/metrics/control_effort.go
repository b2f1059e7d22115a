// Package metrics provides per-step observers accumulated over a
// simulation run.
package metrics

import (
	"github.com/san-kum/gyresim/internal/swimmer"
)

// ControlEffort accumulates the path length traveled on thrust,
// sum of ||u|| * dt over every control step.
type ControlEffort struct {
	dt  float64
	sum float64
}

func NewControlEffort(dt float64) *ControlEffort {
	return &ControlEffort{dt: dt}
}

func (c *ControlEffort) Name() string {
	return "control_effort"
}

func (c *ControlEffort) Observe(mobile, target swimmer.Pose, u swimmer.Vel, t float64) {
	c.sum += u.Norm() * c.dt
}

func (c *ControlEffort) Value() float64 {
	return c.sum
}

func (c *ControlEffort) Reset() {
	c.sum = 0
}
