package metrics

import (
	"math"

	"github.com/san-kum/gyresim/internal/angle"
	"github.com/san-kum/gyresim/internal/flow"
	"github.com/san-kum/gyresim/internal/swimmer"
)

// PhaseLag tracks the mean absolute wrapped phase difference between the
// two agents, measured in the field's phase coordinates.
type PhaseLag struct {
	field   *flow.Field
	sum     float64
	samples int
}

func NewPhaseLag(field *flow.Field) *PhaseLag {
	return &PhaseLag{field: field}
}

func (p *PhaseLag) Name() string {
	return "phase_lag"
}

func (p *PhaseLag) Observe(mobile, target swimmer.Pose, u swimmer.Vel, t float64) {
	mob := p.field.PhaseStateOf(flow.Vec2{X: mobile.X, Y: mobile.Y})
	targ := p.field.PhaseStateOf(flow.Vec2{X: target.X, Y: target.Y})
	p.sum += math.Abs(angle.Diff(targ.Phase, mob.Phase))
	p.samples++
}

func (p *PhaseLag) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.sum / float64(p.samples)
}

func (p *PhaseLag) Reset() {
	p.sum = 0
	p.samples = 0
}
