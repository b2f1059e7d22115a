package control_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gyresim/internal/control"
	"github.com/san-kum/gyresim/internal/flow"
)

// Positions on a Rankine field chosen so the controller observes an exact
// total error: coincident points give zero error, and a pure radial
// offset of 1 at equal phase gives a total error of exactly 1.
var (
	atRadius   = flow.Vec2{X: 2, Y: 0}
	offByOne   = flow.Vec2{X: 3, Y: 0}
	coincident = flow.Vec2{X: 2, Y: 0}
)

var _ = Describe("convergence dwell", func() {
	var ctrl *control.Approach

	newController := func(timestep float64) *control.Approach {
		field, err := flow.New(flow.Spec{
			Family:  flow.FamilyRankineVortex,
			Rankine: flow.RankineParams{Gamma: 1.0, CoreRadius: 0.05},
		})
		Expect(err).NotTo(HaveOccurred())

		c, err := control.New(field, control.CCW, control.In, timestep)
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	stepWithError := func(total float64) {
		if total == 0 {
			ctrl.ControlVelocity(atRadius, coincident)
		} else {
			ctrl.ControlVelocity(atRadius, flow.Vec2{X: atRadius.X + total, Y: 0})
		}
	}

	BeforeEach(func() {
		ctrl = newController(0.1)
	})

	It("requires two seconds of dwell at the configured timestep", func() {
		// 2 s at dt=0.1 is 20 consecutive in-tolerance steps.
		for i := 1; i <= 19; i++ {
			stepWithError(0)
			Expect(ctrl.Converged()).To(BeFalse(), "converged early at step %d", i)
		}
		stepWithError(0)
		Expect(ctrl.Converged()).To(BeTrue())
	})

	It("resets the dwell counter on a single out-of-tolerance step", func() {
		for i := 0; i < 19; i++ {
			stepWithError(0)
			Expect(ctrl.Converged()).To(BeFalse())
		}

		stepWithError(1.0)
		Expect(ctrl.Converged()).To(BeFalse())
		Expect(ctrl.Dwell()).To(BeZero())

		// A full fresh dwell is required after the reset.
		for i := 1; i <= 19; i++ {
			stepWithError(0)
			Expect(ctrl.Converged()).To(BeFalse(), "converged early at step %d after reset", i)
		}
		stepWithError(0)
		Expect(ctrl.Converged()).To(BeTrue())
	})

	It("accepts error exactly at the threshold", func() {
		// The comparison is inclusive: total error equal to the threshold
		// still counts toward the dwell.
		var converged bool
		for i := 0; i < 20; i++ {
			stepWithError(control.ConvergenceThreshold)
			converged = ctrl.Converged()
		}
		Expect(converged).To(BeTrue())
	})

	It("mixes radius and phase error under one Euclidean threshold", func() {
		// Radius error in meters and phase error in radians share the
		// unitless threshold; a pure radius error of 1 m is far outside
		// tolerance even though the agents are phase-aligned.
		stepWithError(1.0)
		Expect(ctrl.Converged()).To(BeFalse())

		rErr, phaseErr := ctrl.Errors()
		Expect(rErr).To(BeNumerically("==", 1.0))
		Expect(phaseErr).To(BeZero())
	})

	It("stays converged while the error holds", func() {
		for i := 0; i < 20; i++ {
			stepWithError(0)
			ctrl.Converged()
		}
		for i := 0; i < 5; i++ {
			stepWithError(0)
			Expect(ctrl.Converged()).To(BeTrue())
		}
	})
})
