package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/gyresim/internal/flow"
	"github.com/san-kum/gyresim/internal/swimmer"
)

func TestControlEffort(t *testing.T) {
	m := NewControlEffort(0.1)
	if m.Value() != 0 {
		t.Errorf("initial value = %v, want 0", m.Value())
	}

	// Two steps at speed 0.01: cost = 2 * 0.01 * 0.1.
	u := swimmer.Vel{X: 0.01}
	m.Observe(swimmer.Pose{}, swimmer.Pose{}, u, 0.1)
	m.Observe(swimmer.Pose{}, swimmer.Pose{}, u, 0.2)

	want := 2 * 0.01 * 0.1
	if math.Abs(m.Value()-want) > 1e-15 {
		t.Errorf("value = %v, want %v", m.Value(), want)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("value after reset = %v, want 0", m.Value())
	}
}

func TestControlEffort_UsesLinearSpeed(t *testing.T) {
	m := NewControlEffort(1.0)
	m.Observe(swimmer.Pose{}, swimmer.Pose{}, swimmer.Vel{X: 3, Y: 4, Omega: 100}, 1.0)
	if math.Abs(m.Value()-5.0) > 1e-12 {
		t.Errorf("value = %v, want 5 (angular rate excluded)", m.Value())
	}
}

func TestPhaseLag(t *testing.T) {
	field, err := flow.New(flow.Spec{
		Family:  flow.FamilyRankineVortex,
		Rankine: flow.RankineParams{Gamma: 1.0, CoreRadius: 0.05},
	})
	if err != nil {
		t.Fatal(err)
	}

	m := NewPhaseLag(field)
	if m.Value() != 0 {
		t.Errorf("initial value = %v, want 0", m.Value())
	}

	// Quarter turn apart, then aligned: mean lag is pi/4.
	m.Observe(swimmer.Pose{X: 1, Y: 0}, swimmer.Pose{X: 0, Y: 1}, swimmer.Vel{}, 0.1)
	m.Observe(swimmer.Pose{X: 1, Y: 0}, swimmer.Pose{X: 2, Y: 0}, swimmer.Vel{}, 0.2)

	want := math.Pi / 4
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("value = %v, want %v", m.Value(), want)
	}
}
