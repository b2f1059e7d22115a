package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/san-kum/gyresim/internal/control"
	"github.com/san-kum/gyresim/internal/flow"
	"github.com/san-kum/gyresim/internal/sim"
	"github.com/san-kum/gyresim/internal/swimmer"
)

func testProblem(id string, mobileX float64) sim.Problem {
	return sim.Problem{
		Params: sim.Params{
			TotalTime: 5,
			Timestep:  0.1,
			Flow: flow.Spec{
				Family:  flow.FamilyRankineVortex,
				Rankine: flow.RankineParams{Gamma: 0.0565, CoreRadius: 0.05},
			},
			Orientation: control.CCW,
			Direction:   control.In,
		},
		MobileStart: swimmer.Pose{X: mobileX},
		TargetStart: swimmer.Pose{Y: -0.5},
		ID:          id,
	}
}

func TestPool_KeysResultsByID(t *testing.T) {
	problems := make([]sim.Problem, 0, 16)
	for i := 0; i < 16; i++ {
		problems = append(problems, testProblem(fmt.Sprintf("run-%02d", i), 0.5+0.05*float64(i)))
	}

	pool := NewPool(4)
	results := pool.Run(context.Background(), problems)

	if len(results) != len(problems) {
		t.Fatalf("got %d results for %d problems", len(results), len(problems))
	}
	for _, prob := range problems {
		outcome, ok := results[prob.ID]
		if !ok {
			t.Fatalf("missing result for %s", prob.ID)
		}
		if outcome.Err != nil {
			t.Errorf("%s failed: %v", prob.ID, outcome.Err)
		}
		if outcome.Output == nil || outcome.Output.ID != prob.ID {
			t.Errorf("%s outcome carries wrong output", prob.ID)
		}
	}
}

func TestPool_FailedRunKeepsErrorKind(t *testing.T) {
	good := testProblem("good", 1.0)
	bad := testProblem("bad", 1.0)
	bad.Params.Flow.Family = flow.Family(99)

	results := NewPool(2).Run(context.Background(), []sim.Problem{good, bad})

	if results["good"].Err != nil {
		t.Errorf("good run failed: %v", results["good"].Err)
	}
	if !errors.Is(results["bad"].Err, flow.ErrUnknownFamily) {
		t.Errorf("bad run error = %v, want ErrUnknownFamily", results["bad"].Err)
	}
	if results["bad"].Output != nil {
		t.Error("failed run must not carry an output")
	}
}

func TestPool_MatchesSequentialRun(t *testing.T) {
	prob := testProblem("seq", 0.8)

	direct, err := sim.Run(context.Background(), prob)
	if err != nil {
		t.Fatal(err)
	}

	results := NewPool(3).Run(context.Background(), []sim.Problem{prob})
	pooled := results["seq"]
	if pooled.Err != nil {
		t.Fatal(pooled.Err)
	}

	if pooled.Output.ControlCost != direct.ControlCost || pooled.Output.Steps != direct.Steps {
		t.Errorf("pooled run diverges from sequential: %+v vs %+v", pooled.Output, direct)
	}
}

func TestPool_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	problems := []sim.Problem{testProblem("a", 1.0), testProblem("b", 1.1)}
	results := NewPool(1).Run(ctx, problems)

	if len(results) != 2 {
		t.Fatalf("got %d results, want every problem accounted for", len(results))
	}
	for id, outcome := range results {
		if !errors.Is(outcome.Err, context.Canceled) {
			t.Errorf("%s error = %v, want context.Canceled", id, outcome.Err)
		}
	}
}

func TestNewPool_DefaultSize(t *testing.T) {
	if NewPool(0).Workers() < 1 {
		t.Error("default pool has no workers")
	}
	if NewPool(7).Workers() != 7 {
		t.Error("explicit worker count not honored")
	}
}
