package policy

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConstructCountMatchesProduct(t *testing.T) {
	// 3 actions x 2 actions over horizon 2 → (3*2)^2 = 36 policies.
	policies, err := Construct([]int{3, 2}, nil, nil, 2)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if len(policies) != 36 {
		t.Fatalf("expected 36 policies, got %d", len(policies))
	}
	for p, pol := range policies {
		if pol.Horizon() != 2 {
			t.Fatalf("policy %d horizon %d, want 2", p, pol.Horizon())
		}
		for t2, row := range pol.Actions {
			if len(row) != 2 {
				t.Fatalf("policy %d step %d spans %d factors", p, t2, len(row))
			}
			if row[0] < 0 || row[0] >= 3 || row[1] < 0 || row[1] >= 2 {
				t.Fatalf("policy %d has out-of-range action %v", p, row)
			}
		}
	}
}

func TestConstructPinsNonControllableFactors(t *testing.T) {
	policies, err := Construct([]int{3, 2}, nil, []int{0}, 1)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if len(policies) != 3 {
		t.Fatalf("expected 3 policies, got %d", len(policies))
	}
	for p, pol := range policies {
		if pol.Actions[0][1] != 0 {
			t.Fatalf("policy %d: non-controllable factor not pinned to no-op, got %d", p, pol.Actions[0][1])
		}
	}
}

func TestConstructExplicitControlCounts(t *testing.T) {
	policies, err := Construct([]int{4, 4}, []int{2, 1}, nil, 1)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("expected 2 policies, got %d", len(policies))
	}
}

func TestConstructRoundTripIsDeterministic(t *testing.T) {
	first, err := Construct([]int{2, 3}, nil, nil, 2)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	second, err := Construct([]int{2, 3}, nil, nil, 2)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("policy sets differ (-first +second):\n%s", diff)
	}
}

func TestConstructRejectsBadInputs(t *testing.T) {
	cases := []struct {
		name        string
		numStates   []int
		numControls []int
		control     []int
		horizon     int
	}{
		{"zero horizon", []int{2}, nil, nil, 0},
		{"no factors", nil, nil, nil, 1},
		{"control count mismatch", []int{2, 2}, []int{2}, nil, 1},
		{"zero control count", []int{2}, []int{0}, nil, 1},
		{"controllable index out of range", []int{2}, nil, []int{3}, 1},
	}
	for _, tc := range cases {
		_, err := Construct(tc.numStates, tc.numControls, tc.control, tc.horizon)
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("%s: expected ErrInvalidConfiguration, got %v", tc.name, err)
		}
	}
}

func TestControlsInference(t *testing.T) {
	// Inferred from control counts: only factors with count > 1 are
	// controllable.
	controls, err := Controls([]int{3, 3}, []int{3, 1}, nil)
	if err != nil {
		t.Fatalf("Controls: %v", err)
	}
	if controls[0] != 3 || controls[1] != 1 {
		t.Fatalf("expected [3 1], got %v", controls)
	}

	// No hints at all: every factor controllable with state-space-size actions.
	controls, err = Controls([]int{2, 4}, nil, nil)
	if err != nil {
		t.Fatalf("Controls: %v", err)
	}
	if controls[0] != 2 || controls[1] != 4 {
		t.Fatalf("expected [2 4], got %v", controls)
	}
}
