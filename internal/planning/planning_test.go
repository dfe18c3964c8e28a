package planning

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/model"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/policy"
)

// deterministicTransition builds a single-factor B where action a moves every
// state to state a.
func deterministicTransition(n int) model.Transition {
	data := make([]float64, n*n*n)
	for next := 0; next < n; next++ {
		for cur := 0; cur < n; cur++ {
			for a := 0; a < n; a++ {
				if next == a {
					data[(next*n+cur)*n+a] = 1
				}
			}
		}
	}
	return model.Transition{NumStates: n, NumActions: n, Data: data}
}

func twoStateModel(c []float64) model.Model {
	return model.Model{
		NumStates: []int{2},
		NumObs:    []int{2},
		A:         []model.Likelihood{model.IdentityLikelihood(2)},
		B:         []model.Transition{deterministicTransition(2)},
		C:         [][]float64{c},
		D:         [][]float64{{0.5, 0.5}},
	}
}

func mustPolicies(t *testing.T, numStates []int, horizon int) []policy.Policy {
	t.Helper()
	policies, err := policy.Construct(numStates, nil, nil, horizon)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	return policies
}

func TestEvaluateUtilityFavorsPreferredOutcome(t *testing.T) {
	// C strongly prefers outcome 0; the policy driving the state to 0 must
	// dominate the posterior.
	m := twoStateModel([]float64{4, -4})
	policies := mustPolicies(t, m.NumStates, 1)
	qs := [][]float64{{0.5, 0.5}}
	e := []float64{0.5, 0.5}

	res, err := Evaluate(m, qs, policies, e, Config{UseUtility: true, Gamma: 16})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(res.QPi) != len(policies) || len(res.G) != len(policies) {
		t.Fatalf("result lengths %d/%d, want %d", len(res.QPi), len(res.G), len(policies))
	}
	if res.QPi[0] <= 0.5 {
		t.Fatalf("expected preferred policy above 0.5, got %v", res.QPi)
	}
	if res.G[0] >= res.G[1] {
		t.Fatalf("expected lower free energy for preferred policy, got %v", res.G)
	}
}

func TestEvaluateBothTermsDisabledReturnsPrior(t *testing.T) {
	m := twoStateModel([]float64{4, -4})
	policies := mustPolicies(t, m.NumStates, 1)
	qs := [][]float64{{0.5, 0.5}}
	e := []float64{0.75, 0.25}

	res, err := Evaluate(m, qs, policies, e, Config{Gamma: 16})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for p := range e {
		if math.Abs(res.QPi[p]-e[p]) > 1e-9 {
			t.Fatalf("expected posterior to equal prior, got %v", res.QPi)
		}
		if res.G[p] != 0 {
			t.Fatalf("expected zero free energy with both terms off, got %v", res.G)
		}
	}
}

func TestEvaluatePosteriorIsNormalized(t *testing.T) {
	m := twoStateModel([]float64{1, 0})
	policies := mustPolicies(t, m.NumStates, 2)
	qs := [][]float64{{0.3, 0.7}}
	e := make([]float64, len(policies))
	for i := range e {
		e[i] = 1.0 / float64(len(e))
	}

	res, err := Evaluate(m, qs, policies, e, DefaultConfig())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	var sum float64
	for _, q := range res.QPi {
		if q < 0 {
			t.Fatalf("negative posterior entry in %v", res.QPi)
		}
		sum += q
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("posterior sums to %f", sum)
	}
}

func TestEvaluateInfoGainPrefersUncertaintyResolvingAction(t *testing.T) {
	// Observations identify the state exactly. Action 0 lands in a known
	// state (nothing left to learn); action 1 lands in an uncertain state
	// whose observation will resolve that uncertainty. With only the
	// epistemic term enabled, the exploratory policy must score strictly
	// lower free energy.
	bData := make([]float64, 2*2*2)
	for cur := 0; cur < 2; cur++ {
		bData[(0*2+cur)*2+0] = 1   // action 0: always state 0
		bData[(0*2+cur)*2+1] = 0.5 // action 1: uniform next state
		bData[(1*2+cur)*2+1] = 0.5
	}
	m := model.Model{
		NumStates: []int{2},
		NumObs:    []int{2},
		A:         []model.Likelihood{model.IdentityLikelihood(2)},
		B:         []model.Transition{{NumStates: 2, NumActions: 2, Data: bData}},
		C:         [][]float64{{0, 0}},
		D:         [][]float64{{0.5, 0.5}},
	}
	policies := mustPolicies(t, m.NumStates, 1)
	qs := [][]float64{{0.5, 0.5}}
	e := []float64{0.5, 0.5}

	res, err := Evaluate(m, qs, policies, e, Config{UseStatesInfoGain: true, Gamma: 16})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.G[1] >= res.G[0] {
		t.Fatalf("expected informative policy to have lower free energy, got %v", res.G)
	}
	if res.QPi[1] <= res.QPi[0] {
		t.Fatalf("expected informative policy to dominate, got %v", res.QPi)
	}
}

func TestEvaluateRejectsPriorLengthMismatch(t *testing.T) {
	m := twoStateModel([]float64{0, 0})
	policies := mustPolicies(t, m.NumStates, 1)
	_, err := Evaluate(m, [][]float64{{0.5, 0.5}}, policies, []float64{1}, DefaultConfig())
	if err == nil {
		t.Fatal("expected error for mismatched policy prior length")
	}
}
