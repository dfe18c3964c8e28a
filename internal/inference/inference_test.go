package inference

import (
	"errors"
	"math"
	"testing"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/model"
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

func assertNormalized(t *testing.T, qs [][]float64) {
	t.Helper()
	for f, q := range qs {
		var sum float64
		for _, x := range q {
			if x < 0 {
				t.Fatalf("factor %d has negative entry %f", f, x)
			}
			sum += x
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("factor %d sums to %f", f, sum)
		}
	}
}

func TestInferStatesConcentratesOnObservedState(t *testing.T) {
	// Identity likelihood, uniform prior, observe outcome 2 → posterior mass
	// concentrates on state 2.
	prior := [][]float64{{1.0 / 3, 1.0 / 3, 1.0 / 3}}
	a := []model.Likelihood{model.IdentityLikelihood(3)}

	qs, err := InferStates(prior, a, []int{2})
	if err != nil {
		t.Fatalf("InferStates: %v", err)
	}
	assertNormalized(t, qs)
	if qs[0][2] < 0.99 {
		t.Fatalf("expected mass on state 2, got %v", qs[0])
	}
}

func TestInferStatesNoisyLikelihoodStaysNormalized(t *testing.T) {
	prior := [][]float64{{0.5, 0.3, 0.2}}
	noisy := model.Likelihood{
		NumObs:      3,
		FactorSizes: []int{3},
		Data: []float64{
			0.8, 0.1, 0.1,
			0.1, 0.8, 0.1,
			0.1, 0.1, 0.8,
		},
	}

	qs, err := InferStates(prior, []model.Likelihood{noisy}, []int{1})
	if err != nil {
		t.Fatalf("InferStates: %v", err)
	}
	assertNormalized(t, qs)
	if qs[0][1] <= qs[0][0] || qs[0][1] <= qs[0][2] {
		t.Fatalf("expected state 1 to dominate, got %v", qs[0])
	}
}

func TestInferStatesTwoFactors(t *testing.T) {
	// Two binary factors, one modality observing only the first factor's
	// joint slice: the second factor should retain its prior.
	prior := [][]float64{{0.5, 0.5}, {0.9, 0.1}}
	data := []float64{
		// o=0: P(o=0 | f0, f1) = 1 when f0 == 0
		1, 1, 0, 0,
		// o=1
		0, 0, 1, 1,
	}
	a := []model.Likelihood{{NumObs: 2, FactorSizes: []int{2, 2}, Data: data}}

	qs, err := InferStates(prior, a, []int{1})
	if err != nil {
		t.Fatalf("InferStates: %v", err)
	}
	assertNormalized(t, qs)
	if qs[0][1] < 0.99 {
		t.Fatalf("expected factor 0 pinned to state 1, got %v", qs[0])
	}
	if math.Abs(qs[1][0]-0.9) > 1e-6 {
		t.Fatalf("expected factor 1 to keep its prior, got %v", qs[1])
	}
}

func TestInferStatesRejectsOutOfRangeObservation(t *testing.T) {
	prior := [][]float64{{0.5, 0.5}}
	a := []model.Likelihood{model.IdentityLikelihood(2)}
	_, err := InferStates(prior, a, []int{5})
	if !errors.Is(err, model.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestPriorPropagatesThroughTransition(t *testing.T) {
	b := []model.Transition{deterministicTransition(3)}
	qs := [][]float64{{0.2, 0.5, 0.3}}

	prior, err := Prior(b, qs, []int{1})
	if err != nil {
		t.Fatalf("Prior: %v", err)
	}
	assertNormalized(t, prior)
	if prior[0][1] < 0.999 {
		t.Fatalf("deterministic action 1 should land in state 1, got %v", prior[0])
	}
}

func TestPriorRejectsOutOfRangeAction(t *testing.T) {
	b := []model.Transition{deterministicTransition(2)}
	_, err := Prior(b, [][]float64{{1, 0}}, []int{4})
	if !errors.Is(err, model.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestPredictObservationIdentity(t *testing.T) {
	a := model.IdentityLikelihood(3)
	qo, err := PredictObservation(a, [][]float64{{0.1, 0.6, 0.3}})
	if err != nil {
		t.Fatalf("PredictObservation: %v", err)
	}
	want := []float64{0.1, 0.6, 0.3}
	for o := range want {
		if math.Abs(qo[o]-want[o]) > 1e-9 {
			t.Fatalf("outcome %d: got %f, want %f", o, qo[o], want[o])
		}
	}
}
