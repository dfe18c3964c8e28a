// Package action turns a policy posterior into a concrete action: marginalize
// the posterior over each control factor's first-step action, then pick the
// mode (deterministic) or sample from a precision-sharpened categorical
// (stochastic).
package action

import (
	"fmt"
	"math/rand"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/dist"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/model"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/policy"
)

// #region mode

// Mode is the action-selection rule.
type Mode string

const (
	// Deterministic picks the highest-probability action per factor, ties
	// broken by the lowest action index. Idempotent for a fixed posterior.
	Deterministic Mode = "deterministic"
	// Stochastic samples each factor's action from softmax(alpha * ln p).
	Stochastic Mode = "stochastic"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Deterministic, Stochastic:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: action selection mode %q", policy.ErrInvalidConfiguration, s)
	}
}

// #endregion mode

// #region marginals

// Marginals sums policy-posterior mass over each factor's first-timestep
// action, yielding one normalized action distribution per control factor.
func Marginals(qpi []float64, policies []policy.Policy, controls []int) ([][]float64, error) {
	if len(qpi) != len(policies) {
		return nil, fmt.Errorf("%w: posterior length %d, %d policies",
			model.ErrDimensionMismatch, len(qpi), len(policies))
	}
	marginals := make([][]float64, len(controls))
	for f, n := range controls {
		marginals[f] = make([]float64, n)
	}
	for p, pol := range policies {
		if pol.Horizon() == 0 || len(pol.Actions[0]) != len(controls) {
			return nil, fmt.Errorf("%w: policy %d spans %d factors, want %d",
				model.ErrDimensionMismatch, p, len(pol.Actions[0]), len(controls))
		}
		for f, a := range pol.Actions[0] {
			if a < 0 || a >= controls[f] {
				return nil, fmt.Errorf("%w: policy %d action %d out of range for factor %d",
					model.ErrDimensionMismatch, p, a, f)
			}
			marginals[f][a] += qpi[p]
		}
	}
	for f := range marginals {
		marginals[f] = dist.Normalize(marginals[f])
	}
	return marginals, nil
}

// #endregion marginals

// #region select

// Select picks one action index per control factor from the marginal action
// posteriors. The stochastic rule sharpens each marginal by the selection
// precision alpha before sampling, so alpha → ∞ recovers the argmax.
func Select(marginals [][]float64, mode Mode, alpha float64, r *rand.Rand) ([]int, error) {
	actions := make([]int, len(marginals))
	switch mode {
	case Deterministic:
		for f, p := range marginals {
			actions[f] = dist.ArgMax(p)
		}
	case Stochastic:
		if r == nil {
			return nil, fmt.Errorf("%w: stochastic selection requires a random source", policy.ErrInvalidConfiguration)
		}
		for f, p := range marginals {
			logP := dist.Log(p)
			for i := range logP {
				logP[i] *= alpha
			}
			actions[f] = dist.Sample(dist.Softmax(logP), r)
		}
	default:
		return nil, fmt.Errorf("%w: action selection mode %q", policy.ErrInvalidConfiguration, mode)
	}
	return actions, nil
}

// #endregion select
