// Package planning scores candidate policies by expected free energy: a
// pragmatic utility term (how well predicted outcomes match the
// log-preferences C) plus an epistemic information-gain term (how much
// observing the predicted outcomes would shrink hidden-state uncertainty).
// Lower free energy is better; a precision-weighted softmax turns the scores
// into a posterior over the policy set.
package planning

import (
	"fmt"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/dist"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/inference"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/model"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/policy"
)

// #region config

// Config selects the free-energy terms and the policy precision.
type Config struct {
	UseUtility        bool
	UseStatesInfoGain bool
	Gamma             float64 // inverse temperature for the policy softmax
}

// DefaultConfig enables both terms with a moderately sharp precision.
func DefaultConfig() Config {
	return Config{
		UseUtility:        true,
		UseStatesInfoGain: true,
		Gamma:             16.0,
	}
}

// #endregion config

// #region result

// Result bundles the policy posterior and the raw free energies.
type Result struct {
	QPi []float64 // normalized posterior over the policy set
	G   []float64 // expected free energy per policy, lower is better
}

// #endregion result

// #region evaluate

// Evaluate rolls each policy forward from the current beliefs and accumulates
// its expected free energy, then maps the energies into a policy posterior:
// Q_pi ∝ exp(-gamma*G + ln E). With both terms disabled the posterior equals
// the normalized policy prior.
func Evaluate(m model.Model, qs [][]float64, policies []policy.Policy, e []float64, cfg Config) (Result, error) {
	if len(policies) == 0 {
		return Result{}, fmt.Errorf("%w: empty policy set", policy.ErrInvalidConfiguration)
	}
	if len(e) != len(policies) {
		return Result{}, fmt.Errorf("%w: policy prior length %d, %d policies",
			model.ErrDimensionMismatch, len(e), len(policies))
	}
	for mod, c := range m.C {
		if len(c) != m.A[mod].NumObs {
			return Result{}, fmt.Errorf("%w: C[%d] length %d, want %d",
				model.ErrDimensionMismatch, mod, len(c), m.A[mod].NumObs)
		}
	}

	g := make([]float64, len(policies))
	for p, pol := range policies {
		qsPred := copyBeliefs(qs)
		for t := 0; t < pol.Horizon(); t++ {
			next, err := inference.Prior(m.B, qsPred, pol.Actions[t])
			if err != nil {
				return Result{}, fmt.Errorf("policy %d step %d: %w", p, t, err)
			}
			qsPred = next

			for mod := range m.A {
				qo, err := inference.PredictObservation(m.A[mod], qsPred)
				if err != nil {
					return Result{}, fmt.Errorf("policy %d step %d modality %d: %w", p, t, mod, err)
				}
				if cfg.UseUtility {
					g[p] -= dist.Dot(qo, m.C[mod])
				}
				if cfg.UseStatesInfoGain {
					g[p] -= statesInfoGain(m.A[mod], qsPred, qo)
				}
			}
		}
	}

	lnE := dist.Log(e)
	scaled := make([]float64, len(g))
	for p := range g {
		scaled[p] = -cfg.Gamma*g[p] + lnE[p]
	}
	return Result{QPi: dist.Softmax(scaled), G: g}, nil
}

// #endregion evaluate

// #region info-gain

// statesInfoGain is the epistemic value of one predicted outcome: the entropy
// of the predicted observation distribution minus the expected entropy of the
// observation conditioned on the hidden state. Equivalently, the expected
// reduction in state uncertainty from seeing the outcome.
func statesInfoGain(a model.Likelihood, qsPred [][]float64, qo []float64) float64 {
	var condEntropy float64
	js := a.JointStates()
	w := jointWeights(a.FactorSizes, qsPred)
	for joint := 0; joint < js; joint++ {
		if w[joint] == 0 {
			continue
		}
		condEntropy += w[joint] * dist.Entropy(a.Column(joint))
	}
	return dist.Entropy(qo) - condEntropy
}

// jointWeights flattens factorized beliefs into a joint weight per combined
// state, mixed-radix order matching the likelihood layout.
func jointWeights(sizes []int, qs [][]float64) []float64 {
	total := 1
	for _, s := range sizes {
		total *= s
	}
	w := make([]float64, total)
	idx := make([]int, len(sizes))
	for flat := 0; flat < total; flat++ {
		p := 1.0
		for g, s := range idx {
			p *= qs[g][s]
		}
		w[flat] = p
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < sizes[d] {
				break
			}
			idx[d] = 0
		}
	}
	return w
}

// #endregion info-gain

// #region helpers

func copyBeliefs(qs [][]float64) [][]float64 {
	out := make([][]float64, len(qs))
	for f := range qs {
		out[f] = append([]float64(nil), qs[f]...)
	}
	return out
}

// #endregion helpers
