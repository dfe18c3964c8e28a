// Package inference implements one step of variational Bayesian filtering
// over the hidden-state factors: transition-propagated priors and a
// mean-field fixed-point posterior update from a fresh observation. All
// functions are pure; the agent records the results into its history log.
package inference

import (
	"fmt"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/dist"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/model"
)

// #region constants

// fpIterations is the fixed iteration count for the mean-field fixed point.
// Chosen empirically over a convergence tolerance: the update stabilizes well
// within ten sweeps on the state-space sizes this agent targets.
const fpIterations = 10

// #endregion constants

// #region prior

// Prior propagates the previous posterior through the transition tensors
// under the previous action, one factor at a time:
// prior[f][next] = sum_cur B[f](next | cur, action[f]) * qs[f][cur].
func Prior(b []model.Transition, qs [][]float64, action []int) ([][]float64, error) {
	if len(qs) != len(b) {
		return nil, fmt.Errorf("%w: %d belief factors, %d transition tensors",
			model.ErrDimensionMismatch, len(qs), len(b))
	}
	if len(action) != len(b) {
		return nil, fmt.Errorf("%w: %d action entries, %d factors",
			model.ErrDimensionMismatch, len(action), len(b))
	}

	prior := make([][]float64, len(b))
	for f := range b {
		a := action[f]
		if a < 0 || a >= b[f].NumActions {
			return nil, fmt.Errorf("%w: action %d out of range for factor %d (%d actions)",
				model.ErrDimensionMismatch, a, f, b[f].NumActions)
		}
		if len(qs[f]) != b[f].NumStates {
			return nil, fmt.Errorf("%w: belief length %d for factor %d, want %d",
				model.ErrDimensionMismatch, len(qs[f]), f, b[f].NumStates)
		}
		next := make([]float64, b[f].NumStates)
		for n := range next {
			var sum float64
			for cur := 0; cur < b[f].NumStates; cur++ {
				sum += b[f].At(n, cur, a) * qs[f][cur]
			}
			next[n] = sum
		}
		prior[f] = dist.Normalize(next)
	}
	return prior, nil
}

// #endregion prior

// #region infer-states

// InferStates runs the mean-field fixed point: per factor, the posterior is
// the softmax of the log-prior plus the expected log-likelihood accumulated
// from every observation modality, with the expectation taken under the
// current beliefs over the other factors. A fixed small number of sweeps
// stands in for a convergence check.
func InferStates(prior [][]float64, a []model.Likelihood, obs []int) ([][]float64, error) {
	if len(obs) != len(a) {
		return nil, fmt.Errorf("%w: %d observations, %d modalities",
			model.ErrDimensionMismatch, len(obs), len(a))
	}
	for m, o := range obs {
		if o < 0 || o >= a[m].NumObs {
			return nil, fmt.Errorf("%w: observation %d out of range for modality %d (%d outcomes)",
				model.ErrDimensionMismatch, o, m, a[m].NumObs)
		}
	}

	numFactors := len(prior)
	logPrior := make([][]float64, numFactors)
	qs := make([][]float64, numFactors)
	for f := range prior {
		logPrior[f] = dist.Log(prior[f])
		qs[f] = dist.Normalize(prior[f])
	}

	for iter := 0; iter < fpIterations; iter++ {
		for f := 0; f < numFactors; f++ {
			logLik := make([]float64, len(qs[f]))
			for m := range a {
				marg, err := factorMarginal(a[m], obs[m], qs, f)
				if err != nil {
					return nil, err
				}
				lm := dist.Log(marg)
				for s := range logLik {
					logLik[s] += lm[s]
				}
			}
			for s := range logLik {
				logLik[s] += logPrior[f][s]
			}
			qs[f] = dist.Softmax(logLik)
		}
	}
	return qs, nil
}

// #endregion infer-states

// #region predict-obs

// PredictObservation returns the predicted observation distribution for one
// modality given factorized beliefs: qo[o] = sum_joint A(o | joint) * q(joint).
func PredictObservation(a model.Likelihood, qs [][]float64) ([]float64, error) {
	if len(qs) != len(a.FactorSizes) {
		return nil, fmt.Errorf("%w: %d belief factors, likelihood spans %d",
			model.ErrDimensionMismatch, len(qs), len(a.FactorSizes))
	}
	qo := make([]float64, a.NumObs)
	err := forEachJoint(a.FactorSizes, func(idx []int, flat int) error {
		w := 1.0
		for g, s := range idx {
			if s >= len(qs[g]) {
				return fmt.Errorf("%w: belief length %d for factor %d, want %d",
					model.ErrDimensionMismatch, len(qs[g]), g, a.FactorSizes[g])
			}
			w *= qs[g][s]
		}
		if w == 0 {
			return nil
		}
		for o := 0; o < a.NumObs; o++ {
			qo[o] += a.At(o, flat) * w
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dist.Normalize(qo), nil
}

// #endregion predict-obs

// #region helpers

// factorMarginal computes, for each state of the target factor, the
// likelihood of the observed outcome with the remaining factors marginalized
// under their current beliefs.
func factorMarginal(a model.Likelihood, o int, qs [][]float64, target int) ([]float64, error) {
	if len(qs) != len(a.FactorSizes) {
		return nil, fmt.Errorf("%w: %d belief factors, likelihood spans %d",
			model.ErrDimensionMismatch, len(qs), len(a.FactorSizes))
	}
	marg := make([]float64, a.FactorSizes[target])
	err := forEachJoint(a.FactorSizes, func(idx []int, flat int) error {
		w := 1.0
		for g, s := range idx {
			if g == target {
				continue
			}
			if s >= len(qs[g]) {
				return fmt.Errorf("%w: belief length %d for factor %d, want %d",
					model.ErrDimensionMismatch, len(qs[g]), g, a.FactorSizes[g])
			}
			w *= qs[g][s]
		}
		marg[idx[target]] += a.At(o, flat) * w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marg, nil
}

// forEachJoint iterates every joint state combination in mixed-radix order
// (last factor fastest), passing the per-factor indices and the flat index.
func forEachJoint(sizes []int, fn func(idx []int, flat int) error) error {
	total := 1
	for _, s := range sizes {
		total *= s
	}
	idx := make([]int, len(sizes))
	for flat := 0; flat < total; flat++ {
		if err := fn(idx, flat); err != nil {
			return err
		}
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < sizes[d] {
				break
			}
			idx[d] = 0
		}
	}
	return nil
}

// #endregion helpers
