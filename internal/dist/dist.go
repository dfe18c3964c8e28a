// Package dist provides categorical-distribution kernels shared by the
// inference, planning, and action packages. All distributions are plain
// []float64 slices; functions return new slices and never mutate inputs.
package dist

import (
	"math"
	"math/rand"
)

// #region constants

// epsilon floors probabilities before taking logs so that zero entries do not
// produce -Inf terms inside softmax chains.
const epsilon = 1e-16

// #endregion constants

// #region uniform

// Uniform returns the uniform categorical distribution over n outcomes.
func Uniform(n int) []float64 {
	if n <= 0 {
		return nil
	}
	p := make([]float64, n)
	for i := range p {
		p[i] = 1.0 / float64(n)
	}
	return p
}

// #endregion uniform

// #region normalize

// Normalize rescales v to sum to 1. Negative entries are clamped to zero
// first. If the total mass is non-positive (an all-zero likelihood row), the
// uniform distribution is returned instead — the local recovery for a
// distribution that fails to normalize.
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	var sum float64
	for i, x := range v {
		if x < 0 {
			x = 0
		}
		out[i] = x
		sum += x
	}
	if sum <= 0 {
		return Uniform(len(v))
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// #endregion normalize

// #region softmax

// Softmax returns exp(v) normalized, with the max subtracted for stability.
func Softmax(v []float64) []float64 {
	if len(v) == 0 {
		return nil
	}
	maxV := v[0]
	for _, x := range v[1:] {
		if x > maxV {
			maxV = x
		}
	}
	out := make([]float64, len(v))
	var sum float64
	for i, x := range v {
		out[i] = math.Exp(x - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// #endregion softmax

// #region log

// Log returns the element-wise natural log with entries floored at epsilon.
func Log(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if x < epsilon {
			x = epsilon
		}
		out[i] = math.Log(x)
	}
	return out
}

// #endregion log

// #region entropy

// Entropy returns the Shannon entropy of p in nats. Zero entries contribute
// nothing.
func Entropy(p []float64) float64 {
	var h float64
	for _, x := range p {
		if x > epsilon {
			h -= x * math.Log(x)
		}
	}
	return h
}

// #endregion entropy

// #region dot

// Dot returns the inner product of a and b. Lengths must match; the caller
// validates shapes.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// #endregion dot

// #region argmax

// ArgMax returns the index of the largest entry, with ties broken by the
// lowest index.
func ArgMax(p []float64) int {
	best := 0
	for i, x := range p {
		if x > p[best] {
			best = i
		}
	}
	return best
}

// #endregion argmax

// #region sample

// Sample draws one index from the categorical distribution p using r.
// p is assumed normalized; trailing mass absorbs rounding error.
func Sample(p []float64, r *rand.Rand) int {
	u := r.Float64()
	var cum float64
	for i, x := range p {
		cum += x
		if u < cum {
			return i
		}
	}
	return len(p) - 1
}

// #endregion sample
