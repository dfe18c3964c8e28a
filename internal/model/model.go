// Package model defines the strongly-typed generative model for a discrete
// POMDP: per-modality observation likelihoods (A), per-factor transition
// tensors (B), log-preference vectors (C), initial state priors (D), and an
// optional policy prior (E). Every tensor carries explicit shape metadata and
// is validated once at construction, so shape drift surfaces as a wrapped
// ErrDimensionMismatch instead of a silent mismatch downstream.
package model

import (
	"errors"
	"fmt"
	"math"
)

// #region errors

// ErrDimensionMismatch marks tensor shapes inconsistent with the declared
// state/observation/action-space sizes.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// normTolerance is the floating tolerance for probability columns summing to 1.
const normTolerance = 1e-6

// #endregion errors

// #region likelihood

// Likelihood is the observation model for one modality: P(o | s1..sF).
// Data is flat, observation-major: Data[o*JointStates() + joint], where joint
// is the mixed-radix flattening of the factor state indices (last factor
// varies fastest).
type Likelihood struct {
	NumObs      int
	FactorSizes []int
	Data        []float64
}

// JointStates returns the product of the factor state-space sizes.
func (l Likelihood) JointStates() int {
	n := 1
	for _, s := range l.FactorSizes {
		n *= s
	}
	return n
}

// At returns P(o | joint).
func (l Likelihood) At(o, joint int) float64 {
	return l.Data[o*l.JointStates()+joint]
}

// Column returns the distribution over observations for one joint state.
func (l Likelihood) Column(joint int) []float64 {
	js := l.JointStates()
	col := make([]float64, l.NumObs)
	for o := 0; o < l.NumObs; o++ {
		col[o] = l.Data[o*js+joint]
	}
	return col
}

// validate checks shape and column normalization.
func (l Likelihood) validate(modality int, numStates []int) error {
	if l.NumObs < 1 {
		return fmt.Errorf("%w: A[%d] has %d observations", ErrDimensionMismatch, modality, l.NumObs)
	}
	if len(l.FactorSizes) != len(numStates) {
		return fmt.Errorf("%w: A[%d] spans %d factors, model has %d",
			ErrDimensionMismatch, modality, len(l.FactorSizes), len(numStates))
	}
	for f, s := range l.FactorSizes {
		if s != numStates[f] {
			return fmt.Errorf("%w: A[%d] factor %d size %d, model declares %d",
				ErrDimensionMismatch, modality, f, s, numStates[f])
		}
	}
	js := l.JointStates()
	if len(l.Data) != l.NumObs*js {
		return fmt.Errorf("%w: A[%d] data length %d, want %d",
			ErrDimensionMismatch, modality, len(l.Data), l.NumObs*js)
	}
	for joint := 0; joint < js; joint++ {
		var sum float64
		for o := 0; o < l.NumObs; o++ {
			v := l.At(o, joint)
			if v < 0 {
				return fmt.Errorf("%w: A[%d] negative entry at (o=%d, joint=%d)",
					ErrDimensionMismatch, modality, o, joint)
			}
			sum += v
		}
		if math.Abs(sum-1) > normTolerance {
			return fmt.Errorf("%w: A[%d] column %d sums to %f", ErrDimensionMismatch, modality, joint, sum)
		}
	}
	return nil
}

// #endregion likelihood

// #region transition

// Transition is the dynamics model for one hidden-state factor:
// P(next | current, action). Data is flat, indexed
// Data[(next*NumStates+current)*NumActions + action].
type Transition struct {
	NumStates  int
	NumActions int
	Data       []float64
}

// At returns P(next | current, action).
func (b Transition) At(next, current, action int) float64 {
	return b.Data[(next*b.NumStates+current)*b.NumActions+action]
}

// validate checks shape and column normalization over the next-state axis.
func (b Transition) validate(factor, numStates int) error {
	if b.NumStates != numStates {
		return fmt.Errorf("%w: B[%d] has %d states, model declares %d",
			ErrDimensionMismatch, factor, b.NumStates, numStates)
	}
	if b.NumActions < 1 {
		return fmt.Errorf("%w: B[%d] has %d actions", ErrDimensionMismatch, factor, b.NumActions)
	}
	want := b.NumStates * b.NumStates * b.NumActions
	if len(b.Data) != want {
		return fmt.Errorf("%w: B[%d] data length %d, want %d", ErrDimensionMismatch, factor, len(b.Data), want)
	}
	for cur := 0; cur < b.NumStates; cur++ {
		for a := 0; a < b.NumActions; a++ {
			var sum float64
			for next := 0; next < b.NumStates; next++ {
				v := b.At(next, cur, a)
				if v < 0 {
					return fmt.Errorf("%w: B[%d] negative entry at (next=%d, cur=%d, a=%d)",
						ErrDimensionMismatch, factor, next, cur, a)
				}
				sum += v
			}
			if math.Abs(sum-1) > normTolerance {
				return fmt.Errorf("%w: B[%d] column (cur=%d, a=%d) sums to %f",
					ErrDimensionMismatch, factor, cur, a, sum)
			}
		}
	}
	return nil
}

// #endregion transition

// #region model

// Model bundles the full generative model. C holds log-preferences over
// observations per modality; D holds the initial prior per factor; E is the
// optional prior over policies (nil = uniform, resolved by the agent once the
// policy set is known).
type Model struct {
	NumStates []int
	NumObs    []int
	A         []Likelihood
	B         []Transition
	C         [][]float64
	D         [][]float64
	E         []float64
}

// Validate checks every tensor against the declared state/observation sizes.
// E is not checked here: its length depends on the policy set.
func (m Model) Validate() error {
	if len(m.NumStates) == 0 {
		return fmt.Errorf("%w: no hidden-state factors declared", ErrDimensionMismatch)
	}
	if len(m.NumObs) == 0 {
		return fmt.Errorf("%w: no observation modalities declared", ErrDimensionMismatch)
	}
	for f, s := range m.NumStates {
		if s < 1 {
			return fmt.Errorf("%w: factor %d has %d states", ErrDimensionMismatch, f, s)
		}
	}

	if len(m.A) != len(m.NumObs) {
		return fmt.Errorf("%w: %d likelihood tensors, %d modalities", ErrDimensionMismatch, len(m.A), len(m.NumObs))
	}
	for mod, a := range m.A {
		if a.NumObs != m.NumObs[mod] {
			return fmt.Errorf("%w: A[%d] has %d observations, model declares %d",
				ErrDimensionMismatch, mod, a.NumObs, m.NumObs[mod])
		}
		if err := a.validate(mod, m.NumStates); err != nil {
			return err
		}
	}

	if len(m.B) != len(m.NumStates) {
		return fmt.Errorf("%w: %d transition tensors, %d factors", ErrDimensionMismatch, len(m.B), len(m.NumStates))
	}
	for f, b := range m.B {
		if err := b.validate(f, m.NumStates[f]); err != nil {
			return err
		}
	}

	if len(m.C) != len(m.NumObs) {
		return fmt.Errorf("%w: %d preference vectors, %d modalities", ErrDimensionMismatch, len(m.C), len(m.NumObs))
	}
	for mod, c := range m.C {
		if len(c) != m.NumObs[mod] {
			return fmt.Errorf("%w: C[%d] length %d, want %d", ErrDimensionMismatch, mod, len(c), m.NumObs[mod])
		}
	}

	if len(m.D) != len(m.NumStates) {
		return fmt.Errorf("%w: %d initial priors, %d factors", ErrDimensionMismatch, len(m.D), len(m.NumStates))
	}
	for f, d := range m.D {
		if len(d) != m.NumStates[f] {
			return fmt.Errorf("%w: D[%d] length %d, want %d", ErrDimensionMismatch, f, len(d), m.NumStates[f])
		}
		var sum float64
		for _, v := range d {
			if v < 0 {
				return fmt.Errorf("%w: D[%d] has a negative entry", ErrDimensionMismatch, f)
			}
			sum += v
		}
		if math.Abs(sum-1) > normTolerance {
			return fmt.Errorf("%w: D[%d] sums to %f", ErrDimensionMismatch, f, sum)
		}
	}

	return nil
}

// #endregion model

// #region constructors

// IdentityLikelihood returns a single-factor likelihood with P(o|s) = 1 when
// o == s. Handy for models where the state is directly observed.
func IdentityLikelihood(n int) Likelihood {
	data := make([]float64, n*n)
	for s := 0; s < n; s++ {
		data[s*n+s] = 1
	}
	return Likelihood{NumObs: n, FactorSizes: []int{n}, Data: data}
}

// #endregion constructors
