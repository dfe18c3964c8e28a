// Package policy enumerates the candidate action sequences an agent can
// entertain: the exhaustive Cartesian product of per-factor action ranges over
// the policy horizon, with non-controllable factors pinned to the no-op
// action (index 0). The set is built once at agent construction and is
// deterministic for identical inputs.
package policy

import (
	"errors"
	"fmt"
)

// #region errors

// ErrInvalidConfiguration marks malformed enumeration inputs: a horizon below
// 1, mismatched factor counts, or a per-factor action count below 1.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// #endregion errors

// #region policy-type

// Policy is one candidate action sequence: Actions[t][f] is the action index
// for hidden-state factor f at step t.
type Policy struct {
	Actions [][]int
}

// Horizon returns the number of steps in the policy.
func (p Policy) Horizon() int {
	return len(p.Actions)
}

// #endregion policy-type

// #region controls

// Controls resolves the per-factor action counts. Precedence per factor:
// explicit numControls entry, else the factor's state-space size when the
// factor is controllable, else 1 (no-op only). When controllable is nil the
// controllable set is inferred from numControls (counts above 1), or defaults
// to all factors when numControls is also nil.
func Controls(numStates, numControls []int, controllable []int) ([]int, error) {
	if len(numStates) == 0 {
		return nil, fmt.Errorf("%w: no hidden-state factors", ErrInvalidConfiguration)
	}
	if numControls != nil && len(numControls) != len(numStates) {
		return nil, fmt.Errorf("%w: %d control counts for %d factors",
			ErrInvalidConfiguration, len(numControls), len(numStates))
	}

	isControllable := make([]bool, len(numStates))
	switch {
	case controllable != nil:
		for _, f := range controllable {
			if f < 0 || f >= len(numStates) {
				return nil, fmt.Errorf("%w: controllable factor index %d out of range", ErrInvalidConfiguration, f)
			}
			isControllable[f] = true
		}
	case numControls != nil:
		for f, n := range numControls {
			isControllable[f] = n > 1
		}
	default:
		for f := range isControllable {
			isControllable[f] = true
		}
	}

	controls := make([]int, len(numStates))
	for f := range numStates {
		switch {
		case numControls != nil:
			controls[f] = numControls[f]
		case isControllable[f]:
			controls[f] = numStates[f]
		default:
			controls[f] = 1
		}
		if controls[f] < 1 {
			return nil, fmt.Errorf("%w: factor %d has %d actions", ErrInvalidConfiguration, f, controls[f])
		}
	}
	return controls, nil
}

// #endregion controls

// #region construct

// Construct builds the full policy set for the given horizon: every
// combination of per-factor actions at every step, in a fixed odometer order
// (the last factor of the last step varies fastest). Factors resolved to a
// single action contribute only the no-op.
func Construct(numStates, numControls []int, controllable []int, horizon int) ([]Policy, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: horizon %d", ErrInvalidConfiguration, horizon)
	}
	controls, err := Controls(numStates, numControls, controllable)
	if err != nil {
		return nil, err
	}

	numFactors := len(controls)
	total := 1
	for t := 0; t < horizon; t++ {
		for _, n := range controls {
			total *= n
		}
	}

	digits := make([]int, horizon*numFactors)
	policies := make([]Policy, 0, total)
	for i := 0; i < total; i++ {
		actions := make([][]int, horizon)
		for t := 0; t < horizon; t++ {
			row := make([]int, numFactors)
			copy(row, digits[t*numFactors:(t+1)*numFactors])
			actions[t] = row
		}
		policies = append(policies, Policy{Actions: actions})

		// Advance the odometer, last digit fastest.
		for d := len(digits) - 1; d >= 0; d-- {
			digits[d]++
			if digits[d] < controls[d%numFactors] {
				break
			}
			digits[d] = 0
		}
	}
	return policies, nil
}

// #endregion construct
