// Package replay re-runs a recorded observation sequence through a fresh
// agent and reports where the selected actions diverge from the recorded
// ones. Operates entirely in-memory; the cmd layer handles fixtures on disk
// and the episode store.
package replay

import (
	"fmt"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/agent"
)

// #region types

// Result captures the outcome of replaying one control cycle.
type Result struct {
	Step        int
	Observation []int
	Action      []int
	Expected    []int // nil when the fixture records no expectation
	Match       bool  // true when Expected is nil or equal to Action
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalSteps int
	Matches    int
	Diverged   int
	Unchecked  int // steps with no recorded expectation
}

// #endregion types

// #region replay

// Replay runs every fixture observation through a fresh agent in pipeline
// order (infer states → infer policies → select action) and compares each
// selected action against the recorded expectation.
func Replay(f *Fixture) ([]Result, error) {
	a, err := f.NewAgent()
	if err != nil {
		return nil, err
	}
	return Run(a, f.Observations, f.ExpectedActions)
}

// Run drives an existing agent through an observation sequence, comparing
// against expected actions when provided.
func Run(a *agent.Agent, observations [][]int, expected [][]int) ([]Result, error) {
	results := make([]Result, 0, len(observations))
	for i, obs := range observations {
		if _, err := a.InferStates(obs); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if _, _, err := a.InferPolicies(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		act, err := a.SelectAction()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		r := Result{
			Step:        i,
			Observation: append([]int(nil), obs...),
			Action:      act,
			Match:       true,
		}
		if i < len(expected) && expected[i] != nil {
			r.Expected = append([]int(nil), expected[i]...)
			r.Match = actionsEqual(act, expected[i])
		}
		results = append(results, r)
	}
	return results, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{TotalSteps: len(results)}
	for _, r := range results {
		switch {
		case r.Expected == nil:
			s.Unchecked++
		case r.Match:
			s.Matches++
		default:
			s.Diverged++
		}
	}
	return s
}

// #endregion replay

// #region helpers

func actionsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// #endregion helpers
