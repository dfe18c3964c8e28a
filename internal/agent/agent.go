// Package agent owns the generative model, the resolved policy set, the
// current beliefs, and the per-cycle history log, and coordinates the strict
// infer-states → infer-policies → select-action pipeline over the inference,
// planning, and action packages. One Agent is single-threaded by contract;
// the model tensors are never mutated after construction and may be shared
// between agents.
package agent

import (
	"fmt"
	"math/rand"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/action"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/dist"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/inference"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/model"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/planning"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/policy"
)

// #region agent-struct

// Agent is the active-inference control loop state.
type Agent struct {
	model    model.Model
	cfg      Config
	policies []policy.Policy
	controls []int
	e        []float64 // policy prior, resolved at construction

	qs         [][]float64 // current posterior per factor
	prior      [][]float64 // prior used in the last state inference
	qpi        []float64
	g          []float64
	lastAction []int // nil until the first SelectAction
	step       int

	rng     *rand.Rand
	history *History
}

// #endregion agent-struct

// #region constructor

// New validates the model and configuration, constructs the policy set, and
// resolves the policy prior (uniform when the model leaves E unset). Initial
// beliefs come from D.
func New(m model.Model, cfg Config) (*Agent, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validate model: %w", err)
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	controls, err := policy.Controls(m.NumStates, cfg.NumControls, cfg.ControlFactors)
	if err != nil {
		return nil, err
	}
	for f, n := range controls {
		if n > m.B[f].NumActions {
			return nil, fmt.Errorf("%w: factor %d resolves to %d actions, B[%d] supports %d",
				model.ErrDimensionMismatch, f, n, f, m.B[f].NumActions)
		}
	}
	policies, err := policy.Construct(m.NumStates, cfg.NumControls, cfg.ControlFactors, cfg.PolicyLen)
	if err != nil {
		return nil, err
	}

	var e []float64
	if m.E == nil {
		e = dist.Uniform(len(policies))
	} else {
		if len(m.E) != len(policies) {
			return nil, fmt.Errorf("%w: policy prior length %d, %d policies",
				model.ErrDimensionMismatch, len(m.E), len(policies))
		}
		e = dist.Normalize(m.E)
	}

	a := &Agent{
		model:    m,
		cfg:      cfg,
		policies: policies,
		controls: controls,
		e:        e,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		history:  NewHistory(cfg.HistoryCap),
	}
	a.resetBeliefs()
	return a, nil
}

// resetBeliefs seeds the posterior from the initial prior D.
func (a *Agent) resetBeliefs() {
	a.qs = make([][]float64, len(a.model.D))
	for f, d := range a.model.D {
		a.qs[f] = dist.Normalize(d)
	}
	a.prior = nil
	a.qpi = nil
	a.g = nil
	a.lastAction = nil
	a.step = 0
}

// Reset returns the agent to its initial beliefs for a new episode. The
// history log is retained; the policy set and model are untouched.
func (a *Agent) Reset() {
	a.resetBeliefs()
}

// #endregion constructor

// #region infer-states

// InferStates runs one step of state inference from a fresh observation (one
// discrete index per modality). The prior is D on the first cycle and the
// transition-propagated previous posterior afterwards. The updated beliefs
// are recorded as a new history cycle.
func (a *Agent) InferStates(obs []int) ([][]float64, error) {
	var prior [][]float64
	var err error
	if a.lastAction == nil {
		prior = make([][]float64, len(a.model.D))
		for f, d := range a.model.D {
			prior[f] = dist.Normalize(d)
		}
	} else {
		prior, err = inference.Prior(a.model.B, a.qs, a.lastAction)
		if err != nil {
			return nil, fmt.Errorf("propagate prior: %w", err)
		}
	}

	qs, err := inference.InferStates(prior, a.model.A, obs)
	if err != nil {
		return nil, fmt.Errorf("infer states: %w", err)
	}

	a.prior = prior
	a.qs = qs
	a.qpi = nil
	a.g = nil
	a.history.append(Cycle{
		Step:        a.step,
		Observation: append([]int(nil), obs...),
		Prior:       copyBeliefs(prior),
		Posterior:   copyBeliefs(qs),
	})
	return copyBeliefs(qs), nil
}

// #endregion infer-states

// #region infer-policies

// InferPolicies scores every policy from the current beliefs and stores the
// resulting posterior and free energies, completing the current history
// cycle's planning fields. InferStates must have run this cycle.
func (a *Agent) InferPolicies() ([]float64, []float64, error) {
	cur := a.history.last()
	if cur == nil || cur.Step != a.step || cur.Posterior == nil {
		return nil, nil, fmt.Errorf("%w: InferPolicies before InferStates", policy.ErrInvalidConfiguration)
	}

	res, err := planning.Evaluate(a.model, a.qs, a.policies, a.e, planning.Config{
		UseUtility:        a.cfg.UseUtility,
		UseStatesInfoGain: a.cfg.UseStatesInfoGain,
		Gamma:             a.cfg.Gamma,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate policies: %w", err)
	}

	a.qpi = res.QPi
	a.g = res.G
	cur.QPi = append([]float64(nil), res.QPi...)
	cur.G = append([]float64(nil), res.G...)
	return append([]float64(nil), res.QPi...), append([]float64(nil), res.G...), nil
}

// #endregion infer-policies

// #region select-action

// SelectAction marginalizes the policy posterior into per-factor action
// posteriors and picks one action index per factor under the configured
// selection mode. The action completes the current history cycle and becomes
// the transition input for the next cycle's prior.
func (a *Agent) SelectAction() ([]int, error) {
	cur := a.history.last()
	if a.qpi == nil || cur == nil || cur.Step != a.step || cur.QPi == nil {
		return nil, fmt.Errorf("%w: SelectAction before InferPolicies", policy.ErrInvalidConfiguration)
	}

	marginals, err := action.Marginals(a.qpi, a.policies, a.controls)
	if err != nil {
		return nil, fmt.Errorf("action marginals: %w", err)
	}
	act, err := action.Select(marginals, a.cfg.ActionSelection, a.cfg.Alpha, a.rng)
	if err != nil {
		return nil, fmt.Errorf("select action: %w", err)
	}

	a.lastAction = act
	cur.Action = append([]int(nil), act...)
	a.step++
	return append([]int(nil), act...), nil
}

// #endregion select-action

// #region accessors

// Beliefs returns a copy of the current per-factor posterior.
func (a *Agent) Beliefs() [][]float64 { return copyBeliefs(a.qs) }

// Policies returns the agent's policy set.
func (a *Agent) Policies() []policy.Policy { return a.policies }

// Controls returns the resolved per-factor action counts.
func (a *Agent) Controls() []int { return append([]int(nil), a.controls...) }

// History returns the agent's cycle log.
func (a *Agent) History() *History { return a.history }

// Step returns the number of completed control cycles.
func (a *Agent) Step() int { return a.step }

// #endregion accessors

// #region helpers

func copyBeliefs(qs [][]float64) [][]float64 {
	out := make([][]float64, len(qs))
	for f := range qs {
		out[f] = append([]float64(nil), qs[f]...)
	}
	return out
}

// #endregion helpers
