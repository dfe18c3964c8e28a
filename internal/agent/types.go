package agent

import (
	"fmt"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/action"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/policy"
)

// #region config

// Config holds the recognized agent options. Zero values are filled in by
// validation; NumControls and ControlFactors may stay nil to let the policy
// enumerator infer them from the state-space sizes.
type Config struct {
	PolicyLen         int         // policy horizon, >= 1
	NumControls       []int       // per-factor action counts, nil = infer
	ControlFactors    []int       // controllable factor indices, nil = infer
	UseUtility        bool        // pragmatic term in expected free energy
	UseStatesInfoGain bool        // epistemic term in expected free energy
	ActionSelection   action.Mode // deterministic | stochastic
	Gamma             float64     // policy precision
	Alpha             float64     // action-selection precision
	HistoryCap        int         // max retained cycles, <= 0 = default
	Seed              int64       // RNG seed for stochastic selection
}

// DefaultConfig returns the standard single-step, both-terms configuration.
func DefaultConfig() Config {
	return Config{
		PolicyLen:         1,
		UseUtility:        true,
		UseStatesInfoGain: true,
		ActionSelection:   action.Deterministic,
		Gamma:             16.0,
		Alpha:             16.0,
		HistoryCap:        1024,
		Seed:              1,
	}
}

// withDefaults fills unset fields and validates the rest, returning the
// resolved config rather than printing warnings.
func (c Config) withDefaults() (Config, error) {
	def := DefaultConfig()
	if c.PolicyLen == 0 {
		c.PolicyLen = def.PolicyLen
	}
	if c.PolicyLen < 1 {
		return Config{}, fmt.Errorf("%w: policy length %d", policy.ErrInvalidConfiguration, c.PolicyLen)
	}
	if c.ActionSelection == "" {
		c.ActionSelection = def.ActionSelection
	}
	if _, err := action.ParseMode(string(c.ActionSelection)); err != nil {
		return Config{}, err
	}
	if c.Gamma == 0 {
		c.Gamma = def.Gamma
	}
	if c.Gamma < 0 {
		return Config{}, fmt.Errorf("%w: gamma %f", policy.ErrInvalidConfiguration, c.Gamma)
	}
	if c.Alpha == 0 {
		c.Alpha = def.Alpha
	}
	if c.Alpha < 0 {
		return Config{}, fmt.Errorf("%w: alpha %f", policy.ErrInvalidConfiguration, c.Alpha)
	}
	if c.HistoryCap <= 0 {
		c.HistoryCap = def.HistoryCap
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	return c, nil
}

// #endregion config

// #region cycle

// Cycle records everything produced in one control cycle. Fields fill in as
// the pipeline advances: InferStates sets Observation/Prior/Posterior,
// InferPolicies sets QPi/G, SelectAction sets Action.
type Cycle struct {
	Step        int
	Observation []int
	Prior       [][]float64
	Posterior   [][]float64
	QPi         []float64
	G           []float64
	Action      []int
}

// #endregion cycle

// #region history

// History is a bounded append-only log of control cycles. When the cap is
// reached the oldest cycle is dropped, so long-running agents do not grow
// without bound.
type History struct {
	cycles []Cycle
	cap    int
}

// NewHistory creates a history retaining at most cap cycles.
func NewHistory(cap int) *History {
	return &History{cap: cap}
}

func (h *History) append(c Cycle) {
	h.cycles = append(h.cycles, c)
	if h.cap > 0 && len(h.cycles) > h.cap {
		h.cycles = h.cycles[1:]
	}
}

// last returns the most recent cycle for in-place completion. Nil when empty.
func (h *History) last() *Cycle {
	if len(h.cycles) == 0 {
		return nil
	}
	return &h.cycles[len(h.cycles)-1]
}

// Len returns the number of retained cycles.
func (h *History) Len() int {
	return len(h.cycles)
}

// Cycles returns a copy of the retained cycles, oldest first.
func (h *History) Cycles() []Cycle {
	out := make([]Cycle, len(h.cycles))
	copy(out, h.cycles)
	return out
}

// #endregion history
