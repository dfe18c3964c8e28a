package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/action"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/agent"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/model"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a recorded run: the generative
// model, the agent configuration, the observation sequence, and optionally
// the actions the original run selected.
type Fixture struct {
	Description     string        `json:"description"`
	Model           FixtureModel  `json:"model"`
	Config          FixtureConfig `json:"config"`
	Observations    [][]int       `json:"observations"`
	ExpectedActions [][]int       `json:"expected_actions,omitempty"`
}

// FixtureModel mirrors model.Model with JSON tags and flat tensor data.
type FixtureModel struct {
	NumStates []int               `json:"num_states"`
	NumObs    []int               `json:"num_obs"`
	A         []FixtureLikelihood `json:"a"`
	B         []FixtureTransition `json:"b"`
	C         [][]float64         `json:"c"`
	D         [][]float64         `json:"d"`
	E         []float64           `json:"e,omitempty"`
}

// FixtureLikelihood is one modality's likelihood tensor, observation-major.
type FixtureLikelihood struct {
	Data []float64 `json:"data"`
}

// FixtureTransition is one factor's transition tensor, (next, current,
// action)-indexed.
type FixtureTransition struct {
	NumActions int       `json:"num_actions"`
	Data       []float64 `json:"data"`
}

// FixtureConfig mirrors agent.Config with JSON tags.
type FixtureConfig struct {
	PolicyLen         int     `json:"policy_len"`
	NumControls       []int   `json:"num_controls,omitempty"`
	ControlFactors    []int   `json:"control_factors,omitempty"`
	UseUtility        bool    `json:"use_utility"`
	UseStatesInfoGain bool    `json:"use_states_info_gain"`
	ActionSelection   string  `json:"action_selection"`
	Gamma             float64 `json:"gamma"`
	Alpha             float64 `json:"alpha"`
	Seed              int64   `json:"seed"`
}

// #endregion fixture-types

// #region fixture-io

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// SaveFixture writes a fixture as indented JSON.
func SaveFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-io

// #region conversions

// ToModel converts the fixture model into a validated domain model.
func (fm *FixtureModel) ToModel() (model.Model, error) {
	m := model.Model{
		NumStates: fm.NumStates,
		NumObs:    fm.NumObs,
		C:         fm.C,
		D:         fm.D,
		E:         fm.E,
	}
	for i, fa := range fm.A {
		numObs := 0
		if i < len(fm.NumObs) {
			numObs = fm.NumObs[i]
		}
		m.A = append(m.A, model.Likelihood{
			NumObs:      numObs,
			FactorSizes: fm.NumStates,
			Data:        fa.Data,
		})
	}
	for f, fb := range fm.B {
		numStates := 0
		if f < len(fm.NumStates) {
			numStates = fm.NumStates[f]
		}
		m.B = append(m.B, model.Transition{
			NumStates:  numStates,
			NumActions: fb.NumActions,
			Data:       fb.Data,
		})
	}
	if err := m.Validate(); err != nil {
		return model.Model{}, err
	}
	return m, nil
}

// ToConfig converts the fixture config to a domain agent config.
func (fc *FixtureConfig) ToConfig() agent.Config {
	return agent.Config{
		PolicyLen:         fc.PolicyLen,
		NumControls:       fc.NumControls,
		ControlFactors:    fc.ControlFactors,
		UseUtility:        fc.UseUtility,
		UseStatesInfoGain: fc.UseStatesInfoGain,
		ActionSelection:   action.Mode(fc.ActionSelection),
		Gamma:             fc.Gamma,
		Alpha:             fc.Alpha,
		Seed:              fc.Seed,
	}
}

// NewAgent builds a fresh agent from the fixture's model and config.
func (f *Fixture) NewAgent() (*agent.Agent, error) {
	m, err := f.Model.ToModel()
	if err != nil {
		return nil, fmt.Errorf("fixture model: %w", err)
	}
	a, err := agent.New(m, f.Config.ToConfig())
	if err != nil {
		return nil, fmt.Errorf("fixture agent: %w", err)
	}
	return a, nil
}

// #endregion conversions
