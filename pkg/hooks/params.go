package hooks

import (
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/session"
)

// Parameter overrides per mode.
const (
	// CreativeTemperature is the sampling temperature for creative mode.
	CreativeTemperature = 0.8

	// DeepThinkBudgetTokens is the reasoning token budget for deepThink mode.
	DeepThinkBudgetTokens = 32000

	// ThoroughMaxSteps is the step ceiling for thorough mode.
	ThoroughMaxSteps = 50
)

// ParamsHooks maps a session's detected mode to model-invocation parameter
// overrides. The mapping is pure: only the field relevant to the active mode
// is set, and normal mode leaves the output untouched entirely.
type ParamsHooks struct {
	states *session.Service
}

// NewParamsHooks creates the params hook family.
func NewParamsHooks(states *session.Service) *ParamsHooks {
	return &ParamsHooks{states: states}
}

// OnParams applies the session's mode to the parameter set under assembly.
func (h *ParamsHooks) OnParams(in ParamsInput, out *ModelParams) {
	if out == nil {
		return
	}

	switch h.states.Mode(in.SessionID) {
	case session.ModeCreative:
		temperature := CreativeTemperature
		out.Temperature = &temperature
	case session.ModeDeepThink:
		if out.Options == nil {
			out.Options = &ModelOptions{}
		}
		out.Options.Thinking = &ThinkingBudget{BudgetTokens: DeepThinkBudgetTokens}
	case session.ModeThorough:
		maxSteps := ThoroughMaxSteps
		out.MaxSteps = &maxSteps
	}
}
