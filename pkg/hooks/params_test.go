package hooks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/hooks"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/session"
)

func TestParamsHooks_CreativeSetsTemperatureOnly(t *testing.T) {
	states := session.NewService()
	states.SetMode("s1", session.ModeCreative)
	ph := hooks.NewParamsHooks(states)

	out := &hooks.ModelParams{}
	ph.OnParams(hooks.ParamsInput{SessionID: "s1"}, out)

	require.NotNil(t, out.Temperature)
	assert.Equal(t, hooks.CreativeTemperature, *out.Temperature)
	assert.Nil(t, out.MaxSteps)
	assert.Nil(t, out.Options)
}

func TestParamsHooks_DeepThinkSetsBudgetOnly(t *testing.T) {
	states := session.NewService()
	states.SetMode("s1", session.ModeDeepThink)
	ph := hooks.NewParamsHooks(states)

	out := &hooks.ModelParams{}
	ph.OnParams(hooks.ParamsInput{SessionID: "s1"}, out)

	require.NotNil(t, out.Options)
	require.NotNil(t, out.Options.Thinking)
	assert.Equal(t, hooks.DeepThinkBudgetTokens, out.Options.Thinking.BudgetTokens)
	assert.Nil(t, out.Temperature)
	assert.Nil(t, out.MaxSteps)
}

func TestParamsHooks_DeepThinkKeepsExistingOptions(t *testing.T) {
	states := session.NewService()
	states.SetMode("s1", session.ModeDeepThink)
	ph := hooks.NewParamsHooks(states)

	existing := &hooks.ModelOptions{}
	out := &hooks.ModelParams{Options: existing}
	ph.OnParams(hooks.ParamsInput{SessionID: "s1"}, out)

	assert.Same(t, existing, out.Options)
	require.NotNil(t, out.Options.Thinking)
}

func TestParamsHooks_ThoroughSetsMaxStepsOnly(t *testing.T) {
	states := session.NewService()
	states.SetMode("s1", session.ModeThorough)
	ph := hooks.NewParamsHooks(states)

	out := &hooks.ModelParams{}
	ph.OnParams(hooks.ParamsInput{SessionID: "s1"}, out)

	require.NotNil(t, out.MaxSteps)
	assert.Equal(t, hooks.ThoroughMaxSteps, *out.MaxSteps)
	assert.Nil(t, out.Temperature)
	assert.Nil(t, out.Options)
}

func TestParamsHooks_NormalLeavesParamsUntouched(t *testing.T) {
	states := session.NewService()
	ph := hooks.NewParamsHooks(states)

	out := &hooks.ModelParams{}
	ph.OnParams(hooks.ParamsInput{SessionID: "never-seen"}, out)

	assert.Equal(t, &hooks.ModelParams{}, out)
}

func TestParamsHooks_EndToEndWithKeywordDetection(t *testing.T) {
	states := session.NewService()
	kw := hooks.NewKeywordHooks(states, nil)
	ph := hooks.NewParamsHooks(states)

	kw.OnMessage(hooks.MessageInput{SessionID: "s1"}, messageOutput("Brainstorm some ideas"))

	out := &hooks.ModelParams{}
	ph.OnParams(hooks.ParamsInput{SessionID: "s1"}, out)

	require.NotNil(t, out.Temperature)
	assert.Equal(t, 0.8, *out.Temperature)
	assert.Nil(t, out.MaxSteps)
	assert.Nil(t, out.Options)
}
