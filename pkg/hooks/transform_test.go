package hooks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/hooks"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/host"
)

func agentMessage(agent, text string) host.Message {
	return host.Message{
		Info:  host.MessageInfo{Role: "assistant", Agent: agent},
		Parts: []host.Part{{Type: host.PartTypeText, Text: text}},
	}
}

func TestTransformHooks_InjectsReminderIntoLastPlanningMessage(t *testing.T) {
	th := hooks.NewTransformHooks("plan", nil)

	out := &hooks.TransformOutput{Messages: []host.Message{
		agentMessage("plan", "first plan turn"),
		agentMessage("build", "build turn"),
		agentMessage("plan", "second plan turn"),
	}}
	th.OnTransform(context.Background(), hooks.TransformInput{SessionID: "s1"}, out)

	// Only the most recent planning message gets the reminder.
	require.Len(t, out.Messages[2].Parts, 2)
	assert.Contains(t, out.Messages[2].Parts[1].Text, "system-reminder")
	assert.Len(t, out.Messages[0].Parts, 1)
	assert.Len(t, out.Messages[1].Parts, 1)
}

func TestTransformHooks_NoPlanningMessages(t *testing.T) {
	th := hooks.NewTransformHooks("plan", nil)

	out := &hooks.TransformOutput{Messages: []host.Message{
		agentMessage("build", "build turn"),
	}}
	th.OnTransform(context.Background(), hooks.TransformInput{SessionID: "s1"}, out)

	assert.Len(t, out.Messages[0].Parts, 1)
}

func TestTransformHooks_DefaultPlanningAgent(t *testing.T) {
	th := hooks.NewTransformHooks("", nil)

	out := &hooks.TransformOutput{Messages: []host.Message{
		agentMessage(hooks.DefaultPlanningAgent, "plan turn"),
	}}
	th.OnTransform(context.Background(), hooks.TransformInput{SessionID: "s1"}, out)

	require.Len(t, out.Messages[0].Parts, 2)
	assert.Contains(t, out.Messages[0].Parts[1].Text, "Do not edit")
}

func TestTransformHooks_NilOutputIsSafe(t *testing.T) {
	th := hooks.NewTransformHooks("plan", nil)

	assert.NotPanics(t, func() {
		th.OnTransform(context.Background(), hooks.TransformInput{SessionID: "s1"}, nil)
	})
}
