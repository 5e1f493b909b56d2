package hooks

import (
	"context"
	"log/slog"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/host"
)

// DefaultPlanningAgent is the agent role whose messages receive the no-edit
// reminder.
const DefaultPlanningAgent = "plan"

const planningReminder = "<system-reminder>You are in planning mode. " +
	"Do not edit, create or delete files; produce a plan only.</system-reminder>"

// TransformHooks rewrites the outgoing message stream before it reaches the
// model.
type TransformHooks struct {
	planningAgent string
	logger        *slog.Logger
}

// NewTransformHooks creates the message transform hook. An empty agent name
// means DefaultPlanningAgent.
func NewTransformHooks(planningAgent string, logger *slog.Logger) *TransformHooks {
	if planningAgent == "" {
		planningAgent = DefaultPlanningAgent
	}
	return &TransformHooks{
		planningAgent: planningAgent,
		logger:        componentLogger(logger, "transform-hooks"),
	}
}

// OnTransform appends a synthetic system-reminder part to the most recent
// message from the planning agent. Earlier messages from the same agent are
// left alone so the reminder does not accumulate across turns.
func (h *TransformHooks) OnTransform(ctx context.Context, in TransformInput, out *TransformOutput) {
	if out == nil {
		return
	}

	for i := len(out.Messages) - 1; i >= 0; i-- {
		if out.Messages[i].Info.Agent != h.planningAgent {
			continue
		}
		out.Messages[i].Parts = append(out.Messages[i].Parts, host.Part{
			Type: host.PartTypeText,
			Text: planningReminder,
		})
		h.logger.Debug("injected planning reminder", "session", in.SessionID)
		return
	}
}
