// Package hooks implements the session lifecycle hooks the host runtime
// invokes: keyword activation and mode detection, model parameter overrides,
// compaction-time context injection and post-compaction memory extraction.
//
// Each hook family is a separate component behind a narrow surface, composed
// by a single Registry. Hooks never propagate errors back into the host's
// event loop: failures are logged and the invocation degrades to a no-op.
package hooks

import (
	"log/slog"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/host"
)

// MessageInput identifies the session an inbound message belongs to.
type MessageInput struct {
	SessionID string
}

// MessageOutput carries the inbound message content being assembled by the
// host. Hooks read it; this subsystem does not rewrite message text.
type MessageOutput struct {
	Message string
	Parts   []host.Part
}

// Text returns the combined message text.
func (o *MessageOutput) Text() string {
	text := o.Message
	for _, part := range o.Parts {
		if part.Type == host.PartTypeText && part.Text != "" {
			if text != "" {
				text += "\n"
			}
			text += part.Text
		}
	}
	return text
}

// ParamsInput identifies the session and agent a parameter assembly is for.
type ParamsInput struct {
	SessionID string
	Agent     string
}

// ThinkingBudget is the extended-reasoning token allowance.
type ThinkingBudget struct {
	BudgetTokens int `json:"budgetTokens"`
}

// ModelOptions is the nested option block of model parameters.
type ModelOptions struct {
	Thinking *ThinkingBudget `json:"thinking,omitempty"`
}

// ModelParams is the mutable model-invocation parameter set. Fields are
// pointers so an untouched field is distinguishable from an explicit zero;
// hooks set only the fields their mode calls for.
type ModelParams struct {
	Temperature *float64      `json:"temperature,omitempty"`
	MaxSteps    *int          `json:"maxSteps,omitempty"`
	Options     *ModelOptions `json:"options,omitempty"`
}

// CompactingInput identifies the session being compacted.
type CompactingInput struct {
	SessionID string
}

// CompactingOutput is the compaction context under assembly; hooks append
// sections in place.
type CompactingOutput struct {
	Context []string
}

// Event is a generic host lifecycle event.
type Event struct {
	Type       string
	Properties map[string]any
}

// EventInput wraps a host event delivery.
type EventInput struct {
	Event Event
}

// TransformInput identifies the session whose messages are being transformed.
type TransformInput struct {
	SessionID string
}

// TransformOutput is the message list under assembly; hooks mutate it in
// place.
type TransformOutput struct {
	Messages []host.Message
}

// Registry composes the hook families into the single set of entry points
// the host adapter registers.
type Registry struct {
	Keyword   *KeywordHooks
	Params    *ParamsHooks
	Session   *SessionHooks
	Transform *TransformHooks
}

// NewRegistry wires the hook families together.
func NewRegistry(keyword *KeywordHooks, params *ParamsHooks, session *SessionHooks, transform *TransformHooks) *Registry {
	return &Registry{
		Keyword:   keyword,
		Params:    params,
		Session:   session,
		Transform: transform,
	}
}

// componentLogger scopes a logger to a hook family.
func componentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", component)
}
