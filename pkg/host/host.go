// Package host defines the boundary to the agent runtime hosting this
// subsystem.
//
// The runtime's ABI is outside our control, so the contract here is a narrow
// Go interface plus plain data types; the adapter translating to a concrete
// host SDK lives with the embedding application. Keeping the boundary thin
// lets the hook and service layers be tested against fakes.
package host

import (
	"context"
	"errors"
	"strings"
)

// ErrCallFailed indicates a host collaborator operation failed. Hook code
// treats it as a degrade-and-skip signal, never as a reason to fail the
// host's event loop.
var ErrCallFailed = errors.New("host call failed")

// Part types understood by the host's prompt API.
const (
	// PartTypeText is a plain text segment.
	PartTypeText = "text"

	// PartTypeSubtask addresses the prompt to a sub-agent as a follow-up
	// task instead of a user turn.
	PartTypeSubtask = "subtask"
)

// Todo statuses reported by the host.
const (
	TodoStatusPending    = "pending"
	TodoStatusInProgress = "in_progress"
	TodoStatusCompleted  = "completed"
)

// Part is one segment of a message or prompt.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MessageInfo carries message attribution.
type MessageInfo struct {
	// Role is the speaker role: "user", "assistant" or "system".
	Role string `json:"role"`

	// Agent names the agent that produced the message, when known.
	Agent string `json:"agent,omitempty"`
}

// Message is one entry of a session's history.
type Message struct {
	Info  MessageInfo `json:"info"`
	Parts []Part      `json:"parts"`
}

// Text concatenates the message's text parts.
func (m Message) Text() string {
	var sb strings.Builder
	for _, part := range m.Parts {
		if part.Type == PartTypeText && part.Text != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// Todo is one entry of a session's task list.
type Todo struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
}

// Runtime is the set of host operations this subsystem calls.
type Runtime interface {
	// Prompt sends parts to a session's prompt API.
	Prompt(ctx context.Context, sessionID string, parts []Part) error

	// Messages returns a session's message history, oldest first.
	Messages(ctx context.Context, sessionID string) ([]Message, error)

	// Todos returns a session's current task list.
	Todos(ctx context.Context, sessionID string) ([]Todo, error)

	// CreateSession creates a fresh session and returns its ID.
	CreateSession(ctx context.Context) (string, error)
}
