package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/host"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/memory"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/session"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage"
)

// EventSessionCompacted is the host event emitted after a session's context
// has been compacted.
const EventSessionCompacted = "session.compacted"

// DefaultContextCap limits how many memories are injected into compaction
// context.
const DefaultContextCap = 50

// SessionHooks orchestrates compaction-time context injection and
// post-compaction memory extraction.
//
// On compaction the project's memories are grouped by scope and appended to
// the outgoing context. After compaction, a follow-up extraction prompt is
// dispatched to a memory sub-agent so durable facts from the summary are
// persisted. All host failures degrade to skipped work; nothing propagates
// back into the host's event loop.
type SessionHooks struct {
	projectID  string
	memories   *memory.Service
	runtime    host.Runtime
	dispatcher *Dispatcher
	states     *session.Service
	logger     *slog.Logger
	contextCap int
}

// NewSessionHooks creates the session hook family. A zero contextCap means
// DefaultContextCap.
func NewSessionHooks(projectID string, memories *memory.Service, runtime host.Runtime, dispatcher *Dispatcher, states *session.Service, logger *slog.Logger, contextCap int) *SessionHooks {
	if contextCap <= 0 {
		contextCap = DefaultContextCap
	}
	return &SessionHooks{
		projectID:  projectID,
		memories:   memories,
		runtime:    runtime,
		dispatcher: dispatcher,
		states:     states,
		logger:     componentLogger(logger, "session-hooks"),
		contextCap: contextCap,
	}
}

// OnCompacting appends a "Project Memory" section to the compaction context.
//
// The section groups the project's memories by scope, most-accessed first
// within each group. When the project has no memories the context is left
// untouched: no empty section is emitted.
func (h *SessionHooks) OnCompacting(ctx context.Context, in CompactingInput, out *CompactingOutput) {
	if out == nil {
		return
	}

	memories, err := h.memories.List(ctx, h.projectID, &storage.ListOptions{Limit: h.contextCap})
	if err != nil {
		h.logger.Warn("skipping memory context injection", "session", in.SessionID, "error", err)
		return
	}
	if len(memories) == 0 {
		return
	}

	out.Context = append(out.Context, formatMemorySection(memories))
}

// formatMemorySection renders memories grouped by scope.
func formatMemorySection(memories []*storage.Memory) string {
	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].AccessCount > memories[j].AccessCount
	})

	grouped := make(map[string][]*storage.Memory)
	var scopes []string
	for _, m := range memories {
		if _, seen := grouped[m.Scope]; !seen {
			scopes = append(scopes, m.Scope)
		}
		grouped[m.Scope] = append(grouped[m.Scope], m)
	}
	sort.Strings(scopes)

	var sb strings.Builder
	sb.WriteString("# Project Memory\n")
	sb.WriteString("Durable facts recorded for this project. Honor them unless the user overrides.\n")
	for _, scope := range scopes {
		sb.WriteString(fmt.Sprintf("\n## %s\n", scope))
		for _, m := range grouped[scope] {
			sb.WriteString("- " + m.Content + "\n")
		}
	}
	return sb.String()
}

// OnEvent reacts to host lifecycle events. Only session.compacted is
// handled: it triggers the asynchronous memory extraction workflow.
func (h *SessionHooks) OnEvent(ctx context.Context, in EventInput) {
	if in.Event.Type != EventSessionCompacted {
		return
	}
	if h.runtime == nil {
		h.logger.Debug("no host runtime configured, skipping extraction")
		return
	}

	sessionID, _ := in.Event.Properties["sessionId"].(string)
	if sessionID == "" {
		h.logger.Debug("compaction event without session id, skipping extraction")
		return
	}

	summary, ok := h.locateSummary(ctx, sessionID)
	if !ok {
		return
	}

	resume, ok := h.resumeInstruction(ctx, sessionID)
	if !ok {
		return
	}

	requestID := uuid.NewString()
	prompt := buildExtractionPrompt(requestID, summary, resume)
	h.logger.Info("dispatching memory extraction", "session", sessionID, "request", requestID)

	// Exactly one dispatch per compaction event; the hook returns without
	// waiting for the round-trip.
	h.dispatcher.Dispatch("memory-extraction", func(taskCtx context.Context) error {
		parts := []host.Part{{Type: host.PartTypeSubtask, Text: prompt}}
		if err := h.runtime.Prompt(taskCtx, sessionID, parts); err != nil {
			return fmt.Errorf("%w: prompt %s: %v", host.ErrCallFailed, requestID, err)
		}
		// No-op if the session state was cleared while the prompt was in
		// flight; dead sessions are never resurrected.
		h.states.SetCompactionSnapshot(sessionID, summary)
		return nil
	})
}

// locateSummary finds the most recent assistant message carrying text: the
// compaction summary. The second return is false when extraction should be
// skipped.
func (h *SessionHooks) locateSummary(ctx context.Context, sessionID string) (string, bool) {
	messages, err := h.runtime.Messages(ctx, sessionID)
	if err != nil {
		h.logger.Warn("failed to fetch session messages, skipping extraction",
			"session", sessionID, "error", err)
		return "", false
	}

	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Info.Role != "assistant" {
			continue
		}
		if text := messages[i].Text(); text != "" {
			return text, true
		}
	}

	h.logger.Debug("no compaction summary found, skipping extraction", "session", sessionID)
	return "", false
}

// resumeInstruction checks the session's todos for in-progress work. The
// second return is false when extraction should be skipped.
func (h *SessionHooks) resumeInstruction(ctx context.Context, sessionID string) (string, bool) {
	todos, err := h.runtime.Todos(ctx, sessionID)
	if err != nil {
		h.logger.Warn("failed to fetch session todos, skipping extraction",
			"session", sessionID, "error", err)
		return "", false
	}

	for _, todo := range todos {
		if todo.Status == host.TodoStatusInProgress {
			return "After recording memories, resume the in-progress task where it left off.", true
		}
	}
	return "", true
}

// buildExtractionPrompt assembles the sub-agent request. The request ID is
// part of the payload so each extraction run is distinguishable when a
// session compacts repeatedly.
func buildExtractionPrompt(requestID, summary, resume string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Extraction request %s.\n", requestID)
	sb.WriteString("Review the compaction summary below and persist durable project facts ")
	sb.WriteString("(conventions, decisions, important context) to project memory.\n\n")
	sb.WriteString("Compaction summary:\n")
	sb.WriteString(summary)
	sb.WriteString("\n\nDo not edit, create or delete any files; only record memories.")
	if resume != "" {
		sb.WriteString("\n")
		sb.WriteString(resume)
	}
	return sb.String()
}
