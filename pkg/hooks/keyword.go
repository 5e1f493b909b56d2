package hooks

import (
	"log/slog"
	"regexp"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/session"
)

// triggerPatterns flip the one-shot activation flag: explicit memory
// requests, memory inquiries and direct references to project memory.
var triggerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bremember\s+this\b`),
	regexp.MustCompile(`(?i)\bremember\s+that\b`),
	regexp.MustCompile(`(?i)\bdo\s+you\s+know\s+about\b`),
	regexp.MustCompile(`(?i)\bdo\s+you\s+remember\b`),
	regexp.MustCompile(`(?i)\bwhat\s+do\s+you\s+(?:know|remember)\s+about\b`),
	regexp.MustCompile(`(?i)\bproject\s+memory\b`),
	regexp.MustCompile(`(?i)\bsave\s+this\s+for\s+later\b`),
}

// modePatterns map conversational intent phrases to modes. Patterns are
// checked in order; the first match wins for the message. No match leaves
// the session's previous mode in place.
var modePatterns = []struct {
	mode    session.Mode
	pattern *regexp.Regexp
}{
	{session.ModeCreative, regexp.MustCompile(`(?i)\b(?:brainstorm|be\s+creative|creative\s+ideas|think\s+outside\s+the\s+box)\b`)},
	{session.ModeDeepThink, regexp.MustCompile(`(?i)\b(?:think\s+hard|think\s+deeply|think\s+carefully|reason\s+through)\b`)},
	{session.ModeThorough, regexp.MustCompile(`(?i)\b(?:be\s+thorough|thoroughly|exhaustive(?:ly)?|leave\s+no\s+stone\s+unturned|check\s+everything)\b`)},
}

// KeywordHooks scans inbound user messages for memory trigger phrases and
// conversational mode phrases.
//
// Activation is one-way and one-shot per session: the first trigger sets the
// flag, later triggers are no-ops. Mode detection is independent of
// activation and may change on every message.
type KeywordHooks struct {
	states *session.Service
	logger *slog.Logger
}

// NewKeywordHooks creates the keyword hook family.
func NewKeywordHooks(states *session.Service, logger *slog.Logger) *KeywordHooks {
	return &KeywordHooks{
		states: states,
		logger: componentLogger(logger, "keyword-hooks"),
	}
}

// OnMessage handles an inbound user message for a session.
func (h *KeywordHooks) OnMessage(in MessageInput, out *MessageOutput) {
	if in.SessionID == "" || out == nil {
		return
	}
	text := out.Text()
	if text == "" {
		return
	}

	for _, pattern := range triggerPatterns {
		if pattern.MatchString(text) {
			if h.states.Activate(in.SessionID) {
				h.logger.Debug("memory activation triggered", "session", in.SessionID)
			}
			break
		}
	}

	for _, entry := range modePatterns {
		if entry.pattern.MatchString(text) {
			h.states.SetMode(in.SessionID, entry.mode)
			h.logger.Debug("mode detected", "session", in.SessionID, "mode", entry.mode)
			break
		}
	}
}

// IsActivated reports whether the session has seen a trigger phrase.
func (h *KeywordHooks) IsActivated(sessionID string) bool {
	return h.states.IsActivated(sessionID)
}

// Mode returns the session's detected mode.
func (h *KeywordHooks) Mode(sessionID string) session.Mode {
	return h.states.Mode(sessionID)
}
