// Package session tracks ephemeral per-session state for the hook layer.
//
// State lives for the process lifetime (or until explicitly cleared) and is
// never persisted. The host runtime serializes calls for a single session but
// may invoke hooks for different sessions concurrently, so the state map is
// guarded by a mutex.
package session

import "sync"

// Mode is a per-session conversational intent classification affecting
// model parameters.
type Mode string

const (
	// ModeNormal applies no parameter overrides.
	ModeNormal Mode = "normal"

	// ModeCreative raises sampling temperature for open-ended work.
	ModeCreative Mode = "creative"

	// ModeDeepThink grants an extended reasoning token budget.
	ModeDeepThink Mode = "deepThink"

	// ModeThorough raises the step ceiling for exhaustive passes.
	ModeThorough Mode = "thorough"
)

// State is the ephemeral record kept per session.
type State struct {
	// Activated is a one-shot flag set when a memory trigger phrase is seen.
	Activated bool

	// Mode is the detected conversational mode. Defaults to ModeNormal.
	Mode Mode

	// PlanningState is an opaque snapshot of in-progress planning, settable
	// by external collaborators.
	PlanningState any

	// CompactionSnapshot references the last known compaction summary.
	CompactionSnapshot string
}

// Service owns the session state arena. It replaces an ambient global map
// with an explicit, injectable container.
type Service struct {
	mu     sync.RWMutex
	states map[string]*State
}

// NewService constructs an empty state service.
func NewService() *Service {
	return &Service{states: make(map[string]*State)}
}

// Activate sets the one-shot activation flag, creating the session entry if
// needed. It reports whether the flag was newly set; repeat calls are no-ops.
func (s *Service) Activate(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.getOrCreateLocked(sessionID)
	if state.Activated {
		return false
	}
	state.Activated = true
	return true
}

// IsActivated reports whether the session has seen a trigger phrase.
func (s *Service) IsActivated(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[sessionID]
	return ok && state.Activated
}

// SetMode records the detected mode, creating the session entry if needed.
func (s *Service) SetMode(sessionID string, mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(sessionID).Mode = mode
}

// Mode returns the session's current mode, ModeNormal when unknown.
func (s *Service) Mode(sessionID string) Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if state, ok := s.states[sessionID]; ok {
		return state.Mode
	}
	return ModeNormal
}

// SetPlanningState stores an opaque planning snapshot, creating the session
// entry if needed.
func (s *Service) SetPlanningState(sessionID string, planning any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(sessionID).PlanningState = planning
}

// PlanningState returns the session's planning snapshot, nil when unset.
func (s *Service) PlanningState(sessionID string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if state, ok := s.states[sessionID]; ok {
		return state.PlanningState
	}
	return nil
}

// SetCompactionSnapshot records the last compaction summary reference.
//
// This is the landing point for asynchronous work, so it deliberately does
// NOT create the entry: a result arriving after the session was cleared is
// discarded rather than resurrecting dead state.
func (s *Service) SetCompactionSnapshot(sessionID, snapshot string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.states[sessionID]; ok {
		state.CompactionSnapshot = snapshot
	}
}

// CompactionSnapshot returns the session's last compaction summary reference.
func (s *Service) CompactionSnapshot(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if state, ok := s.states[sessionID]; ok {
		return state.CompactionSnapshot
	}
	return ""
}

// Snapshot returns a copy of the session's state and whether it exists.
func (s *Service) Snapshot(sessionID string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if state, ok := s.states[sessionID]; ok {
		return *state, true
	}
	return State{}, false
}

// Clear drops a session's state.
func (s *Service) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
}

// Reset drops all session state.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]*State)
}

// Len returns the number of tracked sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// getOrCreateLocked allocates the session entry if missing; caller must hold
// the write lock.
func (s *Service) getOrCreateLocked(sessionID string) *State {
	state, ok := s.states[sessionID]
	if !ok {
		state = &State{Mode: ModeNormal}
		s.states[sessionID] = state
	}
	return state
}
