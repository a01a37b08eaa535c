package query

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nateschmiedehaus/librarian-sub012/internal/apperrors"
	"github.com/nateschmiedehaus/librarian-sub012/internal/ids"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// Session accumulates context packs and exploration state across
// follow-ups (spec.md §3 Session, §4.H).
type Session struct {
	ID              string
	History         []string
	Packs           []types.ContextPack
	ExploredEntities map[string]bool
	FocusArea       string
	CreatedAt       time.Time
	LastActivityAt  time.Time
}

// clone returns a value copy safe to hand to a retrieval run without
// exposing the live session to concurrent mutation.
func (s *Session) clone() Session {
	cp := *s
	cp.History = append([]string(nil), s.History...)
	cp.Packs = append([]types.ContextPack(nil), s.Packs...)
	cp.ExploredEntities = make(map[string]bool, len(s.ExploredEntities))
	for k, v := range s.ExploredEntities {
		cp.ExploredEntities[k] = v
	}
	return cp
}

// ManagerConfig bounds the session manager's lifecycle and capacity
// (spec.md §4.H; config.SessionConfig sessionTtlMs/maxSessions/maxPacksPerSession).
type ManagerConfig struct {
	SessionTTL         time.Duration
	MaxSessions        int
	MaxPacksPerSession int
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 100
	}
	if c.MaxPacksPerSession <= 0 {
		c.MaxPacksPerSession = 50
	}
	return c
}

// Manager enforces spec.md §4.H's session concurrency contract: atomic
// maxSessions admission, per-session single-flight serialization of
// follow-ups, TTL eviction checked on every touch, and a per-session pack
// cap. Grounded on the teacher's internal/session/spawner.go
// mutex-guarded active-count enforcement, generalized with a TTL and a
// per-session single-flight group (golang.org/x/sync/singleflight is
// already a teacher dependency; this is a new call site for it).
type Manager struct {
	cfg      ManagerConfig
	mu       sync.Mutex
	sessions map[string]*Session
	flight   singleflight.Group
}

// NewManager returns a Manager with cfg's zero fields defaulted.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{cfg: cfg.withDefaults(), sessions: make(map[string]*Session)}
}

func (m *Manager) evictExpiredLocked(now time.Time) {
	for id, s := range m.sessions {
		if now.Sub(s.LastActivityAt) > m.cfg.SessionTTL {
			delete(m.sessions, id)
		}
	}
}

// Start admits a new session if the live-session count (after TTL
// eviction) is under MaxSessions; the admission check and the map
// insert happen under the same lock, so concurrent Start calls cannot
// both observe room for the last slot (spec.md §4.H: "a second start
// that would exceed the cap rejects ... the underlying retrieval MUST
// NOT run for the rejected call" — callers must check the error before
// running retrieval, which Start alone guarantees by doing no retrieval
// itself).
func (m *Manager) Start(now time.Time) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictExpiredLocked(now)
	if len(m.sessions) >= m.cfg.MaxSessions {
		return nil, apperrors.New(apperrors.CodeContextSessionLimitExceeded, "max concurrent sessions reached")
	}

	s := &Session{
		ID:               ids.NewSessionID(),
		ExploredEntities: make(map[string]bool),
		CreatedAt:        now,
		LastActivityAt:   now,
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *Manager) touch(id string, now time.Time) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictExpiredLocked(now)
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeContextSessionMissing, "no such session: "+id)
	}
	return s, nil
}

// Snapshot returns a read-only copy of a live session's state.
func (m *Manager) Snapshot(id string) (Session, error) {
	s, err := m.touch(id, time.Now())
	if err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return s.clone(), nil
}

// RunFunc produces new packs for a follow-up question given a read-only
// snapshot of session state; it must not mutate shared state itself.
// RunFunc produces new packs (plus caller-defined metadata, e.g. stage
// reports or an average score, not persisted on the session) for a
// follow-up question given a read-only snapshot.
type RunFunc func(snapshot Session) ([]types.ContextPack, interface{}, error)

type followupResult struct {
	packs []types.ContextPack
	meta  interface{}
}

// Followup serializes same-session calls via single-flight, validates
// the question, runs fn against a read-only snapshot, and only commits
// the new packs/history to the live session if fn succeeds and the
// result stays within MaxPacksPerSession — an all-or-nothing apply, per
// spec.md §4.H's "failed follow-ups must not mutate session state".
// Single-flight dedups concurrent same-session calls onto one fn
// invocation; every caller waiting on that key receives the same
// (packs, meta) pair.
func (m *Manager) Followup(sessionID, question string, fn RunFunc) ([]types.ContextPack, interface{}, error) {
	if strings.TrimSpace(question) == "" {
		return nil, nil, apperrors.New(apperrors.CodeContextSessionQuestionInvalid, "follow-up question must not be blank")
	}

	v, err, _ := m.flight.Do(sessionID, func() (interface{}, error) {
		now := time.Now()
		s, err := m.touch(sessionID, now)
		if err != nil {
			return nil, err
		}
		snap := s.clone()

		newPacks, meta, err := fn(snap)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		live, ok := m.sessions[sessionID]
		if !ok {
			return nil, apperrors.New(apperrors.CodeContextSessionMissing, "session expired during follow-up: "+sessionID)
		}
		if len(live.Packs)+len(newPacks) > m.cfg.MaxPacksPerSession {
			return nil, apperrors.New(apperrors.CodeContextSessionPackLimitExceeded, "session pack limit exceeded")
		}

		live.History = append(live.History, question)
		live.Packs = append(live.Packs, newPacks...)
		live.LastActivityAt = time.Now()
		return followupResult{packs: newPacks, meta: meta}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	res := v.(followupResult)
	return res.packs, res.meta, nil
}

// End removes a session early, freeing its slot before TTL expiry.
func (m *Manager) End(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Stats reports the manager's current occupancy ([FULL] addition,
// SPEC_FULL.md §4, item 6 — the distilled spec names limits but not an
// introspection surface; an engine embedding this needs one to decide
// when to shed load).
type Stats struct {
	ActiveSessions int
	MaxSessions    int
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictExpiredLocked(time.Now())
	return Stats{ActiveSessions: len(m.sessions), MaxSessions: m.cfg.MaxSessions}
}
