package service

import (
	"sync"
	"time"

	"github.com/Zarutan454/website-Template-sub013/internal/models"
)

// SessionStore holds the authoritative mining state shared by the accrual
// engine, the decay tracker and the HTTP surface. Only the reconciliation
// path and explicit start/stop go through its write methods; consumers
// read copies via Snapshot.
type SessionStore struct {
	mu    sync.RWMutex
	state models.SessionSnapshot
}

func NewSessionStore(userID uint64) *SessionStore {
	return &SessionStore{
		state: models.SessionSnapshot{UserID: userID},
	}
}

// Snapshot returns a copy of the current authoritative state.
func (s *SessionStore) Snapshot() models.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ApplyServerState replaces the authoritative fields with a fresh server
// confirmation. A nil session row means the user has never mined; the
// store keeps its zero-value state in that case.
func (s *SessionStore) ApplyServerState(session *models.MiningSession) {
	if session == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsMining = session.IsMining
	s.state.AccumulatedTokens = session.AccumulatedTokens
	s.state.CurrentRatePerMinute = session.CurrentRatePerMinute
	if session.LastHeartbeat.Valid {
		s.state.LastHeartbeat = session.LastHeartbeat.Time
	} else {
		// Absent heartbeat timestamp: interpolation treats now as the
		// reference point rather than failing.
		s.state.LastHeartbeat = time.Time{}
	}
}

// SetMining flips the active flag on explicit start/stop, before the next
// reconciliation confirms it.
func (s *SessionStore) SetMining(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsMining = active
	if active && s.state.LastHeartbeat.IsZero() {
		s.state.LastHeartbeat = time.Now()
	}
}
