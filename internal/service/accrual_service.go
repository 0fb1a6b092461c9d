package service

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/Zarutan454/website-Template-sub013/internal/constants"
	"github.com/Zarutan454/website-Template-sub013/internal/models"
)

// AccrualService produces the smoothly increasing displayed token count
// between authoritative server updates. Interpolation is cosmetic: it never
// persists, and it snaps to the server value whenever a fresh confirmation
// arrives.
type AccrualService struct {
	store *SessionStore

	mu        sync.RWMutex
	displayed float64

	tickerMu sync.Mutex
	cancel   context.CancelFunc
}

func NewAccrualService(store *SessionStore) *AccrualService {
	return &AccrualService{store: store}
}

// ComputeDisplayValue interpolates the token balance at the given time.
// Not mining, or a non-positive rate, pins the output to the confirmed
// total. A zero heartbeat timestamp counts as zero elapsed time.
func ComputeDisplayValue(snapshot models.SessionSnapshot, now time.Time) float64 {
	if !snapshot.IsMining || snapshot.CurrentRatePerMinute <= 0 {
		return snapshot.AccumulatedTokens
	}

	reference := snapshot.LastHeartbeat
	if reference.IsZero() {
		reference = now
	}

	elapsed := now.Sub(reference).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	ratePerSecond := snapshot.CurrentRatePerMinute / 60
	return snapshot.AccumulatedTokens + elapsed*ratePerSecond
}

// DisplayValue returns the last value computed by the display ticker, or
// an on-demand computation when the ticker is not running.
func (s *AccrualService) DisplayValue() float64 {
	s.tickerMu.Lock()
	ticking := s.cancel != nil
	s.tickerMu.Unlock()

	if !ticking {
		return ComputeDisplayValue(s.store.Snapshot(), time.Now())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayed
}

// EffectiveRatePerMinute is the rate figure shown next to the counter:
// server rate scaled by the decay tracker's multipliers.
func EffectiveRatePerMinute(snapshot models.SessionSnapshot, eff models.EfficiencyState) float64 {
	rate := snapshot.CurrentRatePerMinute * float64(eff.Efficiency) / 100 * eff.ComboMultiplier
	return math.Max(rate, 0)
}

// StartDisplayTicker begins refreshing the displayed value every
// DisplayTickInterval. Purely local computation, no network calls.
// Restarting replaces any prior ticker so there is never more than one.
func (s *AccrualService) StartDisplayTicker(ctx context.Context) {
	s.tickerMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	tickerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.tickerMu.Unlock()

	// Seed the cached value before the first tick so reads between start
	// and the first tick never fall below the confirmed total.
	value := ComputeDisplayValue(s.store.Snapshot(), time.Now())
	s.mu.Lock()
	s.displayed = value
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(constants.DisplayTickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-tickerCtx.Done():
				return
			case now := <-ticker.C:
				value := ComputeDisplayValue(s.store.Snapshot(), now)
				s.mu.Lock()
				s.displayed = value
				s.mu.Unlock()
			}
		}
	}()
}

// StopDisplayTicker cancels the ticker and snaps the displayed value back
// to the confirmed total.
func (s *AccrualService) StopDisplayTicker() {
	s.tickerMu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.tickerMu.Unlock()

	s.mu.Lock()
	s.displayed = s.store.Snapshot().AccumulatedTokens
	s.mu.Unlock()
}
