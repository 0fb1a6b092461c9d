package service

import (
	"context"
	"sync"
	"time"

	"github.com/Zarutan454/website-Template-sub013/internal/constants"
	"github.com/Zarutan454/website-Template-sub013/internal/models"
)

// EfficiencyService models engagement decay: a percentage that degrades
// while the user idles during an active session, and a combo multiplier
// that resets after longer idleness. All state is local and ephemeral.
type EfficiencyService struct {
	mu    sync.Mutex
	state models.EfficiencyState

	tickerMu sync.Mutex
	cancel   context.CancelFunc
}

func NewEfficiencyService() *EfficiencyService {
	return &EfficiencyService{state: defaultEfficiencyState()}
}

func defaultEfficiencyState() models.EfficiencyState {
	return models.EfficiencyState{
		Efficiency:      constants.MaxEfficiency,
		ComboMultiplier: 1,
		LastInteraction: time.Now(),
	}
}

// State returns a copy of the current efficiency state.
func (s *EfficiencyService) State() models.EfficiencyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RecordInteraction resets the idle clock. It does not restore efficiency;
// recovery happens on the reward-granting path.
func (s *EfficiencyService) RecordInteraction(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastInteraction = now
}

// ApplyReward restores efficiency and builds the combo multiplier after a
// granted reward, both capped.
func (s *EfficiencyService) ApplyReward(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.LastInteraction = now

	s.state.Efficiency += constants.EfficiencyRecovery
	if s.state.Efficiency > constants.MaxEfficiency {
		s.state.Efficiency = constants.MaxEfficiency
	}

	s.state.ComboMultiplier += constants.ComboStep
	if s.state.ComboMultiplier > constants.MaxComboMultiplier {
		s.state.ComboMultiplier = constants.MaxComboMultiplier
	}
}

// Tick runs one decay check. Idle past the decay threshold costs one
// efficiency point, floored at MinEfficiency; idle past the combo-reset
// threshold additionally drops the combo back to 1.
func (s *EfficiencyService) Tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idle := now.Sub(s.state.LastInteraction)

	if idle > constants.DecayIdleThreshold {
		if s.state.Efficiency > constants.MinEfficiency {
			s.state.Efficiency--
		}
	}

	if idle > constants.ComboResetThreshold {
		if s.state.ComboMultiplier > 1 {
			s.state.ComboMultiplier = 1
		}
	}
}

// Reset returns the tracker to its entry state. Called whenever mining is
// not active.
func (s *EfficiencyService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = defaultEfficiencyState()
}

// StartDecayTicker runs the periodic decay check while mining is active.
// The ticker must be singular per session: restarting cancels any prior
// interval first, so duplicate timers can never compound decay.
func (s *EfficiencyService) StartDecayTicker(ctx context.Context) {
	s.tickerMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	tickerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.tickerMu.Unlock()

	go func() {
		ticker := time.NewTicker(constants.DecayCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-tickerCtx.Done():
				return
			case now := <-ticker.C:
				s.Tick(now)
			}
		}
	}()
}

// StopDecayTicker cancels the decay timer and resets the state.
func (s *EfficiencyService) StopDecayTicker() {
	s.tickerMu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.tickerMu.Unlock()

	s.Reset()
}
