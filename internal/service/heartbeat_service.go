package service

import (
	"context"
	"sync"
	"time"

	"github.com/Zarutan454/website-Template-sub013/internal/client"
	"github.com/Zarutan454/website-Template-sub013/internal/pubsub"
	"github.com/Zarutan454/website-Template-sub013/internal/repository"
	"github.com/Zarutan454/website-Template-sub013/pkg/logger"
	"github.com/Zarutan454/website-Template-sub013/pkg/metrics"
)

// HeartbeatService keeps the mining session alive server-side and
// reconciles the local store against the authoritative session row.
// Liveness calls return plain booleans; a failure is logged and the next
// scheduled tick is the only retry.
type HeartbeatService struct {
	miningClient *client.MiningClient
	sessionRepo  *repository.MiningSessionRepository
	store        *SessionStore
	efficiency   *EfficiencyService
	accrual      *AccrualService
	publisher    pubsub.EventPublisher
	metrics      *metrics.Metrics
	log          *logger.Logger

	inactivityTimeout time.Duration

	tickerMu sync.Mutex
	cancel   context.CancelFunc
}

func NewHeartbeatService(
	miningClient *client.MiningClient,
	sessionRepo *repository.MiningSessionRepository,
	store *SessionStore,
	efficiency *EfficiencyService,
	accrual *AccrualService,
	publisher pubsub.EventPublisher,
	serviceMetrics *metrics.Metrics,
	log *logger.Logger,
	inactivityTimeout time.Duration,
) *HeartbeatService {
	return &HeartbeatService{
		miningClient:      miningClient,
		sessionRepo:       sessionRepo,
		store:             store,
		efficiency:        efficiency,
		accrual:           accrual,
		publisher:         publisher,
		metrics:           serviceMetrics,
		log:               log,
		inactivityTimeout: inactivityTimeout,
	}
}

// SendMiningHeartbeat sends the liveness PATCH. Failures are logged and
// counted, not returned; the caller decides what a false means.
func (s *HeartbeatService) SendMiningHeartbeat(ctx context.Context, userID uint64) bool {
	if err := s.miningClient.Heartbeat(ctx, userID); err != nil {
		s.log.WithUserID(userID).WithError(err).Warn("Heartbeat failed")
		if s.metrics != nil {
			s.metrics.HeartbeatFailures.Inc()
		}
		return false
	}
	return true
}

// CheckInactivity stops the session when the user has idled past the
// timeout, otherwise sends the lighter activity-check ping. Returns
// whether the issued call succeeded.
func (s *HeartbeatService) CheckInactivity(ctx context.Context, userID uint64, lastActivityAt time.Time) bool {
	if time.Since(lastActivityAt) > s.inactivityTimeout {
		if err := s.miningClient.StopMining(ctx, userID); err != nil {
			s.log.WithUserID(userID).WithError(err).Warn("Inactivity stop failed")
			return false
		}

		// Server ended the session; tear down the local side too.
		if err := s.sessionRepo.StopSession(ctx, userID); err != nil {
			s.log.WithUserID(userID).WithError(err).Warn("Failed to mark session stopped")
		}
		s.store.SetMining(false)
		s.accrual.StopDisplayTicker()
		s.efficiency.StopDecayTicker()

		if s.publisher != nil {
			if err := s.publisher.PublishMiningStopped(ctx, userID, "inactivity"); err != nil {
				s.log.WithUserID(userID).WithError(err).Warn("Failed to publish stop event")
			}
		}
		return true
	}

	if err := s.miningClient.ActivityCheck(ctx, userID); err != nil {
		s.log.WithUserID(userID).WithError(err).Warn("Activity check failed")
		return false
	}
	return true
}

// Reconcile re-reads the authoritative session row and applies it to the
// store. The displayed value snaps to the confirmed total on the next
// display tick.
func (s *HeartbeatService) Reconcile(ctx context.Context, userID uint64) {
	session, err := s.sessionRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.log.WithUserID(userID).WithError(err).Warn("Reconciliation query failed")
		return
	}
	if session == nil {
		return
	}

	wasMining := s.store.Snapshot().IsMining
	s.store.ApplyServerState(session)

	if s.publisher != nil {
		if err := s.publisher.PublishBalanceReconciled(ctx, userID, session.AccumulatedTokens); err != nil {
			s.log.WithUserID(userID).WithError(err).Debug("Failed to publish reconcile event")
		}
	}

	// Server-detected inactivity timeout shows up here as is_mining
	// flipping off underneath us.
	if wasMining && !session.IsMining {
		s.accrual.StopDisplayTicker()
		s.efficiency.StopDecayTicker()
		s.log.WithUserID(userID).Info("Mining session ended server-side")
	}
}

// StartLoop runs the heartbeat/reconciliation cycle on the given interval
// until the context is cancelled. Each tick is fire-and-forget: a failed
// call never blocks the next one.
func (s *HeartbeatService) StartLoop(ctx context.Context, userID uint64, interval time.Duration) {
	s.tickerMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.tickerMu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if !s.store.Snapshot().IsMining {
					continue
				}

				s.SendMiningHeartbeat(loopCtx, userID)
				s.Reconcile(loopCtx, userID)
				s.CheckInactivity(loopCtx, userID, s.efficiency.State().LastInteraction)
			}
		}
	}()
}

// StopLoop cancels the heartbeat loop.
func (s *HeartbeatService) StopLoop() {
	s.tickerMu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.tickerMu.Unlock()
}
