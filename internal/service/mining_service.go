package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Zarutan454/website-Template-sub013/internal/client"
	"github.com/Zarutan454/website-Template-sub013/internal/constants"
	"github.com/Zarutan454/website-Template-sub013/internal/models"
	"github.com/Zarutan454/website-Template-sub013/internal/pubsub"
	"github.com/Zarutan454/website-Template-sub013/internal/repository"
	"github.com/Zarutan454/website-Template-sub013/pkg/helpers"
	"github.com/Zarutan454/website-Template-sub013/pkg/logger"
	"github.com/Zarutan454/website-Template-sub013/pkg/metrics"
)

var (
	ErrDailyLimitReached   = errors.New("daily activity limit reached")
	ErrUnknownActivityType = errors.New("unknown activity type")
)

const recentActivitiesLimit = 20

// MiningServiceInterface defines the operations the HTTP surface consumes.
type MiningServiceInterface interface {
	StartMining(ctx context.Context, userID uint64) error
	StopMining(ctx context.Context, userID uint64) error
	RecordActivity(ctx context.Context, userID uint64, activityType string) (*models.ActivityRecord, error)
	RecordInteraction(userID uint64)
	Status(ctx context.Context, userID uint64) (*models.MiningStatus, error)
	RecentActivities(ctx context.Context, userID uint64) ([]*models.ActivityRecord, error)
	ActivityCountByType(ctx context.Context, userID uint64, activityType string) int
}

// MiningService orchestrates the per-user engines: session lifecycle,
// reward granting and status reads. Each active user gets one store, one
// accrual ticker, one decay ticker and one heartbeat loop.
type MiningService struct {
	sessionRepo  *repository.MiningSessionRepository
	activityRepo *repository.ActivityRepository
	miningClient *client.MiningClient
	limiter      *LimiterService
	publisher    pubsub.EventPublisher
	metrics      *metrics.Metrics
	log          *logger.Logger
	idgen        *helpers.IDGenerator

	heartbeatInterval time.Duration
	inactivityTimeout time.Duration

	mu      sync.Mutex
	engines map[uint64]*userEngine
}

type userEngine struct {
	store      *SessionStore
	accrual    *AccrualService
	efficiency *EfficiencyService
	heartbeat  *HeartbeatService
	cancel     context.CancelFunc
}

func NewMiningService(
	sessionRepo *repository.MiningSessionRepository,
	activityRepo *repository.ActivityRepository,
	miningClient *client.MiningClient,
	limiter *LimiterService,
	publisher pubsub.EventPublisher,
	serviceMetrics *metrics.Metrics,
	log *logger.Logger,
	heartbeatInterval time.Duration,
	inactivityTimeout time.Duration,
) *MiningService {
	return &MiningService{
		sessionRepo:       sessionRepo,
		activityRepo:      activityRepo,
		miningClient:      miningClient,
		limiter:           limiter,
		publisher:         publisher,
		metrics:           serviceMetrics,
		log:               log,
		idgen:             helpers.NewIDGenerator(),
		heartbeatInterval: heartbeatInterval,
		inactivityTimeout: inactivityTimeout,
		engines:           make(map[uint64]*userEngine),
	}
}

// StartMining creates or resumes the user's session and spins up the
// tickers. Starting twice replaces the previous tickers instead of
// stacking them.
func (s *MiningService) StartMining(ctx context.Context, userID uint64) error {
	if err := s.sessionRepo.StartSession(ctx, userID); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	eng := s.engineFor(userID)

	session, err := s.sessionRepo.GetByUserID(ctx, userID)
	if err != nil {
		// A partially scanned row must not leak into the store; the
		// heartbeat loop reconciles on its next tick.
		s.log.WithUserID(userID).WithError(err).Warn("Failed to read session after start")
	} else {
		eng.store.ApplyServerState(session)
	}
	eng.store.SetMining(true)

	eng.efficiency.Reset()

	engineCtx := s.resetEngineContext(eng)
	eng.efficiency.StartDecayTicker(engineCtx)
	eng.accrual.StartDisplayTicker(engineCtx)
	eng.heartbeat.StartLoop(engineCtx, userID, s.heartbeatInterval)

	if s.publisher != nil {
		if err := s.publisher.PublishMiningStarted(ctx, userID); err != nil {
			s.log.WithUserID(userID).WithError(err).Warn("Failed to publish start event")
		}
	}

	s.log.WithUserID(userID).Info("Mining started")
	return nil
}

// StopMining ends the session remotely and tears down the local engine.
// The remote stop is retried; an explicit stop wants at-least-once
// delivery.
func (s *MiningService) StopMining(ctx context.Context, userID uint64) error {
	stopErr := client.DoWithRetry(ctx, func(ctx context.Context) error {
		return s.miningClient.StopMining(ctx, userID)
	})
	if stopErr != nil {
		s.log.WithUserID(userID).WithError(stopErr).Error("Remote stop failed")
	}

	if err := s.sessionRepo.StopSession(ctx, userID); err != nil {
		s.log.WithUserID(userID).WithError(err).Warn("Failed to mark session stopped")
	}

	s.teardown(userID)

	if s.publisher != nil {
		if err := s.publisher.PublishMiningStopped(ctx, userID, "user"); err != nil {
			s.log.WithUserID(userID).WithError(err).Warn("Failed to publish stop event")
		}
	}

	s.log.WithUserID(userID).Info("Mining stopped")
	return stopErr
}

// RecordActivity grants a reward for a qualifying user action: limiter
// check, reward record, efficiency/combo bump, cache invalidation.
func (s *MiningService) RecordActivity(ctx context.Context, userID uint64, activityType string) (*models.ActivityRecord, error) {
	points, ok := constants.ActivityRewards[activityType]
	if !ok {
		return nil, ErrUnknownActivityType
	}

	if s.limiter.CheckDailyActivityLimit(ctx, userID) {
		if s.metrics != nil {
			s.metrics.LimitRejections.Inc()
		}
		return nil, ErrDailyLimitReached
	}

	tokens := float64(points) * constants.TokensPerPoint
	reference := s.idgen.GenerateRewardReference()

	var recordID uint64
	err := client.DoWithRetry(ctx, func(ctx context.Context) error {
		var insertErr error
		recordID, insertErr = s.activityRepo.Create(ctx, userID, activityType, points, tokens, reference)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	s.limiter.Invalidate(userID)

	now := time.Now()
	if eng := s.existingEngine(userID); eng != nil {
		eng.efficiency.ApplyReward(now)
		if s.metrics != nil {
			s.metrics.Efficiency.Observe(float64(eng.efficiency.State().Efficiency))
		}
	}

	if s.metrics != nil {
		s.metrics.RewardsGranted.WithLabelValues(activityType).Inc()
	}

	return &models.ActivityRecord{
		ID:           recordID,
		UserID:       userID,
		ActivityType: activityType,
		Points:       points,
		Tokens:       tokens,
		Reference:    reference,
		CreatedAt:    now,
	}, nil
}

// RecordInteraction resets the decay clock for a qualifying interaction
// that grants no reward (scrolling, opening a panel).
func (s *MiningService) RecordInteraction(userID uint64) {
	if eng := s.existingEngine(userID); eng != nil {
		eng.efficiency.RecordInteraction(time.Now())
	}
}

// Status assembles what the UI polls.
func (s *MiningService) Status(ctx context.Context, userID uint64) (*models.MiningStatus, error) {
	var snapshot models.SessionSnapshot
	var eff models.EfficiencyState
	var displayed float64

	if eng := s.existingEngine(userID); eng != nil {
		snapshot = eng.store.Snapshot()
		eff = eng.efficiency.State()
		displayed = eng.accrual.DisplayValue()
	} else {
		session, err := s.sessionRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to read session: %w", err)
		}
		store := NewSessionStore(userID)
		store.ApplyServerState(session)
		snapshot = store.Snapshot()
		eff = models.EfficiencyState{Efficiency: constants.MaxEfficiency, ComboMultiplier: 1}
		displayed = ComputeDisplayValue(snapshot, time.Now())
	}

	limitReached := s.limiter.CheckDailyActivityLimit(ctx, userID)

	return &models.MiningStatus{
		IsMining:            snapshot.IsMining,
		DisplayedTokens:     displayed,
		AccumulatedTokens:   snapshot.AccumulatedTokens,
		RatePerMinute:       snapshot.CurrentRatePerMinute,
		EffectiveRate:       EffectiveRatePerMinute(snapshot, eff),
		Efficiency:          eff.Efficiency,
		ComboMultiplier:     eff.ComboMultiplier,
		DailyLimitReached:   limitReached,
		RemainingActivities: s.limiter.RemainingActivities(ctx, userID),
	}, nil
}

// RecentActivities returns the user's latest reward records for the
// history panel.
func (s *MiningService) RecentActivities(ctx context.Context, userID uint64) ([]*models.ActivityRecord, error) {
	records, err := s.activityRepo.FindByUserID(ctx, userID, recentActivitiesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return records, nil
}

// ActivityCountByType exposes the per-type daily count for UI badges.
func (s *MiningService) ActivityCountByType(ctx context.Context, userID uint64, activityType string) int {
	return s.limiter.GetActivityCountByType(ctx, userID, activityType)
}

// Shutdown tears down every running engine.
func (s *MiningService) Shutdown() {
	s.mu.Lock()
	userIDs := make([]uint64, 0, len(s.engines))
	for userID := range s.engines {
		userIDs = append(userIDs, userID)
	}
	s.mu.Unlock()

	for _, userID := range userIDs {
		s.teardown(userID)
	}
}

func (s *MiningService) engineFor(userID uint64) *userEngine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if eng, ok := s.engines[userID]; ok {
		return eng
	}

	store := NewSessionStore(userID)
	accrual := NewAccrualService(store)
	efficiency := NewEfficiencyService()
	heartbeat := NewHeartbeatService(
		s.miningClient, s.sessionRepo, store, efficiency, accrual,
		s.publisher, s.metrics, s.log, s.inactivityTimeout,
	)

	eng := &userEngine{
		store:      store,
		accrual:    accrual,
		efficiency: efficiency,
		heartbeat:  heartbeat,
	}
	s.engines[userID] = eng
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(len(s.engines)))
	}
	return eng
}

func (s *MiningService) existingEngine(userID uint64) *userEngine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engines[userID]
}

// resetEngineContext cancels any previous engine context and creates a
// fresh one, so restarted tickers can never stack.
func (s *MiningService) resetEngineContext(eng *userEngine) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if eng.cancel != nil {
		eng.cancel()
	}
	engineCtx, cancel := context.WithCancel(context.Background())
	eng.cancel = cancel
	return engineCtx
}

func (s *MiningService) teardown(userID uint64) {
	s.mu.Lock()
	eng := s.engines[userID]
	s.mu.Unlock()

	if eng == nil {
		return
	}

	eng.heartbeat.StopLoop()
	eng.accrual.StopDisplayTicker()
	eng.efficiency.StopDecayTicker()
	eng.store.SetMining(false)

	s.mu.Lock()
	if eng.cancel != nil {
		eng.cancel()
		eng.cancel = nil
	}
	delete(s.engines, userID)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(len(s.engines)))
	}
	s.mu.Unlock()
}
