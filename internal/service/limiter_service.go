package service

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/Zarutan454/website-Template-sub013/internal/constants"
	"github.com/Zarutan454/website-Template-sub013/internal/repository"
	"github.com/Zarutan454/website-Template-sub013/pkg/logger"
)

const (
	countCacheSize = 1024
	countCacheTTL  = 15 * time.Second
)

type cachedCount struct {
	count     int
	fetchedAt time.Time
}

// LimiterService enforces the daily ceiling on rewarded actions. Query
// failures fail open: a user is never blocked because the backing store
// was unreachable. Counts are cached briefly to spare the store on the
// status-polling path.
type LimiterService struct {
	activityRepo *repository.ActivityRepository
	cache        *lru.Cache
	log          *logger.Logger
}

func NewLimiterService(activityRepo *repository.ActivityRepository, log *logger.Logger) *LimiterService {
	cache, _ := lru.New(countCacheSize)
	return &LimiterService{
		activityRepo: activityRepo,
		cache:        cache,
		log:          log,
	}
}

// CheckDailyActivityLimit reports whether the user has reached today's
// cap across all limited activity types.
func (s *LimiterService) CheckDailyActivityLimit(ctx context.Context, userID uint64) bool {
	count := s.dailyCount(ctx, userID)
	return count >= constants.DailyActivityLimit
}

// RemainingActivities returns how many rewarded actions the user has left
// today, never negative.
func (s *LimiterService) RemainingActivities(ctx context.Context, userID uint64) int {
	remaining := constants.DailyActivityLimit - s.dailyCount(ctx, userID)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GetActivityCountByType counts today's records of one activity type.
// Fails open to 0 on query errors.
func (s *LimiterService) GetActivityCountByType(ctx context.Context, userID uint64, activityType string) int {
	key := s.cacheKey(userID, "type:"+activityType)
	if count, ok := s.cachedValue(key); ok {
		return count
	}

	count, err := s.activityRepo.CountTodayByType(ctx, userID, activityType)
	if err != nil {
		s.log.WithUserID(userID).WithError(err).Error("Failed to count activities by type")
		return 0
	}

	s.cache.Add(key, cachedCount{count: count, fetchedAt: time.Now()})
	return count
}

// Invalidate drops cached counts for a user. Called after the engine
// records a new activity.
func (s *LimiterService) Invalidate(userID uint64) {
	s.cache.Remove(s.cacheKey(userID, "total"))
	for _, activityType := range constants.RewardedActivityTypes {
		s.cache.Remove(s.cacheKey(userID, "type:"+activityType))
	}
}

func (s *LimiterService) dailyCount(ctx context.Context, userID uint64) int {
	key := s.cacheKey(userID, "total")
	if count, ok := s.cachedValue(key); ok {
		return count
	}

	count, err := s.activityRepo.CountToday(ctx, userID)
	if err != nil {
		s.log.WithUserID(userID).WithError(err).Error("Failed to count daily activities")
		return 0
	}

	s.cache.Add(key, cachedCount{count: count, fetchedAt: time.Now()})
	return count
}

func (s *LimiterService) cachedValue(key string) (int, bool) {
	value, ok := s.cache.Get(key)
	if !ok {
		return 0, false
	}

	cached, ok := value.(cachedCount)
	if !ok || time.Since(cached.fetchedAt) > countCacheTTL {
		return 0, false
	}

	return cached.count, true
}

func (s *LimiterService) cacheKey(userID uint64, suffix string) string {
	// Key includes the local day so cached counts never leak across the
	// midnight boundary.
	return fmt.Sprintf("%d:%s:%s", userID, time.Now().Format("2006-01-02"), suffix)
}
