package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zarutan454/website-Template-sub013/internal/repository"
	"github.com/Zarutan454/website-Template-sub013/pkg/logger"
)

func newLimiterForTest(t *testing.T) (*LimiterService, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	activityRepo := repository.NewActivityRepository(db)
	limiter := NewLimiterService(activityRepo, logger.NewLogger("test"))

	return limiter, mock, func() { db.Close() }
}

func TestLimiterService_CheckDailyActivityLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("BelowLimit", func(t *testing.T) {
		limiter, mock, cleanup := newLimiterForTest(t)
		defer cleanup()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
			WithArgs(uint64(1), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

		assert.False(t, limiter.CheckDailyActivityLimit(ctx, 1))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AtLimit", func(t *testing.T) {
		limiter, mock, cleanup := newLimiterForTest(t)
		defer cleanup()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
			WithArgs(uint64(1), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

		assert.True(t, limiter.CheckDailyActivityLimit(ctx, 1))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("IdempotentBackToBack", func(t *testing.T) {
		limiter, mock, cleanup := newLimiterForTest(t)
		defer cleanup()

		// Second call is served from the cache; exactly one query runs.
		mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
			WithArgs(uint64(1), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

		first := limiter.CheckDailyActivityLimit(ctx, 1)
		second := limiter.CheckDailyActivityLimit(ctx, 1)

		assert.Equal(t, first, second)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FailsOpenOnQueryError", func(t *testing.T) {
		limiter, mock, cleanup := newLimiterForTest(t)
		defer cleanup()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
			WithArgs(uint64(1), sqlmock.AnyArg()).
			WillReturnError(errors.New("connection refused"))

		assert.False(t, limiter.CheckDailyActivityLimit(ctx, 1))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLimiterService_GetActivityCountByType(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsCount", func(t *testing.T) {
		limiter, mock, cleanup := newLimiterForTest(t)
		defer cleanup()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
			WithArgs(uint64(1), "post", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

		assert.Equal(t, 4, limiter.GetActivityCountByType(ctx, 1, "post"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FailsOpenToZero", func(t *testing.T) {
		limiter, mock, cleanup := newLimiterForTest(t)
		defer cleanup()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
			WithArgs(uint64(1), "post", sqlmock.AnyArg()).
			WillReturnError(errors.New("connection refused"))

		assert.Equal(t, 0, limiter.GetActivityCountByType(ctx, 1, "post"))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLimiterService_InvalidateDropsCache(t *testing.T) {
	ctx := context.Background()

	limiter, mock, cleanup := newLimiterForTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs(uint64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	assert.False(t, limiter.CheckDailyActivityLimit(ctx, 1))

	limiter.Invalidate(1)

	// After invalidation the next check hits the store again.
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs(uint64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	assert.True(t, limiter.CheckDailyActivityLimit(ctx, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLimiterService_RemainingActivities(t *testing.T) {
	ctx := context.Background()

	limiter, mock, cleanup := newLimiterForTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs(uint64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	// Over the cap still reports zero, never negative.
	assert.Equal(t, 0, limiter.RemainingActivities(ctx, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}
