package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Zarutan454/website-Template-sub013/internal/models"
)

func TestComputeDisplayValue(t *testing.T) {
	t0 := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	t.Run("InterpolatesAtRatePerSecond", func(t *testing.T) {
		snapshot := models.SessionSnapshot{
			IsMining:             true,
			AccumulatedTokens:    10,
			CurrentRatePerMinute: 60, // 1 token per second
			LastHeartbeat:        t0,
		}

		value := ComputeDisplayValue(snapshot, t0.Add(10*time.Second))
		assert.InDelta(t, 20.0, value, 1e-9)
	})

	t.Run("NotMiningPinsToConfirmedTotal", func(t *testing.T) {
		snapshot := models.SessionSnapshot{
			IsMining:             false,
			AccumulatedTokens:    42.5,
			CurrentRatePerMinute: 60,
			LastHeartbeat:        t0,
		}

		value := ComputeDisplayValue(snapshot, t0.Add(time.Hour))
		assert.Equal(t, 42.5, value)
	})

	t.Run("NonPositiveRatePinsToConfirmedTotal", func(t *testing.T) {
		snapshot := models.SessionSnapshot{
			IsMining:          true,
			AccumulatedTokens: 7,
			LastHeartbeat:     t0,
		}

		assert.Equal(t, 7.0, ComputeDisplayValue(snapshot, t0.Add(time.Minute)))

		snapshot.CurrentRatePerMinute = -1
		assert.Equal(t, 7.0, ComputeDisplayValue(snapshot, t0.Add(time.Minute)))
	})

	t.Run("MissingHeartbeatMeansZeroElapsed", func(t *testing.T) {
		snapshot := models.SessionSnapshot{
			IsMining:             true,
			AccumulatedTokens:    5,
			CurrentRatePerMinute: 120,
		}

		value := ComputeDisplayValue(snapshot, t0)
		assert.Equal(t, 5.0, value)
	})

	t.Run("MonotonicForIncreasingNow", func(t *testing.T) {
		snapshot := models.SessionSnapshot{
			IsMining:             true,
			AccumulatedTokens:    100,
			CurrentRatePerMinute: 30,
			LastHeartbeat:        t0,
		}

		previous := ComputeDisplayValue(snapshot, t0)
		for i := 1; i <= 600; i++ {
			value := ComputeDisplayValue(snapshot, t0.Add(time.Duration(i)*200*time.Millisecond))
			assert.GreaterOrEqual(t, value, previous)
			previous = value
		}
	})

	t.Run("HeartbeatInTheFutureClampsToZeroElapsed", func(t *testing.T) {
		snapshot := models.SessionSnapshot{
			IsMining:             true,
			AccumulatedTokens:    3,
			CurrentRatePerMinute: 60,
			LastHeartbeat:        t0.Add(time.Minute),
		}

		assert.Equal(t, 3.0, ComputeDisplayValue(snapshot, t0))
	})
}

func TestAccrualService_SnapToTruth(t *testing.T) {
	t0 := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	store := NewSessionStore(1)
	store.ApplyServerState(&models.MiningSession{
		UserID:               1,
		IsMining:             true,
		AccumulatedTokens:    10,
		CurrentRatePerMinute: 60,
		LastHeartbeat:        nullTime(t0),
	})

	// Locally extrapolated value runs ahead of the server total.
	extrapolated := ComputeDisplayValue(store.Snapshot(), t0.Add(30*time.Second))
	assert.InDelta(t, 40.0, extrapolated, 1e-9)

	// Fresh authoritative update with a lower real rate: the displayed
	// value snaps to the new confirmed total at zero elapsed time.
	store.ApplyServerState(&models.MiningSession{
		UserID:               1,
		IsMining:             true,
		AccumulatedTokens:    25,
		CurrentRatePerMinute: 30,
		LastHeartbeat:        nullTime(t0.Add(30 * time.Second)),
	})

	snapped := ComputeDisplayValue(store.Snapshot(), t0.Add(30*time.Second))
	assert.Equal(t, 25.0, snapped)
}

func TestAccrualService_DisplayValueWithoutTicker(t *testing.T) {
	store := NewSessionStore(1)
	store.ApplyServerState(&models.MiningSession{
		UserID:            1,
		IsMining:          false,
		AccumulatedTokens: 12.25,
	})

	accrual := NewAccrualService(store)
	assert.Equal(t, 12.25, accrual.DisplayValue())
}

func TestAccrualService_DisplayValueSeededAtTickerStart(t *testing.T) {
	store := NewSessionStore(1)
	store.ApplyServerState(&models.MiningSession{
		UserID:               1,
		IsMining:             true,
		AccumulatedTokens:    40,
		CurrentRatePerMinute: 60,
		LastHeartbeat:        nullTime(time.Now()),
	})

	accrual := NewAccrualService(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A read immediately after start, before the first tick fires, must
	// already hold the confirmed total rather than a zero value.
	accrual.StartDisplayTicker(ctx)
	defer accrual.StopDisplayTicker()

	assert.GreaterOrEqual(t, accrual.DisplayValue(), 40.0)
}

func TestEffectiveRatePerMinute(t *testing.T) {
	snapshot := models.SessionSnapshot{CurrentRatePerMinute: 10}

	eff := models.EfficiencyState{Efficiency: 100, ComboMultiplier: 1}
	assert.InDelta(t, 10.0, EffectiveRatePerMinute(snapshot, eff), 1e-9)

	eff = models.EfficiencyState{Efficiency: 50, ComboMultiplier: 2}
	assert.InDelta(t, 10.0, EffectiveRatePerMinute(snapshot, eff), 1e-9)

	eff = models.EfficiencyState{Efficiency: 80, ComboMultiplier: 1.5}
	assert.InDelta(t, 12.0, EffectiveRatePerMinute(snapshot, eff), 1e-9)
}
