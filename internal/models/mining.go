package models

import (
	"database/sql"
	"time"
)

// MiningSession represents the server-owned mining_sessions row, cached
// client-side between reconciliations. AccumulatedTokens only advances via
// server confirmation; local interpolation never writes back into it.
type MiningSession struct {
	ID                   uint64       `json:"id" db:"id"`
	UserID               uint64       `json:"user_id" db:"user_id"`
	IsMining             bool         `json:"is_mining" db:"is_mining"`
	AccumulatedTokens    float64      `json:"accumulated_tokens" db:"accumulated_tokens"`
	CurrentRatePerMinute float64      `json:"current_rate_per_minute" db:"current_rate_per_minute"`
	LastHeartbeat        sql.NullTime `json:"last_heartbeat" db:"last_heartbeat"`
	CreatedAt            time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at" db:"updated_at"`
}

// SessionSnapshot is the read-only projection of the authoritative session
// state handed to the accrual engine and the decay tracker.
type SessionSnapshot struct {
	UserID               uint64
	IsMining             bool
	AccumulatedTokens    float64
	CurrentRatePerMinute float64
	LastHeartbeat        time.Time // zero value when absent or unparseable
}

// EfficiencyState is client-local, ephemeral state with no backend
// persistence. Reset to defaults whenever mining is not active.
type EfficiencyState struct {
	Efficiency      int       `json:"efficiency"`       // percent, [50,100]
	ComboMultiplier float64   `json:"combo_multiplier"` // >= 1
	LastInteraction time.Time `json:"last_interaction"`
}

// MiningStatus is what the UI polls: authoritative state plus the
// interpolated and decay-adjusted figures.
type MiningStatus struct {
	IsMining            bool    `json:"is_mining"`
	DisplayedTokens     float64 `json:"displayed_tokens"`
	AccumulatedTokens   float64 `json:"accumulated_tokens"`
	RatePerMinute       float64 `json:"rate_per_minute"`
	EffectiveRate       float64 `json:"effective_rate_per_minute"`
	Efficiency          int     `json:"efficiency"`
	ComboMultiplier     float64 `json:"combo_multiplier"`
	DailyLimitReached   bool    `json:"daily_limit_reached"`
	RemainingActivities int     `json:"remaining_activities"`
}
