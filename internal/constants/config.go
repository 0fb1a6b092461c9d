package constants

import "time"

// Mining System Configuration Constants

const (
	// DailyActivityLimit is the ceiling on rewarded non-mining activities
	// per user per calendar day, counted across all limited types.
	DailyActivityLimit = 10

	// DisplayTickInterval is how often the interpolated balance is refreshed.
	// Purely cosmetic, no I/O happens on this tick.
	DisplayTickInterval = 200 * time.Millisecond

	// DecayCheckInterval is how often engagement decay is evaluated
	// while a mining session is active.
	DecayCheckInterval = 30 * time.Second

	// DecayIdleThreshold is the idle time after which efficiency starts
	// dropping by one point per decay check.
	DecayIdleThreshold = 2 * time.Minute

	// ComboResetThreshold is the idle time after which the combo
	// multiplier falls back to 1.
	ComboResetThreshold = 5 * time.Minute

	// MinEfficiency is the efficiency floor; decay never goes below it.
	MinEfficiency = 50

	// MaxEfficiency is the entry efficiency when mining starts.
	MaxEfficiency = 100

	// EfficiencyRecovery is the efficiency restored per granted reward,
	// capped at MaxEfficiency.
	EfficiencyRecovery = 5

	// ComboStep is the combo multiplier increase per granted reward.
	ComboStep = 0.1

	// MaxComboMultiplier caps the combo multiplier built by sustained activity.
	MaxComboMultiplier = 2.0

	// TokensPerPoint converts activity points into the token reward
	// attached to the record.
	TokensPerPoint = 0.1

	// RetryAttempts / RetryInitialDelay control the generic retry helper.
	// Delay doubles after each failed attempt.
	RetryAttempts     = 3
	RetryInitialDelay = 1000 * time.Millisecond
)

// ActivityRewards maps each rewarded activity type to the points it grants.
var ActivityRewards = map[string]int32{
	"post":    10,
	"comment": 5,
	"like":    2,
	"share":   5,
	"invite":  50,
}

// RewardedActivityTypes lists the activity types that count toward the
// daily limit. "mining" records are excluded from the cap.
var RewardedActivityTypes = []string{"post", "comment", "like", "share", "invite"}
