package bootstrap

import (
	"time"

	"docbridge/internal/settings"
	"docbridge/internal/version"
)

// Check thresholds are fixed wall-clock durations, intentionally a coarse
// approximation rather than calendar-aware arithmetic.
const (
	dayMillis   = int64(24 * 60 * 60 * 1000)
	weekMillis  = 7 * dayMillis
	monthMillis = 30 * dayMillis
)

// IsCheckDue reports whether an update check is due for the given frequency.
// Unknown frequencies are treated as never.
func IsCheckDue(frequency string, now, lastUpdate time.Time) bool {
	var threshold int64
	switch frequency {
	case settings.UpdateFrequencyDaily:
		threshold = dayMillis
	case settings.UpdateFrequencyWeekly:
		threshold = weekMillis
	case settings.UpdateFrequencyMonthly:
		threshold = monthMillis
	default:
		return false
	}

	return now.Sub(lastUpdate).Milliseconds() > threshold
}

// ShouldPromptForUpdate reports whether applying latest over current
// warrants asking the user first. automatic never prompts, promptAlways
// always does, and promptMajor prompts only when latest falls outside the
// "less than current-major+1" bound, i.e. on a major version bump.
// Unknown behaviors prompt, erring on the side of asking.
func ShouldPromptForUpdate(behavior string, current, latest version.Version) bool {
	switch behavior {
	case settings.UpdateBehaviorAutomatic:
		return false
	case settings.UpdateBehaviorPromptMajor:
		return !version.WithinMajorOf(latest, current)
	default:
		return true
	}
}
