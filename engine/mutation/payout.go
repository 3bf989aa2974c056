package mutation

import (
	"math"

	"github.com/spf13/cast"

	"orgmachine/orgmachine"
)

type payoutRate struct {
	base    float64
	perHour float64
}

var payoutRates = map[orgmachine.Difficulty]payoutRate{
	orgmachine.DifficultyEasy:     {base: 1, perHour: 16.5},
	orgmachine.DifficultyMedium:   {base: 4, perHour: 24},
	orgmachine.DifficultyHard:     {base: 10, perHour: 30},
	orgmachine.DifficultyVeryHard: {base: 25, perHour: 37.5},
}

// Payout derives a task's payout from difficulty and estimated hours, rounded
// half away from zero. Unrecognized difficulties price as medium.
func Payout(difficulty orgmachine.Difficulty, estHours float64) int64 {
	rate, known := payoutRates[difficulty]
	if !known {
		rate = payoutRates[orgmachine.DifficultyMedium]
	}
	raw := rate.base + rate.perHour*estHours
	return int64(math.Floor(raw + 0.5))
}

// ClampEstHours normalizes the estimated-hours form field on blur: anything
// unparsable or at most 0.5 becomes 0.5, everything else rounds to the
// nearest half hour.
func ClampEstHours(input interface{}) float64 {
	hours := cast.ToFloat64(input)
	if hours <= 0.5 {
		return 0.5
	}
	return math.Round(hours*2) / 2
}
