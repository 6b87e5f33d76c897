package parking

import (
	"math"
	"time"

	"pms/src/config"
)

// DurationMinutes returns the whole minutes between entry and exit.
func DurationMinutes(entryTime, exitTime time.Time) (int64, error) {
	if exitTime.Before(entryTime) {
		return 0, Invalid(ErrNegativeDuration)
	}
	return int64(exitTime.Sub(entryTime) / time.Minute), nil
}

// BilledHours rounds the duration up to the next full hour. Every visit bills
// at least one hour, even when the stay is under a minute.
func BilledHours(durationMinutes int64) int64 {
	hours := (durationMinutes + 59) / 60
	if hours < 1 {
		hours = 1
	}
	return hours
}

func ChargeAmount(durationMinutes int64, hourlyRate float64) float64 {
	return float64(BilledHours(durationMinutes)) * hourlyRate
}

// AmountMatches compares the paid against the calculated amount within the
// configured tolerance.
func AmountMatches(paidAmount, calculatedAmount float64) bool {
	return math.Abs(paidAmount-calculatedAmount) <= config.PAYMENT_TOLERANCE
}
