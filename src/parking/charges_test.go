package parking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationMinutes(t *testing.T) {
	entry := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	minutes, err := DurationMinutes(entry, entry.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(90), minutes)

	minutes, err = DurationMinutes(entry, entry.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(0), minutes)
}

func TestDurationMinutesRejectsExitBeforeEntry(t *testing.T) {
	entry := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := DurationMinutes(entry, entry.Add(-time.Minute))
	require.ErrorIs(t, err, ErrNegativeDuration)
	assert.Equal(t, KindValidation, Classify(err))
}

func TestBilledHoursRoundsUp(t *testing.T) {
	cases := []struct {
		minutes int64
		hours   int64
	}{
		{0, 1},
		{1, 1},
		{59, 1},
		{60, 1},
		{61, 2},
		{119, 2},
		{120, 2},
		{121, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.hours, BilledHours(c.minutes), "minutes=%d", c.minutes)
	}
}

func TestChargeAmount(t *testing.T) {
	assert.Equal(t, 2.0, ChargeAmount(0, 2.0))
	assert.Equal(t, 4.0, ChargeAmount(61, 2.0))
	assert.Equal(t, 10.0, ChargeAmount(90, 5.0))
	assert.Equal(t, 1.0, ChargeAmount(45, 1.0))
}

func TestAmountMatchesTolerance(t *testing.T) {
	assert.True(t, AmountMatches(2.0, 2.0))
	assert.True(t, AmountMatches(2.005, 2.0))
	assert.True(t, AmountMatches(1.995, 2.0))
	assert.False(t, AmountMatches(2.02, 2.0))
	assert.False(t, AmountMatches(3.5, 2.0))
}
