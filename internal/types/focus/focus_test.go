package focus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStreakDaysEmpty(t *testing.T) {
	today := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, StreakDays(nil, today))
}

func TestStreakDaysConsecutive(t *testing.T) {
	today := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	dates := []time.Time{
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 3, StreakDays(dates, today))
}

func TestStreakDaysBrokenByGap(t *testing.T) {
	today := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	dates := []time.Time{
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 1, StreakDays(dates, today))
}

func TestStreakDaysNoSessionToday(t *testing.T) {
	today := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	dates := []time.Time{
		time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 0, StreakDays(dates, today))
}
