package timeblock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekBoundsMidweek(t *testing.T) {
	// 2026-08-26 is a Wednesday.
	start, end := WeekBounds(time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC))
	assert.Equal(t, "2026-08-24", start.Format("2006-01-02"))
	assert.Equal(t, "2026-08-30", end.Format("2006-01-02"))
}

func TestWeekBoundsMonday(t *testing.T) {
	start, end := WeekBounds(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-08-24", start.Format("2006-01-02"))
	assert.Equal(t, "2026-08-30", end.Format("2006-01-02"))
}

func TestWeekBoundsSunday(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	start, end := WeekBounds(time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "2026-08-24", start.Format("2006-01-02"))
	assert.Equal(t, "2026-08-30", end.Format("2006-01-02"))
}

func TestBlockTypeValid(t *testing.T) {
	assert.True(t, TypeDeepWork.Valid())
	assert.True(t, TypeMeeting.Valid())
	assert.True(t, TypeBreak.Valid())
	assert.True(t, TypeTask.Valid())
	assert.False(t, BlockType("nap").Valid())
}
