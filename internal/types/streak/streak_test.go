package streak

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestAdvanceFirstCheckIn(t *testing.T) {
	current, longest := Advance(nil, 0)
	assert.Equal(t, 1, current)
	assert.Equal(t, 1, longest)
}

func TestAdvanceConsecutiveChain(t *testing.T) {
	// Checking in every day grows the chain one day at a time.
	var prev *Streak
	longestSoFar := 0
	for want := 1; want <= 6; want++ {
		current, longest := Advance(prev, longestSoFar)
		assert.Equal(t, want, current)
		assert.Equal(t, want, longest)
		prev = &Streak{CurrentStreak: current, LongestStreak: longest, CompletedToday: true}
		longestSoFar = longest
	}
}

func TestAdvanceGapResetsButKeepsLongest(t *testing.T) {
	// Previous day has no record: the chain restarts at 1, the longest
	// high-water mark survives.
	current, longest := Advance(nil, 5)
	assert.Equal(t, 1, current)
	assert.Equal(t, 5, longest)
}

func TestAdvanceUncompletedPreviousDayResets(t *testing.T) {
	prev := &Streak{CurrentStreak: 4, LongestStreak: 4, CompletedToday: false}
	current, longest := Advance(prev, 4)
	assert.Equal(t, 1, current)
	assert.Equal(t, 4, longest)
}

func TestAdvanceNewChainCanOvertakeLongest(t *testing.T) {
	prev := &Streak{CurrentStreak: 5, LongestStreak: 5, CompletedToday: true}
	current, longest := Advance(prev, 5)
	assert.Equal(t, 6, current)
	assert.Equal(t, 6, longest)
}

func TestBuildProgressEmptyWindow(t *testing.T) {
	id := uuid.New()
	p := BuildProgress(id, "Meditate", nil, 30)
	assert.Equal(t, id.String(), p.TaskID)
	assert.Equal(t, 0, p.CompletedDays)
	assert.Equal(t, 30, p.TotalDays)
	assert.Equal(t, 0.0, p.CompletionRate)
	assert.Equal(t, 0, p.CurrentStreak)
	assert.Equal(t, 0, p.LongestStreak)
}

func TestBuildProgressSummarizesWindow(t *testing.T) {
	// A 5-day chain, then a gap, then a fresh check-in. Six completed days
	// total; the latest record carries current=1, longest=5.
	id := uuid.New()
	records := []Streak{}
	for i := 0; i < 5; i++ {
		records = append(records, Streak{
			StreakDate:     day(t, "2026-08-01").AddDate(0, 0, i),
			CurrentStreak:  i + 1,
			LongestStreak:  i + 1,
			CompletedToday: true,
		})
	}
	records = append(records, Streak{
		StreakDate:     day(t, "2026-08-10"),
		CurrentStreak:  1,
		LongestStreak:  5,
		CompletedToday: true,
	})

	p := BuildProgress(id, "Read", records, 30)
	assert.Equal(t, 6, p.CompletedDays)
	assert.Equal(t, 30, p.TotalDays)
	assert.Equal(t, 20.0, p.CompletionRate)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 5, p.LongestStreak)
}

func TestBuildProgressIgnoresRecordOrder(t *testing.T) {
	id := uuid.New()
	records := []Streak{
		{StreakDate: day(t, "2026-08-03"), CurrentStreak: 3, LongestStreak: 3, CompletedToday: true},
		{StreakDate: day(t, "2026-08-01"), CurrentStreak: 1, LongestStreak: 1, CompletedToday: true},
		{StreakDate: day(t, "2026-08-02"), CurrentStreak: 2, LongestStreak: 2, CompletedToday: true},
	}

	p := BuildProgress(id, "Stretch", records, 10)
	assert.Equal(t, 3, p.CurrentStreak)
	assert.Equal(t, 3, p.LongestStreak)
	assert.Equal(t, 30.0, p.CompletionRate)
}

func TestBuildProgressRoundsRate(t *testing.T) {
	id := uuid.New()
	records := []Streak{
		{StreakDate: day(t, "2026-08-01"), CurrentStreak: 1, LongestStreak: 1, CompletedToday: true},
	}

	// 1/7 = 14.285...% rounds to 14.3.
	p := BuildProgress(id, "Journal", records, 7)
	assert.Equal(t, 14.3, p.CompletionRate)
}
