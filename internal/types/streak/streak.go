package streak

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Streak is one day's check-in record for a recurring task.
// (user_id, task_id, streak_date) is unique in the habit_streaks table.
type Streak struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	TaskID         uuid.UUID `json:"task_id" db:"task_id"`
	StreakDate     time.Time `json:"streak_date" db:"streak_date"`
	CurrentStreak  int       `json:"current_streak" db:"current_streak"`
	LongestStreak  int       `json:"longest_streak" db:"longest_streak"`
	CompletedToday bool      `json:"completed_today" db:"completed_today"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Advance computes the streak counters for completing a day.
// prev is the record for the day before, nil when absent. A missing or
// uncompleted previous day resets the chain to 1; there is no retroactive
// chain repair for back-dated check-ins.
func Advance(prev *Streak, longestSoFar int) (current, longest int) {
	current = 1
	if prev != nil && prev.CompletedToday {
		current = prev.CurrentStreak + 1
	}
	longest = longestSoFar
	if current > longest {
		longest = current
	}
	return current, longest
}

type HabitProgress struct {
	TaskID         string  `json:"task_id"`
	Title          string  `json:"title"`
	CompletedDays  int     `json:"completed_days"`
	TotalDays      int     `json:"total_days"`
	CompletionRate float64 `json:"completion_rate"`
	CurrentStreak  int     `json:"current_streak"`
	LongestStreak  int     `json:"longest_streak"`
}

// BuildProgress summarizes a habit's records over a trailing window.
// records may arrive in any order; the latest record supplies the streak
// counters and completion_rate is a percentage rounded to one decimal.
func BuildProgress(taskID uuid.UUID, title string, records []Streak, windowDays int) HabitProgress {
	p := HabitProgress{
		TaskID:    taskID.String(),
		Title:     title,
		TotalDays: windowDays,
	}

	var latest *Streak
	for i := range records {
		r := &records[i]
		if r.CompletedToday {
			p.CompletedDays++
		}
		if latest == nil || r.StreakDate.After(latest.StreakDate) {
			latest = r
		}
	}

	if latest != nil {
		p.CurrentStreak = latest.CurrentStreak
		p.LongestStreak = latest.LongestStreak
	}
	if windowDays > 0 {
		p.CompletionRate = math.Round(float64(p.CompletedDays)/float64(windowDays)*1000) / 10
	}
	return p
}
