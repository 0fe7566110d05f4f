package focus

import (
	"time"

	"github.com/google/uuid"
)

type SessionType string

const (
	TypePomodoro SessionType = "pomodoro"
	TypeCustom   SessionType = "custom"
)

type FocusSession struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	UserID          uuid.UUID   `json:"user_id" db:"user_id"`
	TaskID          *uuid.UUID  `json:"task_id" db:"task_id"`
	StartedAt       time.Time   `json:"started_at" db:"started_at"`
	EndedAt         *time.Time  `json:"ended_at" db:"ended_at"`
	DurationSeconds int         `json:"duration_seconds" db:"duration_seconds"`
	SessionType     SessionType `json:"session_type" db:"session_type"`
	TargetMinutes   int         `json:"target_minutes" db:"target_minutes"`
	IsCompleted     bool        `json:"is_completed" db:"is_completed"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

type CreateSessionRequest struct {
	TaskID        *string     `json:"task_id"`
	StartedAt     time.Time   `json:"started_at"`
	SessionType   SessionType `json:"session_type"`
	TargetMinutes int         `json:"target_minutes"`
}

type UpdateSessionRequest struct {
	EndedAt         *time.Time `json:"ended_at"`
	DurationSeconds *int       `json:"duration_seconds"`
	IsCompleted     *bool      `json:"is_completed"`
}

type PeriodStats struct {
	Sessions     int `json:"sessions"`
	TotalMinutes int `json:"total_minutes"`
}

type FocusStats struct {
	Today             PeriodStats `json:"today"`
	ThisWeek          PeriodStats `json:"this_week"`
	AllTime           PeriodStats `json:"all_time"`
	CurrentStreakDays int         `json:"current_streak_days"`
}

// StreakDays counts consecutive days with at least one completed session,
// walking backward from today. dates must be distinct session days sorted
// newest first.
func StreakDays(dates []time.Time, today time.Time) int {
	streak := 0
	day := today.Truncate(24 * time.Hour)
	for i, d := range dates {
		want := day.AddDate(0, 0, -i)
		if d.Truncate(24 * time.Hour).Equal(want) {
			streak++
		} else {
			break
		}
	}
	return streak
}
