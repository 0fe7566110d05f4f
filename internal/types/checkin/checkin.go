package checkin

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DailyCheckin is one day's reflection entry.
// (user_id, checkin_date) is unique in the daily_checkins table.
type DailyCheckin struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	CheckinDate    time.Time `json:"checkin_date" db:"checkin_date"`
	EnergyLevel    int       `json:"energy_level" db:"energy_level"`
	Reflection     string    `json:"reflection" db:"reflection"`
	TasksPlanned   int       `json:"tasks_planned" db:"tasks_planned"`
	TasksCompleted int       `json:"tasks_completed" db:"tasks_completed"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ValidEnergyLevel reports whether v is on the 1 to 5 scale.
func ValidEnergyLevel(v int) bool {
	return v >= 1 && v <= 5
}

type CreateDailyCheckinRequest struct {
	CheckinDate    string `json:"checkin_date"`
	EnergyLevel    int    `json:"energy_level"`
	Reflection     string `json:"reflection"`
	TasksPlanned   int    `json:"tasks_planned"`
	TasksCompleted int    `json:"tasks_completed"`
}

type UpdateDailyCheckinRequest struct {
	EnergyLevel    *int    `json:"energy_level"`
	Reflection     *string `json:"reflection"`
	TasksPlanned   *int    `json:"tasks_planned"`
	TasksCompleted *int    `json:"tasks_completed"`
}

// Normalize validates the request and resolves its date. A zero energy level
// defaults to 3 and a missing date defaults to now's calendar day.
func (r *CreateDailyCheckinRequest) Normalize(now time.Time) (time.Time, error) {
	if r.EnergyLevel == 0 {
		r.EnergyLevel = 3
	}
	if !ValidEnergyLevel(r.EnergyLevel) {
		return time.Time{}, errors.New("energy_level must be between 1 and 5")
	}
	if r.TasksPlanned < 0 || r.TasksCompleted < 0 {
		return time.Time{}, errors.New("task counts cannot be negative")
	}
	if r.CheckinDate == "" {
		return now.Truncate(24 * time.Hour), nil
	}
	day, err := time.Parse("2006-01-02", r.CheckinDate)
	if err != nil {
		return time.Time{}, errors.New("invalid checkin_date, use YYYY-MM-DD")
	}
	return day, nil
}
