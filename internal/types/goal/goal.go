package goal

import (
	"time"

	"github.com/google/uuid"
)

type GoalStatus string

const (
	StatusActive    GoalStatus = "active"
	StatusCompleted GoalStatus = "completed"
	StatusArchived  GoalStatus = "archived"
)

func (s GoalStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

type Goal struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      GoalStatus `json:"status" db:"status"`
	TargetDate  *time.Time `json:"target_date" db:"target_date"`
	ProgressPct int        `json:"progress_pct" db:"progress_pct"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateGoalRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TargetDate  *time.Time `json:"target_date"`
}

type UpdateGoalRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Status      *GoalStatus `json:"status"`
	TargetDate  *time.Time  `json:"target_date"`
	ProgressPct *int        `json:"progress_pct"`
}
