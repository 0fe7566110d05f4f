package task

import (
	"time"

	"github.com/google/uuid"
)

type Priority string
type EnergyLevel string
type TaskStatus string

const (
	PriorityUrgent Priority = "P1"
	PriorityHigh   Priority = "P2"
	PriorityMedium Priority = "P3"
	PriorityLow    Priority = "P4"

	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"

	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
	StatusCancelled  TaskStatus = "cancelled"
)

// ActiveStatuses are the states a task can be overdue or at risk in.
var ActiveStatuses = []TaskStatus{StatusTodo, StatusInProgress}

// ActiveStatusStrings is ActiveStatuses as the text values queries bind.
func ActiveStatusStrings() []string {
	out := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		out[i] = string(s)
	}
	return out
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

func (e EnergyLevel) Valid() bool {
	switch e {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return true
	}
	return false
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

type Task struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	ProjectID        *uuid.UUID  `json:"project_id" db:"project_id"`
	UserID           uuid.UUID   `json:"user_id" db:"user_id"`
	Title            string      `json:"title" db:"title"`
	Description      string      `json:"description" db:"description"`
	Priority         Priority    `json:"priority" db:"priority"`
	EnergyLevel      EnergyLevel `json:"energy_level" db:"energy_level"`
	Status           TaskStatus  `json:"status" db:"status"`
	DueDate          *time.Time  `json:"due_date" db:"due_date"`
	EstimatedMinutes *int        `json:"estimated_minutes" db:"estimated_minutes"`
	ActualMinutes    *int        `json:"actual_minutes" db:"actual_minutes"`
	IsRecurring      bool        `json:"is_recurring" db:"is_recurring"`
	RecurrenceRule   string      `json:"recurrence_rule" db:"recurrence_rule"`
	SortOrder        int         `json:"sort_order" db:"sort_order"`
	CompletedAt      *time.Time  `json:"completed_at" db:"completed_at"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
	Subtasks         []Subtask   `json:"subtasks,omitempty"`
}

type Subtask struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TaskID      uuid.UUID `json:"task_id" db:"task_id"`
	Title       string    `json:"title" db:"title"`
	IsCompleted bool      `json:"is_completed" db:"is_completed"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Tag struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateTaskRequest struct {
	ProjectID        *string     `json:"project_id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Priority         Priority    `json:"priority"`
	EnergyLevel      EnergyLevel `json:"energy_level"`
	DueDate          *time.Time  `json:"due_date"`
	EstimatedMinutes *int        `json:"estimated_minutes"`
	IsRecurring      bool        `json:"is_recurring"`
	RecurrenceRule   string      `json:"recurrence_rule"`
}

type UpdateTaskRequest struct {
	ProjectID        *string      `json:"project_id"`
	Title            *string      `json:"title"`
	Description      *string      `json:"description"`
	Priority         *Priority    `json:"priority"`
	EnergyLevel      *EnergyLevel `json:"energy_level"`
	Status           *TaskStatus  `json:"status"`
	DueDate          *time.Time   `json:"due_date"`
	EstimatedMinutes *int         `json:"estimated_minutes"`
	ActualMinutes    *int         `json:"actual_minutes"`
	IsRecurring      *bool        `json:"is_recurring"`
	RecurrenceRule   *string      `json:"recurrence_rule"`
	SortOrder        *int         `json:"sort_order"`
}

type ListTasksFilter struct {
	ProjectID   *uuid.UUID
	Status      *TaskStatus
	Priority    *Priority
	EnergyLevel *EnergyLevel
	IsRecurring *bool
	Search      string
	Limit       int
	Offset      int
}

type ReorderItem struct {
	ID        string `json:"id"`
	SortOrder int    `json:"sort_order"`
}
