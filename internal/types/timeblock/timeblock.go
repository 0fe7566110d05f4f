package timeblock

import (
	"time"

	"github.com/google/uuid"
)

type BlockType string

const (
	TypeDeepWork BlockType = "deep_work"
	TypeMeeting  BlockType = "meeting"
	TypeBreak    BlockType = "break"
	TypeTask     BlockType = "task"
)

func (t BlockType) Valid() bool {
	switch t {
	case TypeDeepWork, TypeMeeting, TypeBreak, TypeTask:
		return true
	}
	return false
}

type TimeBlock struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	TaskID      *uuid.UUID `json:"task_id" db:"task_id"`
	Title       string     `json:"title" db:"title"`
	BlockDate   time.Time  `json:"block_date" db:"block_date"`
	StartTime   string     `json:"start_time" db:"start_time"`
	EndTime     string     `json:"end_time" db:"end_time"`
	BlockType   BlockType  `json:"block_type" db:"block_type"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	SortOrder   int        `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateTimeBlockRequest struct {
	TaskID    *string   `json:"task_id"`
	Title     string    `json:"title"`
	BlockDate string    `json:"block_date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	BlockType BlockType `json:"block_type"`
}

type UpdateTimeBlockRequest struct {
	Title       *string    `json:"title"`
	BlockDate   *string    `json:"block_date"`
	StartTime   *string    `json:"start_time"`
	EndTime     *string    `json:"end_time"`
	BlockType   *BlockType `json:"block_type"`
	IsCompleted *bool      `json:"is_completed"`
	SortOrder   *int       `json:"sort_order"`
}

type ReorderItem struct {
	ID        string  `json:"id"`
	SortOrder int     `json:"sort_order"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

type WeeklySchedule struct {
	WeekStart string      `json:"week_start"`
	WeekEnd   string      `json:"week_end"`
	Blocks    []TimeBlock `json:"blocks"`
}

// WeekBounds returns the Monday and Sunday of the week containing d.
func WeekBounds(d time.Time) (start, end time.Time) {
	offset := (int(d.Weekday()) + 6) % 7
	start = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()).AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 6)
	return start, end
}
