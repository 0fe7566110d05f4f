package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeReminder NotificationType = "reminder"
	TypeOverdue  NotificationType = "overdue"
	TypeStreak   NotificationType = "streak"
	TypeSystem   NotificationType = "system"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	Metadata  map[string]any   `json:"metadata" db:"metadata"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type CreateNotificationRequest struct {
	UserID   uuid.UUID        `json:"user_id"`
	Type     NotificationType `json:"type"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Metadata map[string]any   `json:"metadata"`
}

type DeviceToken struct {
	Token    string `json:"token" db:"token"`
	Platform string `json:"platform" db:"platform"`
}
