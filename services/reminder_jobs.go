package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"flowstateAPI/internal/types/notification"

	"github.com/robfig/cron/v3"
)

// ReminderScheduler runs the background jobs that turn due dates into
// notifications. GetOrCreate keeps repeated runs from duplicating alerts.
type ReminderScheduler struct {
	cron          *cron.Cron
	tasks         *TaskService
	notifications *NotificationService
}

func NewReminderScheduler(tasks *TaskService, notifications *NotificationService) *ReminderScheduler {
	return &ReminderScheduler{
		cron:          cron.New(),
		tasks:         tasks,
		notifications: notifications,
	}
}

func (r *ReminderScheduler) Start() error {
	if _, err := r.cron.AddFunc("*/15 * * * *", r.runOverdueAlerts); err != nil {
		return fmt.Errorf("failed to schedule overdue job: %w", err)
	}
	if _, err := r.cron.AddFunc("*/15 * * * *", r.runUpcomingReminders); err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}
	r.cron.Start()
	log.Println("Reminder scheduler started")
	return nil
}

func (r *ReminderScheduler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// runOverdueAlerts notifies every user with active tasks past their due date.
func (r *ReminderScheduler) runOverdueAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	overdue, err := r.tasks.OverdueTasks(ctx, time.Now())
	if err != nil {
		log.Printf("Overdue job failed: %v", err)
		return
	}

	for _, t := range overdue {
		_, err := r.notifications.GetOrCreate(ctx, &notification.CreateNotificationRequest{
			UserID:  t.UserID,
			Type:    notification.TypeOverdue,
			Title:   fmt.Sprintf("Overdue: %s", t.Title),
			Message: "This task is past its due date.",
			Metadata: map[string]any{
				"task_id": t.ID.String(),
			},
		})
		if err != nil {
			log.Printf("Failed to create overdue notification for task %s: %v", t.ID, err)
		}
	}
}

// runUpcomingReminders notifies about tasks due within the next 24 hours.
func (r *ReminderScheduler) runUpcomingReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()
	upcoming, err := r.tasks.DueBetween(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		log.Printf("Reminder job failed: %v", err)
		return
	}

	for _, t := range upcoming {
		_, err := r.notifications.GetOrCreate(ctx, &notification.CreateNotificationRequest{
			UserID:  t.UserID,
			Type:    notification.TypeReminder,
			Title:   fmt.Sprintf("Due soon: %s", t.Title),
			Message: "This task is due within the next 24 hours.",
			Metadata: map[string]any{
				"task_id": t.ID.String(),
			},
		})
		if err != nil {
			log.Printf("Failed to create reminder notification for task %s: %v", t.ID, err)
		}
	}
}
