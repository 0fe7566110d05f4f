package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"flowstateAPI/internal/types/checkin"
	"flowstateAPI/internal/types/notification"
	"flowstateAPI/internal/types/streak"
	"flowstateAPI/internal/types/task"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotRecurring is returned when a habit operation targets a one-off task.
var ErrNotRecurring = errors.New("task is not recurring")

const streakColumns = `id, user_id, task_id, streak_date, current_streak, longest_streak, completed_today, created_at, updated_at`

type HabitService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
}

func NewHabitService(db *pgxpool.Pool, notifications *NotificationService) *HabitService {
	return &HabitService{db: db, notifications: notifications}
}

func scanStreak(row pgx.Row) (*streak.Streak, error) {
	r := &streak.Streak{}
	err := row.Scan(
		&r.ID, &r.UserID, &r.TaskID, &r.StreakDate, &r.CurrentStreak, &r.LongestStreak,
		&r.CompletedToday, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListHabits returns the caller's recurring tasks.
func (s *HabitService) ListHabits(ctx context.Context, clerkID string) ([]task.Task, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1 AND is_recurring = true
	ORDER BY sort_order, created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	habits := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, *t)
	}
	return habits, rows.Err()
}

// CheckIn records a habit completion for the given date and advances the
// streak counters. Re-checking an already completed day is a no-op; a second
// concurrent check-in lands on the (user_id, task_id, streak_date) unique key
// and follows the update path instead of duplicating the row.
func (s *HabitService) CheckIn(ctx context.Context, clerkID string, taskID uuid.UUID, date time.Time) (*streak.Streak, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var title string
	var isRecurring bool
	err = s.db.QueryRow(ctx,
		`SELECT title, is_recurring FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID).Scan(&title, &isRecurring)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if !isRecurring {
		return nil, ErrNotRecurring
	}

	day := date.Truncate(24 * time.Hour)

	prev, err := s.recordFor(ctx, userID, taskID, day.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	// New chains keep the longest_streak high-water mark from the habit's
	// most recent record even across gaps.
	longestSoFar, err := s.latestLongest(ctx, userID, taskID, day)
	if err != nil {
		return nil, err
	}
	current, longest := streak.Advance(prev, longestSoFar)

	// Acquire-or-create: the unique key makes the insert race-safe, the
	// follow-up fetch observes whichever row won.
	_, err = s.db.Exec(ctx, `
	INSERT INTO habit_streaks (id, user_id, task_id, streak_date, current_streak, longest_streak, completed_today, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, true, NOW(), NOW())
	ON CONFLICT (user_id, task_id, streak_date) DO NOTHING`,
		uuid.New(), userID, taskID, day, current, longest)
	if err != nil {
		return nil, fmt.Errorf("failed to create streak record: %w", err)
	}

	rec, err := s.recordFor(ctx, userID, taskID, day)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("streak record missing after insert")
	}

	if rec.CompletedToday {
		// Freshly created or an idempotent re-check-in.
		s.maybeNotifyMilestone(userID, title, rec)
		return rec, nil
	}

	// Existing uncompleted row: complete it and advance the chain off
	// yesterday, keeping the row's own longest as the floor.
	current, longest = streak.Advance(prev, rec.LongestStreak)

	rec, err = scanStreak(s.db.QueryRow(ctx, `
	UPDATE habit_streaks SET completed_today = true, current_streak = $4, longest_streak = $5, updated_at = NOW()
	WHERE user_id = $1 AND task_id = $2 AND streak_date = $3
	RETURNING `+streakColumns,
		userID, taskID, day, current, longest))
	if err != nil {
		return nil, fmt.Errorf("failed to update streak record: %w", err)
	}

	s.maybeNotifyMilestone(userID, title, rec)
	return rec, nil
}

// recordFor fetches one streak record by its composite key, nil when absent.
func (s *HabitService) recordFor(ctx context.Context, userID, taskID uuid.UUID, day time.Time) (*streak.Streak, error) {
	rec, err := scanStreak(s.db.QueryRow(ctx,
		`SELECT `+streakColumns+` FROM habit_streaks WHERE user_id = $1 AND task_id = $2 AND streak_date = $3`,
		userID, taskID, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch streak record: %w", err)
	}
	return rec, nil
}

// latestLongest returns the longest_streak of the most recent record strictly
// before day, zero when the habit has no history.
func (s *HabitService) latestLongest(ctx context.Context, userID, taskID uuid.UUID, day time.Time) (int, error) {
	var longest int
	err := s.db.QueryRow(ctx, `
	SELECT longest_streak FROM habit_streaks
	WHERE user_id = $1 AND task_id = $2 AND streak_date < $3
	ORDER BY streak_date DESC LIMIT 1`,
		userID, taskID, day).Scan(&longest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to fetch streak history: %w", err)
	}
	return longest, nil
}

var milestones = []int{7, 30, 100}

func (s *HabitService) maybeNotifyMilestone(userID uuid.UUID, title string, rec *streak.Streak) {
	if s.notifications == nil {
		return
	}
	for _, m := range milestones {
		if rec.CurrentStreak == m {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			// The title keys idempotency, so it names the habit.
			_, err := s.notifications.GetOrCreate(ctx, &notification.CreateNotificationRequest{
				UserID:  userID,
				Type:    notification.TypeStreak,
				Title:   fmt.Sprintf("%d-day streak: %s", m, title),
				Message: fmt.Sprintf("You've kept %q going for %d days in a row.", title, m),
				Metadata: map[string]any{
					"task_id": rec.TaskID.String(),
					"days":    m,
				},
			})
			if err != nil {
				log.Printf("Failed to create streak milestone notification: %v", err)
			}
			return
		}
	}
}

// StreakHistory returns the latest 30 records for a habit, newest first.
func (s *HabitService) StreakHistory(ctx context.Context, clerkID string, taskID uuid.UUID) ([]streak.Streak, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
	SELECT `+streakColumns+` FROM habit_streaks
	WHERE user_id = $1 AND task_id = $2
	ORDER BY streak_date DESC LIMIT 30`,
		userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list streak history: %w", err)
	}
	defer rows.Close()

	records := []streak.Streak{}
	for rows.Next() {
		r, err := scanStreak(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan streak record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// Progress summarizes every habit over the trailing window. Habits with no
// records in the window report zero streaks, not errors.
func (s *HabitService) Progress(ctx context.Context, clerkID string, windowDays int) ([]streak.HabitProgress, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().AddDate(0, 0, -windowDays).Truncate(24 * time.Hour)

	habits, err := s.ListHabits(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	progress := []streak.HabitProgress{}
	for _, h := range habits {
		rows, err := s.db.Query(ctx, `
		SELECT `+streakColumns+` FROM habit_streaks
		WHERE user_id = $1 AND task_id = $2 AND streak_date >= $3`,
			userID, h.ID, since)
		if err != nil {
			return nil, fmt.Errorf("failed to list streak records: %w", err)
		}

		records := []streak.Streak{}
		for rows.Next() {
			r, err := scanStreak(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan streak record: %w", err)
			}
			records = append(records, *r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		progress = append(progress, streak.BuildProgress(h.ID, h.Title, records, windowDays))
	}
	return progress, nil
}

const checkinColumns = `id, user_id, checkin_date, energy_level, reflection, tasks_planned, tasks_completed, created_at, updated_at`

func scanCheckin(row pgx.Row) (*checkin.DailyCheckin, error) {
	c := &checkin.DailyCheckin{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.CheckinDate, &c.EnergyLevel, &c.Reflection,
		&c.TasksPlanned, &c.TasksCompleted, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListDailyCheckins returns the caller's reflection entries, newest first.
func (s *HabitService) ListDailyCheckins(ctx context.Context, clerkID string) ([]checkin.DailyCheckin, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+checkinColumns+` FROM daily_checkins WHERE user_id = $1 ORDER BY checkin_date DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily checkins: %w", err)
	}
	defer rows.Close()

	checkins := []checkin.DailyCheckin{}
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily checkin: %w", err)
		}
		checkins = append(checkins, *c)
	}
	return checkins, rows.Err()
}

func (s *HabitService) GetDailyCheckin(ctx context.Context, clerkID string, id uuid.UUID) (*checkin.DailyCheckin, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	c, err := scanCheckin(s.db.QueryRow(ctx,
		`SELECT `+checkinColumns+` FROM daily_checkins WHERE id = $1 AND user_id = $2`,
		id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get daily checkin: %w", err)
	}
	return c, nil
}

// CreateDailyCheckin records a reflection entry. A second check-in for the
// same day updates the existing row; (user_id, checkin_date) is unique.
func (s *HabitService) CreateDailyCheckin(ctx context.Context, clerkID string, req *checkin.CreateDailyCheckinRequest) (*checkin.DailyCheckin, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	day, err := req.Normalize(time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	c, err := scanCheckin(s.db.QueryRow(ctx, `
	INSERT INTO daily_checkins (id, user_id, checkin_date, energy_level, reflection, tasks_planned, tasks_completed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	ON CONFLICT (user_id, checkin_date) DO UPDATE SET
		energy_level = EXCLUDED.energy_level,
		reflection = EXCLUDED.reflection,
		tasks_planned = EXCLUDED.tasks_planned,
		tasks_completed = EXCLUDED.tasks_completed,
		updated_at = NOW()
	RETURNING `+checkinColumns,
		uuid.New(), userID, day, req.EnergyLevel, req.Reflection, req.TasksPlanned, req.TasksCompleted))
	if err != nil {
		return nil, fmt.Errorf("failed to create daily checkin: %w", err)
	}
	return c, nil
}

func (s *HabitService) UpdateDailyCheckin(ctx context.Context, clerkID string, id uuid.UUID, req *checkin.UpdateDailyCheckinRequest) (*checkin.DailyCheckin, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if req.EnergyLevel != nil && !checkin.ValidEnergyLevel(*req.EnergyLevel) {
		return nil, fmt.Errorf("%w: energy_level must be between 1 and 5", ErrInvalidInput)
	}
	if (req.TasksPlanned != nil && *req.TasksPlanned < 0) || (req.TasksCompleted != nil && *req.TasksCompleted < 0) {
		return nil, fmt.Errorf("%w: task counts cannot be negative", ErrInvalidInput)
	}

	c, err := scanCheckin(s.db.QueryRow(ctx, `
	UPDATE daily_checkins SET
		energy_level = COALESCE($3, energy_level),
		reflection = COALESCE($4, reflection),
		tasks_planned = COALESCE($5, tasks_planned),
		tasks_completed = COALESCE($6, tasks_completed),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING `+checkinColumns,
		id, userID, req.EnergyLevel, req.Reflection, req.TasksPlanned, req.TasksCompleted))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update daily checkin: %w", err)
	}
	return c, nil
}

func (s *HabitService) DeleteDailyCheckin(ctx context.Context, clerkID string, id uuid.UUID) error {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM daily_checkins WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete daily checkin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
