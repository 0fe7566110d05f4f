package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flowstateAPI/internal/types/focus"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const focusColumns = `id, user_id, task_id, started_at, ended_at, duration_seconds, session_type, target_minutes, is_completed, created_at, updated_at`

type FocusService struct {
	db *pgxpool.Pool
}

func NewFocusService(db *pgxpool.Pool) *FocusService {
	return &FocusService{db: db}
}

func scanSession(row pgx.Row) (*focus.FocusSession, error) {
	fs := &focus.FocusSession{}
	err := row.Scan(
		&fs.ID, &fs.UserID, &fs.TaskID, &fs.StartedAt, &fs.EndedAt, &fs.DurationSeconds,
		&fs.SessionType, &fs.TargetMinutes, &fs.IsCompleted, &fs.CreatedAt, &fs.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

func (s *FocusService) ListSessions(ctx context.Context, clerkID string, limit int) ([]focus.FocusSession, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+focusColumns+` FROM focus_sessions WHERE user_id = $1 ORDER BY started_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list focus sessions: %w", err)
	}
	defer rows.Close()

	sessions := []focus.FocusSession{}
	for rows.Next() {
		fs, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan focus session: %w", err)
		}
		sessions = append(sessions, *fs)
	}
	return sessions, rows.Err()
}

func (s *FocusService) StartSession(ctx context.Context, clerkID string, req *focus.CreateSessionRequest) (*focus.FocusSession, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var taskID *uuid.UUID
	if req.TaskID != nil && *req.TaskID != "" {
		id, err := uuid.Parse(*req.TaskID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid task id", ErrInvalidInput)
		}
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`, id, userID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check task: %w", err)
		}
		if !exists {
			return nil, ErrNotFound
		}
		taskID = &id
	}

	sessionType := req.SessionType
	if sessionType == "" {
		sessionType = focus.TypePomodoro
	}
	targetMinutes := req.TargetMinutes
	if targetMinutes <= 0 {
		targetMinutes = 25
	}
	startedAt := req.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	query := `
	INSERT INTO focus_sessions (id, user_id, task_id, started_at, duration_seconds, session_type, target_minutes, is_completed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, 0, $5, $6, false, NOW(), NOW())
	RETURNING ` + focusColumns

	fs, err := scanSession(s.db.QueryRow(ctx, query, uuid.New(), userID, taskID, startedAt, sessionType, targetMinutes))
	if err != nil {
		return nil, fmt.Errorf("failed to start focus session: %w", err)
	}
	return fs, nil
}

func (s *FocusService) UpdateSession(ctx context.Context, clerkID string, sessionID uuid.UUID, req *focus.UpdateSessionRequest) (*focus.FocusSession, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE focus_sessions SET
		ended_at = COALESCE($3, ended_at),
		duration_seconds = COALESCE($4, duration_seconds),
		is_completed = COALESCE($5, is_completed),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + focusColumns

	fs, err := scanSession(s.db.QueryRow(ctx, query, sessionID, userID, req.EndedAt, req.DurationSeconds, req.IsCompleted))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update focus session: %w", err)
	}
	return fs, nil
}

func (s *FocusService) DeleteSession(ctx context.Context, clerkID string, sessionID uuid.UUID) error {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM focus_sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete focus session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates completed sessions for today, the trailing week, and all
// time, plus the consecutive-day focus streak.
func (s *FocusService) Stats(ctx context.Context, clerkID string) (*focus.FocusStats, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	stats := &focus.FocusStats{}

	var todaySecs, weekSecs, totalSecs int
	err = s.db.QueryRow(ctx, `
	SELECT
		COUNT(*) FILTER (WHERE started_at::date = $2::date),
		COALESCE(SUM(duration_seconds) FILTER (WHERE started_at::date = $2::date), 0),
		COUNT(*) FILTER (WHERE started_at::date >= $3::date),
		COALESCE(SUM(duration_seconds) FILTER (WHERE started_at::date >= $3::date), 0),
		COUNT(*),
		COALESCE(SUM(duration_seconds), 0)
	FROM focus_sessions
	WHERE user_id = $1 AND is_completed = true`,
		userID, now, weekAgo).Scan(
		&stats.Today.Sessions, &todaySecs,
		&stats.ThisWeek.Sessions, &weekSecs,
		&stats.AllTime.Sessions, &totalSecs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate focus stats: %w", err)
	}
	stats.Today.TotalMinutes = todaySecs / 60
	stats.ThisWeek.TotalMinutes = weekSecs / 60
	stats.AllTime.TotalMinutes = totalSecs / 60

	rows, err := s.db.Query(ctx, `
	SELECT DISTINCT started_at::date
	FROM focus_sessions
	WHERE user_id = $1 AND is_completed = true
	ORDER BY started_at::date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session dates: %w", err)
	}
	defer rows.Close()

	dates := []time.Time{}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan session date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.CurrentStreakDays = focus.StreakDays(dates, now)
	return stats, nil
}
