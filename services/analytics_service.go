package services

import (
	"context"
	"fmt"
	"time"

	"flowstateAPI/internal/analytics"
	"flowstateAPI/internal/types/task"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AnalyticsService struct {
	db *pgxpool.Pool
}

func NewAnalyticsService(db *pgxpool.Pool) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// Overview returns the dashboard counters. Every aggregate tolerates an empty
// table and reports zero.
func (s *AnalyticsService) Overview(ctx context.Context, clerkID string) (*analytics.Overview, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ov := &analytics.Overview{}

	err = s.db.QueryRow(ctx, `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'done'),
		COUNT(*) FILTER (WHERE status = 'in_progress'),
		COUNT(*) FILTER (WHERE status = ANY($3) AND due_date < $2),
		COUNT(*) FILTER (WHERE status = 'done' AND completed_at::date = $2::date)
	FROM tasks WHERE user_id = $1`,
		userID, now, task.ActiveStatusStrings()).Scan(&ov.TotalTasks, &ov.Completed, &ov.InProgress, &ov.Overdue, &ov.TodayCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks: %w", err)
	}

	var todayFocusSeconds int
	err = s.db.QueryRow(ctx, `
	SELECT COALESCE(SUM(duration_seconds), 0)
	FROM focus_sessions
	WHERE user_id = $1 AND is_completed = true AND started_at::date = $2::date`,
		userID, now).Scan(&todayFocusSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate focus sessions: %w", err)
	}

	ov.CompletionRate = analytics.CompletionRate(ov.Completed, ov.TotalTasks)
	ov.TodayFocusMinutes = todayFocusSeconds / 60
	return ov, nil
}

// Trends reports per-day completed/created/focus numbers for the last N days,
// oldest first.
func (s *AnalyticsService) Trends(ctx context.Context, clerkID string, days int) ([]analytics.TrendPoint, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if days <= 0 {
		days = 14
	}
	today := time.Now()
	since := today.AddDate(0, 0, -(days - 1))

	counts := analytics.DailyCounts{
		Completed:    map[string]int{},
		Created:      map[string]int{},
		FocusSeconds: map[string]int{},
	}

	rows, err := s.db.Query(ctx, `
	SELECT completed_at::date, COUNT(*)
	FROM tasks
	WHERE user_id = $1 AND status = 'done' AND completed_at >= $2::date
	GROUP BY completed_at::date`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate completions: %w", err)
	}
	for rows.Next() {
		var d time.Time
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan completion count: %w", err)
		}
		counts.Completed[d.Format(analytics.DateLayout)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
	SELECT created_at::date, COUNT(*)
	FROM tasks
	WHERE user_id = $1 AND created_at >= $2::date
	GROUP BY created_at::date`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate creations: %w", err)
	}
	for rows.Next() {
		var d time.Time
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan creation count: %w", err)
		}
		counts.Created[d.Format(analytics.DateLayout)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
	SELECT started_at::date, COALESCE(SUM(duration_seconds), 0)
	FROM focus_sessions
	WHERE user_id = $1 AND is_completed = true AND started_at >= $2::date
	GROUP BY started_at::date`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate focus time: %w", err)
	}
	for rows.Next() {
		var d time.Time
		var secs int
		if err := rows.Scan(&d, &secs); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan focus seconds: %w", err)
		}
		counts.FocusSeconds[d.Format(analytics.DateLayout)] = secs
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return analytics.BuildTrends(counts, days, today), nil
}

// Burndown charts cumulative completion against the current total for an
// optional project over the last N days. The total is today's count for every
// day in the window; the chart deliberately does not reconstruct how many
// tasks existed on past days.
func (s *AnalyticsService) Burndown(ctx context.Context, clerkID string, projectID *uuid.UUID, days int) ([]analytics.BurndownPoint, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if days <= 0 {
		days = 30
	}
	today := time.Now()
	windowStart := today.AddDate(0, 0, -(days - 1))

	var total, completedBefore int
	err = s.db.QueryRow(ctx, `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'done' AND completed_at < $3::date)
	FROM tasks
	WHERE user_id = $1 AND ($2::uuid IS NULL OR project_id = $2)`,
		userID, projectID, windowStart).Scan(&total, &completedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	completedByDay := map[string]int{}
	rows, err := s.db.Query(ctx, `
	SELECT completed_at::date, COUNT(*)
	FROM tasks
	WHERE user_id = $1 AND ($2::uuid IS NULL OR project_id = $2)
	  AND status = 'done' AND completed_at >= $3::date
	GROUP BY completed_at::date`, userID, projectID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate completions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d time.Time
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return nil, fmt.Errorf("failed to scan completion count: %w", err)
		}
		completedByDay[d.Format(analytics.DateLayout)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return analytics.BuildBurndown(total, completedBefore, completedByDay, days, today), nil
}

// TimeAllocation breaks down finished work by project, energy level, and
// priority.
func (s *AnalyticsService) TimeAllocation(ctx context.Context, clerkID string) (*analytics.TimeAllocation, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	alloc := &analytics.TimeAllocation{
		ByProject:  []analytics.ProjectAllocation{},
		ByEnergy:   []analytics.TierCount{},
		ByPriority: []analytics.TierCount{},
	}

	rows, err := s.db.Query(ctx, `
	SELECT COALESCE(p.title, 'No project'), SUM(t.actual_minutes)
	FROM tasks t
	LEFT JOIN projects p ON p.id = t.project_id
	WHERE t.user_id = $1 AND t.status = 'done' AND t.actual_minutes IS NOT NULL
	GROUP BY p.title
	ORDER BY SUM(t.actual_minutes) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by project: %w", err)
	}
	for rows.Next() {
		var pa analytics.ProjectAllocation
		if err := rows.Scan(&pa.Project, &pa.TotalMinutes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan project allocation: %w", err)
		}
		alloc.ByProject = append(alloc.ByProject, pa)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
	SELECT energy_level, COUNT(*)
	FROM tasks WHERE user_id = $1 AND status = 'done'
	GROUP BY energy_level ORDER BY energy_level`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by energy: %w", err)
	}
	for rows.Next() {
		var tc analytics.TierCount
		if err := rows.Scan(&tc.Tier, &tc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan energy count: %w", err)
		}
		alloc.ByEnergy = append(alloc.ByEnergy, tc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
	SELECT priority, COUNT(*)
	FROM tasks WHERE user_id = $1 AND status = 'done'
	GROUP BY priority ORDER BY priority`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by priority: %w", err)
	}
	for rows.Next() {
		var tc analytics.TierCount
		if err := rows.Scan(&tc.Tier, &tc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan priority count: %w", err)
		}
		alloc.ByPriority = append(alloc.ByPriority, tc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return alloc, nil
}
