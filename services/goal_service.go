package services

import (
	"context"
	"errors"
	"fmt"

	"flowstateAPI/internal/types/goal"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GoalService struct {
	db *pgxpool.Pool
}

func NewGoalService(db *pgxpool.Pool) *GoalService {
	return &GoalService{db: db}
}

func (s *GoalService) ListGoals(ctx context.Context, clerkID string, status *goal.GoalStatus) ([]goal.Goal, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, title, description, status, target_date, progress_pct, created_at, updated_at
	FROM goals
	WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := []goal.Goal{}
	for rows.Next() {
		var g goal.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.Status, &g.TargetDate, &g.ProgressPct, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *GoalService) GetGoal(ctx context.Context, clerkID string, goalID uuid.UUID) (*goal.Goal, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, title, description, status, target_date, progress_pct, created_at, updated_at
	FROM goals
	WHERE id = $1 AND user_id = $2
	`

	g := &goal.Goal{}
	err = s.db.QueryRow(ctx, query, goalID, userID).Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description, &g.Status, &g.TargetDate, &g.ProgressPct, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return g, nil
}

func (s *GoalService) CreateGoal(ctx context.Context, clerkID string, req *goal.CreateGoalRequest) (*goal.Goal, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	INSERT INTO goals (id, user_id, title, description, status, target_date, progress_pct, created_at, updated_at)
	VALUES ($1, $2, $3, $4, 'active', $5, 0, NOW(), NOW())
	RETURNING id, user_id, title, description, status, target_date, progress_pct, created_at, updated_at
	`

	g := &goal.Goal{}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, req.Title, req.Description, req.TargetDate).Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description, &g.Status, &g.TargetDate, &g.ProgressPct, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return g, nil
}

func (s *GoalService) UpdateGoal(ctx context.Context, clerkID string, goalID uuid.UUID, req *goal.UpdateGoalRequest) (*goal.Goal, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE goals SET
		title = COALESCE($3, title),
		description = COALESCE($4, description),
		status = COALESCE($5, status),
		target_date = COALESCE($6, target_date),
		progress_pct = COALESCE($7, progress_pct),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING id, user_id, title, description, status, target_date, progress_pct, created_at, updated_at
	`

	g := &goal.Goal{}
	err = s.db.QueryRow(ctx, query, goalID, userID, req.Title, req.Description, req.Status, req.TargetDate, req.ProgressPct).Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description, &g.Status, &g.TargetDate, &g.ProgressPct, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return g, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, clerkID string, goalID uuid.UUID) error {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
