package services

import (
	"context"
	"errors"
	"fmt"

	"flowstateAPI/internal/types/project"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectService struct {
	db *pgxpool.Pool
}

func NewProjectService(db *pgxpool.Pool) *ProjectService {
	return &ProjectService{db: db}
}

func (s *ProjectService) ListProjects(ctx context.Context, clerkID string, goalID *uuid.UUID, status *project.ProjectStatus) ([]project.Project, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT p.id, p.goal_id, p.user_id, p.title, p.description, p.status, p.color, p.sort_order,
	       COUNT(t.id) AS task_count, p.created_at, p.updated_at
	FROM projects p
	LEFT JOIN tasks t ON t.project_id = p.id
	WHERE p.user_id = $1
	  AND ($2::uuid IS NULL OR p.goal_id = $2)
	  AND ($3::text IS NULL OR p.status = $3)
	GROUP BY p.id
	ORDER BY p.sort_order, p.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID, goalID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		var p project.Project
		if err := rows.Scan(&p.ID, &p.GoalID, &p.UserID, &p.Title, &p.Description, &p.Status, &p.Color, &p.SortOrder, &p.TaskCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *ProjectService) GetProject(ctx context.Context, clerkID string, projectID uuid.UUID) (*project.Project, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, goal_id, user_id, title, description, status, color, sort_order, created_at, updated_at
	FROM projects
	WHERE id = $1 AND user_id = $2
	`

	p := &project.Project{}
	err = s.db.QueryRow(ctx, query, projectID, userID).Scan(
		&p.ID, &p.GoalID, &p.UserID, &p.Title, &p.Description, &p.Status, &p.Color, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) CreateProject(ctx context.Context, clerkID string, req *project.CreateProjectRequest) (*project.Project, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	goalID, err := uuid.Parse(req.GoalID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid goal id", ErrInvalidInput)
	}

	// Goal must belong to the caller.
	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM goals WHERE id = $1 AND user_id = $2)`, goalID, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check goal: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	color := req.Color
	if color == "" {
		color = "#6366f1"
	}

	query := `
	INSERT INTO projects (id, goal_id, user_id, title, description, status, color, sort_order, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, 'active', $6, 0, NOW(), NOW())
	RETURNING id, goal_id, user_id, title, description, status, color, sort_order, created_at, updated_at
	`

	p := &project.Project{}
	err = s.db.QueryRow(ctx, query, uuid.New(), goalID, userID, req.Title, req.Description, color).Scan(
		&p.ID, &p.GoalID, &p.UserID, &p.Title, &p.Description, &p.Status, &p.Color, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, clerkID string, projectID uuid.UUID, req *project.UpdateProjectRequest) (*project.Project, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE projects SET
		title = COALESCE($3, title),
		description = COALESCE($4, description),
		status = COALESCE($5, status),
		color = COALESCE($6, color),
		sort_order = COALESCE($7, sort_order),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING id, goal_id, user_id, title, description, status, color, sort_order, created_at, updated_at
	`

	p := &project.Project{}
	err = s.db.QueryRow(ctx, query, projectID, userID, req.Title, req.Description, req.Status, req.Color, req.SortOrder).Scan(
		&p.ID, &p.GoalID, &p.UserID, &p.Title, &p.Description, &p.Status, &p.Color, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, clerkID string, projectID uuid.UUID) error {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
