package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flowstateAPI/internal/types/task"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidInput = errors.New("invalid input")

const taskColumns = `id, project_id, user_id, title, description, priority, energy_level, status,
	due_date, estimated_minutes, actual_minutes, is_recurring, recurrence_rule, sort_order,
	completed_at, created_at, updated_at`

type TaskService struct {
	db *pgxpool.Pool
}

func NewTaskService(db *pgxpool.Pool) *TaskService {
	return &TaskService{db: db}
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.UserID, &t.Title, &t.Description, &t.Priority, &t.EnergyLevel, &t.Status,
		&t.DueDate, &t.EstimatedMinutes, &t.ActualMinutes, &t.IsRecurring, &t.RecurrenceRule, &t.SortOrder,
		&t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) ListTasks(ctx context.Context, clerkID string, filter *task.ListTasksFilter) ([]task.Task, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var search *string
	if q := strings.TrimSpace(filter.Search); q != "" {
		pattern := "%" + q + "%"
		search = &pattern
	}

	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	  AND ($2::uuid IS NULL OR project_id = $2)
	  AND ($3::text IS NULL OR status = $3)
	  AND ($4::text IS NULL OR priority = $4)
	  AND ($5::text IS NULL OR energy_level = $5)
	  AND ($6::boolean IS NULL OR is_recurring = $6)
	  AND ($7::text IS NULL OR title ILIKE $7 OR description ILIKE $7)
	ORDER BY sort_order, created_at DESC
	LIMIT $8 OFFSET $9
	`

	rows, err := s.db.Query(ctx, query,
		userID, filter.ProjectID, filter.Status, filter.Priority, filter.EnergyLevel,
		filter.IsRecurring, search, limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskService) GetTask(ctx context.Context, clerkID string, taskID uuid.UUID) (*task.Task, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	t, err := scanTask(s.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	subtasks, err := s.listSubtasks(ctx, taskID)
	if err != nil {
		return nil, err
	}
	t.Subtasks = subtasks
	return t, nil
}

func (s *TaskService) CreateTask(ctx context.Context, clerkID string, req *task.CreateTaskRequest) (*task.Task, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	priority := req.Priority
	if priority == "" {
		priority = task.PriorityMedium
	}
	energy := req.EnergyLevel
	if energy == "" {
		energy = task.EnergyMedium
	}
	if !priority.Valid() || !energy.Valid() {
		return nil, fmt.Errorf("%w: unknown priority or energy level", ErrInvalidInput)
	}

	var projectID *uuid.UUID
	if req.ProjectID != nil && *req.ProjectID != "" {
		id, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid project id", ErrInvalidInput)
		}
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1 AND user_id = $2)`, id, userID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check project: %w", err)
		}
		if !exists {
			return nil, ErrNotFound
		}
		projectID = &id
	}

	query := `
	INSERT INTO tasks (id, project_id, user_id, title, description, priority, energy_level, status,
		due_date, estimated_minutes, is_recurring, recurrence_rule, sort_order, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, 'todo', $8, $9, $10, $11, 0, NOW(), NOW())
	RETURNING ` + taskColumns

	t, err := scanTask(s.db.QueryRow(ctx, query,
		uuid.New(), projectID, userID, req.Title, req.Description, priority, energy,
		req.DueDate, req.EstimatedMinutes, req.IsRecurring, req.RecurrenceRule,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return t, nil
}

// QuickCapture creates a bare task from a title only.
func (s *TaskService) QuickCapture(ctx context.Context, clerkID string, title string) (*task.Task, error) {
	return s.CreateTask(ctx, clerkID, &task.CreateTaskRequest{Title: title})
}

func (s *TaskService) UpdateTask(ctx context.Context, clerkID string, taskID uuid.UUID, req *task.UpdateTaskRequest) (*task.Task, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if req.Priority != nil && !req.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority", ErrInvalidInput)
	}
	if req.EnergyLevel != nil && !req.EnergyLevel.Valid() {
		return nil, fmt.Errorf("%w: unknown energy level", ErrInvalidInput)
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status", ErrInvalidInput)
	}

	var projectID *uuid.UUID
	if req.ProjectID != nil && *req.ProjectID != "" {
		id, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid project id", ErrInvalidInput)
		}
		projectID = &id
	}

	query := `
	UPDATE tasks SET
		project_id = COALESCE($3, project_id),
		title = COALESCE($4, title),
		description = COALESCE($5, description),
		priority = COALESCE($6, priority),
		energy_level = COALESCE($7, energy_level),
		status = COALESCE($8, status),
		due_date = COALESCE($9, due_date),
		estimated_minutes = COALESCE($10, estimated_minutes),
		actual_minutes = COALESCE($11, actual_minutes),
		is_recurring = COALESCE($12, is_recurring),
		recurrence_rule = COALESCE($13, recurrence_rule),
		sort_order = COALESCE($14, sort_order),
		completed_at = CASE WHEN $8::text = 'done' AND completed_at IS NULL THEN NOW() ELSE completed_at END,
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + taskColumns

	t, err := scanTask(s.db.QueryRow(ctx, query,
		taskID, userID, projectID, req.Title, req.Description, req.Priority, req.EnergyLevel,
		req.Status, req.DueDate, req.EstimatedMinutes, req.ActualMinutes, req.IsRecurring,
		req.RecurrenceRule, req.SortOrder,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return t, nil
}

// CompleteTask marks a task done and stamps completed_at.
func (s *TaskService) CompleteTask(ctx context.Context, clerkID string, taskID uuid.UUID) (*task.Task, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE tasks SET status = 'done', completed_at = NOW(), updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + taskColumns

	t, err := scanTask(s.db.QueryRow(ctx, query, taskID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, clerkID string, taskID uuid.UUID) error {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReorderTasks bulk-updates sort_order for drag-and-drop.
func (s *TaskService) ReorderTasks(ctx context.Context, clerkID string, items []task.ReorderItem) error {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			return fmt.Errorf("%w: invalid task id %q", ErrInvalidInput, item.ID)
		}
		batch.Queue(`UPDATE tasks SET sort_order = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
			item.SortOrder, id, userID)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to reorder tasks: %w", err)
		}
	}
	return nil
}

// ============= SUBTASKS =============

func (s *TaskService) listSubtasks(ctx context.Context, taskID uuid.UUID) ([]task.Subtask, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, task_id, title, is_completed, sort_order, created_at, updated_at
	FROM subtasks WHERE task_id = $1 ORDER BY sort_order`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	defer rows.Close()

	subtasks := []task.Subtask{}
	for rows.Next() {
		var st task.Subtask
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Title, &st.IsCompleted, &st.SortOrder, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subtask: %w", err)
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, rows.Err()
}

func (s *TaskService) CreateSubtask(ctx context.Context, clerkID string, taskID uuid.UUID, title string) (*task.Subtask, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`, taskID, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check task: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	query := `
	INSERT INTO subtasks (id, task_id, title, is_completed, sort_order, created_at, updated_at)
	VALUES ($1, $2, $3, false, COALESCE((SELECT MAX(sort_order) + 1 FROM subtasks WHERE task_id = $2), 0), NOW(), NOW())
	RETURNING id, task_id, title, is_completed, sort_order, created_at, updated_at
	`

	st := &task.Subtask{}
	err = s.db.QueryRow(ctx, query, uuid.New(), taskID, title).Scan(
		&st.ID, &st.TaskID, &st.Title, &st.IsCompleted, &st.SortOrder, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create subtask: %w", err)
	}
	return st, nil
}

// ToggleSubtask flips the completion flag.
func (s *TaskService) ToggleSubtask(ctx context.Context, clerkID string, subtaskID uuid.UUID) (*task.Subtask, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE subtasks SET is_completed = NOT is_completed, updated_at = NOW()
	WHERE id = $1 AND task_id IN (SELECT id FROM tasks WHERE user_id = $2)
	RETURNING id, task_id, title, is_completed, sort_order, created_at, updated_at
	`

	st := &task.Subtask{}
	err = s.db.QueryRow(ctx, query, subtaskID, userID).Scan(
		&st.ID, &st.TaskID, &st.Title, &st.IsCompleted, &st.SortOrder, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to toggle subtask: %w", err)
	}
	return st, nil
}

func (s *TaskService) DeleteSubtask(ctx context.Context, clerkID string, subtaskID uuid.UUID) error {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM subtasks WHERE id = $1 AND task_id IN (SELECT id FROM tasks WHERE user_id = $2)`,
		subtaskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ============= TAGS =============

func (s *TaskService) ListTags(ctx context.Context, clerkID string) ([]task.Tag, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, color, created_at FROM tags WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []task.Tag{}
	for rows.Next() {
		var tg task.Tag
		if err := rows.Scan(&tg.ID, &tg.UserID, &tg.Name, &tg.Color, &tg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tg)
	}
	return tags, rows.Err()
}

func (s *TaskService) CreateTag(ctx context.Context, clerkID string, name, color string) (*task.Tag, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if color == "" {
		color = "#8b5cf6"
	}

	// (user_id, name) is unique; re-creating an existing tag returns the
	// original row instead of failing.
	query := `
	INSERT INTO tags (id, user_id, name, color, created_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (user_id, name) DO UPDATE SET color = EXCLUDED.color
	RETURNING id, user_id, name, color, created_at
	`

	tg := &task.Tag{}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, name, color).Scan(
		&tg.ID, &tg.UserID, &tg.Name, &tg.Color, &tg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tg, nil
}

func (s *TaskService) DeleteTag(ctx context.Context, clerkID string, tagID uuid.UUID) error {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM tags WHERE id = $1 AND user_id = $2`, tagID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TagTask attaches a tag to a task, ignoring duplicates.
func (s *TaskService) TagTask(ctx context.Context, clerkID string, taskID, tagID uuid.UUID) error {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
	INSERT INTO task_tags (task_id, tag_id)
	SELECT t.id, tg.id FROM tasks t, tags tg
	WHERE t.id = $1 AND t.user_id = $3 AND tg.id = $2 AND tg.user_id = $3
	ON CONFLICT (task_id, tag_id) DO NOTHING`, taskID, tagID, userID)
	if err != nil {
		return fmt.Errorf("failed to tag task: %w", err)
	}
	return nil
}

// DueBetween lists tasks in active states due inside [from, to). Used by the
// reminder jobs; rows are not scoped to one user.
func (s *TaskService) DueBetween(ctx context.Context, from, to time.Time) ([]task.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE status = ANY($3) AND due_date >= $1 AND due_date < $2
	`

	rows, err := s.db.Query(ctx, query, from, to, task.ActiveStatusStrings())
	if err != nil {
		return nil, fmt.Errorf("failed to list due tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// OverdueTasks lists every active task past its due date, across all users.
func (s *TaskService) OverdueTasks(ctx context.Context, now time.Time) ([]task.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE status = ANY($2) AND due_date < $1
	`

	rows, err := s.db.Query(ctx, query, now, task.ActiveStatusStrings())
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
