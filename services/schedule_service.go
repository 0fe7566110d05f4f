package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flowstateAPI/internal/types/task"
	"flowstateAPI/internal/types/timeblock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const blockColumns = `id, user_id, task_id, title, block_date, start_time, end_time, block_type, is_completed, sort_order, created_at, updated_at`

// atRiskWindow is how far ahead a due date counts as at risk.
const atRiskWindow = 48 * time.Hour

type ScheduleService struct {
	db *pgxpool.Pool
}

func NewScheduleService(db *pgxpool.Pool) *ScheduleService {
	return &ScheduleService{db: db}
}

func scanBlock(row pgx.Row) (*timeblock.TimeBlock, error) {
	b := &timeblock.TimeBlock{}
	err := row.Scan(
		&b.ID, &b.UserID, &b.TaskID, &b.Title, &b.BlockDate, &b.StartTime, &b.EndTime,
		&b.BlockType, &b.IsCompleted, &b.SortOrder, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *ScheduleService) ListBlocks(ctx context.Context, clerkID string, date *time.Time, blockType *timeblock.BlockType) ([]timeblock.TimeBlock, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT ` + blockColumns + `
	FROM time_blocks
	WHERE user_id = $1
	  AND ($2::date IS NULL OR block_date = $2)
	  AND ($3::text IS NULL OR block_type = $3)
	ORDER BY block_date, start_time
	`

	rows, err := s.db.Query(ctx, query, userID, date, blockType)
	if err != nil {
		return nil, fmt.Errorf("failed to list time blocks: %w", err)
	}
	defer rows.Close()

	blocks := []timeblock.TimeBlock{}
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time block: %w", err)
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

func (s *ScheduleService) CreateBlock(ctx context.Context, clerkID string, req *timeblock.CreateTimeBlockRequest) (*timeblock.TimeBlock, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	blockDate, err := time.Parse("2006-01-02", req.BlockDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid block_date, use YYYY-MM-DD", ErrInvalidInput)
	}
	if req.StartTime == "" || req.EndTime == "" {
		return nil, fmt.Errorf("%w: start_time and end_time are required", ErrInvalidInput)
	}
	blockType := req.BlockType
	if blockType == "" {
		blockType = timeblock.TypeTask
	}
	if !blockType.Valid() {
		return nil, fmt.Errorf("%w: unknown block type", ErrInvalidInput)
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

	query := `
	INSERT INTO time_blocks (id, user_id, task_id, title, block_date, start_time, end_time, block_type, is_completed, sort_order, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, 0, NOW(), NOW())
	RETURNING ` + blockColumns

	b, err := scanBlock(s.db.QueryRow(ctx, query,
		uuid.New(), userID, taskID, req.Title, blockDate, req.StartTime, req.EndTime, blockType))
	if err != nil {
		return nil, fmt.Errorf("failed to create time block: %w", err)
	}
	return b, nil
}

func (s *ScheduleService) UpdateBlock(ctx context.Context, clerkID string, blockID uuid.UUID, req *timeblock.UpdateTimeBlockRequest) (*timeblock.TimeBlock, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var blockDate *time.Time
	if req.BlockDate != nil {
		d, err := time.Parse("2006-01-02", *req.BlockDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid block_date, use YYYY-MM-DD", ErrInvalidInput)
		}
		blockDate = &d
	}
	if req.BlockType != nil && !req.BlockType.Valid() {
		return nil, fmt.Errorf("%w: unknown block type", ErrInvalidInput)
	}

	query := `
	UPDATE time_blocks SET
		title = COALESCE($3, title),
		block_date = COALESCE($4, block_date),
		start_time = COALESCE($5, start_time),
		end_time = COALESCE($6, end_time),
		block_type = COALESCE($7, block_type),
		is_completed = COALESCE($8, is_completed),
		sort_order = COALESCE($9, sort_order),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + blockColumns

	b, err := scanBlock(s.db.QueryRow(ctx, query,
		blockID, userID, req.Title, blockDate, req.StartTime, req.EndTime, req.BlockType, req.IsCompleted, req.SortOrder))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update time block: %w", err)
	}
	return b, nil
}

func (s *ScheduleService) DeleteBlock(ctx context.Context, clerkID string, blockID uuid.UUID) error {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM time_blocks WHERE id = $1 AND user_id = $2`, blockID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete time block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReorderBlocks applies drag-and-drop updates, optionally moving start/end
// times along with sort order.
func (s *ScheduleService) ReorderBlocks(ctx context.Context, clerkID string, items []timeblock.ReorderItem) error {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			return fmt.Errorf("%w: invalid block id %q", ErrInvalidInput, item.ID)
		}
		batch.Queue(`
		UPDATE time_blocks SET
			sort_order = $1,
			start_time = COALESCE($2, start_time),
			end_time = COALESCE($3, end_time),
			updated_at = NOW()
		WHERE id = $4 AND user_id = $5`,
			item.SortOrder, item.StartTime, item.EndTime, id, userID)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to reorder time blocks: %w", err)
		}
	}
	return nil
}

// WeeklySchedule returns the Monday-to-Sunday block list around a date.
func (s *ScheduleService) WeeklySchedule(ctx context.Context, clerkID string, date time.Time) (*timeblock.WeeklySchedule, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	start, end := timeblock.WeekBounds(date)

	rows, err := s.db.Query(ctx, `
	SELECT `+blockColumns+`
	FROM time_blocks
	WHERE user_id = $1 AND block_date BETWEEN $2 AND $3
	ORDER BY block_date, start_time`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly blocks: %w", err)
	}
	defer rows.Close()

	blocks := []timeblock.TimeBlock{}
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time block: %w", err)
		}
		blocks = append(blocks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &timeblock.WeeklySchedule{
		WeekStart: start.Format("2006-01-02"),
		WeekEnd:   end.Format("2006-01-02"),
		Blocks:    blocks,
	}, nil
}

type RiskReport struct {
	Overdue []task.Task `json:"overdue"`
	AtRisk  []task.Task `json:"at_risk"`
}

// DetectRisks splits the caller's active tasks into overdue and due-soon.
func (s *ScheduleService) DetectRisks(ctx context.Context, clerkID string) (*RiskReport, error) {
	userID, err := userIDByClerk(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	report := &RiskReport{Overdue: []task.Task{}, AtRisk: []task.Task{}}

	rows, err := s.db.Query(ctx, `
	SELECT `+taskColumns+`
	FROM tasks
	WHERE user_id = $1 AND status = ANY($3) AND due_date < $2
	ORDER BY due_date`, userID, now, task.ActiveStatusStrings())
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		report.Overdue = append(report.Overdue, *t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
	SELECT `+taskColumns+`
	FROM tasks
	WHERE user_id = $1 AND status = ANY($4) AND due_date >= $2 AND due_date <= $3
	ORDER BY due_date`, userID, now, now.Add(atRiskWindow), task.ActiveStatusStrings())
	if err != nil {
		return nil, fmt.Errorf("failed to list at-risk tasks: %w", err)
	}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		report.AtRisk = append(report.AtRisk, *t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return report, nil
}
