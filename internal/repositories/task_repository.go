package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vtask/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	ListByStatus(ctx context.Context, ownerID string, status models.Status) ([]models.Task, error)
	ListStatusIDs(ctx context.Context, ownerID string, status models.Status, limit int) ([]string, error)
	ListTrashedBefore(ctx context.Context, ownerID string, cutoff time.Time) ([]models.Task, error)
	Delete(ctx context.Context, id string) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumnsSQL = `id, owner_id, title, priority, note, status, sort_order,
       completed, deleted_from, trashed_at, created_at, updated_at`

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	query := `
		INSERT INTO tasks (
			id, owner_id, title, priority, note, status, sort_order,
			completed, deleted_from, trashed_at, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		task.ID, task.OwnerID, task.Title, task.Priority, task.Note,
		task.Status, task.Order, task.Completed, task.DeletedFrom, task.TrashedAt,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumnsSQL + ` FROM tasks WHERE id = $1`
	task := &models.Task{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID, &task.OwnerID, &task.Title, &task.Priority, &task.Note,
		&task.Status, &task.Order, &task.Completed, &task.DeletedFrom, &task.TrashedAt,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

// ListByStatus returns one (owner, status) partition in display order:
// sort_order ascending, creation time descending on ties.
func (r *taskRepository) ListByStatus(ctx context.Context, ownerID string, status models.Status) ([]models.Task, error) {
	query := `SELECT ` + taskColumnsSQL + `
		FROM tasks
		WHERE owner_id = $1 AND status = $2
		ORDER BY sort_order ASC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *taskRepository) ListStatusIDs(ctx context.Context, ownerID string, status models.Status, limit int) ([]string, error) {
	query := `SELECT id FROM tasks
		WHERE owner_id = $1 AND status = $2
		ORDER BY sort_order ASC, created_at DESC`
	args := []interface{}{ownerID, status}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListTrashedBefore finds purge candidates for the retention sweep.
func (r *taskRepository) ListTrashedBefore(ctx context.Context, ownerID string, cutoff time.Time) ([]models.Task, error) {
	query := `SELECT ` + taskColumnsSQL + `
		FROM tasks
		WHERE owner_id = $1 AND status = $2 AND trashed_at IS NOT NULL AND trashed_at < $3
		ORDER BY trashed_at ASC`
	rows, err := r.db.QueryContext(ctx, query, ownerID, models.StatusTrash, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	_, _ = res.RowsAffected()
	return nil
}

func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(
			&t.ID, &t.OwnerID, &t.Title, &t.Priority, &t.Note,
			&t.Status, &t.Order, &t.Completed, &t.DeletedFrom, &t.TrashedAt,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
