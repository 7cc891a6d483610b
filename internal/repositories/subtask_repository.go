package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vtask/internal/models"
)

type SubtaskRepository interface {
	Store(ctx context.Context, sub *models.Subtask) error
	FindByID(ctx context.Context, id string) (*models.Subtask, error)
	// ListByParent returns the non-deleted subtasks of one parent in display
	// order (sort_order ASC, created_at DESC).
	ListByParent(ctx context.Context, parentID string) ([]models.Subtask, error)
	// DeleteByParents physically removes all subtasks of the given parents,
	// deleted ones included. Used by the hard-delete cascade.
	DeleteByParents(ctx context.Context, parentIDs []string) (int64, error)
	// DeleteOrphans removes subtasks whose parent no longer exists. A failed
	// cascade can leave these behind; the retention sweep reclaims them.
	DeleteOrphans(ctx context.Context) (int64, error)
}

type subtaskRepository struct {
	db *sql.DB
}

func NewSubtaskRepository(db *sql.DB) SubtaskRepository {
	return &subtaskRepository{db: db}
}

const subtaskColumnsSQL = `id, parent_id, title, note, done, deleted, sort_order, created_at, updated_at`

func (r *subtaskRepository) Store(ctx context.Context, sub *models.Subtask) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	query := `
		INSERT INTO subtasks (id, parent_id, title, note, done, deleted, sort_order, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		sub.ID, sub.ParentID, sub.Title, sub.Note, sub.Done, sub.Deleted, sub.Order,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
}

func (r *subtaskRepository) FindByID(ctx context.Context, id string) (*models.Subtask, error) {
	query := `SELECT ` + subtaskColumnsSQL + ` FROM subtasks WHERE id = $1`
	sub := &models.Subtask{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID, &sub.ParentID, &sub.Title, &sub.Note, &sub.Done, &sub.Deleted,
		&sub.Order, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func (r *subtaskRepository) ListByParent(ctx context.Context, parentID string) ([]models.Subtask, error) {
	query := `SELECT ` + subtaskColumnsSQL + `
		FROM subtasks
		WHERE parent_id = $1 AND deleted = FALSE
		ORDER BY sort_order ASC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Subtask
	for rows.Next() {
		var s models.Subtask
		if err := rows.Scan(
			&s.ID, &s.ParentID, &s.Title, &s.Note, &s.Done, &s.Deleted,
			&s.Order, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *subtaskRepository) DeleteByParents(ctx context.Context, parentIDs []string) (int64, error) {
	if len(parentIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM subtasks WHERE parent_id = ANY($1)`, pq.Array(parentIDs))
	if err != nil {
		return 0, fmt.Errorf("delete subtasks of %d parents: %w", len(parentIDs), err)
	}
	return res.RowsAffected()
}

func (r *subtaskRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM subtasks WHERE parent_id NOT IN (SELECT id FROM tasks)`)
	if err != nil {
		return 0, fmt.Errorf("delete orphaned subtasks: %w", err)
	}
	return res.RowsAffected()
}
