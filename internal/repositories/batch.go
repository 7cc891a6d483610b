package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// MaxBatchOps caps one write batch, mirroring the store page limit used by
// bulk purge. Callers that can exceed it must paginate.
const MaxBatchOps = 500

// ServerTimestamp is a sentinel field value resolved to the database clock
// (NOW()) at commit time. Not comparable client-side before commit.
var ServerTimestamp = serverTimestamp{}

type serverTimestamp struct{}

// FieldSet maps column names to new values for one record.
type FieldSet map[string]any

// BatchWriter collects field updates and deletes for one user action and
// applies them as a single atomic unit: all or nothing.
type BatchWriter interface {
	UpdateTask(id string, set FieldSet)
	UpdateSubtask(id string, set FieldSet)
	DeleteTask(id string)
	DeleteSubtask(id string)
	Len() int
	Commit(ctx context.Context) error
}

// BatchFactory hands out fresh write batches.
type BatchFactory interface {
	NewBatch() BatchWriter
}

// Columns the batch engine will touch. Anything else is a programming error
// and fails the whole batch before it reaches the database.
var taskColumns = map[string]bool{
	"title":        true,
	"priority":     true,
	"note":         true,
	"status":       true,
	"sort_order":   true,
	"completed":    true,
	"deleted_from": true,
	"trashed_at":   true,
	"updated_at":   true,
}

var subtaskColumns = map[string]bool{
	"title":      true,
	"note":       true,
	"done":       true,
	"deleted":    true,
	"sort_order": true,
	"updated_at": true,
}

type batchOp struct {
	table  string
	id     string
	set    FieldSet // nil means delete
	delete bool
}

type sqlBatchFactory struct {
	db *sql.DB
}

func NewBatchFactory(db *sql.DB) BatchFactory {
	return &sqlBatchFactory{db: db}
}

func (f *sqlBatchFactory) NewBatch() BatchWriter {
	return &sqlBatch{db: f.db}
}

type sqlBatch struct {
	db  *sql.DB
	ops []batchOp
}

func (b *sqlBatch) UpdateTask(id string, set FieldSet) {
	b.ops = append(b.ops, batchOp{table: "tasks", id: id, set: set})
}

func (b *sqlBatch) UpdateSubtask(id string, set FieldSet) {
	b.ops = append(b.ops, batchOp{table: "subtasks", id: id, set: set})
}

func (b *sqlBatch) DeleteTask(id string) {
	b.ops = append(b.ops, batchOp{table: "tasks", id: id, delete: true})
}

func (b *sqlBatch) DeleteSubtask(id string) {
	b.ops = append(b.ops, batchOp{table: "subtasks", id: id, delete: true})
}

func (b *sqlBatch) Len() int { return len(b.ops) }

func (b *sqlBatch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}
	if len(b.ops) > MaxBatchOps {
		return fmt.Errorf("batch of %d ops exceeds limit of %d", len(b.ops), MaxBatchOps)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("batch begin: %w", err)
	}
	for _, op := range b.ops {
		var execErr error
		if op.delete {
			_, execErr = tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, op.table), op.id)
		} else {
			query, args, buildErr := buildUpdate(op)
			if buildErr != nil {
				_ = tx.Rollback()
				return buildErr
			}
			_, execErr = tx.ExecContext(ctx, query, args...)
		}
		if execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("batch %s %s: %w", op.table, op.id, execErr)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("batch commit: %w", err)
	}
	return nil
}

// buildUpdate renders one UPDATE with a deterministic column order.
func buildUpdate(op batchOp) (string, []any, error) {
	allowed := taskColumns
	if op.table == "subtasks" {
		allowed = subtaskColumns
	}

	cols := make([]string, 0, len(op.set))
	for col := range op.set {
		if !allowed[col] {
			return "", nil, fmt.Errorf("batch: column %q not allowed on %s", col, op.table)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	argID := 1
	for _, col := range cols {
		if _, isNow := op.set[col].(serverTimestamp); isNow {
			sets = append(sets, fmt.Sprintf("%s = NOW()", col))
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argID))
		args = append(args, op.set[col])
		argID++
	}
	args = append(args, op.id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`,
		op.table, strings.Join(sets, ", "), argID)
	return query, args, nil
}
