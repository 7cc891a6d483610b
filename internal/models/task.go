// internal/models/task.go
package models

import "time"

// Status defines the column a task lives in. Trash is hidden from the board.
type Status string

const (
	StatusPlanned Status = "planned"
	StatusToday   Status = "today"
	StatusDone    Status = "done"
	StatusTrash   Status = "trash"
)

// VisibleStatuses are the three board columns, in display order.
var VisibleStatuses = []Status{StatusPlanned, StatusToday, StatusDone}

func (s Status) Visible() bool {
	return s == StatusPlanned || s == StatusToday || s == StatusDone
}

func (s Status) Valid() bool {
	return s.Visible() || s == StatusTrash
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Task represents one card on the board.
//
// Order sorts a (owner, status) partition ascending. Fresh tasks get the
// creation time in milliseconds so they land after the dense 0..n-1 indices
// written by reorders; display falls back to CreatedAt descending on ties.
// DeletedFrom/TrashedAt are set together while status == trash and are both
// nil otherwise. Completed mirrors status == done for query convenience.
type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Priority    Priority   `json:"priority"`
	Note        string     `json:"note"`
	Status      Status     `json:"status"`
	Order       int64      `json:"order"`
	Completed   bool       `json:"completed"`
	DeletedFrom *Status    `json:"deleted_from,omitempty"`
	TrashedAt   *time.Time `json:"trashed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskPatch carries the editable fields; nil means "leave as is".
type TaskPatch struct {
	Title    *string   `json:"title"`
	Priority *Priority `json:"priority"`
	Note     *string   `json:"note"`
}
