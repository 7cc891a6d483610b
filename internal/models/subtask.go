// internal/models/subtask.go
package models

import "time"

// Subtask is a checklist item under a task. Deletion is a terminal soft
// flag: deleted subtasks are excluded from display and aggregation and are
// never restored. They are physically removed when the parent is.
type Subtask struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id"`
	Title     string    `json:"title"`
	Note      string    `json:"note"`
	Done      bool      `json:"done"`
	Deleted   bool      `json:"deleted"`
	Order     int64     `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SubtaskPatch struct {
	Title *string `json:"title"`
	Note  *string `json:"note"`
	Done  *bool   `json:"done"`
}
