package repositories

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestBuildUpdateDeterministicOrder(t *testing.T) {
	op := batchOp{
		table: "tasks",
		id:    "t1",
		set: FieldSet{
			"title":      "renamed",
			"completed":  true,
			"sort_order": int64(4),
		},
	}
	query, args, err := buildUpdate(op)
	if err != nil {
		t.Fatalf("buildUpdate: %v", err)
	}
	want := `UPDATE tasks SET completed = $1, sort_order = $2, title = $3 WHERE id = $4`
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if len(args) != 4 || args[0] != true || args[1] != int64(4) || args[2] != "renamed" || args[3] != "t1" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildUpdateServerTimestamp(t *testing.T) {
	op := batchOp{
		table: "tasks",
		id:    "t1",
		set: FieldSet{
			"trashed_at": ServerTimestamp,
			"updated_at": ServerTimestamp,
			"status":     "trash",
		},
	}
	query, args, err := buildUpdate(op)
	if err != nil {
		t.Fatalf("buildUpdate: %v", err)
	}
	if !strings.Contains(query, "trashed_at = NOW()") || !strings.Contains(query, "updated_at = NOW()") {
		t.Errorf("sentinel not rendered as NOW(): %q", query)
	}
	// Sentinels take no placeholder; only the status value and the id remain.
	if len(args) != 2 || args[0] != "trash" || args[1] != "t1" {
		t.Errorf("args = %v", args)
	}
	if strings.Count(query, "$") != 2 {
		t.Errorf("placeholder count wrong: %q", query)
	}
}

func TestBuildUpdateRejectsUnknownColumns(t *testing.T) {
	cases := []struct {
		name  string
		table string
		col   string
	}{
		{"made-up task column", "tasks", "owner_id"},
		{"task column on subtask", "subtasks", "status"},
		{"injection attempt", "tasks", "title = 'x' WHERE 1=1; --"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			op := batchOp{table: tc.table, id: "x", set: FieldSet{tc.col: "v"}}
			if _, _, err := buildUpdate(op); err == nil {
				t.Errorf("column %q on %s accepted", tc.col, tc.table)
			}
		})
	}
}

func TestCommitEmptyBatchIsNoOp(t *testing.T) {
	// No db handle needed: an empty batch never reaches it.
	b := &sqlBatch{}
	if err := b.Commit(context.Background()); err != nil {
		t.Fatalf("empty commit: %v", err)
	}
}

func TestCommitRejectsOversizedBatch(t *testing.T) {
	// The cap is checked before a transaction is opened, so the nil db handle
	// proves no database work happens for an oversized batch.
	b := &sqlBatch{}
	for i := 0; i <= MaxBatchOps; i++ {
		b.UpdateTask(fmt.Sprintf("t%d", i), FieldSet{"sort_order": int64(i)})
	}
	if b.Len() != MaxBatchOps+1 {
		t.Fatalf("len = %d", b.Len())
	}
	err := b.Commit(context.Background())
	if err == nil {
		t.Fatal("oversized batch accepted")
	}
	if !strings.Contains(err.Error(), "exceeds limit") {
		t.Errorf("err = %v", err)
	}
}

func TestBatchCollectsMixedOps(t *testing.T) {
	b := &sqlBatch{}
	b.UpdateTask("t1", FieldSet{"status": "done"})
	b.UpdateSubtask("s1", FieldSet{"done": true})
	b.DeleteTask("t2")
	b.DeleteSubtask("s2")
	if b.Len() != 4 {
		t.Fatalf("len = %d, want 4", b.Len())
	}
	if b.ops[2].table != "tasks" || !b.ops[2].delete {
		t.Errorf("third op = %+v, want a task delete", b.ops[2])
	}
	if b.ops[3].table != "subtasks" || !b.ops[3].delete {
		t.Errorf("fourth op = %+v, want a subtask delete", b.ops[3])
	}
}
