package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"vtask/internal/models"
)

func TestSetDoneCompletesParentWhenAllDone(t *testing.T) {
	store := newFakeStore()
	svc, notifier := newSubtaskFixture(store)
	ctx := context.Background()

	parent := store.addTask(models.Task{OwnerID: "u1", Title: "trip", Status: models.StatusToday})
	first := store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "book hotel", Done: true})
	last := store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "pack bag"})

	if err := svc.SetDone(ctx, last.ID, true); err != nil {
		t.Fatalf("set done: %v", err)
	}
	if !store.subtask(last.ID).Done {
		t.Error("toggled subtask not done")
	}
	if !store.subtask(first.ID).Done {
		t.Error("untouched sibling changed")
	}
	after := store.task(parent.ID)
	if after.Status != models.StatusDone || !after.Completed {
		t.Errorf("parent after last subtask: status=%s completed=%v, want done/true",
			after.Status, after.Completed)
	}
	if len(notifier.calls) != 2 {
		t.Errorf("invalidations = %v, want the two columns the parent crossed", notifier.calls)
	}
}

func TestSetDoneReopensDoneParent(t *testing.T) {
	store := newFakeStore()
	svc, _ := newSubtaskFixture(store)

	parent := store.addTask(models.Task{
		OwnerID: "u1", Title: "release", Status: models.StatusDone, Completed: true,
	})
	sub := store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "tag", Done: true})

	if err := svc.SetDone(context.Background(), sub.ID, false); err != nil {
		t.Fatalf("set done: %v", err)
	}
	after := store.task(parent.ID)
	if after.Status != models.StatusToday || after.Completed {
		t.Errorf("reopened parent: status=%s completed=%v, want today/false",
			after.Status, after.Completed)
	}
}

func TestSetDoneKeepsPlannedParentInPlace(t *testing.T) {
	store := newFakeStore()
	svc, notifier := newSubtaskFixture(store)
	ctx := context.Background()

	parent := store.addTask(models.Task{OwnerID: "u1", Title: "someday", Status: models.StatusPlanned})
	done := store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "a", Done: true})
	open := store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "b"})

	// One of two done: the parent is neither completed nor moved.
	if err := svc.SetDone(ctx, done.ID, true); err != nil {
		t.Fatalf("set done: %v", err)
	}
	if got := store.task(parent.ID); got.Status != models.StatusPlanned || got.Completed {
		t.Errorf("parent moved on partial completion: status=%s completed=%v", got.Status, got.Completed)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("partial completion should not invalidate, got %v", notifier.calls)
	}

	// All done: a planned parent still completes into done.
	if err := svc.SetDone(ctx, open.ID, true); err != nil {
		t.Fatalf("set done: %v", err)
	}
	if got := store.task(parent.ID); got.Status != models.StatusDone || !got.Completed {
		t.Errorf("planned parent with all subtasks done: status=%s completed=%v", got.Status, got.Completed)
	}
}

func TestSetDoneNeverMovesTrashedParent(t *testing.T) {
	store := newFakeStore()
	svc, notifier := newSubtaskFixture(store)
	ctx := context.Background()

	from := models.StatusToday
	ts := time.Now()
	parent := store.addTask(models.Task{
		OwnerID: "u1", Title: "binned", Status: models.StatusTrash,
		DeletedFrom: &from, TrashedAt: &ts,
	})
	only := store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "leftover"})

	// The subtask itself still toggles, but completing every subtask of a
	// trashed parent must not pull the parent out of the trash.
	if err := svc.SetDone(ctx, only.ID, true); err != nil {
		t.Fatalf("set done: %v", err)
	}
	if !store.subtask(only.ID).Done {
		t.Error("subtask not toggled")
	}
	after := store.task(parent.ID)
	if after.Status != models.StatusTrash || after.Completed {
		t.Errorf("trashed parent: status=%s completed=%v, want trash/false", after.Status, after.Completed)
	}
	if after.DeletedFrom == nil || after.TrashedAt == nil {
		t.Error("trash bookkeeping cleared by a subtask toggle")
	}
	if len(notifier.calls) != 0 {
		t.Errorf("invalidations = %v, want none", notifier.calls)
	}
}

func TestSetDoneCountsToggledValueNotStored(t *testing.T) {
	store := newFakeStore()
	svc, _ := newSubtaskFixture(store)

	parent := store.addTask(models.Task{OwnerID: "u1", Title: "solo", Status: models.StatusToday})
	only := store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "just one"})

	// The stored value is still false when the roll-up runs; the new value
	// must win or a single-subtask parent could never complete.
	if err := svc.SetDone(context.Background(), only.ID, true); err != nil {
		t.Fatalf("set done: %v", err)
	}
	if got := store.task(parent.ID); got.Status != models.StatusDone {
		t.Errorf("parent status = %s, want done", got.Status)
	}
}

func TestSetDoneIgnoresDeletedSiblings(t *testing.T) {
	store := newFakeStore()
	svc, _ := newSubtaskFixture(store)

	parent := store.addTask(models.Task{OwnerID: "u1", Title: "mixed", Status: models.StatusToday})
	live := store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "live"})
	store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "ghost", Deleted: true})

	if err := svc.SetDone(context.Background(), live.ID, true); err != nil {
		t.Fatalf("set done: %v", err)
	}
	// The deleted sibling is not part of the roll-up, so the parent completes.
	if got := store.task(parent.ID); got.Status != models.StatusDone {
		t.Errorf("parent status = %s, want done", got.Status)
	}
}

func TestSetDoneMissingOrDeletedIsNoOp(t *testing.T) {
	store := newFakeStore()
	svc, notifier := newSubtaskFixture(store)
	ctx := context.Background()

	if err := svc.SetDone(ctx, "no-such-subtask", true); err != nil {
		t.Fatalf("missing id: %v", err)
	}

	parent := store.addTask(models.Task{OwnerID: "u1", Title: "p", Status: models.StatusToday})
	ghost := store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "ghost", Deleted: true})
	if err := svc.SetDone(ctx, ghost.ID, true); err != nil {
		t.Fatalf("deleted id: %v", err)
	}
	if store.subtask(ghost.ID).Done {
		t.Error("deleted subtask toggled")
	}
	if len(notifier.calls) != 0 {
		t.Errorf("no-ops should not invalidate, got %v", notifier.calls)
	}
}

func TestCreateSubtaskValidation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newSubtaskFixture(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "p1", "   ", ""); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("blank title: err = %v, want ErrEmptyTitle", err)
	}

	sub, err := svc.Create(ctx, "p1", "  call bank  ", "ask about fees")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.Title != "call bank" {
		t.Errorf("title not trimmed: %q", sub.Title)
	}
	if sub.Done || sub.Deleted {
		t.Error("new subtask should start open and live")
	}
	if sub.Order == 0 {
		t.Error("new subtask should get a creation-time rank")
	}
}

func TestDeleteSubtaskNeverReaggregates(t *testing.T) {
	store := newFakeStore()
	svc, _ := newSubtaskFixture(store)
	ctx := context.Background()

	parent := store.addTask(models.Task{OwnerID: "u1", Title: "p", Status: models.StatusToday})
	store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "done", Done: true})
	open := store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "open"})

	// Removing the only open subtask leaves every live sibling done, but a
	// delete never promotes the parent.
	if err := svc.Delete(ctx, open.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !store.subtask(open.ID).Deleted {
		t.Error("subtask not flagged deleted")
	}
	if got := store.task(parent.ID); got.Status != models.StatusToday {
		t.Errorf("parent status = %s after delete, want today", got.Status)
	}

	// Second delete is a no-op, as is deleting a missing id.
	if err := svc.Delete(ctx, open.ID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if err := svc.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestUpdateSubtaskRoutesDoneThroughAggregation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newSubtaskFixture(store)
	ctx := context.Background()

	parent := store.addTask(models.Task{OwnerID: "u1", Title: "p", Status: models.StatusToday})
	sub := store.addSubtask(models.Subtask{ParentID: parent.ID, Title: "old"})

	title := "new"
	doneFlag := true
	updated, err := svc.Update(ctx, sub.ID, models.SubtaskPatch{Title: &title, Done: &doneFlag})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "new" || !updated.Done {
		t.Errorf("updated = %+v", updated)
	}
	if got := store.task(parent.ID); got.Status != models.StatusDone {
		t.Errorf("parent status = %s, the done flip must run the roll-up", got.Status)
	}

	if got, err := svc.Update(ctx, "missing", models.SubtaskPatch{Title: &title}); err != nil || got != nil {
		t.Errorf("update of missing id = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestReorderSubtasks(t *testing.T) {
	store := newFakeStore()
	svc, _ := newSubtaskFixture(store)
	ctx := context.Background()

	a := store.addSubtask(models.Subtask{ParentID: "p1", Title: "a", Order: 100})
	b := store.addSubtask(models.Subtask{ParentID: "p1", Title: "b", Order: 200})
	c := store.addSubtask(models.Subtask{ParentID: "p1", Title: "c", Order: 300})

	if err := svc.Reorder(ctx, "p1", []string{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	list, _ := svc.ListByParent(ctx, "p1")
	want := []string{"c", "a", "b"}
	for i, sub := range list {
		if sub.Title != want[i] {
			t.Fatalf("position %d = %s, want %s", i, sub.Title, want[i])
		}
		if sub.Order != int64(i) {
			t.Errorf("position %d rank = %d, want %d", i, sub.Order, i)
		}
	}
}
