package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vtask/internal/models"
	"vtask/internal/repositories"
)

// fakeStore is an in-memory stand-in for the postgres repositories. Batches
// apply all-or-nothing against it, like the real engine does in one
// transaction.
type fakeStore struct {
	mu      sync.Mutex
	tasks   map[string]*models.Task
	subs    map[string]*models.Subtask
	nextID  int
	failure error // when set, every batch commit fails without applying
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks: make(map[string]*models.Task),
		subs:  make(map[string]*models.Subtask),
	}
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

// addTask seeds a task directly, bypassing the service layer.
func (s *fakeStore) addTask(t models.Task) *models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = s.id("t")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.UpdatedAt = t.CreatedAt
	s.tasks[t.ID] = &t
	return s.tasks[t.ID]
}

func (s *fakeStore) addSubtask(sub models.Subtask) *models.Subtask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == "" {
		sub.ID = s.id("s")
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	sub.UpdatedAt = sub.CreatedAt
	s.subs[sub.ID] = &sub
	return s.subs[sub.ID]
}

func (s *fakeStore) task(id string) *models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

func (s *fakeStore) subtask(id string) *models.Subtask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[id]; ok {
		cp := *sub
		return &cp
	}
	return nil
}

func sortTasks(list []models.Task) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Order != list[j].Order {
			return list[i].Order < list[j].Order
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// --- TaskRepository ---

type fakeTaskRepo struct{ store *fakeStore }

func (r *fakeTaskRepo) Store(ctx context.Context, task *models.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if task.ID == "" {
		task.ID = r.store.id("t")
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	cp := *task
	r.store.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id string) (*models.Task, error) {
	return r.store.task(id), nil
}

func (r *fakeTaskRepo) ListByStatus(ctx context.Context, ownerID string, status models.Status) ([]models.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Task
	for _, t := range r.store.tasks {
		if t.OwnerID == ownerID && t.Status == status {
			out = append(out, *t)
		}
	}
	sortTasks(out)
	return out, nil
}

func (r *fakeTaskRepo) ListStatusIDs(ctx context.Context, ownerID string, status models.Status, limit int) ([]string, error) {
	tasks, _ := r.ListByStatus(ctx, ownerID, status)
	var ids []string
	for _, t := range tasks {
		if limit > 0 && len(ids) == limit {
			break
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (r *fakeTaskRepo) ListTrashedBefore(ctx context.Context, ownerID string, cutoff time.Time) ([]models.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Task
	for _, t := range r.store.tasks {
		if t.OwnerID == ownerID && t.Status == models.StatusTrash &&
			t.TrashedAt != nil && t.TrashedAt.Before(cutoff) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.tasks, id)
	return nil
}

// --- SubtaskRepository ---

type fakeSubtaskRepo struct{ store *fakeStore }

func (r *fakeSubtaskRepo) Store(ctx context.Context, sub *models.Subtask) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if sub.ID == "" {
		sub.ID = r.store.id("s")
	}
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	cp := *sub
	r.store.subs[sub.ID] = &cp
	return nil
}

func (r *fakeSubtaskRepo) FindByID(ctx context.Context, id string) (*models.Subtask, error) {
	return r.store.subtask(id), nil
}

func (r *fakeSubtaskRepo) ListByParent(ctx context.Context, parentID string) ([]models.Subtask, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Subtask
	for _, sub := range r.store.subs {
		if sub.ParentID == parentID && !sub.Deleted {
			out = append(out, *sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeSubtaskRepo) DeleteByParents(ctx context.Context, parentIDs []string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for id, sub := range r.store.subs {
		for _, parent := range parentIDs {
			if sub.ParentID == parent {
				delete(r.store.subs, id)
				n++
				break
			}
		}
	}
	return n, nil
}

func (r *fakeSubtaskRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for id, sub := range r.store.subs {
		if _, ok := r.store.tasks[sub.ParentID]; !ok {
			delete(r.store.subs, id)
			n++
		}
	}
	return n, nil
}

// --- BatchFactory / BatchWriter ---

type fakeBatchFactory struct{ store *fakeStore }

func (f *fakeBatchFactory) NewBatch() repositories.BatchWriter {
	return &fakeBatch{store: f.store}
}

type fakeBatchOp struct {
	table  string
	id     string
	set    repositories.FieldSet
	delete bool
}

type fakeBatch struct {
	store *fakeStore
	ops   []fakeBatchOp
}

func (b *fakeBatch) UpdateTask(id string, set repositories.FieldSet) {
	b.ops = append(b.ops, fakeBatchOp{table: "tasks", id: id, set: set})
}

func (b *fakeBatch) UpdateSubtask(id string, set repositories.FieldSet) {
	b.ops = append(b.ops, fakeBatchOp{table: "subtasks", id: id, set: set})
}

func (b *fakeBatch) DeleteTask(id string) {
	b.ops = append(b.ops, fakeBatchOp{table: "tasks", id: id, delete: true})
}

func (b *fakeBatch) DeleteSubtask(id string) {
	b.ops = append(b.ops, fakeBatchOp{table: "subtasks", id: id, delete: true})
}

func (b *fakeBatch) Len() int { return len(b.ops) }

func (b *fakeBatch) Commit(ctx context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	if b.store.failure != nil {
		return b.store.failure
	}
	if len(b.ops) > repositories.MaxBatchOps {
		return fmt.Errorf("batch too large: %d", len(b.ops))
	}
	now := time.Now()
	for _, op := range b.ops {
		if op.table == "tasks" {
			task, ok := b.store.tasks[op.id]
			if op.delete {
				delete(b.store.tasks, op.id)
				continue
			}
			if !ok {
				continue
			}
			applyTaskFields(task, op.set, now)
		} else {
			sub, ok := b.store.subs[op.id]
			if op.delete {
				delete(b.store.subs, op.id)
				continue
			}
			if !ok {
				continue
			}
			applySubtaskFields(sub, op.set, now)
		}
	}
	return nil
}

func applyTaskFields(task *models.Task, set repositories.FieldSet, now time.Time) {
	for col, val := range set {
		switch col {
		case "title":
			task.Title = val.(string)
		case "priority":
			task.Priority = val.(models.Priority)
		case "note":
			task.Note = val.(string)
		case "status":
			task.Status = val.(models.Status)
		case "sort_order":
			task.Order = val.(int64)
		case "completed":
			task.Completed = val.(bool)
		case "deleted_from":
			if val == nil {
				task.DeletedFrom = nil
			} else {
				status := val.(models.Status)
				task.DeletedFrom = &status
			}
		case "trashed_at":
			if val == nil {
				task.TrashedAt = nil
			} else {
				ts := now
				task.TrashedAt = &ts
			}
		case "updated_at":
			task.UpdatedAt = now
		}
	}
}

func applySubtaskFields(sub *models.Subtask, set repositories.FieldSet, now time.Time) {
	for col, val := range set {
		switch col {
		case "title":
			sub.Title = val.(string)
		case "note":
			sub.Note = val.(string)
		case "done":
			sub.Done = val.(bool)
		case "deleted":
			sub.Deleted = val.(bool)
		case "sort_order":
			sub.Order = val.(int64)
		case "updated_at":
			sub.UpdatedAt = now
		}
	}
}

// --- BoardNotifier ---

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *fakeNotifier) Invalidate(ownerID string, statuses ...models.Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, status := range statuses {
		n.calls = append(n.calls, ownerID+"/"+string(status))
	}
}

func newTaskFixture(store *fakeStore) (TaskService, *fakeNotifier) {
	notifier := &fakeNotifier{}
	svc := NewTaskService(
		&fakeTaskRepo{store: store},
		&fakeSubtaskRepo{store: store},
		&fakeBatchFactory{store: store},
		notifier,
	)
	return svc, notifier
}

func newSubtaskFixture(store *fakeStore) (SubtaskService, *fakeNotifier) {
	notifier := &fakeNotifier{}
	svc := NewSubtaskService(
		&fakeSubtaskRepo{store: store},
		&fakeTaskRepo{store: store},
		&fakeBatchFactory{store: store},
		notifier,
	)
	return svc, notifier
}
