// internal/services/task_service.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"vtask/internal/models"
	"vtask/internal/repositories"
)

var (
	ErrEmptyTitle        = errors.New("title must not be empty")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// BoardNotifier is told which (owner, status) partitions a committed write
// touched, so live subscribers get a fresh snapshot. May be nil.
type BoardNotifier interface {
	Invalidate(ownerID string, statuses ...models.Status)
}

type CreateTaskInput struct {
	Title    string
	Priority models.Priority
	Note     string
	Status   models.Status // planned or today; default today
}

// TaskService owns the task lifecycle: creation, edits, the completion
// toggle, soft delete / restore / hard delete, bulk trash and purge, and the
// ordering writes behind drag-and-drop. Every multi-record action goes
// through one write batch.
type TaskService interface {
	Create(ctx context.Context, ownerID string, in CreateTaskInput) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	ListColumn(ctx context.Context, ownerID string, status models.Status) ([]models.Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	ToggleDone(ctx context.Context, task *models.Task) error
	SoftDelete(ctx context.Context, task *models.Task) error
	Restore(ctx context.Context, task *models.Task) error
	HardDelete(ctx context.Context, id string) error
	TrashAllDone(ctx context.Context, ownerID string) (int, error)
	TrashDoneByIDs(ctx context.Context, ownerID string, ids []string) (int, error)
	PurgeTrash(ctx context.Context, ownerID string) (int, error)
	ReorderColumn(ctx context.Context, ownerID string, status models.Status, orderedIDs []string) error
	MoveAndReorder(ctx context.Context, ownerID, taskID string, dest models.Status, destIDs, srcIDs []string) error
}

type taskService struct {
	tasks    repositories.TaskRepository
	subtasks repositories.SubtaskRepository
	batches  repositories.BatchFactory
	notify   BoardNotifier
}

func NewTaskService(
	tasks repositories.TaskRepository,
	subtasks repositories.SubtaskRepository,
	batches repositories.BatchFactory,
	notify BoardNotifier,
) TaskService {
	return &taskService{tasks: tasks, subtasks: subtasks, batches: batches, notify: notify}
}

func (s *taskService) invalidate(ownerID string, statuses ...models.Status) {
	if s.notify != nil {
		s.notify.Invalidate(ownerID, statuses...)
	}
}

func (s *taskService) Create(ctx context.Context, ownerID string, in CreateTaskInput) (*models.Task, error) {
	title := trimTitle(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	status := in.Status
	if status == "" {
		status = models.StatusToday
	}
	if status != models.StatusPlanned && status != models.StatusToday {
		return nil, ErrInvalidStatus
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	task := &models.Task{
		OwnerID:  ownerID,
		Title:    title,
		Priority: priority,
		Note:     in.Note,
		Status:   status,
		// Coarse creation-time rank: sorts after the dense indices a reorder
		// writes, until the column is renumbered again.
		Order:     time.Now().UnixMilli(),
		Completed: false,
	}
	if err := s.tasks.Store(ctx, task); err != nil {
		return nil, err
	}
	log.Printf("[task][create][ok] id=%s owner=%s status=%s title=%q", task.ID, ownerID, status, title)
	s.invalidate(ownerID, status)
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return s.tasks.FindByID(ctx, id)
}

func (s *taskService) ListColumn(ctx context.Context, ownerID string, status models.Status) ([]models.Task, error) {
	return s.tasks.ListByStatus(ctx, ownerID, status)
}

func (s *taskService) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}

	set := repositories.FieldSet{"updated_at": repositories.ServerTimestamp}
	if patch.Title != nil {
		title := trimTitle(*patch.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		set["title"] = title
		task.Title = title
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		set["priority"] = *patch.Priority
		task.Priority = *patch.Priority
	}
	if patch.Note != nil {
		set["note"] = *patch.Note
		task.Note = *patch.Note
	}

	batch := s.batches.NewBatch()
	batch.UpdateTask(id, set)
	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}
	s.invalidate(task.OwnerID, task.Status)
	return task, nil
}

// ToggleDone flips a task between done and today and drags every live
// subtask along: all done on completion, all reopened on un-completion.
// Trashed tasks are ignored: the only ways out of the trash are restore and
// hard delete.
func (s *taskService) ToggleDone(ctx context.Context, task *models.Task) error {
	if task == nil || task.Status == models.StatusTrash {
		return nil
	}
	toDone := task.Status != models.StatusDone
	newStatus := models.StatusToday
	if toDone {
		newStatus = models.StatusDone
	}

	batch := s.batches.NewBatch()
	batch.UpdateTask(task.ID, repositories.FieldSet{
		"status":       newStatus,
		"completed":    toDone,
		"deleted_from": nil,
		"trashed_at":   nil,
		"updated_at":   repositories.ServerTimestamp,
	})

	subs, err := s.subtasks.ListByParent(ctx, task.ID)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		batch.UpdateSubtask(sub.ID, repositories.FieldSet{
			"done":       toDone,
			"updated_at": repositories.ServerTimestamp,
		})
	}

	if err := batch.Commit(ctx); err != nil {
		log.Printf("[task][toggle][err] id=%s: %v", task.ID, err)
		return err
	}
	log.Printf("[task][toggle][ok] id=%s done=%v subtasks=%d", task.ID, toDone, len(subs))
	s.invalidate(task.OwnerID, task.Status, newStatus)
	return nil
}

// SoftDelete moves a visible task into the trash, remembering the column it
// came from as the restore target.
func (s *taskService) SoftDelete(ctx context.Context, task *models.Task) error {
	if task == nil || task.Status == models.StatusTrash {
		return nil
	}
	from := task.Status
	if !from.Visible() {
		from = models.StatusToday
	}

	batch := s.batches.NewBatch()
	batch.UpdateTask(task.ID, repositories.FieldSet{
		"status":       models.StatusTrash,
		"deleted_from": from,
		"trashed_at":   repositories.ServerTimestamp,
		"completed":    false,
		"updated_at":   repositories.ServerTimestamp,
	})
	if err := batch.Commit(ctx); err != nil {
		return err
	}
	log.Printf("[task][trash][ok] id=%s from=%s", task.ID, from)
	s.invalidate(task.OwnerID, from, models.StatusTrash)
	return nil
}

// Restore sends a trashed task back to its recorded origin column. The
// origin is never user-chosen; missing deleted_from falls back to today.
func (s *taskService) Restore(ctx context.Context, task *models.Task) error {
	if task == nil || task.Status != models.StatusTrash {
		return nil
	}
	backTo := models.StatusToday
	if task.DeletedFrom != nil && task.DeletedFrom.Visible() {
		backTo = *task.DeletedFrom
	}

	batch := s.batches.NewBatch()
	batch.UpdateTask(task.ID, repositories.FieldSet{
		"status":       backTo,
		"deleted_from": nil,
		"trashed_at":   nil,
		"completed":    backTo == models.StatusDone,
		"updated_at":   repositories.ServerTimestamp,
	})
	if err := batch.Commit(ctx); err != nil {
		return err
	}
	log.Printf("[task][restore][ok] id=%s to=%s", task.ID, backTo)
	s.invalidate(task.OwnerID, models.StatusTrash, backTo)
	return nil
}

// HardDelete physically removes a task and cascades to its subtasks. A
// failed cascade is logged, not fatal: the retention sweep reclaims orphans.
func (s *taskService) HardDelete(ctx context.Context, id string) error {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if task == nil {
		return nil
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	if _, err := s.subtasks.DeleteByParents(ctx, []string{id}); err != nil {
		log.Printf("[task][hardDelete][warn] cascade failed for %s, subtasks orphaned: %v", id, err)
	}
	log.Printf("[task][hardDelete][ok] id=%s", id)
	s.invalidate(task.OwnerID, task.Status)
	return nil
}

func (s *taskService) TrashAllDone(ctx context.Context, ownerID string) (int, error) {
	ids, err := s.tasks.ListStatusIDs(ctx, ownerID, models.StatusDone, 0)
	if err != nil {
		return 0, err
	}
	return s.trashDone(ctx, ownerID, ids)
}

func (s *taskService) TrashDoneByIDs(ctx context.Context, ownerID string, ids []string) (int, error) {
	return s.trashDone(ctx, ownerID, ids)
}

func (s *taskService) trashDone(ctx context.Context, ownerID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	for start := 0; start < len(ids); start += repositories.MaxBatchOps {
		end := start + repositories.MaxBatchOps
		if end > len(ids) {
			end = len(ids)
		}
		batch := s.batches.NewBatch()
		for _, id := range ids[start:end] {
			batch.UpdateTask(id, repositories.FieldSet{
				"status":       models.StatusTrash,
				"deleted_from": models.StatusDone,
				"trashed_at":   repositories.ServerTimestamp,
				"completed":    false,
				"sort_order":   int64(0),
				"updated_at":   repositories.ServerTimestamp,
			})
		}
		if err := batch.Commit(ctx); err != nil {
			return 0, err
		}
	}
	log.Printf("[task][trashDone][ok] owner=%s count=%d", ownerID, len(ids))
	s.invalidate(ownerID, models.StatusDone, models.StatusTrash)
	return len(ids), nil
}

// PurgeTrash empties the trash in batch rounds of at most MaxBatchOps
// deletes each, repeating until the partition is exhausted. Each round is an
// independent batch; a failure mid-way leaves later rounds undone.
func (s *taskService) PurgeTrash(ctx context.Context, ownerID string) (int, error) {
	total := 0
	for {
		ids, err := s.tasks.ListStatusIDs(ctx, ownerID, models.StatusTrash, repositories.MaxBatchOps)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			break
		}
		batch := s.batches.NewBatch()
		for _, id := range ids {
			batch.DeleteTask(id)
		}
		if err := batch.Commit(ctx); err != nil {
			return total, err
		}
		if _, err := s.subtasks.DeleteByParents(ctx, ids); err != nil {
			log.Printf("[task][purge][warn] cascade failed, subtasks orphaned: %v", err)
		}
		total += len(ids)
		if len(ids) < repositories.MaxBatchOps {
			break
		}
	}
	if total > 0 {
		log.Printf("[task][purge][ok] owner=%s count=%d", ownerID, total)
		s.invalidate(ownerID, models.StatusTrash)
	}
	return total, nil
}

// ReorderColumn persists one column's drag result: each id gets its index in
// the given permutation as its new rank, densely and without gaps.
func (s *taskService) ReorderColumn(ctx context.Context, ownerID string, status models.Status, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	batch := s.batches.NewBatch()
	renumber(batch, orderedIDs)
	if err := batch.Commit(ctx); err != nil {
		return err
	}
	s.invalidate(ownerID, status)
	return nil
}

// MoveAndReorder applies a cross-column drag as one batch: the moved task's
// status change plus a dense renumber of both the destination and the
// remaining source column.
func (s *taskService) MoveAndReorder(ctx context.Context, ownerID, taskID string, dest models.Status, destIDs, srcIDs []string) error {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return nil
	}
	if !CanMove(task.Status, dest) {
		return ErrInvalidTransition
	}
	src := task.Status

	batch := s.batches.NewBatch()
	batch.UpdateTask(taskID, repositories.FieldSet{
		"status":       dest,
		"deleted_from": nil,
		"trashed_at":   nil,
		"completed":    dest == models.StatusDone,
		"updated_at":   repositories.ServerTimestamp,
	})
	renumber(batch, destIDs)
	renumber(batch, srcIDs)

	if err := batch.Commit(ctx); err != nil {
		log.Printf("[task][move][err] id=%s %s->%s: %v", taskID, src, dest, err)
		return err
	}
	log.Printf("[task][move][ok] id=%s %s->%s", taskID, src, dest)
	s.invalidate(ownerID, src, dest)
	return nil
}

func renumber(batch repositories.BatchWriter, orderedIDs []string) {
	for idx, id := range orderedIDs {
		batch.UpdateTask(id, repositories.FieldSet{
			"sort_order": int64(idx),
			"updated_at": repositories.ServerTimestamp,
		})
	}
}
