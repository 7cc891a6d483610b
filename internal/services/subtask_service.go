// internal/services/subtask_service.go
package services

import (
	"context"
	"log"
	"strings"
	"time"

	"vtask/internal/models"
	"vtask/internal/repositories"
)

// SubtaskService owns checklist items and the roll-up of their completion
// state into the parent task.
type SubtaskService interface {
	Create(ctx context.Context, parentID, title, note string) (*models.Subtask, error)
	GetByID(ctx context.Context, id string) (*models.Subtask, error)
	ListByParent(ctx context.Context, parentID string) ([]models.Subtask, error)
	// SetDone toggles one subtask and re-evaluates all live siblings: if every
	// one is done the parent is completed; if not and the parent is currently
	// done, the parent reopens into today. A parent that is not done keeps
	// its column. Unknown ids are a silent no-op.
	SetDone(ctx context.Context, id string, done bool) error
	Update(ctx context.Context, id string, patch models.SubtaskPatch) (*models.Subtask, error)
	// Delete soft-deletes a subtask. There is no restore; the record is
	// physically removed only when the parent is hard-deleted.
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, parentID string, orderedIDs []string) error
}

type subtaskService struct {
	subtasks repositories.SubtaskRepository
	tasks    repositories.TaskRepository
	batches  repositories.BatchFactory
	notify   BoardNotifier
}

func NewSubtaskService(
	subtasks repositories.SubtaskRepository,
	tasks repositories.TaskRepository,
	batches repositories.BatchFactory,
	notify BoardNotifier,
) SubtaskService {
	return &subtaskService{subtasks: subtasks, tasks: tasks, batches: batches, notify: notify}
}

func (s *subtaskService) Create(ctx context.Context, parentID, title, note string) (*models.Subtask, error) {
	title = trimTitle(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	sub := &models.Subtask{
		ParentID: parentID,
		Title:    title,
		Note:     note,
		Done:     false,
		Deleted:  false,
		Order:    time.Now().UnixMilli(),
	}
	if err := s.subtasks.Store(ctx, sub); err != nil {
		return nil, err
	}
	log.Printf("[subtask][create][ok] id=%s parent=%s", sub.ID, parentID)
	return sub, nil
}

func (s *subtaskService) GetByID(ctx context.Context, id string) (*models.Subtask, error) {
	return s.subtasks.FindByID(ctx, id)
}

func (s *subtaskService) ListByParent(ctx context.Context, parentID string) ([]models.Subtask, error) {
	return s.subtasks.ListByParent(ctx, parentID)
}

func (s *subtaskService) SetDone(ctx context.Context, id string, done bool) error {
	sub, err := s.subtasks.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if sub == nil || sub.Deleted {
		return nil
	}

	batch := s.batches.NewBatch()
	batch.UpdateSubtask(id, repositories.FieldSet{
		"done":       done,
		"updated_at": repositories.ServerTimestamp,
	})

	parent, err := s.tasks.FindByID(ctx, sub.ParentID)
	if err != nil {
		return err
	}
	var touched []models.Status
	// A trashed parent never moves on a subtask toggle; leaving the trash
	// takes a restore or a hard delete.
	if parent != nil && parent.Status != models.StatusTrash {
		siblings, err := s.subtasks.ListByParent(ctx, sub.ParentID)
		if err != nil {
			return err
		}
		// The toggled subtask counts with its new value, not the stored one.
		allDone := len(siblings) > 0
		for _, sibling := range siblings {
			current := sibling.Done
			if sibling.ID == id {
				current = done
			}
			if !current {
				allDone = false
				break
			}
		}

		switch {
		case allDone && parent.Status != models.StatusDone:
			batch.UpdateTask(parent.ID, repositories.FieldSet{
				"status":       models.StatusDone,
				"completed":    true,
				"deleted_from": nil,
				"trashed_at":   nil,
				"updated_at":   repositories.ServerTimestamp,
			})
			touched = []models.Status{parent.Status, models.StatusDone}
		case !allDone && parent.Status == models.StatusDone:
			batch.UpdateTask(parent.ID, repositories.FieldSet{
				"status":       models.StatusToday,
				"completed":    false,
				"deleted_from": nil,
				"trashed_at":   nil,
				"updated_at":   repositories.ServerTimestamp,
			})
			touched = []models.Status{models.StatusDone, models.StatusToday}
		}
	}

	if err := batch.Commit(ctx); err != nil {
		log.Printf("[subtask][toggle][err] id=%s: %v", id, err)
		return err
	}
	if parent != nil && len(touched) > 0 {
		s.invalidate(parent.OwnerID, touched...)
	}
	log.Printf("[subtask][toggle][ok] id=%s done=%v", id, done)
	return nil
}

func (s *subtaskService) Update(ctx context.Context, id string, patch models.SubtaskPatch) (*models.Subtask, error) {
	sub, err := s.subtasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.Deleted {
		return nil, nil
	}

	// A done flip carries aggregation consequences, so it takes the SetDone
	// path; the remaining fields are a plain field update.
	if patch.Done != nil && *patch.Done != sub.Done {
		if err := s.SetDone(ctx, id, *patch.Done); err != nil {
			return nil, err
		}
		sub.Done = *patch.Done
	}

	set := repositories.FieldSet{"updated_at": repositories.ServerTimestamp}
	if patch.Title != nil {
		title := trimTitle(*patch.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		set["title"] = title
		sub.Title = title
	}
	if patch.Note != nil {
		note := strings.TrimSpace(*patch.Note)
		set["note"] = note
		sub.Note = note
	}
	if len(set) > 1 {
		batch := s.batches.NewBatch()
		batch.UpdateSubtask(id, set)
		if err := batch.Commit(ctx); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

func (s *subtaskService) Delete(ctx context.Context, id string) error {
	sub, err := s.subtasks.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if sub == nil || sub.Deleted {
		return nil
	}
	batch := s.batches.NewBatch()
	batch.UpdateSubtask(id, repositories.FieldSet{
		"deleted":    true,
		"updated_at": repositories.ServerTimestamp,
	})
	if err := batch.Commit(ctx); err != nil {
		return err
	}
	log.Printf("[subtask][delete][ok] id=%s", id)
	return nil
}

func (s *subtaskService) Reorder(ctx context.Context, parentID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	batch := s.batches.NewBatch()
	for idx, id := range orderedIDs {
		batch.UpdateSubtask(id, repositories.FieldSet{
			"sort_order": int64(idx),
			"updated_at": repositories.ServerTimestamp,
		})
	}
	return batch.Commit(ctx)
}

func (s *subtaskService) invalidate(ownerID string, statuses ...models.Status) {
	if s.notify != nil {
		s.notify.Invalidate(ownerID, statuses...)
	}
}

func trimTitle(title string) string {
	return strings.TrimSpace(title)
}
