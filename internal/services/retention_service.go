// internal/services/retention_service.go
package services

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"vtask/internal/models"
	"vtask/internal/repositories"
)

// retentionMonths is how long a task may sit in the trash before the
// auto-purge sweep removes it, counted in calendar months.
const retentionMonths = 3

// RetentionService decides when trashed tasks are purged automatically. The
// per-owner flag lives in a small prefs file outside the store; the sweep is
// opportunistic (trash view open, flag toggled on), never a background job.
type RetentionService interface {
	AutoPurgeEnabled(ownerID string) bool
	// SetAutoPurge persists the flag; toggling it on runs a sweep right away
	// and returns how many tasks it removed.
	SetAutoPurge(ctx context.Context, ownerID string, on bool) (int, error)
	// PurgeOldIfAutoOn removes trash older than the retention window, one
	// task at a time with subtask cascade, if the owner's flag is on.
	PurgeOldIfAutoOn(ctx context.Context, ownerID string) (int, error)
}

type retentionService struct {
	tasks    repositories.TaskRepository
	subtasks repositories.SubtaskRepository
	notify   BoardNotifier
	prefsDir string
}

func NewRetentionService(
	tasks repositories.TaskRepository,
	subtasks repositories.SubtaskRepository,
	notify BoardNotifier,
	filesRoot string,
) RetentionService {
	return &retentionService{
		tasks:    tasks,
		subtasks: subtasks,
		notify:   notify,
		prefsDir: filepath.Join(filesRoot, "prefs"),
	}
}

type ownerPrefs struct {
	AutoPurge bool `json:"auto_purge"`
}

func (s *retentionService) prefsPath(ownerID string) string {
	return filepath.Join(s.prefsDir, ownerID+".json")
}

func (s *retentionService) AutoPurgeEnabled(ownerID string) bool {
	data, err := os.ReadFile(s.prefsPath(ownerID))
	if err != nil {
		return false
	}
	var prefs ownerPrefs
	if err := json.Unmarshal(data, &prefs); err != nil {
		log.Printf("[retention][prefs][err] owner=%s corrupt prefs file: %v", ownerID, err)
		return false
	}
	return prefs.AutoPurge
}

func (s *retentionService) SetAutoPurge(ctx context.Context, ownerID string, on bool) (int, error) {
	if err := os.MkdirAll(s.prefsDir, 0o755); err != nil {
		return 0, err
	}
	data, err := json.Marshal(ownerPrefs{AutoPurge: on})
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(s.prefsPath(ownerID), data, 0o644); err != nil {
		return 0, err
	}
	log.Printf("[retention][flag] owner=%s auto_purge=%v", ownerID, on)
	if !on {
		return 0, nil
	}
	return s.PurgeOldIfAutoOn(ctx, ownerID)
}

func (s *retentionService) PurgeOldIfAutoOn(ctx context.Context, ownerID string) (int, error) {
	if !s.AutoPurgeEnabled(ownerID) {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, -retentionMonths, 0)
	old, err := s.tasks.ListTrashedBefore(ctx, ownerID, cutoff)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, task := range old {
		if err := s.tasks.Delete(ctx, task.ID); err != nil {
			log.Printf("[retention][sweep][err] owner=%s task=%s: %v", ownerID, task.ID, err)
			continue
		}
		if _, err := s.subtasks.DeleteByParents(ctx, []string{task.ID}); err != nil {
			log.Printf("[retention][sweep][warn] cascade failed for %s, subtasks orphaned: %v", task.ID, err)
		}
		purged++
	}

	// Reclaim whatever earlier failed cascades left behind.
	if orphans, err := s.subtasks.DeleteOrphans(ctx); err != nil {
		log.Printf("[retention][sweep][warn] orphan cleanup: %v", err)
	} else if orphans > 0 {
		log.Printf("[retention][sweep] reclaimed %d orphaned subtasks", orphans)
	}

	if purged > 0 {
		log.Printf("[retention][sweep][ok] owner=%s purged=%d", ownerID, purged)
		if s.notify != nil {
			s.notify.Invalidate(ownerID, models.StatusTrash)
		}
	}
	return purged, nil
}
