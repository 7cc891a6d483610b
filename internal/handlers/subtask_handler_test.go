package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"vtask/internal/models"
	"vtask/internal/services"
)

// stubTaskLookup serves GetByID from a map; the embedded interface stays nil
// because the handler under test reaches no other method.
type stubTaskLookup struct {
	services.TaskService
	tasks map[string]*models.Task
}

func (s *stubTaskLookup) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return s.tasks[id], nil
}

type stubSubtasks struct {
	services.SubtaskService
	subs    map[string]*models.Subtask
	toggled []string
	deleted []string
	updated []string
}

func (s *stubSubtasks) GetByID(ctx context.Context, id string) (*models.Subtask, error) {
	return s.subs[id], nil
}

func (s *stubSubtasks) SetDone(ctx context.Context, id string, done bool) error {
	s.toggled = append(s.toggled, id)
	return nil
}

func (s *stubSubtasks) Update(ctx context.Context, id string, patch models.SubtaskPatch) (*models.Subtask, error) {
	s.updated = append(s.updated, id)
	return s.subs[id], nil
}

func (s *stubSubtasks) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func subtaskHandlerFixture() (*SubtaskHandler, *stubSubtasks) {
	gin.SetMode(gin.TestMode)
	subs := &stubSubtasks{
		subs: map[string]*models.Subtask{
			"s1": {ID: "s1", ParentID: "t1", Title: "mine"},
		},
	}
	tasks := &stubTaskLookup{
		tasks: map[string]*models.Task{
			"t1": {ID: "t1", OwnerID: "owner", Status: models.StatusToday},
		},
	}
	return NewSubtaskHandler(subs, tasks), subs
}

func subtaskRequest(t *testing.T, caller, method, subtaskID, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/subtasks/"+subtaskID, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: subtaskID}}
	c.Set("owner_id", caller)
	return c, w
}

func TestSubtaskRoutesRejectForeignOwner(t *testing.T) {
	t.Run("toggle", func(t *testing.T) {
		h, subs := subtaskHandlerFixture()
		c, w := subtaskRequest(t, "intruder", http.MethodPost, "s1", `{"done":true}`)
		h.SetDone(c)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
		if len(subs.toggled) != 0 {
			t.Errorf("foreign toggle reached the service: %v", subs.toggled)
		}
	})

	t.Run("update", func(t *testing.T) {
		h, subs := subtaskHandlerFixture()
		c, w := subtaskRequest(t, "intruder", http.MethodPut, "s1", `{"title":"hijacked"}`)
		h.Update(c)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
		if len(subs.updated) != 0 {
			t.Errorf("foreign update reached the service: %v", subs.updated)
		}
	})

	t.Run("delete", func(t *testing.T) {
		h, subs := subtaskHandlerFixture()
		c, w := subtaskRequest(t, "intruder", http.MethodDelete, "s1", "")
		h.Delete(c)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
		if len(subs.deleted) != 0 {
			t.Errorf("foreign delete reached the service: %v", subs.deleted)
		}
	})
}

func TestSubtaskRoutesAllowOwner(t *testing.T) {
	h, subs := subtaskHandlerFixture()

	c, w := subtaskRequest(t, "owner", http.MethodPost, "s1", `{"done":true}`)
	h.SetDone(c)
	c.Writer.WriteHeaderNow()
	if w.Code != http.StatusNoContent {
		t.Errorf("toggle status = %d, want 204", w.Code)
	}
	if len(subs.toggled) != 1 || subs.toggled[0] != "s1" {
		t.Errorf("toggled = %v", subs.toggled)
	}

	c, w = subtaskRequest(t, "owner", http.MethodDelete, "s1", "")
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", w.Code)
	}
	if len(subs.deleted) != 1 {
		t.Errorf("deleted = %v", subs.deleted)
	}
}

func TestSubtaskRoutesMissingID(t *testing.T) {
	h, subs := subtaskHandlerFixture()

	// A toggle racing a hard-delete stays a silent no-op.
	c, w := subtaskRequest(t, "owner", http.MethodPost, "gone", `{"done":true}`)
	h.SetDone(c)
	c.Writer.WriteHeaderNow()
	if w.Code != http.StatusNoContent {
		t.Errorf("toggle status = %d, want 204", w.Code)
	}
	if len(subs.toggled) != 0 {
		t.Errorf("no-op toggle reached the service: %v", subs.toggled)
	}

	c, w = subtaskRequest(t, "owner", http.MethodPut, "gone", `{"title":"x"}`)
	h.Update(c)
	if w.Code != http.StatusNotFound {
		t.Errorf("update status = %d, want 404", w.Code)
	}
}

func TestSubtaskRoutesOrphanedParent(t *testing.T) {
	h, subs := subtaskHandlerFixture()
	subs.subs["s2"] = &models.Subtask{ID: "s2", ParentID: "vanished", Title: "stray"}

	c, w := subtaskRequest(t, "owner", http.MethodPost, "s2", `{"done":true}`)
	h.SetDone(c)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for a subtask without a parent", w.Code)
	}
	if len(subs.toggled) != 0 {
		t.Errorf("orphan toggle reached the service: %v", subs.toggled)
	}
}
