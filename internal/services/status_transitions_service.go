package services

import "vtask/internal/models"

// Legal task status transitions.
// NB: restore is not a free move — a trashed task may only go back to the
// column recorded in deleted_from (default today), so trash rows here list
// every possible return address rather than user-choosable destinations.
var TaskTransitions = map[models.Status]map[models.Status]bool{
	models.StatusPlanned: {models.StatusToday: true, models.StatusDone: true, models.StatusTrash: true},
	models.StatusToday:   {models.StatusPlanned: true, models.StatusDone: true, models.StatusTrash: true},
	models.StatusDone:    {models.StatusPlanned: true, models.StatusToday: true, models.StatusTrash: true},
	models.StatusTrash:   {models.StatusPlanned: true, models.StatusToday: true, models.StatusDone: true},
}

func canTransition(current, to models.Status) bool {
	if current == "" {
		// empty in DB — allow any starting column
		return true
	}
	if current == to {
		return true
	}
	nexts, ok := TaskTransitions[current]
	if !ok {
		return false
	}
	return nexts[to]
}

// CanMove reports whether a drag may take a task from one visible column to
// another. Trash is reachable only through soft delete, never by drag.
func CanMove(current, dest models.Status) bool {
	if !dest.Visible() || current == models.StatusTrash {
		return false
	}
	return canTransition(current, dest)
}
