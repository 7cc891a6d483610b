package services

import (
	"testing"

	"vtask/internal/models"
)

func TestCanMove(t *testing.T) {
	cases := []struct {
		name    string
		current models.Status
		dest    models.Status
		want    bool
	}{
		{"planned to today", models.StatusPlanned, models.StatusToday, true},
		{"planned to done", models.StatusPlanned, models.StatusDone, true},
		{"today to planned", models.StatusToday, models.StatusPlanned, true},
		{"today to done", models.StatusToday, models.StatusDone, true},
		{"done back to today", models.StatusDone, models.StatusToday, true},
		{"done back to planned", models.StatusDone, models.StatusPlanned, true},
		{"same column", models.StatusToday, models.StatusToday, true},
		{"unknown current", models.Status(""), models.StatusToday, true},
		{"into trash", models.StatusToday, models.StatusTrash, false},
		{"out of trash", models.StatusTrash, models.StatusToday, false},
		{"to nowhere", models.StatusToday, models.Status("archive"), false},
		{"from nowhere", models.Status("archive"), models.StatusToday, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanMove(tc.current, tc.dest); got != tc.want {
				t.Errorf("CanMove(%q, %q) = %v, want %v", tc.current, tc.dest, got, tc.want)
			}
		})
	}
}

func TestTrashRowsListEveryReturnAddress(t *testing.T) {
	for _, status := range models.VisibleStatuses {
		if !TaskTransitions[models.StatusTrash][status] {
			t.Errorf("restore into %s missing from the transition table", status)
		}
	}
}
