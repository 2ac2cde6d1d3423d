package services

import (
	"testing"
	"time"

	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
)

func desiredAt(id string, start time.Time) DesiredSlot {
	return DesiredSlot{ID: id, StartTime: start, EndTime: start.Add(time.Hour)}
}

func TestPartitionDesired(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	desired := []DesiredSlot{
		desiredAt("12", start),
		desiredAt("tmp-a1b2", start.Add(time.Hour)),
		desiredAt("", start.Add(2*time.Hour)),
		desiredAt("-3", start.Add(3*time.Hour)),
		desiredAt("0", start.Add(4*time.Hour)),
	}

	kept, fresh := partitionDesired(desired)

	if len(kept) != 1 {
		t.Fatalf("expected 1 kept id, got %d", len(kept))
	}
	if _, ok := kept[12]; !ok {
		t.Fatal("expected id 12 in the kept set")
	}
	if len(fresh) != 4 {
		t.Fatalf("expected 4 fresh entries, got %d", len(fresh))
	}
}

func TestStaleSlotIDs(t *testing.T) {
	current := []models.AvailabilitySlot{
		{ID: 10, CoachID: 1},
		{ID: 11, CoachID: 1},
		{ID: 12, CoachID: 1},
	}

	stale := staleSlotIDs(current, map[int64]struct{}{11: {}})

	if len(stale) != 2 {
		t.Fatalf("expected 2 stale ids, got %v", stale)
	}
	if stale[0] != 10 || stale[1] != 12 {
		t.Fatalf("expected [10 12], got %v", stale)
	}
}

func TestStaleSlotIDsIdempotentEdit(t *testing.T) {
	// Submitting the current schedule unchanged must touch nothing.
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	current := []models.AvailabilitySlot{
		{ID: 10, CoachID: 1, StartTime: start},
		{ID: 11, CoachID: 1, StartTime: start.Add(time.Hour)},
	}
	kept, fresh := partitionDesired([]DesiredSlot{
		desiredAt("10", start),
		desiredAt("11", start.Add(time.Hour)),
	})

	if len(fresh) != 0 {
		t.Fatalf("expected no fresh entries, got %d", len(fresh))
	}
	if stale := staleSlotIDs(current, kept); len(stale) != 0 {
		t.Fatalf("expected no deletions, got %v", stale)
	}
}

func TestStaleSlotIDsIgnoresUnknownKeptIDs(t *testing.T) {
	// A kept id that no longer exists server-side is simply dropped; it must
	// not cause deletions of unrelated slots.
	current := []models.AvailabilitySlot{{ID: 10, CoachID: 1}}
	stale := staleSlotIDs(current, map[int64]struct{}{10: {}, 999: {}})
	if len(stale) != 0 {
		t.Fatalf("expected no deletions, got %v", stale)
	}
}
