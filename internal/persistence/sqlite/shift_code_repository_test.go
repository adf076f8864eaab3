package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/example/shift-roster/internal/persistence"
)

func TestShiftCodeRepository_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewShiftCodeRepository(pool)

	code := persistence.ShiftCode{Code: "VC", Label: "Vacaciones", Color: "#9B5DE5", Hours: 0}
	if err := repo.UpsertShiftCode(ctx, code); err != nil {
		t.Fatalf("UpsertShiftCode failed: %v", err)
	}

	stored, err := repo.GetShiftCode(ctx, "VC")
	if err != nil {
		t.Fatalf("GetShiftCode failed: %v", err)
	}
	if stored.Label != "Vacaciones" || stored.Color != "#9B5DE5" {
		t.Fatalf("unexpected stored code: %#v", stored)
	}

	// Upsert with the same key updates in place.
	code.Label = "Vacaciones anuales"
	if err := repo.UpsertShiftCode(ctx, code); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	stored, err = repo.GetShiftCode(ctx, "VC")
	if err != nil {
		t.Fatalf("GetShiftCode after update failed: %v", err)
	}
	if stored.Label != "Vacaciones anuales" {
		t.Fatalf("expected updated label, got %q", stored.Label)
	}

	codes, err := repo.ListShiftCodes(ctx)
	if err != nil {
		t.Fatalf("ListShiftCodes failed: %v", err)
	}
	if len(codes) != 1 {
		t.Fatalf("expected a single registry entry, got %d", len(codes))
	}
}

func TestShiftCodeRepository_Delete_NullsAssignments(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewShiftCodeRepository(pool)
	assignments := NewAssignmentRepository(pool)
	seedEmployee(t, pool, "emp-1", "11111111")

	if err := repo.UpsertShiftCode(ctx, persistence.ShiftCode{Code: "VC", Label: "Vacaciones", Color: "#9B5DE5"}); err != nil {
		t.Fatalf("UpsertShiftCode failed: %v", err)
	}
	if _, err := assignments.UpsertMonth(ctx, []persistence.Assignment{
		{EmployeeID: "emp-1", Year: 2025, Month: 2, Day: 15, Code: ptr("VC")},
	}); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	if err := repo.DeleteShiftCode(ctx, "VC"); err != nil {
		t.Fatalf("DeleteShiftCode failed: %v", err)
	}

	if _, err := repo.GetShiftCode(ctx, "VC"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	stored, err := assignments.ListEmployeeMonth(ctx, "emp-1", 2025, 2)
	if err != nil {
		t.Fatalf("ListEmployeeMonth failed: %v", err)
	}
	if len(stored) != 1 || stored[0].Code != nil {
		t.Fatalf("expected assignment code nulled, got %#v", stored)
	}
}

func TestShiftCodeRepository_Delete_Missing(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewShiftCodeRepository(pool)

	if err := repo.DeleteShiftCode(ctx, "XX"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
