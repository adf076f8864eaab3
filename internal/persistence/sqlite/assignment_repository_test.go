package sqlite

import (
	"context"
	"testing"

	"github.com/example/shift-roster/internal/persistence"
)

func TestAssignmentRepository_UpsertMonth(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAssignmentRepository(pool)
	seedEmployee(t, pool, "emp-1", "11111111")

	written, err := repo.UpsertMonth(ctx, []persistence.Assignment{
		{EmployeeID: "emp-1", Year: 2025, Month: 2, Day: 15, Code: ptr("VC")},
	})
	if err != nil {
		t.Fatalf("UpsertMonth failed: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected 1 row written, got %d", written)
	}

	stored, err := repo.ListEmployeeMonth(ctx, "emp-1", 2025, 2)
	if err != nil {
		t.Fatalf("ListEmployeeMonth failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected exactly one stored row, got %d", len(stored))
	}
	if stored[0].Day != 15 || stored[0].Code == nil || *stored[0].Code != "VC" {
		t.Fatalf("unexpected stored assignment: %#v", stored[0])
	}
}

func TestAssignmentRepository_UpsertMonth_ReplacesExistingDay(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAssignmentRepository(pool)
	seedEmployee(t, pool, "emp-1", "11111111")

	for _, code := range []string{"20", "VC"} {
		if _, err := repo.UpsertMonth(ctx, []persistence.Assignment{
			{EmployeeID: "emp-1", Year: 2025, Month: 2, Day: 15, Code: ptr(code)},
		}); err != nil {
			t.Fatalf("UpsertMonth(%s) failed: %v", code, err)
		}
	}

	stored, err := repo.ListEmployeeMonth(ctx, "emp-1", 2025, 2)
	if err != nil {
		t.Fatalf("ListEmployeeMonth failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected one row after replacement, got %d", len(stored))
	}
	if *stored[0].Code != "VC" {
		t.Fatalf("expected replaced code VC, got %q", *stored[0].Code)
	}
}

func TestAssignmentRepository_UpsertMonth_NilCodeClearsWithoutCreating(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAssignmentRepository(pool)
	seedEmployee(t, pool, "emp-1", "11111111")

	if _, err := repo.UpsertMonth(ctx, []persistence.Assignment{
		{EmployeeID: "emp-1", Year: 2025, Month: 2, Day: 15, Code: ptr("VC")},
	}); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	// Clearing day 15 updates the existing row; day 16 has no row and must
	// stay absent.
	written, err := repo.UpsertMonth(ctx, []persistence.Assignment{
		{EmployeeID: "emp-1", Year: 2025, Month: 2, Day: 15},
		{EmployeeID: "emp-1", Year: 2025, Month: 2, Day: 16},
	})
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected 1 cleared row, got %d", written)
	}

	stored, err := repo.ListEmployeeMonth(ctx, "emp-1", 2025, 2)
	if err != nil {
		t.Fatalf("ListEmployeeMonth failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected one row after clearing, got %d", len(stored))
	}
	if stored[0].Code != nil {
		t.Fatalf("expected NULL code after clear, got %q", *stored[0].Code)
	}
}

func TestAssignmentRepository_UpsertMonth_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAssignmentRepository(pool)
	seedEmployee(t, pool, "emp-1", "11111111")

	_, err := repo.UpsertMonth(ctx, []persistence.Assignment{
		{EmployeeID: "emp-1", Year: 2025, Month: 2, Day: 1, Code: ptr("20")},
		{EmployeeID: "missing", Year: 2025, Month: 2, Day: 2, Code: ptr("20")},
	})
	if err == nil {
		t.Fatal("expected foreign key failure")
	}

	stored, err := repo.ListMonth(ctx, 2025, 2)
	if err != nil {
		t.Fatalf("ListMonth failed: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected rollback to leave no rows, got %d", len(stored))
	}
}

func TestAssignmentRepository_ListMonth_Ordering(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAssignmentRepository(pool)
	seedEmployee(t, pool, "emp-1", "11111111")

	if _, err := repo.UpsertMonth(ctx, []persistence.Assignment{
		{EmployeeID: "emp-1", Year: 2025, Month: 2, Day: 20, Code: ptr("15")},
		{EmployeeID: "emp-1", Year: 2025, Month: 2, Day: 3, Code: ptr("20")},
		{EmployeeID: "emp-1", Year: 2025, Month: 3, Day: 1, Code: ptr("20")},
	}); err != nil {
		t.Fatalf("UpsertMonth failed: %v", err)
	}

	stored, err := repo.ListMonth(ctx, 2025, 2)
	if err != nil {
		t.Fatalf("ListMonth failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 rows for February, got %d", len(stored))
	}
	if stored[0].Day != 3 || stored[1].Day != 20 {
		t.Fatalf("expected rows ordered by day, got %d then %d", stored[0].Day, stored[1].Day)
	}
}
