package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/example/shift-roster/internal/persistence"
)

func TestAuditRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAuditRepository(pool)

	for i := range 3 {
		err := repo.AppendAudit(ctx, persistence.AuditEntry{
			Action:   "guardar_malla",
			Details:  fmt.Sprintf("guardado %d", i+1),
			Username: "admin",
		})
		if err != nil {
			t.Fatalf("AppendAudit failed: %v", err)
		}
	}

	entries, err := repo.ListAudit(ctx, 2)
	if err != nil {
		t.Fatalf("ListAudit failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit to cap results at 2, got %d", len(entries))
	}
	if entries[0].Details != "guardado 3" {
		t.Fatalf("expected newest entry first, got %q", entries[0].Details)
	}
}

func TestAuditRepository_Append_Defaults(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAuditRepository(pool)

	if err := repo.AppendAudit(ctx, persistence.AuditEntry{Action: "crear_respaldo"}); err != nil {
		t.Fatalf("AppendAudit failed: %v", err)
	}

	entries, err := repo.ListAudit(ctx, 0)
	if err != nil {
		t.Fatalf("ListAudit failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].Username != "system" {
		t.Fatalf("expected system default username, got %q", entries[0].Username)
	}
	if entries[0].Timestamp.IsZero() {
		t.Fatal("expected timestamp to be filled in")
	}
}

func TestAuditRepository_Append_RequiresAction(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAuditRepository(pool)

	if err := repo.AppendAudit(ctx, persistence.AuditEntry{}); err == nil {
		t.Fatal("expected constraint error for empty action")
	}
}
