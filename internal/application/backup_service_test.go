package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/shift-roster/internal/backup"
)

func TestBackupServiceRequiresAdmin(t *testing.T) {
	service := NewBackupService(nil, nil, &memAudit{}, fixedClock, nil)
	ctx := context.Background()

	for name, call := range map[string]func() error{
		"ListSnapshots": func() error { _, err := service.ListSnapshots(ctx, supervisorPrincipal()); return err },
		"CreateSnapshot": func() error {
			_, err := service.CreateSnapshot(ctx, employeePrincipal("emp-1"))
			return err
		},
		"RestoreSnapshot": func() error { return service.RestoreSnapshot(ctx, supervisorPrincipal(), "x") },
		"ExportJSON":      func() error { _, err := service.ExportJSON(ctx, supervisorPrincipal()); return err },
		"ImportJSON": func() error {
			_, err := service.ImportJSON(ctx, supervisorPrincipal(), backup.Document{})
			return err
		},
	} {
		if err := call(); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%s: expected ErrUnauthorized, got %v", name, err)
		}
	}
}
