package application

import (
	"context"
	"testing"

	"github.com/example/shift-roster/internal/persistence"
)

func newSeedFixture(users ...persistence.User) (*Seeder, *memCodes, *memSettings, *memUsers) {
	codes := newMemCodes()
	settings := newMemSettings()
	memU := newMemUsers(users...)
	seeder := NewSeeder(codes, settings, memU, nil)
	seeder.hash = func(password string) (string, error) { return "hashed:" + password, nil }
	return seeder, codes, settings, memU
}

func TestSeedFreshStore(t *testing.T) {
	seeder, codes, settings, users := newSeedFixture()

	if err := seeder.Seed(context.Background(), "secret1"); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	if len(codes.byCode) != len(DefaultShiftCodes) {
		t.Errorf("expected %d shift codes, got %d", len(DefaultShiftCodes), len(codes.byCode))
	}
	for _, code := range []string{"20", "15", "VC", "CP", "PA", "-1"} {
		if _, ok := codes.byCode[code]; !ok {
			t.Errorf("missing default code %q", code)
		}
	}
	for _, key := range []string{"departamentos", "formato_hora", "dias_vacaciones", "inicio_semana"} {
		if _, ok := settings.byKey[key]; !ok {
			t.Errorf("missing default setting %q", key)
		}
	}

	admin, ok := users.byName["admin"]
	if !ok {
		t.Fatal("admin user not seeded")
	}
	if admin.Role != persistence.RoleAdmin {
		t.Errorf("expected admin role, got %q", admin.Role)
	}
	if !admin.MustChangePassword {
		t.Error("bootstrap admin must be forced to rotate the password")
	}
	if admin.PasswordHash != "hashed:secret1" {
		t.Errorf("unexpected admin hash %q", admin.PasswordHash)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	seeder, codes, _, users := newSeedFixture()
	ctx := context.Background()

	if err := seeder.Seed(ctx, "secret1"); err != nil {
		t.Fatalf("first Seed failed: %v", err)
	}

	// Mutate a seeded code; a second run must not overwrite it.
	codes.byCode["VC"] = persistence.ShiftCode{Code: "VC", Label: "Editado", Color: "#000000"}
	users.byName["admin"] = persistence.User{Username: "admin", PasswordHash: "custom", Role: persistence.RoleAdmin}

	if err := seeder.Seed(ctx, "other-password"); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	if codes.byCode["VC"].Label != "Editado" {
		t.Error("second seed must not overwrite existing codes")
	}
	if users.byName["admin"].PasswordHash != "custom" {
		t.Error("second seed must not overwrite the admin account")
	}
}

func TestSeedRejectsWeakAdminPassword(t *testing.T) {
	seeder, _, _, _ := newSeedFixture()

	if err := seeder.Seed(context.Background(), "123"); err == nil {
		t.Error("expected error for a short admin password")
	}
}
