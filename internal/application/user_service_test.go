package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/shift-roster/internal/persistence"
)

func newUserFixture(users ...persistence.User) (*UserService, *memUsers, *memEmployees, *memAudit) {
	memU := newMemUsers(users...)
	memE := newMemEmployees(persistence.Employee{
		ID:         "emp-1",
		Sequence:   1,
		FullName:   "García López, María",
		NationalID: "123",
		Status:     persistence.StatusActive,
	})
	audit := &memAudit{}
	service := NewUserService(memU, memE, audit, fixedClock, nil)
	// Deterministic hashing keeps tests independent of argon2 cost.
	service.hash = func(password string) (string, error) { return "hashed:" + password, nil }
	return service, memU, memE, audit
}

func TestCreateUser(t *testing.T) {
	service, users, _, audit := newUserFixture()

	created, err := service.CreateUser(context.Background(), adminPrincipal(), UserInput{
		Username:    " Maria ",
		Password:    "secret1",
		Role:        persistence.RoleEmployee,
		DisplayName: "María García",
		Department:  "Cajas",
		EmployeeID:  strPtr("emp-1"),
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.Username != "maria" {
		t.Errorf("expected normalized username, got %q", created.Username)
	}
	if created.PasswordHash != "hashed:secret1" {
		t.Errorf("expected hashed password, got %q", created.PasswordHash)
	}
	if _, ok := users.byName["maria"]; !ok {
		t.Error("user not persisted")
	}
	if audit.lastAction() != "crear_usuario" {
		t.Errorf("expected crear_usuario audit entry, got %q", audit.lastAction())
	}
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	service, _, _, _ := newUserFixture()

	_, err := service.CreateUser(context.Background(), supervisorPrincipal(), UserInput{
		Username: "x", Password: "secret1", Role: persistence.RoleEmployee, DisplayName: "X",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	service, _, _, _ := newUserFixture(persistence.User{Username: "maria"})

	_, err := service.CreateUser(context.Background(), adminPrincipal(), UserInput{
		Username: "maria", Password: "secret1", Role: persistence.RoleEmployee, DisplayName: "María",
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateUserRejectsUnknownEmployeeLink(t *testing.T) {
	service, _, _, _ := newUserFixture()

	_, err := service.CreateUser(context.Background(), adminPrincipal(), UserInput{
		Username:    "maria",
		Password:    "secret1",
		Role:        persistence.RoleEmployee,
		DisplayName: "María",
		EmployeeID:  strPtr("missing"),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := vErr.FieldErrors["employee_id"]; !ok {
		t.Errorf("expected employee_id field error, got %v", vErr.FieldErrors)
	}
}

func TestCreateUserValidation(t *testing.T) {
	service, _, _, _ := newUserFixture()

	_, err := service.CreateUser(context.Background(), adminPrincipal(), UserInput{
		Username: "", Password: "123", Role: "boss",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"username", "password", "role", "display_name"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("expected %s field error, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestUpdateUserKeepsHashOnEmptyPassword(t *testing.T) {
	service, users, _, _ := newUserFixture(persistence.User{
		Username:     "maria",
		PasswordHash: "hashed:old",
		Role:         persistence.RoleEmployee,
		DisplayName:  "María",
	})

	updated, err := service.UpdateUser(context.Background(), adminPrincipal(), "maria", UserInput{
		Role:        persistence.RoleSupervisor,
		DisplayName: "María García",
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if updated.PasswordHash != "hashed:old" {
		t.Errorf("empty password must keep the stored hash, got %q", updated.PasswordHash)
	}
	if users.byName["maria"].Role != persistence.RoleSupervisor {
		t.Errorf("role not updated: %+v", users.byName["maria"])
	}
}

func TestUpdateUserNewPasswordClearsForcedReset(t *testing.T) {
	service, users, _, _ := newUserFixture(persistence.User{
		Username:           "imported",
		PasswordHash:       TemporaryPasswordHash,
		Role:               persistence.RoleEmployee,
		DisplayName:        "Importado",
		MustChangePassword: true,
	})

	_, err := service.UpdateUser(context.Background(), adminPrincipal(), "imported", UserInput{
		Password:    "secret1",
		Role:        persistence.RoleEmployee,
		DisplayName: "Importado",
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	stored := users.byName["imported"]
	if stored.MustChangePassword {
		t.Error("setting a password must clear the forced-reset flag")
	}
	if stored.PasswordHash != "hashed:secret1" {
		t.Errorf("expected new hash, got %q", stored.PasswordHash)
	}
}

func TestChangePassword(t *testing.T) {
	service, users, _, audit := newUserFixture(persistence.User{
		Username:           "maria",
		PasswordHash:       TemporaryPasswordHash,
		Role:               persistence.RoleEmployee,
		MustChangePassword: true,
	})

	principal := Principal{Username: "maria", Role: persistence.RoleEmployee}
	if err := service.ChangePassword(context.Background(), principal, "secret1"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	stored := users.byName["maria"]
	if stored.PasswordHash != "hashed:secret1" {
		t.Errorf("expected rotated hash, got %q", stored.PasswordHash)
	}
	if stored.MustChangePassword {
		t.Error("expected forced-reset flag cleared")
	}
	if audit.lastAction() != "cambiar_contrasena" {
		t.Errorf("expected cambiar_contrasena audit entry, got %q", audit.lastAction())
	}
}

func TestChangePasswordTooShort(t *testing.T) {
	service, _, _, _ := newUserFixture(persistence.User{Username: "maria"})

	err := service.ChangePassword(context.Background(), Principal{Username: "maria"}, "123")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetUserSelfOrAdmin(t *testing.T) {
	service, _, _, _ := newUserFixture(
		persistence.User{Username: "maria", Role: persistence.RoleEmployee},
		persistence.User{Username: "pedro", Role: persistence.RoleEmployee},
	)
	ctx := context.Background()

	if _, err := service.GetUser(ctx, Principal{Username: "maria", Role: persistence.RoleEmployee}, "maria"); err != nil {
		t.Errorf("self lookup should succeed, got %v", err)
	}
	if _, err := service.GetUser(ctx, Principal{Username: "maria", Role: persistence.RoleEmployee}, "pedro"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("cross lookup should be unauthorized, got %v", err)
	}
	if _, err := service.GetUser(ctx, adminPrincipal(), "pedro"); err != nil {
		t.Errorf("admin lookup should succeed, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	service, users, _, _ := newUserFixture(persistence.User{Username: "maria"})

	if err := service.DeleteUser(context.Background(), adminPrincipal(), "maria"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, ok := users.byName["maria"]; ok {
		t.Error("user still present after delete")
	}
}

func TestDeleteOwnAccountRejected(t *testing.T) {
	service, _, _, _ := newUserFixture(persistence.User{Username: "admin"})

	err := service.DeleteUser(context.Background(), adminPrincipal(), "Admin")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if msg := vErr.FieldErrors["username"]; !strings.Contains(msg, "propia cuenta") {
		t.Errorf("unexpected message: %q", msg)
	}
}
