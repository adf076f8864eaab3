package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/shift-roster/internal/persistence"
)

func seedUser(t *testing.T, pool *ConnectionPool, username string) {
	t.Helper()

	err := NewUserRepository(pool).CreateUser(context.Background(), persistence.User{
		Username:     username,
		PasswordHash: "hash",
		Role:         persistence.RoleEmployee,
		DisplayName:  "Usuario de Prueba",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewSessionRepository(pool)
	seedUser(t, pool, "ana")

	expires := time.Now().Add(8 * time.Hour).UTC().Truncate(time.Second)
	if _, err := repo.CreateSession(ctx, persistence.Session{
		ID:        "session-1",
		Username:  "ana",
		Token:     "token-1",
		ExpiresAt: expires,
	}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	stored, err := repo.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if stored.Username != "ana" || !stored.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected session: %#v", stored)
	}
	if stored.RevokedAt != nil {
		t.Fatalf("new session should not be revoked: %v", stored.RevokedAt)
	}
}

func TestSessionRepository_Revoke(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewSessionRepository(pool)
	seedUser(t, pool, "ana")

	if _, err := repo.CreateSession(ctx, persistence.Session{
		ID:        "session-1",
		Username:  "ana",
		Token:     "token-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	revokedAt := time.Now().UTC().Truncate(time.Second)
	revoked, err := repo.RevokeSession(ctx, "token-1", revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
		t.Fatalf("expected revoked timestamp %v, got %v", revokedAt, revoked.RevokedAt)
	}

	// Revoking twice reports not found: the first revocation already consumed it.
	if _, err := repo.RevokeSession(ctx, "token-1", revokedAt); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double revoke, got %v", err)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewSessionRepository(pool)
	seedUser(t, pool, "ana")

	now := time.Now().UTC()
	for _, s := range []persistence.Session{
		{ID: "s-old", Username: "ana", Token: "token-old", ExpiresAt: now.Add(-time.Hour)},
		{ID: "s-new", Username: "ana", Token: "token-new", ExpiresAt: now.Add(time.Hour)},
	} {
		if _, err := repo.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession(%s) failed: %v", s.ID, err)
		}
	}

	if err := repo.DeleteExpiredSessions(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	if _, err := repo.GetSession(ctx, "token-old"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected expired session pruned, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "token-new"); err != nil {
		t.Fatalf("live session should survive pruning: %v", err)
	}
}
