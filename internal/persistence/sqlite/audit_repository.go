package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shift-roster/internal/persistence"
)

// AuditRepository implements persistence.AuditRepository using SQLite.
type AuditRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAuditRepository creates a new SQLite audit repository.
func NewAuditRepository(pool *ConnectionPool) *AuditRepository {
	return &AuditRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// AppendAudit records one audit trail entry.
func (r *AuditRepository) AppendAudit(ctx context.Context, entry persistence.AuditEntry) error {
	if entry.Action == "" {
		return persistence.ErrConstraintViolation
	}
	if entry.Username == "" {
		entry.Username = "system"
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := r.helper.Exec(ctx,
		"INSERT INTO audit_log (action, details, username, timestamp) VALUES (?, ?, ?, ?)",
		entry.Action,
		entry.Details,
		entry.Username,
		entry.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// ListAudit returns the newest entries first, up to limit.
func (r *AuditRepository) ListAudit(ctx context.Context, limit int) ([]persistence.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.helper.Query(ctx, `
		SELECT id, action, details, username, timestamp
		FROM audit_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.AuditEntry
	for rows.Next() {
		var entry persistence.AuditEntry
		var timestampStr string
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Details, &entry.Username, &timestampStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if entry.Timestamp, err = time.Parse(time.RFC3339, timestampStr); err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return entries, nil
}
