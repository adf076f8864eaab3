package application

import (
	"context"

	"github.com/example/shift-roster/internal/persistence"
)

const defaultAuditLimit = 100

// AuditService exposes the audit trail to administrators.
type AuditService struct {
	audit persistence.AuditRepository
}

// NewAuditService wires dependencies for the audit service.
func NewAuditService(audit persistence.AuditRepository) *AuditService {
	return &AuditService{audit: audit}
}

// List returns the most recent audit entries, newest first. A non-positive
// limit falls back to the default page size.
func (s *AuditService) List(ctx context.Context, principal Principal, limit int) ([]persistence.AuditEntry, error) {
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	return s.audit.ListAudit(ctx, limit)
}
