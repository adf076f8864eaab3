package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/shift-roster/internal/persistence"
)

// ShiftCodeRepository implements persistence.ShiftCodeRepository using SQLite.
type ShiftCodeRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewShiftCodeRepository creates a new SQLite shift code repository.
func NewShiftCodeRepository(pool *ConnectionPool) *ShiftCodeRepository {
	return &ShiftCodeRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertShiftCode inserts or replaces a shift code definition.
func (r *ShiftCodeRepository) UpsertShiftCode(ctx context.Context, code persistence.ShiftCode) error {
	if strings.TrimSpace(code.Code) == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO shift_codes (code, label, color, hours)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET label = excluded.label, color = excluded.color, hours = excluded.hours
	`

	_, err := r.helper.Exec(ctx, query, strings.TrimSpace(code.Code), code.Label, code.Color, code.Hours)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetShiftCode retrieves one shift code definition.
func (r *ShiftCodeRepository) GetShiftCode(ctx context.Context, code string) (persistence.ShiftCode, error) {
	if strings.TrimSpace(code) == "" {
		return persistence.ShiftCode{}, persistence.ErrNotFound
	}

	var sc persistence.ShiftCode
	err := r.helper.QueryRow(ctx,
		"SELECT code, label, color, hours FROM shift_codes WHERE code = ?",
		strings.TrimSpace(code),
	).Scan(&sc.Code, &sc.Label, &sc.Color, &sc.Hours)
	if err != nil {
		return persistence.ShiftCode{}, r.mapper.MapError(err)
	}

	return sc, nil
}

// ListShiftCodes returns every shift code ordered by code.
func (r *ShiftCodeRepository) ListShiftCodes(ctx context.Context) ([]persistence.ShiftCode, error) {
	rows, err := r.helper.Query(ctx, "SELECT code, label, color, hours FROM shift_codes ORDER BY code ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var codes []persistence.ShiftCode
	for rows.Next() {
		var sc persistence.ShiftCode
		if err := rows.Scan(&sc.Code, &sc.Label, &sc.Color, &sc.Hours); err != nil {
			return nil, r.mapper.MapError(err)
		}
		codes = append(codes, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return codes, nil
}

// DeleteShiftCode removes a code and nulls out any assignments referencing it.
// Both steps run in one transaction so the registry and the roster stay consistent.
func (r *ShiftCodeRepository) DeleteShiftCode(ctx context.Context, code string) error {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("UPDATE assignments SET code = NULL WHERE code = ?", trimmed); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := tx.Exec("DELETE FROM shift_codes WHERE code = ?", trimmed)
		if err != nil {
			return r.mapper.MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		return nil
	})
}
