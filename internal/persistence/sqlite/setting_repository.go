package sqlite

import (
	"context"
	"strings"

	"github.com/example/shift-roster/internal/persistence"
)

// SettingRepository implements persistence.SettingRepository using SQLite.
type SettingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSettingRepository creates a new SQLite setting repository.
func NewSettingRepository(pool *ConnectionPool) *SettingRepository {
	return &SettingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertSetting inserts or replaces one configuration entry.
func (r *SettingRepository) UpsertSetting(ctx context.Context, setting persistence.Setting) error {
	if strings.TrimSpace(setting.Key) == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO settings (key, value, type, description)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, type = excluded.type, description = excluded.description
	`

	_, err := r.helper.Exec(ctx, query,
		strings.TrimSpace(setting.Key),
		setting.Value,
		string(setting.Type),
		setting.Description,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetSetting retrieves one configuration entry by key.
func (r *SettingRepository) GetSetting(ctx context.Context, key string) (persistence.Setting, error) {
	if strings.TrimSpace(key) == "" {
		return persistence.Setting{}, persistence.ErrNotFound
	}

	var setting persistence.Setting
	var settingType string
	err := r.helper.QueryRow(ctx,
		"SELECT key, value, type, description FROM settings WHERE key = ?",
		strings.TrimSpace(key),
	).Scan(&setting.Key, &setting.Value, &settingType, &setting.Description)
	if err != nil {
		return persistence.Setting{}, r.mapper.MapError(err)
	}

	setting.Type = persistence.SettingType(settingType)
	return setting, nil
}

// ListSettings returns every configuration entry ordered by key.
func (r *SettingRepository) ListSettings(ctx context.Context) ([]persistence.Setting, error) {
	rows, err := r.helper.Query(ctx, "SELECT key, value, type, description FROM settings ORDER BY key ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var settings []persistence.Setting
	for rows.Next() {
		var setting persistence.Setting
		var settingType string
		if err := rows.Scan(&setting.Key, &setting.Value, &settingType, &setting.Description); err != nil {
			return nil, r.mapper.MapError(err)
		}
		setting.Type = persistence.SettingType(settingType)
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return settings, nil
}
