package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gate-violation-api/internal/models"
)

// SystemSettingRepository persists keyed JSON settings.
type SystemSettingRepository struct {
	db *sqlx.DB
}

// NewSystemSettingRepository constructs the repository.
func NewSystemSettingRepository(db *sqlx.DB) *SystemSettingRepository {
	return &SystemSettingRepository{db: db}
}

// List returns all settings ordered by key.
func (r *SystemSettingRepository) List(ctx context.Context) ([]models.SystemSetting, error) {
	var settings []models.SystemSetting
	if err := r.db.SelectContext(ctx, &settings, `SELECT key, label, description, value, updated_at FROM system_settings ORDER BY key ASC`); err != nil {
		return nil, fmt.Errorf("list system settings: %w", err)
	}
	return settings, nil
}

// Get fetches a single setting by key.
func (r *SystemSettingRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	var setting models.SystemSetting
	if err := r.db.GetContext(ctx, &setting, `SELECT key, label, description, value, updated_at FROM system_settings WHERE key = $1`, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get system setting: %w", err)
	}
	return &setting, nil
}

// Upsert inserts or replaces a setting.
func (r *SystemSettingRepository) Upsert(ctx context.Context, setting *models.SystemSetting) error {
	const query = `INSERT INTO system_settings (key, label, description, value, updated_at)
VALUES (:key, :label, :description, :value, :updated_at)
ON CONFLICT (key)
DO UPDATE SET label = EXCLUDED.label, description = EXCLUDED.description, value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	setting.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("upsert system setting: %w", err)
	}
	return nil
}
