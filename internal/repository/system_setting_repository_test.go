package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-violation-api/internal/models"
)

func TestSystemSettingRepositoryGet(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSystemSettingRepository(db)

	mock.ExpectQuery(`FROM system_settings WHERE key = \$1`).
		WithArgs("camera.gate_01").
		WillReturnRows(sqlmock.NewRows([]string{"key", "label", "description", "value", "updated_at"}).
			AddRow("camera.gate_01", "Gate camera", nil, []byte(`{"status":"online"}`), time.Now()))

	setting, err := repo.Get(context.Background(), "camera.gate_01")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"online"}`, string(setting.Value))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSystemSettingRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSystemSettingRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO system_settings.*ON CONFLICT \(key\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	setting := &models.SystemSetting{Key: "alerts.thresholds", Label: "Alert thresholds", Value: types.JSONText(`{"max_daily_violations":5}`)}
	require.NoError(t, repo.Upsert(context.Background(), setting))
	assert.False(t, setting.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
