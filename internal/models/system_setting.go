package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SystemSetting is a keyed JSON configuration value editable by staff.
type SystemSetting struct {
	Key         string         `db:"key" json:"key"`
	Label       string         `db:"label" json:"label"`
	Description *string        `db:"description" json:"description,omitempty"`
	Value       types.JSONText `db:"value" json:"value"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
