package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

var settingKeyPattern = regexp.MustCompile(`^[a-z0-9_]+(\.[a-z0-9_]+)*$`)

type settingRepository interface {
	List(ctx context.Context) ([]models.SystemSetting, error)
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Upsert(ctx context.Context, setting *models.SystemSetting) error
}

// SettingService manages keyed JSON system settings such as camera and model configuration.
type SettingService struct {
	repo      settingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingService constructs a SettingService.
func NewSettingService(repo settingRepository, validate *validator.Validate, logger *zap.Logger) *SettingService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingService{repo: repo, validator: validate, logger: logger}
}

// List returns all settings ordered by key.
func (s *SettingService) List(ctx context.Context) ([]models.SystemSetting, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	if settings == nil {
		settings = []models.SystemSetting{}
	}
	return settings, nil
}

// Get returns one setting.
func (s *SettingService) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	setting, err := s.repo.Get(ctx, strings.TrimSpace(key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "setting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load setting")
	}
	return setting, nil
}

// Upsert creates or replaces a setting. An omitted label keeps the stored one, or falls back to the key.
func (s *SettingService) Upsert(ctx context.Context, key string, req dto.UpsertSettingRequest) (*models.SystemSetting, error) {
	key = strings.TrimSpace(key)
	if !settingKeyPattern.MatchString(key) {
		return nil, fieldError("key", "The key format is invalid.")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err)
	}
	if !json.Valid(req.Value) {
		return nil, fieldError("value", "The value field must be valid JSON.")
	}

	existing, err := s.repo.Get(ctx, key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load setting")
	}
	setting := &models.SystemSetting{
		Key:         key,
		Label:       strings.TrimSpace(req.Label),
		Description: req.Description,
		Value:       types.JSONText(req.Value),
	}
	if setting.Label == "" {
		setting.Label = key
		if existing != nil {
			setting.Label = existing.Label
		}
	}
	if setting.Description == nil && existing != nil {
		setting.Description = existing.Description
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save setting")
	}
	s.logger.Info("setting saved", zap.String("key", key), zap.Bool("created", existing == nil))
	return setting, nil
}
