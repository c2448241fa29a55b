package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
	"github.com/noah-isme/gate-violation-api/pkg/response"
)

type settingStore interface {
	List(ctx context.Context) ([]models.SystemSetting, error)
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Upsert(ctx context.Context, key string, req dto.UpsertSettingRequest) (*models.SystemSetting, error)
}

// SettingHandler exposes system settings.
type SettingHandler struct {
	settings settingStore
}

// NewSettingHandler constructs the handler.
func NewSettingHandler(settings settingStore) *SettingHandler {
	return &SettingHandler{settings: settings}
}

// List godoc
// @Summary List settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingHandler) List(c *gin.Context) {
	settings, err := h.settings.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Get godoc
// @Summary Get a setting
// @Tags Settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {object} response.Envelope
// @Router /settings/{key} [get]
func (h *SettingHandler) Get(c *gin.Context) {
	setting, err := h.settings.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, setting, nil)
}

// Upsert godoc
// @Summary Create or replace a setting
// @Tags Settings
// @Accept json
// @Produce json
// @Param key path string true "Setting key"
// @Param payload body dto.UpsertSettingRequest true "Setting payload"
// @Success 200 {object} response.Envelope
// @Router /settings/{key} [put]
func (h *SettingHandler) Upsert(c *gin.Context) {
	var req dto.UpsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	setting, err := h.settings.Upsert(c.Request.Context(), c.Param("key"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, setting, nil)
}
