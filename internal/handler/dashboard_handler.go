package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/middleware"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
	"github.com/noah-isme/gate-violation-api/pkg/response"
)

type dashboardService interface {
	Overview(ctx context.Context) (*dto.DashboardResponse, bool, error)
}

type statisticsService interface {
	Overview(ctx context.Context) (*dto.StatisticsResponse, bool, error)
}

// DashboardHandler serves the monitoring dashboard and the statistics page.
type DashboardHandler struct {
	dashboard  dashboardService
	statistics statisticsService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboard dashboardService, statistics statisticsService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, statistics: statistics}
}

// Overview godoc
// @Summary Gate monitoring dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	if h.dashboard == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, cachedMeta(c, cacheHit, start))
}

// Statistics godoc
// @Summary Detection statistics
// @Description Scenario breakdown, last seven days and detection quality.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statistics [get]
func (h *DashboardHandler) Statistics(c *gin.Context) {
	if h.statistics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	stats, cacheHit, err := h.statistics.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil, cachedMeta(c, cacheHit, start))
}

func cachedMeta(c *gin.Context, cacheHit bool, start time.Time) map[string]interface{} {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	return meta
}
