package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigwork/backend/internal/service"
)

// StatsHandler отдаёт публичную статистику платформы.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler создаёт хэндлер.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetPlatformStats обрабатывает GET /stats.
func (h *StatsHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.stats.GetPlatformStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
