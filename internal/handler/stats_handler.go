package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reel-tracker/metrics-scheduler-go/internal/db/models"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/repository"
)

// StatsHandler exposes schedule backlog counts for operators.
type StatsHandler struct {
	schedules repository.ScheduleRepository
}

// NewStatsHandler creates a new StatsHandler instance.
func NewStatsHandler(schedules repository.ScheduleRepository) *StatsHandler {
	return &StatsHandler{schedules: schedules}
}

// ScheduleStats returns pending, completed and failed schedule counts.
func (h *StatsHandler) ScheduleStats(c *gin.Context) {
	counts, err := h.schedules.CountSchedulesByStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to count schedules",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pending":   counts[models.SchedulePending],
		"completed": counts[models.ScheduleCompleted],
		"failed":    counts[models.ScheduleFailed],
		"time":      time.Now(),
	})
}
