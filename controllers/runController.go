package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockout-app/errorx"
	"stockout-app/ginx"
	"stockout-app/middlewares"
	"stockout-app/models"
	"stockout-app/repository"
	"stockout-app/scoring"
)

// ListRuns returns the scoring history, most recent first.
func (h *Controller) ListRuns(c *gin.Context) {
	if h.runs == nil {
		ginx.Success(c, []models.ScoringRun{})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 1000 {
		ginx.BadRequest(c, "limit must be an integer between 1 and 1000")
		return
	}
	runs, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		h.log.Errorf(c.Request.Context(), "list scoring runs: %v", err)
		ginx.InternalError(c, "failed to list scoring runs")
		return
	}
	ginx.Success(c, runs)
}

// GetRun returns one history entry.
func (h *Controller) GetRun(c *gin.Context) {
	id := c.Param("id")
	c.Set(middlewares.RunIDKey, id)
	if h.runs == nil {
		ginx.NotFound(c, "run history is disabled")
		return
	}
	run, err := h.runs.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrRunNotFound) {
		ginx.NotFound(c, "scoring run "+id+" not found")
		return
	}
	if err != nil {
		h.log.Errorf(c.Request.Context(), "get scoring run %s: %v", id, err)
		ginx.InternalError(c, "failed to get scoring run")
		return
	}
	ginx.Success(c, run)
}

// ModelInfo describes the loaded scoring artifact.
func (h *Controller) ModelInfo(c *gin.Context) {
	a, err := h.model.Load(c.Request.Context())
	if err != nil {
		ginx.PipelineError(c, err)
		return
	}
	ginx.Success(c, scoring.Describe(a))
}

// Health reports whether the service can score.
func (h *Controller) Health(c *gin.Context) {
	if _, err := h.model.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"stage":  errorx.StageOf(err),
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "results_held": h.results.Len()})
}
