package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stoik/lure/internal/models"
	"github.com/stoik/lure/services/analyzer/internal/analysis"
	"github.com/stoik/lure/services/analyzer/internal/store"
)

func (h *Handler) health(c *gin.Context) {
	resp := gin.H{
		"status":     "ok",
		"service":    "analyzer",
		"ai_enabled": h.aiState != nil,
	}
	if h.aiState != nil {
		resp["active_model"] = h.aiState.Active()
		resp["fallback_used"] = h.aiState.FallbackUsed()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, err := h.svc.Analyze(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, analysis.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		requestLogger(c, h.log).Error().Err(err).Msg("analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	limit := store.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	records, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		requestLogger(c, h.log).Error().Err(err).Msg("failed to list analyses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list analyses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analyses": records, "count": len(records)})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis id"})
		return
	}

	rec, err := h.svc.Lookup(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		requestLogger(c, h.log).Error().Err(err).Str("analysis_id", id.String()).Msg("failed to load analysis")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analysis"})
		return
	}

	c.JSON(http.StatusOK, rec)
}
