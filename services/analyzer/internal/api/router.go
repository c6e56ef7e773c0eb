// Package api exposes the analysis service over HTTP
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stoik/lure/internal/ai"
	"github.com/stoik/lure/internal/logger"
	"github.com/stoik/lure/services/analyzer/internal/analysis"
)

// Handler serves the analyzer endpoints
type Handler struct {
	svc     *analysis.Service
	aiState *ai.ModelState
	log     *logger.Logger
}

// NewRouter builds the gin engine. aiState is nil when no model is configured.
func NewRouter(svc *analysis.Service, aiState *ai.ModelState, log *logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{svc: svc, aiState: aiState, log: log.WithComponent("api")}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(h.log))

	r.GET("/health", h.health)
	r.POST("/analyze", h.analyze)

	analyses := r.Group("/analyses")
	{
		analyses.GET("", h.listAnalyses)
		analyses.GET("/:id", h.getAnalysis)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
