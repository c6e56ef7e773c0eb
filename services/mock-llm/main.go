package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stoik/lure/services/mock-llm/internal/mock"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}

	r := newRouter(mock.NewState())

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting mock LLM server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func newRouter(state *mock.State) *gin.Engine {
	r := gin.Default()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// OpenAI-compatible endpoint
	r.POST("/v1/chat/completions", func(c *gin.Context) {
		handleChatCompletions(c, state)
	})

	// Admin endpoints for testing
	admin := r.Group("/admin")
	{
		admin.POST("/failures", func(c *gin.Context) { handleAddFailures(c, state) })
		admin.POST("/exhaust/:model", func(c *gin.Context) {
			state.ExhaustModel(c.Param("model"))
			c.JSON(http.StatusOK, gin.H{"exhausted": c.Param("model")})
		})
		admin.POST("/blank", func(c *gin.Context) {
			n, err := strconv.Atoi(c.DefaultQuery("count", "1"))
			if err != nil || n < 1 {
				n = 1
			}
			state.BlankNext(n)
			c.JSON(http.StatusOK, gin.H{"blank": n})
		})
		admin.POST("/reset", func(c *gin.Context) {
			state.Reset()
			c.JSON(http.StatusOK, gin.H{"reset": true})
		})
		admin.GET("/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, state.Stats())
		})
	}

	return r
}

func handleChatCompletions(c *gin.Context, state *mock.State) {
	if c.GetHeader("Authorization") == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "missing API key"}})
		return
	}

	var req mock.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid request: " + err.Error()}})
		return
	}
	if req.Model == "" || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "model and messages are required"}})
		return
	}

	resp, failure := state.Complete(req)
	if failure != nil {
		c.JSON(failure.Status, gin.H{"error": gin.H{"code": failure.Status, "message": failure.Message}})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func handleAddFailures(c *gin.Context, state *mock.State) {
	var req struct {
		Count   int    `json:"count"`
		Status  int    `json:"status"`
		Message string `json:"message"`
	}

	// Try JSON body first
	if err := c.ShouldBindJSON(&req); err != nil {
		// Fall back to query parameters
		req.Count, _ = strconv.Atoi(c.DefaultQuery("count", "1"))
		req.Status, _ = strconv.Atoi(c.DefaultQuery("status", "429"))
	}

	// Default to one 429 if not specified
	if req.Count < 1 {
		req.Count = 1
	}
	if req.Status == 0 {
		req.Status = http.StatusTooManyRequests
	}

	pending, err := state.AddFailures(req.Count, mock.Failure{Status: req.Status, Message: req.Message})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"added":   req.Count,
		"pending": pending,
		"message": fmt.Sprintf("Next %d call(s) fail with %d", pending, req.Status),
	})
}
