// Package handlers implements the HTTP handlers of the inventory sync API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/JonahHouse/ElPaseoAuto/internal/auth"
	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/job"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/gin-gonic/gin"
)

const (
	defaultLogLimit = 10
	maxLogLimit     = 100
)

// SyncRunner runs inventory syncs.
type SyncRunner interface {
	Run(ctx context.Context, trigger domain.Trigger) (*job.Outcome, error)
	InProgress() bool
}

// ScrapeLogReader reads the sync audit trail.
type ScrapeLogReader interface {
	GetByID(ctx context.Context, id int64) (*domain.ScrapeLog, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ScrapeLog, error)
}

// SyncStats summarizes a finished run.
type SyncStats struct {
	Found   int `json:"found"`
	Skipped int `json:"skipped"`
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// SyncResponse is returned by POST /sync.
type SyncResponse struct {
	Success bool       `json:"success"`
	LogID   int64      `json:"logId,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   string     `json:"error,omitempty"`
	Stats   *SyncStats `json:"stats,omitempty"`
}

// SyncHandler triggers runs and exposes their logs.
type SyncHandler struct {
	runner SyncRunner
	logs   ScrapeLogReader
	logger logger.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(runner SyncRunner, logs ScrapeLogReader, log logger.Logger) *SyncHandler {
	return &SyncHandler{runner: runner, logs: logs, logger: log}
}

// log returns the request-scoped logger set by the request id middleware.
func (h *SyncHandler) log(c *gin.Context) logger.Logger {
	return logger.FromContext(c.Request.Context(), h.logger)
}

// Trigger runs a sync synchronously and reports its outcome.
func (h *SyncHandler) Trigger(c *gin.Context) {
	trigger := domain.TriggerAPI
	if c.GetString(auth.MethodKey) == auth.MethodCron {
		trigger = domain.TriggerScheduler
	}

	// The run owns its log; a dropped client must not abort it halfway.
	ctx := context.WithoutCancel(c.Request.Context())

	out, err := h.runner.Run(ctx, trigger)
	switch {
	case errors.Is(err, job.ErrSyncInProgress):
		c.JSON(http.StatusConflict, SyncResponse{Success: false, Error: "Sync already in progress"})
		return
	case err != nil && out == nil:
		h.log(c).Error("Sync could not start", logger.Error(err))
		c.JSON(http.StatusInternalServerError, SyncResponse{
			Success: false,
			Error:   "Scrape failed",
			Message: "sync could not be started",
		})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, SyncResponse{
			Success: false,
			LogID:   out.LogID,
			Error:   "Scrape failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SyncResponse{
		Success: true,
		LogID:   out.LogID,
		Message: "Scrape completed successfully",
		Stats: &SyncStats{
			Found:   out.VehiclesFound,
			Skipped: out.VehiclesSkipped,
			Added:   out.Result.Added,
			Updated: out.Result.Updated,
			Removed: out.Result.Removed,
		},
	})
}

// Status returns the log named by ?logId, or the runner state without one.
func (h *SyncHandler) Status(c *gin.Context) {
	if raw := c.Query("logId"); raw != "" {
		h.writeLog(c, raw)
		return
	}

	status := "ready"
	if h.runner.InProgress() {
		status = "running"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// GetLog returns one scrape log.
func (h *SyncHandler) GetLog(c *gin.Context) {
	h.writeLog(c, c.Param("id"))
}

// ListLogs returns recent scrape logs, newest first.
func (h *SyncHandler) ListLogs(c *gin.Context) {
	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxLogLimit)
	}

	logs, err := h.logs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.log(c).Error("Failed to list scrape logs", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list scrape logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

func (h *SyncHandler) writeLog(c *gin.Context, raw string) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log id"})
		return
	}

	entry, err := h.logs.GetByID(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Log not found"})
		return
	}
	if err != nil {
		h.log(c).Error("Failed to get scrape log", logger.Int64("log_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get scrape log"})
		return
	}

	c.JSON(http.StatusOK, entry)
}
