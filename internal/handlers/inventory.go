package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/gin-gonic/gin"
)

// InventoryReader reads the persisted catalog.
type InventoryReader interface {
	GetByVIN(ctx context.Context, vin string) (*domain.Vehicle, error)
	Stats(ctx context.Context) (*domain.InventoryStats, error)
}

// InventoryHandler serves catalog reads.
type InventoryHandler struct {
	vehicles InventoryReader
	logger   logger.Logger
}

// NewInventoryHandler creates an InventoryHandler.
func NewInventoryHandler(vehicles InventoryReader, log logger.Logger) *InventoryHandler {
	return &InventoryHandler{vehicles: vehicles, logger: log}
}

func (h *InventoryHandler) log(c *gin.Context) logger.Logger {
	return logger.FromContext(c.Request.Context(), h.logger)
}

// GetVehicle returns one vehicle by VIN with its ordered images.
func (h *InventoryHandler) GetVehicle(c *gin.Context) {
	vin := c.Param("vin")

	vehicle, err := h.vehicles.GetByVIN(c.Request.Context(), vin)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}
	if err != nil {
		h.log(c).Error("Failed to get vehicle", logger.String("vin", vin), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get vehicle"})
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

// Stats returns catalog counts by status.
func (h *InventoryHandler) Stats(c *gin.Context) {
	stats, err := h.vehicles.Stats(c.Request.Context())
	if err != nil {
		h.log(c).Error("Failed to compute inventory stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute inventory stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
