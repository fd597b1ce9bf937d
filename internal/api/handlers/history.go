/**
 * @description
 * History API Handlers.
 * Read-only access to the collected coin history. Manual inserts are rejected; history
 * is collected by the scheduler only.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"errors"
	"strings"

	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/coinpulse-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	historyNotFoundMessage    = "No history found for this coin."
	manualSnapshotBodyMessage = "This endpoint is not intended for direct use. History is saved automatically."
)

type HistoryHandler struct {
	Service *services.RecordService
}

func NewHistoryHandler(service *services.RecordService) *HistoryHandler {
	return &HistoryHandler{Service: service}
}

// GetAll returns every history entry
// GET /api/history
func (h *HistoryHandler) GetAll(c *fiber.Ctx) error {
	entries, err := h.Service.GetAllHistory(c.Context())
	if err != nil {
		logger.Error("GetAllHistory: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": serverErrorMessage})
	}
	return c.JSON(entries)
}

// GetForCoin returns the history of a single coin
// GET /api/history/:coinId
func (h *HistoryHandler) GetForCoin(c *fiber.Ctx) error {
	coinID := strings.TrimSpace(c.Params("coinId"))
	if coinID == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": historyNotFoundMessage})
	}

	entries, err := h.Service.GetHistoryFor(c.Context(), coinID)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": historyNotFoundMessage})
		}
		logger.Error("GetHistoryFor(%s): %v", coinID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": serverErrorMessage})
	}
	return c.JSON(entries)
}

// Create rejects manual history inserts
// POST /api/history
func (h *HistoryHandler) Create(c *fiber.Ctx) error {
	err := h.Service.TriggerManualHistorySnapshot(c.Context())
	if errors.Is(err, services.ErrManualSnapshotUnsupported) {
		return c.Status(fiber.StatusBadRequest).SendString(manualSnapshotBodyMessage)
	}
	if err != nil {
		logger.Error("TriggerManualHistorySnapshot: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": serverErrorMessage})
	}
	return c.SendStatus(fiber.StatusAccepted)
}
