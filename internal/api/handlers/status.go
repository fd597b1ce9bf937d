package handlers

import (
	"time"

	"github.com/coinpulse-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type StatusHandler struct {
	Ingest    *services.IngestService
	Scheduler *services.Scheduler       // nil when this process does not schedule
	Hub       *services.RecordStreamHub // nil when streaming is off
}

func NewStatusHandler(ingest *services.IngestService, scheduler *services.Scheduler, hub *services.RecordStreamHub) *StatusHandler {
	return &StatusHandler{Ingest: ingest, Scheduler: scheduler, Hub: hub}
}

// GetStatus reports the ingestion pipeline state
// GET /api/status
func (h *StatusHandler) GetStatus(c *fiber.Ctx) error {
	resp := fiber.Map{
		"ingest":    h.Ingest.Status(),
		"scheduled": h.Scheduler != nil,
	}
	if h.Scheduler != nil {
		if next := h.Scheduler.Next(); !next.IsZero() {
			resp["nextRun"] = next.Format(time.RFC3339)
		}
	}
	if h.Hub != nil {
		resp["streamSubscribers"] = h.Hub.Subscribers()
	}
	return c.JSON(resp)
}
