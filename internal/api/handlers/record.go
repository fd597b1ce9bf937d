/**
 * @description
 * Current snapshot API Handlers.
 * Serves the latest coin list and streams snapshot replacements over SSE.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"bufio"
	"fmt"

	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/coinpulse-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const serverErrorMessage = "Server Error"

type RecordHandler struct {
	Service *services.RecordService
	Hub     *services.RecordStreamHub
}

func NewRecordHandler(service *services.RecordService, hub *services.RecordStreamHub) *RecordHandler {
	return &RecordHandler{Service: service, Hub: hub}
}

// GetCurrent returns the current top coins, refreshing a stale snapshot first
// GET /api/records (alias /api/coins)
func (h *RecordHandler) GetCurrent(c *fiber.Ctx) error {
	records, err := h.Service.GetCurrent(c.Context())
	if err != nil {
		logger.Error("GetCurrent: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": serverErrorMessage})
	}
	return c.JSON(records)
}

// StreamUpdates pushes every snapshot replacement to the client over SSE
// GET /api/records/stream
func (h *RecordHandler) StreamUpdates(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	updates, unsubscribe := h.Hub.Subscribe()
	requestDone := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		// flush headers so clients see the stream open
		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-requestDone:
				return
			case payload, ok := <-updates:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}
