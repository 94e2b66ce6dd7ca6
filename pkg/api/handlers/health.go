package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Health reports service liveness.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// Stats reports database totals: device counts by type, run count and
// payload counts by benchmark type.
func (h *Handlers) Stats(c *fiber.Ctx) error {
	st, err := h.store.GetStats()
	if err != nil {
		log.Printf("[Stats] Error: %v", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to compute stats", nil)
	}
	return ok(c, "", st)
}
