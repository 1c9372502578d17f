package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bukufunnel/internal/services"
)

// FollowupHandler exposes the dispatcher to external schedulers.
type FollowupHandler struct {
	followup *services.FollowupService
}

// NewFollowupHandler constructs FollowupHandler.
func NewFollowupHandler(followup *services.FollowupService) *FollowupHandler {
	return &FollowupHandler{followup: followup}
}

// Run triggers one dispatcher pass. Responds with a skipped marker when the
// current hour is outside the send windows, otherwise with the processed
// order list.
func (h *FollowupHandler) Run(c *fiber.Ctx) error {
	report, err := h.followup.Run(c.Context(), time.Now())
	if err != nil {
		log.Printf("[Followup] run failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if report.Skipped {
		return c.JSON(fiber.Map{
			"skipped": true,
			"reason":  report.Reason,
			"hour":    report.Hour,
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"processed": report.Processed,
		"results":   report.Results,
	})
}
