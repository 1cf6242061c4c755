// Package v1 is the public ingestion API: one endpoint accepting tracking
// beacons from instrumented pages.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"beaconly/internal/events"
)

const (
	msgEventAdded     = "Event added successfully"
	errInvalidRequest = "Invalid request"
)

// Handler serves the ingestion endpoints.
type Handler struct {
	collector *events.Collector
	logger    *slog.Logger
}

// NewHandler builds the ingestion handler around a wired collector.
func NewHandler(collector *events.Collector, logger *slog.Logger) *Handler {
	return &Handler{collector: collector, logger: logger}
}

// CreateEvent accepts one beacon per call. Malformed beacons are client
// errors; only a storage failure is a server error.
func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	var beacon events.Beacon
	if err := c.BodyParser(&beacon); err != nil {
		h.logger.Debug("Failed to parse beacon", slog.Any("error", err))
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": errInvalidRequest,
		})
	}

	if err := h.collector.Collect(clientAddress(c), &beacon); err != nil {
		var validationErr *events.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": validationErr.Error(),
			})
		}

		h.logger.Error("Failed to collect event", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to collect event",
		})
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"message": msgEventAdded,
		"status":  http.StatusAccepted,
	})
}

// CreateEventBeacon handles events sent via navigator.sendBeacon, which
// always posts text/plain and cannot read the response. It therefore always
// answers 202.
func (h *Handler) CreateEventBeacon(c *fiber.Ctx) error {
	var beacon events.Beacon
	if err := json.Unmarshal(c.Body(), &beacon); err != nil {
		h.logger.Debug("Failed to parse sendBeacon payload", slog.Any("error", err))
		return c.SendStatus(http.StatusAccepted)
	}

	if err := h.collector.Collect(clientAddress(c), &beacon); err != nil {
		h.logger.Error("Failed to collect beacon event", slog.Any("error", err))
	}

	return c.SendStatus(http.StatusAccepted)
}
