package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"beaconly/internal/domains"
)

// recentStatsDays is the window the domain listing counts events over.
const recentStatsDays = 7

// DomainsHandler serves domain listing and sharing controls. Creation and
// deletion of domains belong to the external mutation API.
type DomainsHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewDomainsHandler builds the domains handler.
func NewDomainsHandler(db *gorm.DB, logger *slog.Logger) *DomainsHandler {
	return &DomainsHandler{db: db, logger: logger}
}

// List returns the requester's domains with recent event counts.
func (h *DomainsHandler) List(c *fiber.Ctx) error {
	userID := requesterID(c)
	if userID == 0 {
		return fiber.NewError(http.StatusUnauthorized, "account required")
	}

	listed, err := domains.ListForUserWithStats(h.db, userID, recentStatsDays)
	if err != nil {
		h.logger.Error("Failed to list domains", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Query failed",
		})
	}

	return c.JSON(fiber.Map{"domains": listed})
}

// getOwned resolves a domain the requester owns, answering the uniform
// not-found for anything else.
func (h *DomainsHandler) getOwned(c *fiber.Ctx) (*domains.Domain, error) {
	domain, err := domains.GetByName(h.db, c.Params("domain"))
	if err != nil {
		var notFound *domains.DomainNotFoundError
		if errors.As(err, &notFound) {
			return nil, fiber.NewError(http.StatusNotFound, errDomainNotFound)
		}
		return nil, err
	}

	userID := requesterID(c)
	if userID == 0 || domain.UserID != userID {
		return nil, fiber.NewError(http.StatusNotFound, errDomainNotFound)
	}

	return domain, nil
}

// EnableShare assigns a fresh share token to an owned domain.
func (h *DomainsHandler) EnableShare(c *fiber.Ctx) error {
	domain, err := h.getOwned(c)
	if err != nil {
		return err
	}

	token, err := domains.EnableSharing(h.db, domain)
	if err != nil {
		h.logger.Error("Failed to enable sharing", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Update failed",
		})
	}

	return c.JSON(fiber.Map{"share_token": token})
}

// DisableShare revokes the domain's share token.
func (h *DomainsHandler) DisableShare(c *fiber.Ctx) error {
	domain, err := h.getOwned(c)
	if err != nil {
		return err
	}

	if err := domains.DisableSharing(h.db, domain); err != nil {
		h.logger.Error("Failed to disable sharing", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Update failed",
		})
	}

	return c.SendStatus(http.StatusNoContent)
}
