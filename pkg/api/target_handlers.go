package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	customlog "github.com/open-teleop/rcdrive/pkg/log"
	"github.com/open-teleop/rcdrive/pkg/target"
	"github.com/open-teleop/rcdrive/services"
)

// TargetHandler holds dependencies for the vehicle URL endpoints.
type TargetHandler struct {
	targets services.TargetService
	logger  customlog.Logger
}

// NewTargetHandler creates a new handler for target endpoints.
func NewTargetHandler(targets services.TargetService, logger customlog.Logger) *TargetHandler {
	if targets == nil {
		panic("TargetService cannot be nil in NewTargetHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewTargetHandler")
	}
	return &TargetHandler{targets: targets, logger: logger}
}

// RegisterTargetRoutes registers GET and PUT /target under router.
func RegisterTargetRoutes(router fiber.Router, targets services.TargetService, logger customlog.Logger) {
	h := NewTargetHandler(targets, logger)
	router.Get("/target", h.handleGetTarget)
	router.Put("/target", h.handleUpdateTarget)
	logger.Infof("Registered target API endpoints")
}

// handleGetTarget returns the saved vehicle URL.
func (h *TargetHandler) handleGetTarget(c *fiber.Ctx) error {
	u, err := h.targets.GetURL(c.UserContext())
	if errors.Is(err, target.ErrNoURL) {
		return fiber.NewError(fiber.StatusNotFound, "No vehicle URL saved yet.")
	}
	if err != nil {
		h.logger.Errorf("Failed to read vehicle URL: %v", err)
		return err
	}
	return c.JSON(TargetRequest{URL: u})
}

// handleUpdateTarget validates and saves a vehicle URL.
func (h *TargetHandler) handleUpdateTarget(c *fiber.Ctx) error {
	var req TargetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Request body must be JSON {\"url\": \"...\"}.")
	}

	if err := h.targets.SetURL(c.UserContext(), req.URL); err != nil {
		if errors.Is(err, services.ErrValidation) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		h.logger.Errorf("Failed to save vehicle URL: %v", err)
		return err
	}
	return c.JSON(TargetRequest{URL: req.URL})
}
