package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/timeroster/push-relay/internal/domain"
	"github.com/timeroster/push-relay/internal/registry"
)

type EndpointHandler struct {
	registry registry.Registry
}

func NewEndpointHandler(reg registry.Registry) (*EndpointHandler, error) {
	if reg == nil {
		return nil, fmt.Errorf("endpoint registry is required")
	}
	return &EndpointHandler{registry: reg}, nil
}

func RegisterEndpointRoutes(router fiber.Router, reg registry.Registry) error {
	h, err := NewEndpointHandler(reg)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/endpoints", h.RegisterEndpoint)
	v1.Delete("/endpoints", h.RemoveEndpoints)

	return nil
}

type registerEndpointRequest struct {
	UserID   string `json:"userId"`
	Token    string `json:"token"`
	Platform string `json:"platform,omitempty"`
}

type removeEndpointsRequest struct {
	UserID string   `json:"userId"`
	Tokens []string `json:"tokens"`
}

func (h *EndpointHandler) RegisterEndpoint(c *fiber.Ctx) error {
	var req registerEndpointRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	platform, err := domain.ParsePlatformFromString(req.Platform)
	if err != nil {
		return toHTTPError(err)
	}

	endpoint := domain.Endpoint{
		UserID:   strings.TrimSpace(req.UserID),
		Token:    strings.TrimSpace(req.Token),
		Platform: platform,
	}

	if err := h.registry.Register(c.Context(), &endpoint); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"userId":   endpoint.UserID,
		"platform": endpoint.Platform.String(),
	})
}

func (h *EndpointHandler) RemoveEndpoints(c *fiber.Ctx) error {
	var req removeEndpointsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "userId is required")
	}

	if err := h.registry.Remove(c.Context(), userID, req.Tokens); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"userId":  userID,
		"removed": len(req.Tokens),
	})
}
