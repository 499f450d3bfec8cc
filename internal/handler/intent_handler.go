package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/timeroster/push-relay/internal/domain"
)

type IntentService interface {
	Create(ctx context.Context, intent *domain.Intent) (*domain.Intent, error)
	GetByID(ctx context.Context, id string) (*domain.Intent, error)
}

type IntentHandler struct {
	service IntentService
}

func NewIntentHandler(service IntentService) (*IntentHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("intent service is required")
	}
	return &IntentHandler{service: service}, nil
}

func RegisterIntentRoutes(router fiber.Router, service IntentService) error {
	h, err := NewIntentHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/intents", h.CreateIntent)
	v1.Get("/intents/:id", h.GetIntent)

	return nil
}

type createIntentRequest struct {
	RecipientUserID string            `json:"recipientUserId"`
	Data            map[string]string `json:"data,omitempty"`
	CorrelationID   string            `json:"correlationId,omitempty"`
}

type intentResponse struct {
	ID              string            `json:"id"`
	CorrelationID   string            `json:"correlationId"`
	RecipientUserID string            `json:"recipientUserId"`
	Data            map[string]string `json:"data,omitempty"`
	Status          string            `json:"status"`
	ProcessedAt     *time.Time        `json:"processedAt,omitempty"`
	SuccessCount    int               `json:"successCount"`
	FailureCount    int               `json:"failureCount"`
	Error           *string           `json:"error,omitempty"`
	CreatedAt       time.Time         `json:"createdAt,omitempty"`
	UpdatedAt       time.Time         `json:"updatedAt,omitempty"`
}

func (h *IntentHandler) CreateIntent(c *fiber.Ctx) error {
	var req createIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	correlationID := strings.TrimSpace(req.CorrelationID)
	if correlationID == "" {
		correlationID = requestCorrelationID(c)
	}

	intent := domain.Intent{
		RecipientUserID: req.RecipientUserID,
		Data:            req.Data,
		CorrelationID:   correlationID,
	}

	created, err := h.service.Create(c.Context(), &intent)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(toIntentResponse(created))
}

func (h *IntentHandler) GetIntent(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	intent, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toIntentResponse(intent))
}

func toIntentResponse(intent *domain.Intent) intentResponse {
	if intent == nil {
		return intentResponse{}
	}

	return intentResponse{
		ID:              intent.ID,
		CorrelationID:   intent.CorrelationID,
		RecipientUserID: intent.RecipientUserID,
		Data:            intent.Data,
		Status:          intent.Status.String(),
		ProcessedAt:     intent.ProcessedAt,
		SuccessCount:    intent.SuccessCount,
		FailureCount:    intent.FailureCount,
		Error:           intent.Error,
		CreatedAt:       intent.CreatedAt,
		UpdatedAt:       intent.UpdatedAt,
	}
}
