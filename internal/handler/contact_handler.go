package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/timeroster/push-relay/internal/domain"
)

type ContactService interface {
	CreateRequest(ctx context.Context, request *domain.ContactRequest) (*domain.ContactRequest, error)
	Accept(ctx context.Context, requestID string) error
	ListContacts(ctx context.Context, userID string) ([]domain.Contact, error)
}

type ContactHandler struct {
	service ContactService
}

func NewContactHandler(service ContactService) (*ContactHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("contact service is required")
	}
	return &ContactHandler{service: service}, nil
}

func RegisterContactRoutes(router fiber.Router, service ContactService) error {
	h, err := NewContactHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/contact-requests", h.CreateRequest)
	v1.Post("/contact-requests/:id/accept", h.AcceptRequest)
	v1.Get("/users/:userId/contacts", h.ListContacts)

	return nil
}

type createContactRequestBody struct {
	FromUserID string `json:"from"`
	ToUserID   string `json:"to"`
	FromName   string `json:"fromName,omitempty"`
	ToName     string `json:"toName,omitempty"`
}

type contactRequestResponse struct {
	ID       string `json:"id"`
	From     string `json:"from"`
	To       string `json:"to"`
	FromName string `json:"fromName,omitempty"`
	ToName   string `json:"toName,omitempty"`
	Status   string `json:"status"`
}

type contactResponse struct {
	FriendID   string    `json:"friendId"`
	Name       string    `json:"name"`
	AcceptedAt time.Time `json:"acceptedAt"`
}

func (h *ContactHandler) CreateRequest(c *fiber.Ctx) error {
	var req createContactRequestBody
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	request := domain.ContactRequest{
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		FromName:   strings.TrimSpace(req.FromName),
		ToName:     strings.TrimSpace(req.ToName),
	}

	created, err := h.service.CreateRequest(c.Context(), &request)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(contactRequestResponse{
		ID:       created.ID,
		From:     created.FromUserID,
		To:       created.ToUserID,
		FromName: created.FromName,
		ToName:   created.ToName,
		Status:   created.Status.String(),
	})
}

func (h *ContactHandler) AcceptRequest(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.Accept(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"requestId": id,
		"status":    domain.RequestAccepted.String(),
	})
}

func (h *ContactHandler) ListContacts(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))
	contacts, err := h.service.ListContacts(c.Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}

	items := make([]contactResponse, 0, len(contacts))
	for _, contact := range contacts {
		items = append(items, contactResponse{
			FriendID:   contact.FriendID,
			Name:       contact.Name,
			AcceptedAt: contact.AcceptedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"userId":   userID,
		"contacts": items,
	})
}
