package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clinic-booking/internal/api/dto"
	"github.com/spec-kit/clinic-booking/internal/service"
)

// ContactHandler accepts the public contact form.
type ContactHandler struct {
	contact *service.ContactService
}

// NewContactHandler constructs handler.
func NewContactHandler(contact *service.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

// Submit handles POST /contact.
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req dto.ContactRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, err := h.contact.Submit(c.UserContext(), req.Name, req.Email, req.Message); err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Thanks! We'll be in touch.", "/", nil)
}
