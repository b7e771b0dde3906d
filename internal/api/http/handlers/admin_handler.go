package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clinic-booking/internal/api/dto"
	"github.com/spec-kit/clinic-booking/internal/domain"
	"github.com/spec-kit/clinic-booking/internal/service"
	apperrors "github.com/spec-kit/clinic-booking/pkg/util/errorutil"
)

// AdminHandler serves the admin dashboard.
type AdminHandler struct {
	appointments *service.AppointmentService
	contact      *service.ContactService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(appointments *service.AppointmentService, contact *service.ContactService) *AdminHandler {
	return &AdminHandler{appointments: appointments, contact: contact}
}

// Dashboard handles GET /admin?status=&q=&date=.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	var query dto.AdminListQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	appts, err := h.appointments.ListForAdmin(c.UserContext(), service.AdminFilter{
		Status: query.Status,
		Query:  query.Q,
		Date:   query.Date,
	})
	if err != nil {
		return err
	}
	msgs, err := h.contact.ListRecent(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"filters":      query,
		"appointments": dto.NewAppointmentList(appts, true),
		"messages":     dto.NewMessageList(msgs),
	})
}

// Act handles POST /admin with action=confirm|cancel and appt_id.
func (h *AdminHandler) Act(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AdminActionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.ApptID == "" {
		return apperrors.NewValidationError("appt_id is required.", map[string]any{"field": "appt_id"})
	}
	appt, err := h.appointments.Transition(c.UserContext(), p.Identity(), req.ApptID, domain.AppointmentAction(req.Action))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fmt.Sprintf("Appointment %s set to %s.", appt.ID, appt.Status),
		"/admin", dto.NewAppointmentResponse(*appt, true))
}

// Archive handles POST /admin/appointments/archive.
func (h *AdminHandler) Archive(c *fiber.Ctx) error {
	id, err := apptID(c)
	if err != nil {
		return err
	}
	if err := h.appointments.ArchiveForAdmin(c.UserContext(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fmt.Sprintf("Appointment %s archived.", id), "/admin", nil)
}

// Unarchive handles POST /admin/appointments/unarchive.
func (h *AdminHandler) Unarchive(c *fiber.Ctx) error {
	id, err := apptID(c)
	if err != nil {
		return err
	}
	if err := h.appointments.UnarchiveForAdmin(c.UserContext(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fmt.Sprintf("Appointment %s restored.", id), "/admin", nil)
}

// Delete handles POST /admin/appointments/delete.
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	id, err := apptID(c)
	if err != nil {
		return err
	}
	if err := h.appointments.DeleteForAdmin(c.UserContext(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fmt.Sprintf("Appointment %s deleted.", id), "/admin", nil)
}

func apptID(c *fiber.Ctx) (string, error) {
	var req dto.AppointmentIDRequest
	if err := parseBody(c, &req); err != nil {
		return "", err
	}
	if req.ApptID == "" {
		return "", apperrors.NewValidationError("appt_id is required.", map[string]any{"field": "appt_id"})
	}
	return req.ApptID, nil
}
