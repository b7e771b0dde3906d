package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clinic-booking/internal/api/dto"
	"github.com/spec-kit/clinic-booking/internal/auth"
	"github.com/spec-kit/clinic-booking/internal/service"
)

// AppointmentsHandler serves the booking flow for logged-in users.
type AppointmentsHandler struct {
	appointments *service.AppointmentService
}

// NewAppointmentsHandler constructs handler.
func NewAppointmentsHandler(appointments *service.AppointmentService) *AppointmentsHandler {
	return &AppointmentsHandler{appointments: appointments}
}

// Home handles GET /. Anonymous callers get an empty preview.
func (h *AppointmentsHandler) Home(c *fiber.Ctx) error {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.JSON(fiber.Map{"user": nil, "upcoming": []dto.AppointmentResponse{}})
	}
	upcoming, err := h.appointments.ListUpcoming(c.UserContext(), p.Identity(), service.UpcomingLimit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"user":     dto.NewUserResponse(p.User),
		"upcoming": dto.NewAppointmentList(upcoming, false),
	})
}

// BookForm handles GET /book.
func (h *AppointmentsHandler) BookForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"fields": []string{"pet_name", "service", "date", "time"}})
}

// Book handles POST /book.
func (h *AppointmentsHandler) Book(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.BookRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	appt, err := h.appointments.Create(c.UserContext(), p.Identity(), service.AppointmentInput{
		PetName: req.PetName,
		Service: req.Service,
		Date:    req.Date,
		Time:    req.Time,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Your appointment request was submitted. We'll confirm soon.",
		"/dashboard", dto.NewAppointmentResponse(*appt, false))
}

// Dashboard handles GET /dashboard.
func (h *AppointmentsHandler) Dashboard(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	appts, err := h.appointments.ListForUser(c.UserContext(), p.Identity())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", "", dto.NewAppointmentList(appts, false))
}

// Hide handles POST /me/appointments/hide.
func (h *AppointmentsHandler) Hide(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AppointmentIDRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.appointments.HideForUser(c.UserContext(), p.Identity(), req.ApptID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Appointment hidden.", "/dashboard", nil)
}

// Delete handles POST /me/appointments/delete.
func (h *AppointmentsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AppointmentIDRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.appointments.DeleteForUser(c.UserContext(), p.Identity(), req.ApptID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Appointment deleted.", "/dashboard", nil)
}
