package dto

import (
	"time"

	"github.com/spec-kit/clinic-booking/internal/domain"
)

// BookRequest payload for a new appointment.
type BookRequest struct {
	PetName string `json:"pet_name" form:"pet_name"`
	Service string `json:"service" form:"service"`
	Date    string `json:"date" form:"date"`
	Time    string `json:"time" form:"time"`
}

// AppointmentIDRequest identifies an appointment in hide/delete/archive forms.
type AppointmentIDRequest struct {
	ApptID string `json:"appt_id" form:"appt_id"`
}

// AdminActionRequest is the admin dashboard's confirm/cancel form.
type AdminActionRequest struct {
	Action string `json:"action" form:"action"`
	ApptID string `json:"appt_id" form:"appt_id"`
}

// AdminListQuery filters the admin dashboard.
type AdminListQuery struct {
	Status string `query:"status" json:"status"`
	Q      string `query:"q" json:"q"`
	Date   string `query:"date" json:"date"`
}

// AppointmentResponse is the listing view of an appointment.
type AppointmentResponse struct {
	ID            string                   `json:"id"`
	PetName       string                   `json:"pet_name,omitempty"`
	Service       string                   `json:"service"`
	Date          string                   `json:"date"`
	Time          string                   `json:"time"`
	Status        domain.AppointmentStatus `json:"status"`
	HiddenByUser  bool                     `json:"hidden_by_user"`
	HiddenByAdmin bool                     `json:"hidden_by_admin"`
	CreatedAt     time.Time                `json:"created_at"`
	Owner         *OwnerResponse           `json:"owner,omitempty"`
}

// OwnerResponse identifies who booked an appointment; shown to admins.
type OwnerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewAppointmentResponse maps a domain appointment. withOwner adds the owner block.
func NewAppointmentResponse(appt domain.Appointment, withOwner bool) AppointmentResponse {
	resp := AppointmentResponse{
		ID:            appt.ID,
		PetName:       appt.PetName,
		Service:       appt.Service,
		Date:          appt.Date,
		Time:          appt.Time,
		Status:        appt.Status,
		HiddenByUser:  appt.HiddenByUser,
		HiddenByAdmin: appt.HiddenByAdmin,
		CreatedAt:     appt.CreatedAt,
	}
	if withOwner {
		resp.Owner = &OwnerResponse{ID: appt.UserID, Name: appt.OwnerName, Email: appt.OwnerEmail}
	}
	return resp
}

// NewAppointmentList maps a slice, never returning nil.
func NewAppointmentList(appts []domain.Appointment, withOwner bool) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, appt := range appts {
		out = append(out, NewAppointmentResponse(appt, withOwner))
	}
	return out
}
