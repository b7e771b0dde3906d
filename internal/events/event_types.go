package events

import (
	"time"

	"github.com/spec-kit/clinic-booking/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAppointmentCreated       EventType = "appointment_created"
	EventAppointmentStatusChanged EventType = "appointment_status_changed"
	EventPasswordResetRequested   EventType = "password_reset_requested"
)

// Actor identifies who caused an event. UserID is empty for anonymous callers.
type Actor struct {
	UserID  string `json:"user_id,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AppointmentCreatedPayload carries the new appointment with its owner fields filled.
type AppointmentCreatedPayload struct {
	Appointment domain.Appointment `json:"appointment"`
}

// AppointmentStatusChangedPayload payload.
type AppointmentStatusChangedPayload struct {
	Appointment domain.Appointment       `json:"appointment"`
	OldStatus   domain.AppointmentStatus `json:"old_status"`
	NewStatus   domain.AppointmentStatus `json:"new_status"`
}

// PasswordResetRequestedPayload payload. AccountExists is informational; the
// email is sent either way.
type PasswordResetRequestedPayload struct {
	Email         string    `json:"email"`
	Token         string    `json:"-"`
	ExpiresAt     time.Time `json:"expires_at"`
	AccountExists bool      `json:"account_exists"`
}
