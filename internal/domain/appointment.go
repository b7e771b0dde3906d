package domain

import "time"

// AppointmentStatus enumerates lifecycle states for appointments.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled:
		return true
	}
	return false
}

// AppointmentAction is an admin decision on a booking request.
type AppointmentAction string

const (
	ActionConfirm AppointmentAction = "confirm"
	ActionCancel  AppointmentAction = "cancel"
)

// TargetStatus maps an action to the status it produces.
func (a AppointmentAction) TargetStatus() (AppointmentStatus, bool) {
	switch a {
	case ActionConfirm:
		return AppointmentStatusConfirmed, true
	case ActionCancel:
		return AppointmentStatusCancelled, true
	}
	return "", false
}

// MaxDetailLength bounds the free-text pet name and service fields.
const MaxDetailLength = 120

// Date and time layouts stored as text on appointments.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment is a booking request made by a user.
type Appointment struct {
	ID            string
	UserID        string
	PetName       string
	Service       string
	Date          string
	Time          string
	Status        AppointmentStatus
	HiddenByUser  bool
	HiddenByAdmin bool
	CreatedAt     time.Time

	// Owner fields are filled by listing queries.
	OwnerName  string
	OwnerEmail string
}

// OwnedBy reports whether userID booked the appointment.
func (a *Appointment) OwnedBy(userID string) bool {
	return a.UserID == userID
}
