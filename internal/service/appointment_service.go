package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/clinic-booking/internal/domain"
	"github.com/spec-kit/clinic-booking/internal/events"
	"github.com/spec-kit/clinic-booking/internal/observability"
	"github.com/spec-kit/clinic-booking/internal/repository"
	apperrors "github.com/spec-kit/clinic-booking/pkg/util/errorutil"
)

// UpcomingLimit caps the home page preview.
const UpcomingLimit = 5

// AppointmentService coordinates the appointment workflow.
type AppointmentService struct {
	appointments repository.AppointmentRepository
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	now          func() time.Time
}

// AppointmentDependencies bundles requirements for the appointment service.
type AppointmentDependencies struct {
	AppointmentRepo repository.AppointmentRepository
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Clock           func() time.Time
}

// AppointmentInput is the booking form.
type AppointmentInput struct {
	PetName string
	Service string
	Date    string
	Time    string
}

// AdminFilter narrows the admin listing. Empty fields are ignored; a status
// outside the known set is ignored too.
type AdminFilter struct {
	Status string
	Query  string
	Date   string
}

// NewAppointmentService constructs the service.
func NewAppointmentService(deps AppointmentDependencies) *AppointmentService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AppointmentService{
		appointments: deps.AppointmentRepo,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		now:          clock,
	}
}

// Create books a pending appointment for the caller and notifies the owner and admins.
func (s *AppointmentService) Create(ctx context.Context, identity domain.Identity, input AppointmentInput) (*domain.Appointment, error) {
	appt := &domain.Appointment{
		UserID:  identity.ID,
		PetName: strings.TrimSpace(input.PetName),
		Service: strings.TrimSpace(input.Service),
		Date:    strings.TrimSpace(input.Date),
		Time:    strings.TrimSpace(input.Time),
		Status:  domain.AppointmentStatusPending,
	}
	if appt.Service == "" || appt.Date == "" || appt.Time == "" {
		return nil, apperrors.NewValidationError("Please complete all fields.", nil)
	}
	if err := checkLength("service", appt.Service, domain.MaxDetailLength); err != nil {
		return nil, err
	}
	if err := checkLength("pet_name", appt.PetName, domain.MaxDetailLength); err != nil {
		return nil, err
	}
	day, err := time.Parse(domain.DateLayout, appt.Date)
	if err != nil {
		return nil, apperrors.NewValidationError("Date must be YYYY-MM-DD.", map[string]any{"field": "date"})
	}
	at, err := time.Parse(domain.TimeLayout, appt.Time)
	if err != nil {
		return nil, apperrors.NewValidationError("Time must be HH:MM.", map[string]any{"field": "time"})
	}
	// Stored as text and ordered lexically, so keep the zero-padded form.
	appt.Date = day.Format(domain.DateLayout)
	appt.Time = at.Format(domain.TimeLayout)

	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}
	// Re-read for the owner fields the notification needs.
	created, err := s.appointments.GetByID(ctx, appt.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventAppointmentCreated,
		Actor:   actorOf(identity),
		Payload: events.AppointmentCreatedPayload{Appointment: *created},
	})
	return created, nil
}

// ListForUser returns the caller's appointments they have not hidden.
func (s *AppointmentService) ListForUser(ctx context.Context, identity domain.Identity) ([]domain.Appointment, error) {
	userID := identity.ID
	return s.appointments.ListWithFilter(ctx, repository.AppointmentFilter{
		UserID:              &userID,
		ExcludeHiddenByUser: true,
	})
}

// ListUpcoming returns up to limit of the caller's visible appointments dated today or later.
func (s *AppointmentService) ListUpcoming(ctx context.Context, identity domain.Identity, limit int) ([]domain.Appointment, error) {
	if limit <= 0 || limit > UpcomingLimit {
		limit = UpcomingLimit
	}
	userID := identity.ID
	today := s.now().Format(domain.DateLayout)
	return s.appointments.ListWithFilter(ctx, repository.AppointmentFilter{
		UserID:              &userID,
		FromDate:            &today,
		ExcludeHiddenByUser: true,
		Limit:               limit,
	})
}

// ListForAdmin returns appointments the admins have not archived.
func (s *AppointmentService) ListForAdmin(ctx context.Context, filter AdminFilter) ([]domain.Appointment, error) {
	repoFilter := repository.AppointmentFilter{ExcludeHiddenByAdmin: true}
	if status := domain.AppointmentStatus(strings.ToLower(strings.TrimSpace(filter.Status))); status.Valid() {
		repoFilter.Status = &status
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		repoFilter.SearchTerm = &q
	}
	if date := strings.TrimSpace(filter.Date); date != "" {
		repoFilter.Date = &date
	}
	return s.appointments.ListWithFilter(ctx, repoFilter)
}

// Transition applies an admin decision. Confirmed and cancelled appointments
// may be transitioned again; the latest decision wins.
func (s *AppointmentService) Transition(ctx context.Context, admin domain.Identity, id string, action domain.AppointmentAction) (*domain.Appointment, error) {
	target, ok := action.TargetStatus()
	if !ok {
		return nil, apperrors.NewValidationError("Action must be confirm or cancel.", map[string]any{"field": "action"})
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.appointments.UpdateStatus(ctx, current.ID, target)
	if err != nil {
		return nil, notFoundOr(err)
	}
	s.metrics.RecordTransition(string(target))

	s.publishEvent(ctx, events.Event{
		Type:  events.EventAppointmentStatusChanged,
		Actor: actorOf(admin),
		Payload: events.AppointmentStatusChangedPayload{
			Appointment: *updated,
			OldStatus:   current.Status,
			NewStatus:   updated.Status,
		},
	})
	return updated, nil
}

// HideForUser removes the appointment from its owner's listings only.
func (s *AppointmentService) HideForUser(ctx context.Context, identity domain.Identity, id string) error {
	appt, err := s.findOwned(ctx, identity, id)
	if err != nil {
		return err
	}
	return notFoundOr(s.appointments.HideForUser(ctx, appt.ID, identity.ID))
}

// DeleteForUser hard-deletes one of the caller's appointments.
func (s *AppointmentService) DeleteForUser(ctx context.Context, identity domain.Identity, id string) error {
	appt, err := s.findOwned(ctx, identity, id)
	if err != nil {
		return err
	}
	return notFoundOr(s.appointments.DeleteOwned(ctx, appt.ID, identity.ID))
}

// ArchiveForAdmin hides the appointment from the admin listing.
func (s *AppointmentService) ArchiveForAdmin(ctx context.Context, id string) error {
	return s.setHiddenByAdmin(ctx, id, true)
}

// UnarchiveForAdmin restores an archived appointment to the admin listing.
func (s *AppointmentService) UnarchiveForAdmin(ctx context.Context, id string) error {
	return s.setHiddenByAdmin(ctx, id, false)
}

// DeleteForAdmin hard-deletes any appointment.
func (s *AppointmentService) DeleteForAdmin(ctx context.Context, id string) error {
	if !validID(id) {
		return appointmentNotFound(id)
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return appointmentNotFound(id)
		}
		return err
	}
	return nil
}

func (s *AppointmentService) setHiddenByAdmin(ctx context.Context, id string, hidden bool) error {
	if !validID(id) {
		return appointmentNotFound(id)
	}
	if err := s.appointments.SetHiddenByAdmin(ctx, id, hidden); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return appointmentNotFound(id)
		}
		return err
	}
	return nil
}

func (s *AppointmentService) find(ctx context.Context, id string) (*domain.Appointment, error) {
	if !validID(id) {
		return nil, appointmentNotFound(id)
	}
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appointmentNotFound(id)
		}
		return nil, err
	}
	return appt, nil
}

func (s *AppointmentService) findOwned(ctx context.Context, identity domain.Identity, id string) (*domain.Appointment, error) {
	appt, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.OwnedBy(identity.ID) {
		return nil, apperrors.NewUnauthorized("You can only change your own appointments.")
	}
	return appt, nil
}

func (s *AppointmentService) publishEvent(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, event)
}

// notFoundOr maps a row that vanished between read and write to NotFound.
func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("appointment", nil)
	}
	return err
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func appointmentNotFound(id string) error {
	return apperrors.NewNotFound("appointment", map[string]any{"appt_id": id})
}

func actorOf(identity domain.Identity) events.Actor {
	return events.Actor{UserID: identity.ID, IsAdmin: identity.IsAdmin}
}
