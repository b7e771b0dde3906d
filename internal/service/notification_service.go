package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/clinic-booking/internal/config"
	"github.com/spec-kit/clinic-booking/internal/domain"
	"github.com/spec-kit/clinic-booking/internal/events"
	"github.com/spec-kit/clinic-booking/internal/mail"
	"github.com/spec-kit/clinic-booking/internal/observability"
)

// NotificationService turns domain events into emails. Delivery is best
// effort: failures are logged and counted, never returned to the publisher.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     mail.Sender
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.NotificationConfig
	baseURL    string
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Sender     mail.Sender
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Config     config.NotificationConfig
	BaseURL    string
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		sender:     deps.Sender,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		cfg:        deps.Config,
		baseURL:    strings.TrimRight(deps.BaseURL, "/"),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAppointmentCreated, n.handleAppointmentCreated)
	n.dispatcher.Subscribe(events.EventAppointmentStatusChanged, n.handleAppointmentStatusChanged)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
}

func (n *NotificationService) handleAppointmentCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AppointmentCreatedPayload)
	if !ok {
		return n.unexpectedPayload(event)
	}
	appt := payload.Appointment
	n.logger.Info("AppointmentCreated", zap.String("appointment_id", appt.ID), zap.String("user_id", appt.UserID))

	view := appointmentView(appt, appt.Status)
	if appt.OwnerEmail != "" {
		n.render(ctx, event.Type, func() (mail.Message, error) { return mail.BookingAcknowledgement(appt.OwnerEmail, view) })
	}
	for _, admin := range n.cfg.AdminEmails {
		admin := admin
		n.render(ctx, event.Type, func() (mail.Message, error) { return mail.NewRequestAlert(admin, view) })
	}
	return nil
}

func (n *NotificationService) handleAppointmentStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AppointmentStatusChangedPayload)
	if !ok {
		return n.unexpectedPayload(event)
	}
	appt := payload.Appointment
	n.logger.Info("AppointmentStatusChanged",
		zap.String("appointment_id", appt.ID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))

	if appt.OwnerEmail == "" {
		return nil
	}
	view := appointmentView(appt, payload.NewStatus)
	n.render(ctx, event.Type, func() (mail.Message, error) { return mail.StatusChanged(appt.OwnerEmail, view) })
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return n.unexpectedPayload(event)
	}
	n.logger.Info("PasswordResetRequested", zap.Bool("account_exists", payload.AccountExists))

	link := n.baseURL + "/reset/" + payload.Token
	n.render(ctx, event.Type, func() (mail.Message, error) { return mail.PasswordReset(payload.Email, link) })
	return nil
}

func (n *NotificationService) render(ctx context.Context, eventType events.EventType, build func() (mail.Message, error)) {
	msg, err := build()
	if err != nil {
		n.logger.Warn("email render failed", zap.String("event_type", string(eventType)), zap.Error(err))
		n.metrics.RecordNotification(string(eventType), false)
		return
	}
	n.Send(ctx, eventType, msg)
}

// Send delivers one email. It reports whether the transport accepted it and
// never propagates a failure.
func (n *NotificationService) Send(ctx context.Context, eventType events.EventType, msg mail.Message) bool {
	if n.sender == nil {
		return false
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Warn("email send failed",
			zap.String("event_type", string(eventType)),
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		n.metrics.RecordNotification(string(eventType), false)
		return false
	}
	n.metrics.RecordNotification(string(eventType), true)
	return true
}

func (n *NotificationService) unexpectedPayload(event events.Event) error {
	err := fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	n.logger.Warn("notification skipped", zap.Error(err))
	return err
}

func appointmentView(appt domain.Appointment, status domain.AppointmentStatus) mail.AppointmentView {
	return mail.AppointmentView{
		OwnerName:  appt.OwnerName,
		OwnerEmail: appt.OwnerEmail,
		PetName:    appt.PetName,
		Service:    appt.Service,
		Date:       appt.Date,
		Time:       appt.Time,
		Status:     string(status),
	}
}
