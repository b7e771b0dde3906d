package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/clinic-booking/internal/auth"
	"github.com/spec-kit/clinic-booking/internal/config"
	"github.com/spec-kit/clinic-booking/internal/domain"
	"github.com/spec-kit/clinic-booking/internal/events"
	"github.com/spec-kit/clinic-booking/internal/mail"
	"github.com/spec-kit/clinic-booking/internal/observability"
	"github.com/spec-kit/clinic-booking/internal/repository/memory"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
	fail bool
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("smtp unavailable")
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) to(addr string) []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []mail.Message
	for _, msg := range r.sent {
		if msg.To == addr {
			out = append(out, msg)
		}
	}
	return out
}

func (r *recordingSender) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

type fixture struct {
	store        *memory.Store
	sender       *recordingSender
	metrics      *observability.Metrics
	identity     *IdentityService
	appointments *AppointmentService
	contact      *ContactService
	notify       *NotificationService
	resets       *auth.ResetTokenManager
}

var testToday = time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, adminEmails ...string) *fixture {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	sender := &recordingSender{}
	metrics := observability.NewMetrics()
	resets := auth.NewResetTokenManager("test-secret")

	notify := NewNotificationService(NotificationDependencies{
		Dispatcher: dispatcher,
		Sender:     sender,
		Logger:     zap.NewNop(),
		Metrics:    metrics,
		Config:     config.NotificationConfig{AdminEmails: adminEmails},
		BaseURL:    "https://clinic.test/",
	})
	notify.RegisterHandlers()

	return &fixture{
		store:   store,
		sender:  sender,
		metrics: metrics,
		identity: NewIdentityService(IdentityDependencies{
			UserRepo:   store.Users(),
			Resets:     resets,
			Dispatcher: dispatcher,
			BcryptCost: bcrypt.MinCost,
		}),
		appointments: NewAppointmentService(AppointmentDependencies{
			AppointmentRepo: store.Appointments(),
			Dispatcher:      dispatcher,
			Metrics:         metrics,
			Clock:           func() time.Time { return testToday },
		}),
		contact: NewContactService(store.Messages()),
		notify:  notify,
		resets:  resets,
	}
}

func (f *fixture) register(t *testing.T, name, email, password string) *domain.User {
	t.Helper()
	user, err := f.identity.Register(context.Background(), RegisterInput{
		Name: name, Email: email, Password: password, Confirm: password,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) book(t *testing.T, owner *domain.User, input AppointmentInput) *domain.Appointment {
	t.Helper()
	appt, err := f.appointments.Create(context.Background(), owner.Identity(), input)
	require.NoError(t, err)
	return appt
}
