// Package memory provides in-process repositories used when no database is
// configured and by tests. They honor the same contracts as the Postgres
// implementations, including pgx.ErrNoRows for missing rows.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/clinic-booking/internal/domain"
	"github.com/spec-kit/clinic-booking/internal/repository"
)

// Store holds every table in memory behind one lock.
type Store struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	appointments map[string]domain.Appointment
	messages     []domain.Message
	now          func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]domain.User),
		appointments: make(map[string]domain.Appointment),
		now:          time.Now,
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Appointments returns the appointment repository view of the store.
func (s *Store) Appointments() repository.AppointmentRepository { return &appointmentRepo{s} }

// Messages returns the message repository view of the store.
func (s *Store) Messages() repository.MessageRepository { return &messageRepo{s} }

// DeleteUser removes a user and, like the schema's ON DELETE CASCADE, its appointments.
func (s *Store) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for apptID, appt := range s.appointments {
		if appt.UserID == id {
			delete(s.appointments, apptID)
		}
	}
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.emailTaken(user.Email, "") {
		return repository.ErrDuplicateEmail
	}
	now := r.s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	if r.s.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicateEmail
	}
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *userRepo) SetAdmin(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, user := range r.s.users {
		if user.Email == email {
			user.IsAdmin = true
			user.UpdatedAt = r.s.now()
			r.s.users[id] = user
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// cloneUser detaches the stored row from caller-owned string memory, such as
// request buffers a zero-copy HTTP framework reuses.
func cloneUser(user domain.User) domain.User {
	user.Name = strings.Clone(user.Name)
	user.Email = strings.Clone(user.Email)
	user.PasswordHash = strings.Clone(user.PasswordHash)
	return user
}

func (s *Store) emailTaken(email, exceptID string) bool {
	for id, user := range s.users {
		if id != exceptID && user.Email == email {
			return true
		}
	}
	return false
}

type appointmentRepo struct{ s *Store }

func (r *appointmentRepo) Create(_ context.Context, appt *domain.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[appt.UserID]; !ok {
		return pgx.ErrNoRows
	}
	appt.ID = uuid.NewString()
	appt.CreatedAt = r.s.now()
	stored := *appt
	stored.PetName = strings.Clone(appt.PetName)
	stored.Service = strings.Clone(appt.Service)
	stored.Date = strings.Clone(appt.Date)
	stored.Time = strings.Clone(appt.Time)
	r.s.appointments[appt.ID] = stored
	return nil
}

func (r *appointmentRepo) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	appt, ok := r.s.appointments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.s.withOwner(appt), nil
}

func (r *appointmentRepo) UpdateStatus(_ context.Context, id string, status domain.AppointmentStatus) (*domain.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	appt, ok := r.s.appointments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	appt.Status = status
	r.s.appointments[id] = appt
	return r.s.withOwner(appt), nil
}

func (r *appointmentRepo) HideForUser(_ context.Context, id, userID string) error {
	return r.mutate(id, func(appt *domain.Appointment) bool {
		if appt.UserID != userID {
			return false
		}
		appt.HiddenByUser = true
		return true
	})
}

func (r *appointmentRepo) SetHiddenByAdmin(_ context.Context, id string, hidden bool) error {
	return r.mutate(id, func(appt *domain.Appointment) bool {
		appt.HiddenByAdmin = hidden
		return true
	})
}

func (r *appointmentRepo) DeleteOwned(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	appt, ok := r.s.appointments[id]
	if !ok || appt.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(r.s.appointments, id)
	return nil
}

func (r *appointmentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.appointments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.appointments, id)
	return nil
}

func (r *appointmentRepo) mutate(id string, apply func(*domain.Appointment) bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	appt, ok := r.s.appointments[id]
	if !ok || !apply(&appt) {
		return pgx.ErrNoRows
	}
	r.s.appointments[id] = appt
	return nil
}

func (r *appointmentRepo) ListWithFilter(_ context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := ""
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}

	var result []domain.Appointment
	for _, stored := range r.s.appointments {
		appt := r.s.withOwner(stored)
		switch {
		case filter.UserID != nil && appt.UserID != *filter.UserID:
			continue
		case filter.Status != nil && appt.Status != *filter.Status:
			continue
		case filter.Date != nil && appt.Date != *filter.Date:
			continue
		case filter.FromDate != nil && appt.Date < *filter.FromDate:
			continue
		case filter.ExcludeHiddenByUser && appt.HiddenByUser:
			continue
		case filter.ExcludeHiddenByAdmin && appt.HiddenByAdmin:
			continue
		case search != "" && !matchesSearch(appt, search):
			continue
		}
		result = append(result, *appt)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func matchesSearch(appt *domain.Appointment, search string) bool {
	return strings.Contains(strings.ToLower(appt.OwnerName), search) ||
		strings.Contains(strings.ToLower(appt.PetName), search) ||
		strings.Contains(strings.ToLower(appt.Service), search)
}

func (s *Store) withOwner(appt domain.Appointment) *domain.Appointment {
	if owner, ok := s.users[appt.UserID]; ok {
		appt.OwnerName = owner.Name
		appt.OwnerEmail = owner.Email
	}
	return &appt
}

type messageRepo struct{ s *Store }

func (r *messageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg.ID = uuid.NewString()
	msg.SubmittedAt = r.s.now()
	stored := *msg
	stored.Name = strings.Clone(msg.Name)
	stored.Email = strings.Clone(msg.Email)
	stored.Body = strings.Clone(msg.Body)
	r.s.messages = append(r.s.messages, stored)
	return nil
}

func (r *messageRepo) ListRecent(_ context.Context, limit int) ([]domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.Message, 0, len(r.s.messages))
	for i := len(r.s.messages) - 1; i >= 0; i-- {
		result = append(result, r.s.messages[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
