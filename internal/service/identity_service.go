package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/clinic-booking/internal/auth"
	"github.com/spec-kit/clinic-booking/internal/domain"
	"github.com/spec-kit/clinic-booking/internal/events"
	"github.com/spec-kit/clinic-booking/internal/repository"
	apperrors "github.com/spec-kit/clinic-booking/pkg/util/errorutil"
)

// IdentityService coordinates registration, login, profile and password reset flows.
type IdentityService struct {
	users      repository.UserRepository
	resets     *auth.ResetTokenManager
	dispatcher events.Dispatcher
	bcryptCost int
	bootstrap  map[string]struct{}
}

// IdentityDependencies encapsulates requirements for the identity service.
type IdentityDependencies struct {
	UserRepo   repository.UserRepository
	Resets     *auth.ResetTokenManager
	Dispatcher events.Dispatcher
	BcryptCost int

	// BootstrapAdmins are addresses that receive admin rights when they register.
	BootstrapAdmins []string
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Confirm  string
}

// ProfileInput is the profile form. NewPassword is optional; when set,
// CurrentPassword must match the stored hash.
type ProfileInput struct {
	Name            string
	Email           string
	NewPassword     string
	CurrentPassword string
}

// NewIdentityService builds the service.
func NewIdentityService(deps IdentityDependencies) *IdentityService {
	return &IdentityService{
		users:      deps.UserRepo,
		resets:     deps.Resets,
		dispatcher: deps.Dispatcher,
		bcryptCost: deps.BcryptCost,
		bootstrap:  bootstrapSet(deps.BootstrapAdmins),
	}
}

func bootstrapSet(emails []string) map[string]struct{} {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		if email = domain.NormalizeEmail(email); email != "" {
			set[email] = struct{}{}
		}
	}
	return set
}

// Register creates a non-admin account. It does not log the user in.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" || input.Confirm == "" {
		return nil, apperrors.NewValidationError("All fields are required.", nil)
	}
	if input.Password != input.Confirm {
		return nil, apperrors.NewValidationError("Passwords do not match.", map[string]any{"field": "confirm"})
	}
	if err := checkAccountLengths(name, email); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	_, isAdmin := s.bootstrap[email]
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, emailTaken()
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and returns the stored user.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if !auth.PasswordMatches(user.PasswordHash, password) {
		return nil, invalidCredentials()
	}
	return user, nil
}

// GetUser loads the account behind a session.
func (s *IdentityService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes name, email and optionally the password in one write.
func (s *IdentityService) UpdateProfile(ctx context.Context, identity domain.Identity, input ProfileInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("Name and email are required.", nil)
	}
	if err := checkAccountLengths(name, email); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	if input.NewPassword != "" {
		if !auth.PasswordMatches(user.PasswordHash, input.CurrentPassword) {
			return nil, apperrors.NewUnauthorized("Current password is incorrect.")
		}
		hash, err := auth.HashPassword(input.NewPassword, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.Name = name
	user.Email = email

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, emailTaken()
		}
		return nil, err
	}
	return user, nil
}

// PromoteToAdmin grants admin rights. Promoting an existing admin is a no-op.
func (s *IdentityService) PromoteToAdmin(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.SetAdmin(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset issues a reset token for email and publishes it for
// delivery. The outcome is the same whether or not an account exists.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return apperrors.NewValidationError("Email is required.", nil)
	}

	exists := true
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		exists = false
	}

	token, expiresAt, err := s.resets.Issue(email)
	if err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type: events.EventPasswordResetRequested,
		Payload: events.PasswordResetRequestedPayload{
			Email:         email,
			Token:         token,
			ExpiresAt:     expiresAt,
			AccountExists: exists,
		},
	})
	return nil
}

// ValidateResetToken resolves a reset token to its account.
func (s *IdentityService) ValidateResetToken(ctx context.Context, token string) (*domain.User, error) {
	email, err := s.resets.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrResetTokenExpired) {
			return nil, apperrors.NewTokenExpired("That reset link is invalid or expired.")
		}
		return nil, apperrors.NewTokenInvalid("That reset link is invalid or expired.")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", map[string]any{"redirect": "/reset"})
		}
		return nil, err
	}
	return user, nil
}

// ResetPassword sets a new password for the account behind a valid token.
func (s *IdentityService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	user, err := s.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}
	if password == "" {
		return apperrors.NewValidationError("Password is required.", nil)
	}
	if password != confirm {
		return apperrors.NewValidationError("Passwords do not match.", map[string]any{"field": "confirm"})
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

func (s *IdentityService) publishEvent(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, event)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func checkAccountLengths(name, email string) error {
	if err := checkLength("name", name, domain.MaxNameLength); err != nil {
		return err
	}
	return checkLength("email", email, domain.MaxEmailLength)
}

// checkLength rejects values wider than their column.
func checkLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return apperrors.NewValidationError(
			fmt.Sprintf("%s must be at most %d characters.", field, limit),
			map[string]any{"field": field, "max": limit},
		)
	}
	return nil
}

func invalidCredentials() error {
	return apperrors.NewUnauthorized("Invalid email or password.")
}

func emailTaken() error {
	return apperrors.NewConflict("Email already registered.", map[string]any{"field": "email"})
}
