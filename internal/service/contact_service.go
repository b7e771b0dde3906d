package service

import (
	"context"
	"strings"

	"github.com/spec-kit/clinic-booking/internal/domain"
	"github.com/spec-kit/clinic-booking/internal/repository"
	apperrors "github.com/spec-kit/clinic-booking/pkg/util/errorutil"
)

// ContactService stores contact-form messages.
type ContactService struct {
	messages repository.MessageRepository
}

// NewContactService constructs the service.
func NewContactService(messages repository.MessageRepository) *ContactService {
	return &ContactService{messages: messages}
}

// Submit records a message. Email is stored as given.
func (s *ContactService) Submit(ctx context.Context, name, email, body string) (*domain.Message, error) {
	msg := &domain.Message{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
		Body:  strings.TrimSpace(body),
	}
	if msg.Name == "" || msg.Email == "" || msg.Body == "" {
		return nil, apperrors.NewValidationError("Please complete the contact form.", nil)
	}
	if err := checkLength("name", msg.Name, domain.MaxNameLength); err != nil {
		return nil, err
	}
	if err := checkLength("email", msg.Email, domain.MaxEmailLength); err != nil {
		return nil, err
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListRecent returns every message, newest first.
func (s *ContactService) ListRecent(ctx context.Context) ([]domain.Message, error) {
	return s.messages.ListRecent(ctx, 0)
}
