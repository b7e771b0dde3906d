package dto

import (
	"time"

	"github.com/spec-kit/clinic-booking/internal/domain"
)

// ContactRequest is the public contact form.
type ContactRequest struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Message string `json:"message" form:"message"`
}

// MessageResponse is a contact message as shown to admins.
type MessageResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewMessageList maps messages, never returning nil.
func NewMessageList(msgs []domain.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, MessageResponse{
			ID:          msg.ID,
			Name:        msg.Name,
			Email:       msg.Email,
			Message:     msg.Body,
			SubmittedAt: msg.SubmittedAt,
		})
	}
	return out
}
