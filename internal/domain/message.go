package domain

import "time"

// Message is an inbound contact-form submission. It is never edited.
type Message struct {
	ID          string
	Name        string
	Email       string
	Body        string
	SubmittedAt time.Time
}
