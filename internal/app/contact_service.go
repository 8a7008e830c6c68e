package app

import (
	"context"
	"strings"

	"exceltoquiz/internal/domain"
)

// ContactBackend delivers contact form messages.
type ContactBackend interface {
	SubmitContact(ctx context.Context, msg domain.ContactMessage) (string, error)
}

// ContactService validates and forwards support requests.
type ContactService struct {
	backend ContactBackend
}

func NewContactService(backend ContactBackend) *ContactService {
	return &ContactService{backend: backend}
}

// Send returns the confirmation message from the backend.
func (s *ContactService) Send(ctx context.Context, msg domain.ContactMessage) (string, error) {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Subject = strings.TrimSpace(msg.Subject)
	if err := msg.Validate(); err != nil {
		return "", err
	}
	reply, err := s.backend.SubmitContact(ctx, msg)
	if err != nil {
		return "", err
	}
	if reply == "" {
		reply = "Message sent successfully! We'll get back to you soon."
	}
	return reply, nil
}
