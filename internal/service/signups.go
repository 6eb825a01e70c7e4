package service

import (
	"context"
	"errors"
	"strings"

	"github.com/xavisolis/nutmeglocal/internal/entity"
	"github.com/xavisolis/nutmeglocal/internal/repository"
)

// SignupNotifier confirms waitlist signups by email. Implementations must not block.
type SignupNotifier interface {
	SignupConfirmed(signup entity.EarlyAccessSignup)
}

// SignupInput is a waitlist request.
type SignupInput struct {
	Email        string
	Type         string
	BusinessName string
}

// SignupService manages the early access waitlist.
type SignupService struct {
	signups  repository.SignupsRepository
	contact  *ContactNormalizer
	notifier SignupNotifier
}

// NewSignupService constructs a SignupService.
func NewSignupService(signups repository.SignupsRepository, contact *ContactNormalizer, notifier SignupNotifier) *SignupService {
	return &SignupService{signups: signups, contact: contact, notifier: notifier}
}

// Signup adds an address to the waitlist and sends a confirmation.
func (s *SignupService) Signup(ctx context.Context, input SignupInput) (*entity.EarlyAccessSignup, error) {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Type) == "" {
		return nil, ValidationError{Message: "email and type are required"}
	}
	email, err := s.contact.EmailSyntax(input.Email)
	if err != nil {
		return nil, err
	}
	signupType := entity.SignupType(strings.ToLower(strings.TrimSpace(input.Type)))
	if signupType != entity.SignupConsumer && signupType != entity.SignupBusiness {
		return nil, ValidationError{Message: "type must be consumer or business"}
	}

	signup := &entity.EarlyAccessSignup{Email: email, Type: signupType}
	if signupType == entity.SignupBusiness {
		signup.BusinessName = optionalString(input.BusinessName)
	}

	created, err := s.signups.Create(ctx, signup)
	if err != nil {
		if errors.Is(err, repository.ErrSignupDuplicate) {
			return nil, ErrAlreadySignedUp
		}
		return nil, err
	}

	s.notifier.SignupConfirmed(*created)
	return created, nil
}

// List returns the waitlist newest first.
func (s *SignupService) List(ctx context.Context) ([]entity.EarlyAccessSignup, error) {
	return s.signups.List(ctx)
}
