package service

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized         = errors.New("authentication required")
	ErrForbidden            = errors.New("you do not have access to this business")
	ErrInvalidEventKind     = errors.New("invalid event type")
	ErrBusinessNotFound     = errors.New("business not found")
	ErrTooManyPendingClaims = errors.New("too many pending claims")
	ErrDuplicateClaim       = errors.New("duplicate claim")
	ErrClaimNotFound        = errors.New("claim not found")
	ErrClaimAlreadyReviewed = errors.New("claim has already been reviewed")
	ErrInvalidDecision      = errors.New("action must be approved or rejected")
	ErrAlreadySignedUp      = errors.New("This email is already signed up!")
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPostNotFound         = errors.New("guide not found")
	ErrCategoryNotFound     = errors.New("category not found")
)

// ValidationError reports a rejected payload field.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// TooManyPendingClaimsError carries the configured cap in its message.
type TooManyPendingClaimsError struct {
	Limit int
}

func (e TooManyPendingClaimsError) Error() string {
	return pendingLimitMessage(e.Limit)
}

// Is lets errors.Is match ErrTooManyPendingClaims.
func (e TooManyPendingClaimsError) Is(target error) bool {
	return target == ErrTooManyPendingClaims
}

// DuplicateClaimError explains which active claim blocks a new submission.
type DuplicateClaimError struct {
	Message string
}

func (e DuplicateClaimError) Error() string {
	return e.Message
}

// Is lets errors.Is match ErrDuplicateClaim.
func (e DuplicateClaimError) Is(target error) bool {
	return target == ErrDuplicateClaim
}

// Identity is the authenticated caller as established by the JWT middleware.
type Identity struct {
	UserID uuid.UUID
	Email  string
}
