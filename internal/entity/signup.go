package entity

import (
	"time"

	"github.com/google/uuid"
)

// SignupType distinguishes locals from business owners on the waitlist.
type SignupType string

const (
	SignupConsumer SignupType = "consumer"
	SignupBusiness SignupType = "business"
)

// EarlyAccessSignup is a waitlist entry.
type EarlyAccessSignup struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Type         SignupType `json:"type"`
	BusinessName *string    `json:"business_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
