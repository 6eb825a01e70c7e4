package entity

import (
	"time"

	"github.com/google/uuid"
)

// ClaimStatus is the review state of an ownership claim.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

// Valid reports whether the status is one of the known states.
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimPending, ClaimApproved, ClaimRejected:
		return true
	}
	return false
}

// Claim is a user's request to own a listing.
type Claim struct {
	ID           uuid.UUID   `json:"id"`
	BusinessID   uuid.UUID   `json:"business_id"`
	BusinessName string      `json:"business_name,omitempty"`
	UserID       uuid.UUID   `json:"user_id"`
	UserEmail    string      `json:"user_email"`
	Proof        string      `json:"proof"`
	Status       ClaimStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	ReviewedAt   *time.Time  `json:"reviewed_at,omitempty"`
	SupersededAt *time.Time  `json:"superseded_at,omitempty"`
}

// Superseded reports whether ownership moved on from this approved claim.
func (c *Claim) Superseded() bool {
	return c.Status == ClaimApproved && c.SupersededAt != nil
}
