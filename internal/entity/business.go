package entity

import (
	"time"

	"github.com/google/uuid"
)

// Business is a directory listing.
type Business struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	Description   *string           `json:"description,omitempty"`
	CategoryID    *uuid.UUID        `json:"category_id,omitempty"`
	SubcategoryID *uuid.UUID        `json:"subcategory_id,omitempty"`
	Address       *string           `json:"address,omitempty"`
	City          string            `json:"city"`
	State         string            `json:"state"`
	Zip           *string           `json:"zip,omitempty"`
	Lat           *float64          `json:"lat,omitempty"`
	Lng           *float64          `json:"lng,omitempty"`
	Phone         *string           `json:"phone,omitempty"`
	Email         *string           `json:"email,omitempty"`
	Website       *string           `json:"website,omitempty"`
	Hours         map[string]string `json:"hours"`
	Photos        []string          `json:"photos"`
	Claimed       bool              `json:"claimed"`
	ClaimedBy     *uuid.UUID        `json:"claimed_by,omitempty"`
	Featured      bool              `json:"featured"`
	Active        bool              `json:"active"`
	ViewCount     int64             `json:"view_count"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// IsOwnedBy reports whether the listing is claimed by the given user.
func (b *Business) IsOwnedBy(userID uuid.UUID) bool {
	return b != nil && b.Claimed && b.ClaimedBy != nil && *b.ClaimedBy == userID
}

// TownCount reports how many active listings a town has.
type TownCount struct {
	City  string `json:"city"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}
