package dto

import (
	"github.com/google/uuid"

	"github.com/xavisolis/nutmeglocal/internal/entity"
)

// BusinessFilter contains query parameters for directory listing endpoints.
type BusinessFilter struct {
	Q           string
	Category    string
	Subcategory string
	City        string
	Featured    *bool
	OwnerID     *uuid.UUID
	// IncludeInactive is only set for owner dashboards.
	IncludeInactive bool
	Page            int
	PerPage         int
}

// BusinessPatch is a partial update of a listing. Nil fields are left untouched.
type BusinessPatch struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Phone       *string            `json:"phone,omitempty"`
	Email       *string            `json:"email,omitempty"`
	Website     *string            `json:"website,omitempty"`
	Hours       *map[string]string `json:"hours,omitempty"`
	Photos      *[]string          `json:"photos,omitempty"`
	Featured    *bool              `json:"featured,omitempty"`
	Active      *bool              `json:"active,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p BusinessPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Phone == nil && p.Email == nil &&
		p.Website == nil && p.Hours == nil && p.Photos == nil && p.Featured == nil && p.Active == nil
}

// ListingResponse pairs a listing with its profile completeness.
type ListingResponse struct {
	Business     entity.Business `json:"business"`
	Completeness int             `json:"completeness"`
	Breakdown    map[string]int  `json:"breakdown"`
	Missing      []string        `json:"missing"`
}

// PhotoResponse is returned after a photo upload.
type PhotoResponse struct {
	URL    string   `json:"url"`
	Photos []string `json:"photos"`
}
