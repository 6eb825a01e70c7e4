package entity

import "github.com/google/uuid"

// Category groups businesses for browsing.
type Category struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Description   *string       `json:"description,omitempty"`
	Icon          *string       `json:"icon,omitempty"`
	DisplayOrder  int           `json:"display_order"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory refines a category.
type Subcategory struct {
	ID           uuid.UUID `json:"id"`
	CategoryID   uuid.UUID `json:"category_id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	DisplayOrder int       `json:"display_order"`
}
