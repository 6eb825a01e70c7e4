package entity

import (
	"time"

	"github.com/google/uuid"
)

// Post is an editorial guide. Content is trusted HTML authored by admins.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     *string    `json:"excerpt,omitempty"`
	Content     string     `json:"content,omitempty"`
	CoverImage  *string    `json:"cover_image,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
