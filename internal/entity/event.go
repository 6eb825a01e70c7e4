package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a tracked interaction with a listing.
type EventType string

const (
	EventProfileView       EventType = "profile_view"
	EventPhoneClick        EventType = "phone_click"
	EventWebsiteClick      EventType = "website_click"
	EventEmailClick        EventType = "email_click"
	EventDirectionsClick   EventType = "directions_click"
	EventShareClick        EventType = "share_click"
	EventSearchResultClick EventType = "search_result_click"
)

// EventTypes lists every accepted event type.
var EventTypes = []EventType{
	EventProfileView,
	EventPhoneClick,
	EventWebsiteClick,
	EventEmailClick,
	EventDirectionsClick,
	EventShareClick,
	EventSearchResultClick,
}

// Valid reports whether the event type is accepted by the recorder.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BusinessEvent is an immutable interaction record.
type BusinessEvent struct {
	ID         uuid.UUID `json:"id"`
	BusinessID uuid.UUID `json:"business_id"`
	EventType  EventType `json:"event_type"`
	Referrer   *string   `json:"referrer,omitempty"`
	SearchTerm *string   `json:"search_term,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
