package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/xavisolis/nutmeglocal/internal/entity"
	"github.com/xavisolis/nutmeglocal/internal/repository"
)

const maxSearchTermLength = 200

var botSignatures = []string{
	"bot", "crawl", "spider", "slurp",
	"facebookexternalhit", "twitterbot", "linkedinbot", "whatsapp", "telegrambot", "discordbot", "slackbot",
	"googlebot", "bingbot", "baiduspider", "yandexbot", "duckduckbot", "applebot", "petalbot",
	"curl", "wget", "python-requests", "axios", "node-fetch",
	"headlesschrome", "phantomjs", "lighthouse", "pagespeed", "google-inspectiontool", "chrome-lighthouse",
}

// IsBot reports whether the user agent is empty or matches a known automated client.
func IsBot(userAgent string) bool {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return true
	}
	for _, signature := range botSignatures {
		if strings.Contains(ua, signature) {
			return true
		}
	}
	return false
}

// EventInput is an interaction reported by a browser.
type EventInput struct {
	EventType  string
	Referrer   string
	SearchTerm string
}

// RecordResult tells in-process callers whether a row was written.
type RecordResult struct {
	Recorded bool
}

// EventRecorder validates, filters and appends listing interaction events.
type EventRecorder struct {
	events repository.EventsRepository
}

// NewEventRecorder constructs an EventRecorder.
func NewEventRecorder(events repository.EventsRepository) *EventRecorder {
	return &EventRecorder{events: events}
}

// ParseEventType validates a raw event type.
func ParseEventType(raw string) (entity.EventType, error) {
	eventType := entity.EventType(strings.TrimSpace(raw))
	if !eventType.Valid() {
		return "", ErrInvalidEventKind
	}
	return eventType, nil
}

// Record stores the event unless the user agent looks automated. Bot traffic
// and events for listings that do not exist are dropped without an error.
func (r *EventRecorder) Record(ctx context.Context, businessID uuid.UUID, input EventInput, userAgent string) (RecordResult, error) {
	eventType, err := ParseEventType(input.EventType)
	if err != nil {
		return RecordResult{}, err
	}
	if IsBot(userAgent) {
		return RecordResult{}, nil
	}

	event := &entity.BusinessEvent{
		BusinessID: businessID,
		EventType:  eventType,
		Referrer:   optionalString(input.Referrer),
		SearchTerm: optionalString(truncate(input.SearchTerm, maxSearchTermLength)),
	}
	if err := r.events.Insert(ctx, event); err != nil {
		if errors.Is(err, repository.ErrBusinessNotFound) {
			log.Printf("component=events business_id=%s dropped=unknown_business", businessID)
			return RecordResult{}, nil
		}
		return RecordResult{}, err
	}
	return RecordResult{Recorded: true}, nil
}

// ViewCounter maintains the lifetime view counter on a listing.
type ViewCounter struct {
	businesses repository.BusinessesRepository
}

// NewViewCounter constructs a ViewCounter.
func NewViewCounter(businesses repository.BusinessesRepository) *ViewCounter {
	return &ViewCounter{businesses: businesses}
}

// Increment bumps the counter atomically, falling back to read-then-write
// when the database function is unavailable. The fallback can lose updates
// under concurrency.
func (v *ViewCounter) Increment(ctx context.Context, businessID uuid.UUID) error {
	err := v.businesses.IncrementViewCount(ctx, businessID)
	if err == nil {
		return nil
	}
	log.Printf("component=views business_id=%s fallback=true error=%v", businessID, err)

	count, err := v.businesses.ViewCount(ctx, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrBusinessNotFound) {
			return ErrBusinessNotFound
		}
		return err
	}
	if err := v.businesses.SetViewCount(ctx, businessID, count+1); err != nil {
		if errors.Is(err, repository.ErrBusinessNotFound) {
			return ErrBusinessNotFound
		}
		return err
	}
	return nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return strings.TrimSpace(string([]rune(value)[:limit]))
}
