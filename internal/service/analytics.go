package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/xavisolis/nutmeglocal/internal/dto"
	"github.com/xavisolis/nutmeglocal/internal/entity"
	"github.com/xavisolis/nutmeglocal/internal/repository"
)

const (
	analyticsPeriod    = 30 * 24 * time.Hour
	analyticsLookback  = 2 * analyticsPeriod
	dailySeriesDays    = 7
	topSearchTermLimit = 5
	recentActivitySize = 10
)

var dayLabels = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// AnalyticsService builds the owner dashboard summary.
type AnalyticsService struct {
	businesses repository.BusinessesRepository
	events     repository.EventsRepository
	now        func() time.Time
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(businesses repository.BusinessesRepository, events repository.EventsRepository) *AnalyticsService {
	return &AnalyticsService{businesses: businesses, events: events, now: time.Now}
}

// Summary returns the dashboard for a listing the caller owns. A missing
// listing is reported as ErrForbidden, like one owned by someone else.
func (s *AnalyticsService) Summary(ctx context.Context, identity *Identity, businessID uuid.UUID) (dto.AnalyticsSummary, error) {
	if identity == nil {
		return dto.AnalyticsSummary{}, ErrUnauthorized
	}

	business, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrBusinessNotFound) {
			return dto.AnalyticsSummary{}, ErrForbidden
		}
		return dto.AnalyticsSummary{}, err
	}
	if !business.IsOwnedBy(identity.UserID) {
		return dto.AnalyticsSummary{}, ErrForbidden
	}

	now := s.now().UTC()
	events, err := s.events.ListSince(ctx, businessID, now.Add(-analyticsLookback))
	if err != nil {
		return dto.AnalyticsSummary{}, err
	}
	return Aggregate(events, business.ViewCount, now), nil
}

// Aggregate derives the dashboard from the trailing 60 days of events,
// ordered newest first. Events strictly newer than now-30d form the current
// period; the rest form the previous one.
func Aggregate(events []entity.BusinessEvent, viewCount int64, now time.Time) dto.AnalyticsSummary {
	now = now.UTC()
	cutoff := now.Add(-analyticsPeriod)

	current := make(map[entity.EventType]int, len(entity.EventTypes))
	previous := make(map[entity.EventType]int, len(entity.EventTypes))

	var (
		sources     dto.TrafficSources
		termCounts  = make(map[string]int)
		termOrder   = make([]string, 0)
		recent      = make([]dto.ActivityItem, 0, recentActivitySize)
		daily       = newDailySeries(now)
		dailyByDate = make(map[string]int, len(daily))
	)
	for i, bucket := range daily {
		dailyByDate[bucket.Day] = i
	}

	for _, event := range events {
		created := event.CreatedAt.UTC()
		inCurrent := created.After(cutoff)

		if inCurrent {
			current[event.EventType]++
			countSource(&sources, event.Referrer)
			if event.SearchTerm != nil && *event.SearchTerm != "" {
				term := *event.SearchTerm
				if _, seen := termCounts[term]; !seen {
					termOrder = append(termOrder, term)
				}
				termCounts[term]++
			}
		} else {
			previous[event.EventType]++
		}

		if i, ok := dailyByDate[created.Format(time.DateOnly)]; ok {
			if event.EventType == entity.EventProfileView {
				daily[i].Views++
			} else {
				daily[i].Clicks++
			}
		}

		if event.EventType != entity.EventProfileView && len(recent) < recentActivitySize {
			recent = append(recent, dto.ActivityItem{Type: string(event.EventType), Date: created})
		}
	}

	period := func(eventType entity.EventType) dto.PeriodCount {
		return periodCount(current[eventType], previous[eventType])
	}

	return dto.AnalyticsSummary{
		Period: "30d",
		Stats: dto.AnalyticsStats{
			Views:              viewCount,
			ProfileViews:       period(entity.EventProfileView),
			PhoneClicks:        period(entity.EventPhoneClick),
			WebsiteClicks:      period(entity.EventWebsiteClick),
			EmailClicks:        period(entity.EventEmailClick),
			DirectionsClicks:   period(entity.EventDirectionsClick),
			ShareClicks:        period(entity.EventShareClick),
			SearchResultClicks: period(entity.EventSearchResultClick),
		},
		DailyViews:     daily,
		TopSearchTerms: topSearchTerms(termOrder, termCounts),
		Sources:        sources,
		RecentActivity: recent,
	}
}

func newDailySeries(now time.Time) []dto.DailyBucket {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	series := make([]dto.DailyBucket, 0, dailySeriesDays)
	for i := dailySeriesDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		series = append(series, dto.DailyBucket{
			Day:   day.Format(time.DateOnly),
			Label: dayLabels[day.Weekday()],
		})
	}
	return series
}

func periodCount(current, previous int) dto.PeriodCount {
	count := dto.PeriodCount{Current: current, Previous: previous}
	if previous > 0 {
		pct := math.Round(float64(current-previous)/float64(previous)*1000) / 10
		count.ChangePct = &pct
	}
	return count
}

func countSource(sources *dto.TrafficSources, referrer *string) {
	tag := ""
	if referrer != nil {
		tag = *referrer
	}
	switch tag {
	case "search":
		sources.Search++
	case "category":
		sources.Category++
	case "browse", "town", "map":
		sources.Browse++
	case "", "direct":
		sources.Direct++
	case "external":
		sources.External++
	}
}

// topSearchTerms ranks by count; ties keep first-seen order.
func topSearchTerms(order []string, counts map[string]int) []dto.SearchTermCount {
	ranked := make([]dto.SearchTermCount, 0, len(order))
	for _, term := range order {
		ranked = append(ranked, dto.SearchTermCount{Term: term, Count: counts[term]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > topSearchTermLimit {
		ranked = ranked[:topSearchTermLimit]
	}
	return ranked
}
