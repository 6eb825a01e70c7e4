package dto

import "time"

// PeriodCount compares the trailing 30 days with the 30 days before.
type PeriodCount struct {
	Current  int `json:"current"`
	Previous int `json:"previous"`
	// ChangePct is omitted when there is nothing to compare against.
	ChangePct *float64 `json:"change_pct,omitempty"`
}

// AnalyticsStats holds the per-kind counters of the dashboard.
type AnalyticsStats struct {
	Views              int64       `json:"views"`
	ProfileViews       PeriodCount `json:"profile_views"`
	PhoneClicks        PeriodCount `json:"phone_clicks"`
	WebsiteClicks      PeriodCount `json:"website_clicks"`
	EmailClicks        PeriodCount `json:"email_clicks"`
	DirectionsClicks   PeriodCount `json:"directions_clicks"`
	ShareClicks        PeriodCount `json:"share_clicks"`
	SearchResultClicks PeriodCount `json:"search_result_clicks"`
}

// DailyBucket counts views and clicks on one UTC calendar day.
type DailyBucket struct {
	Day    string `json:"day"`
	Label  string `json:"label"`
	Views  int    `json:"views"`
	Clicks int    `json:"clicks"`
}

// SearchTermCount is one entry of the top search terms.
type SearchTermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// TrafficSources buckets current-period events by referrer tag.
type TrafficSources struct {
	Search   int `json:"search"`
	Category int `json:"category"`
	Browse   int `json:"browse"`
	Direct   int `json:"direct"`
	External int `json:"external"`
}

// ActivityItem is a single recent non-view interaction.
type ActivityItem struct {
	Type string    `json:"type"`
	Date time.Time `json:"date"`
}

// AnalyticsSummary is the owner dashboard payload.
type AnalyticsSummary struct {
	Period         string            `json:"period"`
	Stats          AnalyticsStats    `json:"stats"`
	DailyViews     []DailyBucket     `json:"dailyViews"`
	TopSearchTerms []SearchTermCount `json:"topSearchTerms"`
	Sources        TrafficSources    `json:"sources"`
	RecentActivity []ActivityItem    `json:"recentActivity"`
}
