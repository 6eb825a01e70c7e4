package dto

// EventRequest is the body of POST /businesses/:id/event.
type EventRequest struct {
	EventType  string `json:"event_type"`
	Referrer   string `json:"referrer,omitempty"`
	SearchTerm string `json:"search_term,omitempty"`
}

// BeaconResponse is returned by the event and view endpoints regardless of outcome.
type BeaconResponse struct {
	Success bool `json:"success"`
}
