package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/xavisolis/nutmeglocal/internal/dto"
	"github.com/xavisolis/nutmeglocal/internal/entity"
	middlewarepkg "github.com/xavisolis/nutmeglocal/internal/middleware"
	"github.com/xavisolis/nutmeglocal/internal/service"
)

const (
	viewSessionName = "nl_views"
	viewMarkerTTL   = 24 * time.Hour
)

// EventsHandler receives the listing beacons sent by browsers.
type EventsHandler struct {
	recorder  *service.EventRecorder
	views     *service.ViewCounter
	directory *service.DirectoryService
	store     sessions.Store
	now       func() time.Time
}

// NewEventsHandler constructs an EventsHandler. store signs the view-marker cookie.
func NewEventsHandler(recorder *service.EventRecorder, views *service.ViewCounter, directory *service.DirectoryService, store sessions.Store) *EventsHandler {
	return &EventsHandler{
		recorder:  recorder,
		views:     views,
		directory: directory,
		store:     store,
		now:       time.Now,
	}
}

// NewViewMarkerStore returns the cookie store used for view de-duplication.
func NewViewMarkerStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(viewMarkerTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Event handles POST /businesses/:id/event.
func (h *EventsHandler) Event(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}
	var req dto.EventRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	eventType, err := service.ParseEventType(req.EventType)
	if err != nil {
		return respondError(c, err, "unable to record event")
	}

	ctx := c.Request().Context()
	var session *sessions.Session
	if eventType == entity.EventProfileView {
		if h.directory.IsOwner(ctx, middlewarepkg.IdentityFromContext(c), id) {
			return Beacon(c)
		}
		session = h.session(c)
		if h.seen(session, markerKey("event", id)) {
			return Beacon(c)
		}
	}

	result, err := h.recorder.Record(ctx, id, service.EventInput{
		EventType:  req.EventType,
		Referrer:   req.Referrer,
		SearchTerm: req.SearchTerm,
	}, c.Request().UserAgent())
	if err != nil {
		return respondError(c, err, "unable to record event")
	}

	if session != nil && result.Recorded {
		h.mark(c, session, markerKey("event", id))
	}
	return Beacon(c)
}

// View handles POST /businesses/:id/view. It answers success whatever happens.
func (h *EventsHandler) View(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok || service.IsBot(c.Request().UserAgent()) {
		return Beacon(c)
	}

	ctx := c.Request().Context()
	if h.directory.IsOwner(ctx, middlewarepkg.IdentityFromContext(c), id) {
		return Beacon(c)
	}
	session := h.session(c)
	if h.seen(session, markerKey("view", id)) {
		return Beacon(c)
	}

	if err := h.views.Increment(ctx, id); err != nil {
		log.Printf("component=views business_id=%s request_id=%s error=%v", id, middlewarepkg.RequestIDFromContext(c), err)
		return Beacon(c)
	}
	h.mark(c, session, markerKey("view", id))
	return Beacon(c)
}

// session loads the marker session. A tampered or stale cookie yields a fresh one.
func (h *EventsHandler) session(c echo.Context) *sessions.Session {
	session, err := h.store.Get(c.Request(), viewSessionName)
	if err != nil {
		session = sessions.NewSession(h.store, viewSessionName)
		session.IsNew = true
	}
	return session
}

func (h *EventsHandler) seen(session *sessions.Session, key string) bool {
	at, ok := session.Values[key].(int64)
	if !ok {
		return false
	}
	return h.now().Sub(time.Unix(at, 0)) < viewMarkerTTL
}

// mark records key and drops expired markers before saving the cookie.
func (h *EventsHandler) mark(c echo.Context, session *sessions.Session, key string) {
	now := h.now()
	for k, v := range session.Values {
		at, ok := v.(int64)
		if !ok || now.Sub(time.Unix(at, 0)) >= viewMarkerTTL {
			delete(session.Values, k)
		}
	}
	session.Values[key] = now.Unix()
	if err := session.Save(c.Request(), c.Response()); err != nil {
		log.Printf("component=events request_id=%s error=%v", middlewarepkg.RequestIDFromContext(c), err)
	}
}

func markerKey(prefix string, id uuid.UUID) string {
	return prefix + ":" + id.String()
}
