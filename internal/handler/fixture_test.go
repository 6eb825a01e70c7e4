package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/xavisolis/nutmeglocal/internal/auth"
	"github.com/xavisolis/nutmeglocal/internal/dto"
	"github.com/xavisolis/nutmeglocal/internal/entity"
	middlewarepkg "github.com/xavisolis/nutmeglocal/internal/middleware"
	"github.com/xavisolis/nutmeglocal/internal/service"
	"github.com/xavisolis/nutmeglocal/internal/storage"
)

const testAdminEmail = "admin@example.com"

// fixture wires real services over in-memory repositories.
type fixture struct {
	e          *echo.Echo
	businesses *stubBusinessesRepo
	events     *stubEventsRepo
	claims     *stubClaimsRepo
	signups    *stubSignupsRepo

	owner    *service.Identity
	admin    *service.Identity
	stranger *service.Identity
	listing  uuid.UUID

	directory *service.DirectoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	owner := &service.Identity{UserID: uuid.New(), Email: "owner@example.com"}
	listing := uuid.New()
	businesses := &stubBusinessesRepo{businesses: map[uuid.UUID]*entity.Business{
		listing: {
			ID:        listing,
			Name:      "Sift Bake Shop",
			Slug:      "sift-bake-shop",
			City:      "Bethel",
			State:     "CT",
			Active:    true,
			Claimed:   true,
			ClaimedBy: &owner.UserID,
		},
	}}

	admins := auth.NewAllowList([]string{testAdminEmail})
	contact := service.NewContactNormalizer("US")
	directory := service.NewDirectoryService(businesses, stubCategoriesRepo{}, stubPostsRepo{}, contact,
		storage.NewPhotoStore(t.TempDir(), "/uploads"), admins)

	return &fixture{
		e:          echo.New(),
		businesses: businesses,
		events:     &stubEventsRepo{},
		claims:     &stubClaimsRepo{},
		signups:    &stubSignupsRepo{},
		owner:      owner,
		admin:      &service.Identity{UserID: uuid.New(), Email: testAdminEmail},
		stranger:   &service.Identity{UserID: uuid.New(), Email: "visitor@example.com"},
		listing:    listing,
		directory:  directory,
	}
}

func (f *fixture) claimsHandler() *ClaimsHandler {
	admins := auth.NewAllowList([]string{testAdminEmail})
	return NewClaimsHandler(service.NewClaimsService(f.claims, f.businesses, admins, nopNotifier{}, 3))
}

func (f *fixture) eventsHandler() *EventsHandler {
	return NewEventsHandler(
		service.NewEventRecorder(f.events),
		service.NewViewCounter(f.businesses),
		f.directory,
		NewViewMarkerStore("test-session-secret"),
	)
}

// context builds an echo context for the request with optional identity and path params.
func (f *fixture) context(req *http.Request, identity *service.Identity, params map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	if identity != nil {
		c.Set(middlewarepkg.ContextKeyIdentity, identity)
	}
	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for name, value := range params {
		names = append(names, name)
		values = append(values, value)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func multipartRequest(t *testing.T, target, field, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.APIResponse {
	t.Helper()
	var resp dto.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, rec.Body.String())
	}
	return resp
}
