package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/xavisolis/nutmeglocal/internal/dto"
	middlewarepkg "github.com/xavisolis/nutmeglocal/internal/middleware"
	"github.com/xavisolis/nutmeglocal/internal/service"
	"github.com/xavisolis/nutmeglocal/internal/storage"
)

// DirectoryHandler serves listing, town and category endpoints.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs a DirectoryHandler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// List handles GET /businesses.
func (h *DirectoryHandler) List(c echo.Context) error {
	filter := dto.BusinessFilter{
		Q:           c.QueryParam("q"),
		Category:    strings.TrimSpace(c.QueryParam("category")),
		Subcategory: strings.TrimSpace(c.QueryParam("subcategory")),
		City:        c.QueryParam("city"),
		Page:        parseIntDefault(c.QueryParam("page"), 1),
		PerPage:     parseIntDefault(c.QueryParam("per_page"), 20),
	}
	if raw := c.QueryParam("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return Error(c, http.StatusBadRequest, "featured must be a boolean")
		}
		filter.Featured = &featured
	}

	businesses, err := h.directory.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err, "unable to fetch businesses")
	}

	return Success(c, http.StatusOK, "businesses fetched", map[string]any{
		"items":    businesses,
		"page":     max(filter.Page, 1),
		"per_page": min(max(filter.PerPage, 1), 100),
	})
}

// Get handles GET /businesses/:id.
func (h *DirectoryHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}
	business, err := h.directory.Get(c.Request().Context(), middlewarepkg.IdentityFromContext(c), id)
	if err != nil {
		return respondError(c, err, "unable to fetch business")
	}
	return Success(c, http.StatusOK, "business fetched", business)
}

// GetBySlug handles GET /towns/:town/:slug.
func (h *DirectoryHandler) GetBySlug(c echo.Context) error {
	business, err := h.directory.GetBySlug(c.Request().Context(), c.Param("town"), c.Param("slug"))
	if err != nil {
		return respondError(c, err, "unable to fetch business")
	}
	return Success(c, http.StatusOK, "business fetched", business)
}

// Towns handles GET /towns.
func (h *DirectoryHandler) Towns(c echo.Context) error {
	towns, err := h.directory.Towns(c.Request().Context())
	if err != nil {
		return respondError(c, err, "unable to fetch towns")
	}
	return Success(c, http.StatusOK, "towns fetched", towns)
}

// Categories handles GET /categories.
func (h *DirectoryHandler) Categories(c echo.Context) error {
	categories, err := h.directory.Categories(c.Request().Context())
	if err != nil {
		return respondError(c, err, "unable to fetch categories")
	}
	return Success(c, http.StatusOK, "categories fetched", categories)
}

// Category handles GET /categories/:slug.
func (h *DirectoryHandler) Category(c echo.Context) error {
	category, err := h.directory.Category(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return respondError(c, err, "unable to fetch category")
	}
	return Success(c, http.StatusOK, "category fetched", category)
}

// Update handles PATCH /businesses/:id.
func (h *DirectoryHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}
	var patch dto.BusinessPatch
	if err := c.Bind(&patch); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	business, err := h.directory.Update(c.Request().Context(), middlewarepkg.IdentityFromContext(c), id, patch)
	if err != nil {
		return respondError(c, err, "unable to update business")
	}
	return Success(c, http.StatusOK, "business updated", business)
}

// AddPhoto handles POST /businesses/:id/photos with a multipart "file".
func (h *DirectoryHandler) AddPhoto(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing photo file")
	}
	if fileHeader.Size > storage.MaxPhotoSize {
		return Error(c, http.StatusBadRequest, "file exceeds the 5MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	resp, err := h.directory.AddPhoto(c.Request().Context(), middlewarepkg.IdentityFromContext(c), id, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		return respondError(c, err, "unable to upload photo")
	}
	return Success(c, http.StatusCreated, "photo uploaded", resp)
}

// Mine handles GET /me/businesses.
func (h *DirectoryHandler) Mine(c echo.Context) error {
	listings, err := h.directory.Mine(c.Request().Context(), middlewarepkg.IdentityFromContext(c))
	if err != nil {
		return respondError(c, err, "unable to fetch your businesses")
	}
	return Success(c, http.StatusOK, "businesses fetched", listings)
}

// Guides handles GET /guides.
func (h *DirectoryHandler) Guides(c echo.Context) error {
	posts, err := h.directory.Guides(c.Request().Context())
	if err != nil {
		return respondError(c, err, "unable to fetch guides")
	}
	return Success(c, http.StatusOK, "guides fetched", posts)
}

// Guide handles GET /guides/:slug.
func (h *DirectoryHandler) Guide(c echo.Context) error {
	post, err := h.directory.Guide(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return respondError(c, err, "unable to fetch guide")
	}
	return Success(c, http.StatusOK, "guide fetched", post)
}

func parseIntDefault(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}
