package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	middlewarepkg "github.com/xavisolis/nutmeglocal/internal/middleware"
	"github.com/xavisolis/nutmeglocal/internal/service"
)

const maxImportSize = 10 << 20

// ImportHandler accepts CSV uploads from admins.
type ImportHandler struct {
	importer *service.ImportService
}

// NewImportHandler constructs an ImportHandler.
func NewImportHandler(importer *service.ImportService) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// Import handles POST /admin/businesses/import with a multipart "file" and an
// optional "replace" flag.
func (h *ImportHandler) Import(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing csv file")
	}
	if fileHeader.Size > maxImportSize {
		return Error(c, http.StatusBadRequest, "file exceeds the 10MB limit")
	}

	replace := false
	if raw := c.FormValue("replace"); raw != "" {
		replace, err = strconv.ParseBool(raw)
		if err != nil {
			return Error(c, http.StatusBadRequest, "replace must be a boolean")
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	summary, err := h.importer.Import(c.Request().Context(), file, service.ImportOptions{ReplaceUnclaimed: replace})
	if err != nil {
		return respondError(c, err, "unable to import businesses")
	}

	identity := middlewarepkg.IdentityFromContext(c)
	if identity != nil {
		log.Printf("component=import admin=%s inserted=%d skipped=%d deleted=%d", identity.Email, summary.Inserted, summary.Skipped, summary.Deleted)
	}
	return Success(c, http.StatusOK, "import complete", summary)
}
