package exports

import (
	"fmt"
	"net/http"
	"time"

	"previdas_backend/internal/leads/repository"
	"previdas_backend/internal/leads/transport"
	"previdas_backend/platform/httpkit"
	"previdas_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const exportListLimit = 10000

// Handler serves the lead export endpoints.
type Handler struct {
	svc *Service
	val *validator.Validator
}

// NewHandler creates the export handler.
func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// HandleDownloadCSV streams the filtered lead book as a CSV attachment.
func (h *Handler) HandleDownloadCSV(c *gin.Context) {
	params, ok := h.listParams(c)
	if !ok {
		return
	}

	data, err := h.svc.BuildCSV(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	fileName := fmt.Sprintf("leads-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// HandleUploadCSV stores the export in object storage and returns a
// presigned download link.
func (h *Handler) HandleUploadCSV(c *gin.Context) {
	params, ok := h.listParams(c)
	if !ok {
		return
	}

	url, err := h.svc.UploadCSV(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, url)
}

func (h *Handler) listParams(c *gin.Context) (repository.ListParams, bool) {
	var query transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return repository.ListParams{}, false
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return repository.ListParams{}, false
	}
	return repository.ListParams{
		Status:   query.Status,
		MinScore: query.MinScore,
		Limit:    exportListLimit,
	}, true
}
