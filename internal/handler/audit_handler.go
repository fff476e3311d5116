package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/response"
)

// AuditHandler exposes the audit trail to administrators. Read-only: there is
// no mutation surface for audit entries anywhere in the API.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary List audit log entries
// @Tags Audit
// @Produce json
// @Param user_id query string false "Restrict to one user"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Get godoc
// @Summary Get one audit log entry
// @Tags Audit
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /audit-logs/{id} [get]
func (h *AuditHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry)
}

// Export godoc
// @Summary Download the audit trail as CSV or PDF
// @Tags Audit
// @Produce text/csv
// @Produce application/pdf
// @Param user_id query string false "Restrict to one user"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} byte
// @Router /audit-logs/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	body, contentType, err := h.service.Export(c.Request.Context(), c.Query("user_id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("audit-trail-%s.%s", time.Now().UTC().Format("20060102-150405"), ext)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, contentType, body)
}
