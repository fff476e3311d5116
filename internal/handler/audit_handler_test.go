package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
)

func auditRouter(audits *memAudits) *gin.Engine {
	users := newMemUsers(&models.User{ID: "admin-id", Username: "admin", Role: models.RoleAdmin})
	auditSvc := service.NewAuditService(audits, users, nil, zap.NewNop())
	h := NewAuditHandler(auditSvc)

	r := gin.New()
	r.Use(asUser(adminIdentity()))
	r.GET("/audit-logs", h.List)
	r.GET("/audit-logs/export", h.Export)
	r.GET("/audit-logs/:id", h.Get)
	return r
}

func seededAudits() *memAudits {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return &memAudits{entries: []models.AuditLog{
		{ID: "a1", UserID: "admin-id", Action: models.AuditActionLogin, CreatedAt: base},
		{ID: "a2", UserID: "u2", Action: models.AuditActionCourseList, Details: "GET /api/v1/courses", CreatedAt: base.Add(time.Minute)},
		{ID: "a3", UserID: "admin-id", Action: models.AuditActionCourseCreate, Details: `course "Data Science 101" created`, CreatedAt: base.Add(2 * time.Minute)},
	}}
}

func TestAuditList(t *testing.T) {
	r := auditRouter(seededAudits())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []models.AuditLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 3)
	assert.Equal(t, "a1", body.Data[0].ID)
}

func TestAuditListFilteredByUser(t *testing.T) {
	r := auditRouter(seededAudits())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs?user_id=admin-id", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []models.AuditLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	for _, entry := range body.Data {
		assert.Equal(t, "admin-id", entry.UserID)
	}
}

func TestAuditGet(t *testing.T) {
	r := auditRouter(seededAudits())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs/a2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.AuditActionCourseList)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditExportCSV(t *testing.T) {
	r := auditRouter(seededAudits())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs/export?format=csv", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	disposition := w.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "audit-trail-")
	assert.Contains(t, disposition, ".csv")
	assert.Contains(t, w.Body.String(), "COURSE_CREATE")
}

func TestAuditExportPDF(t *testing.T) {
	r := auditRouter(seededAudits())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs/export?format=pdf", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
}

func TestAuditExportUnknownFormat(t *testing.T) {
	r := auditRouter(seededAudits())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs/export?format=xlsx", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
