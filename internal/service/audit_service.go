package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/export"
)

type auditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	FindByID(ctx context.Context, id string) (*models.AuditLog, error)
	List(ctx context.Context) ([]models.AuditLog, error)
	ListByUser(ctx context.Context, userID string) ([]models.AuditLog, error)
}

type actorFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Export formats for the audit trail download.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// AuditService writes and reads the append-only audit trail.
type AuditService struct {
	repo    auditRepository
	users   actorFinder
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs an audit service. metrics may be nil when
// instrumentation is not wanted.
func NewAuditService(repo auditRepository, users actorFinder, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		repo:    repo,
		users:   users,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		metrics: metrics,
		logger:  logger,
	}
}

// Record appends an entry for an action taken by a known user. The timestamp
// is assigned here, never by the caller, so history order cannot be forged.
func (s *AuditService) Record(ctx context.Context, userID, action, details, sourceAddr string) (*models.AuditLog, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnknownActor, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve audit actor")
	}

	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Details:   details,
		IPAddress: sourceAddr,
		CreatedAt: time.Now().UTC(),
	}
	err := s.repo.Create(ctx, entry)
	if s.metrics != nil {
		s.metrics.ObserveAuditWrite(err != nil)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write audit log")
	}
	return entry, nil
}

// Get returns one entry.
func (s *AuditService) Get(ctx context.Context, id string) (*models.AuditLog, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "audit log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit log")
	}
	return entry, nil
}

// List returns the trail, optionally restricted to a user, oldest first.
func (s *AuditService) List(ctx context.Context, userID string) ([]models.AuditLog, error) {
	var (
		entries []models.AuditLog
		err     error
	)
	if userID != "" {
		entries, err = s.repo.ListByUser(ctx, userID)
	} else {
		entries, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return entries, nil
}

// Export renders the trail as a downloadable document.
func (s *AuditService) Export(ctx context.Context, userID, format string) ([]byte, string, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"id", "user_id", "action", "details", "ip_address", "timestamp"},
	}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"id":         entry.ID,
			"user_id":    entry.UserID,
			"action":     entry.Action,
			"details":    entry.Details,
			"ip_address": entry.IPAddress,
			"timestamp":  entry.CreatedAt.Format(time.RFC3339),
		})
	}

	switch format {
	case ExportFormatPDF:
		body, err := s.pdf.Render(dataset, "audit trail")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit pdf")
		}
		return body, "application/pdf", nil
	case ExportFormatCSV, "":
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit csv")
		}
		return body, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
