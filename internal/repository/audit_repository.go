package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-api/internal/models"
)

// AuditRepository stores audit trail entries. The table is append-only: no
// update or delete statement exists here.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new repository instance.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, details, ip_address, created_at) VALUES (:id, :user_id, :action, :details, :ip_address, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// FindByID returns a single audit entry.
func (r *AuditRepository) FindByID(ctx context.Context, id string) (*models.AuditLog, error) {
	const query = `SELECT id, user_id, action, details, ip_address, created_at FROM audit_logs WHERE id = $1 LIMIT 1`
	var entry models.AuditLog
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find audit log: %w", err)
	}
	return &entry, nil
}

// List returns the full trail in non-decreasing timestamp order.
func (r *AuditRepository) List(ctx context.Context) ([]models.AuditLog, error) {
	const query = `SELECT id, user_id, action, details, ip_address, created_at FROM audit_logs ORDER BY created_at ASC, id ASC`
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}

// ListByUser returns the entries recorded for one user, oldest first.
func (r *AuditRepository) ListByUser(ctx context.Context, userID string) ([]models.AuditLog, error) {
	const query = `SELECT id, user_id, action, details, ip_address, created_at FROM audit_logs WHERE user_id = $1 ORDER BY created_at ASC, id ASC`
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list audit logs by user: %w", err)
	}
	return entries, nil
}
