package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionUserRegister     = "USER_REGISTER"
	AuditActionCourseList       = "COURSE_LIST"
	AuditActionCourseView       = "COURSE_VIEW"
	AuditActionCourseCreate     = "COURSE_CREATE"
	AuditActionCourseUpdate     = "COURSE_UPDATE"
	AuditActionCourseDelete     = "COURSE_DELETE"
	AuditActionPermissionGrant  = "PERMISSION_GRANT"
	AuditActionPermissionRevoke = "PERMISSION_REVOKE"
)

// AuditLog represents one append-only audit trail record. Entries are never
// mutated or deleted after creation; CreatedAt is assigned by the log, not the
// caller.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Action    string    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	IPAddress string    `db:"ip_address" json:"ip_address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
