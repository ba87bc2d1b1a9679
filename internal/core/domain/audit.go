package domain

import "time"

// AuditAction names a security-relevant event.
type AuditAction string

const (
	AuditLogin               AuditAction = "login"
	AuditLoginFailed         AuditAction = "login_failed"
	AuditLogout              AuditAction = "logout"
	AuditUserCreated         AuditAction = "user_created"
	AuditUserUpdated         AuditAction = "user_updated"
	AuditUserDeleted         AuditAction = "user_deleted"
	AuditPasswordChanged     AuditAction = "password_changed"
	AuditPermissionsRepaired AuditAction = "permissions_repaired"
	AuditBootstrap           AuditAction = "bootstrap"
)

// AuditEvent records who did what to which account.
type AuditEvent struct {
	Actor      string      `json:"actor"             bson:"actor"`
	Action     AuditAction `json:"action"            bson:"action"`
	Target     string      `json:"target,omitempty"  bson:"target,omitempty"`
	Details    string      `json:"details,omitempty" bson:"details,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"       bson:"occurred_at"`
}
