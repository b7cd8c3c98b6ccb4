package entities

import "time"

type AuditAction string

const (
	AuditActionBackup  AuditAction = "backup"
	AuditActionRestore AuditAction = "restore"
	AuditActionPrune   AuditAction = "prune"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent records one backup or restore attempt. Events are written as
// files next to the backups rather than into the database, so replacing
// the database during a restore keeps its history.
type AuditEvent struct {
	ID          string      `json:"id"`
	Action      AuditAction `json:"action"`
	Trigger     string      `json:"trigger"` // "cli", "http", "schedule"
	Path        string      `json:"path"`
	SizeBytes   int64       `json:"size_bytes,omitempty"`
	Description string      `json:"description,omitempty"`
	Status      AuditStatus `json:"status"`
	ErrorMsg    string      `json:"error_msg,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
