package http

import (
	"github.com/mrlokans/booklet/internal/audit"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database  Pinger
	Books     BookStore
	Lifecycle interface {
		BookLocator
		ReadingEngine
		InvariantChecker
	}

	// Backups
	Backups        BackupService
	BackupSchedule BackupSchedule
	BackupDir      string
	Journal        *audit.Journal

	// Application info
	Version string
}
