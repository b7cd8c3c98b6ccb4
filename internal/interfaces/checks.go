package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/booklet/internal/backup"
	"github.com/mrlokans/booklet/internal/database"
	"github.com/mrlokans/booklet/internal/database/books"
	"github.com/mrlokans/booklet/internal/http"
	"github.com/mrlokans/booklet/internal/lifecycle"
	"github.com/mrlokans/booklet/internal/scheduler"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Every repository and the lifecycle engine resolve their connection per call
var _ database.Connector = (*database.Database)(nil)

// BookStore implementations
var _ http.BookStore = (*books.Repository)(nil)

// Pinger implementations
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Reading Lifecycle
// =============================================================================

var _ http.BookLocator = (*lifecycle.Engine)(nil)
var _ http.ReadingEngine = (*lifecycle.Engine)(nil)
var _ http.InvariantChecker = (*lifecycle.Engine)(nil)

// =============================================================================
// Backups
// =============================================================================

var _ backup.Handle = (*database.Database)(nil)
var _ http.BackupService = (*backup.Manager)(nil)
var _ scheduler.BackupRunner = (*backup.Manager)(nil)
var _ http.BackupSchedule = (*scheduler.BackupScheduler)(nil)
