// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - database.Connector: the current *gorm.DB. Repositories ask for it on
//     every call so a restore can swap the file underneath them
//     (internal/database/database.go)
//   - BookStore: catalogue CRUD (internal/http/stores.go)
//   - Pinger: database health (internal/http/stores.go)
//
// ## Reading Lifecycle Interfaces
//
//   - BookLocator: which list a book is on, starting to track it (internal/http/stores.go)
//   - ReadingEngine: transitions between the tracking, completed and
//     abandoned lists (internal/http/stores.go)
//   - InvariantChecker: books found on more than one list (internal/http/stores.go)
//
// ## Backup Interfaces
//
//   - backup.Handle: file-level access to the live database (internal/backup/manager.go)
//   - scheduler.BackupRunner: what the cron job calls (internal/scheduler/backup.go)
//   - BackupService, BackupSchedule: the HTTP view of backups (internal/http/stores.go)
//
// # Adding a New Reading List
//
// Entry tables are only written through internal/lifecycle, which is the
// one place that keeps a book on a single list:
//
//  1. Add the entity in internal/entities/reading.go and register it in
//     AutoMigrate and database.Tables
//
//  2. Add raw reads and writes in internal/lifecycle/internal/entrystore/
//     and extend LocationOf, LibraryBooks and DuplicateBookIDs
//
//  3. Add the transitions to lifecycle.Engine
//
//  4. Extend ReadingEngine in internal/http/stores.go and register routes
//     in router.go
//
// Two-step moves run in one transaction:
//
//	err := e.transaction(func(tx *gorm.DB) error {
//		// insert into the new table, delete from the old one
//	})
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
