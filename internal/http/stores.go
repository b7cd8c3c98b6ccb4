package http

import (
	"time"

	"github.com/mrlokans/booklet/internal/backup"
	"github.com/mrlokans/booklet/internal/entities"
	"github.com/mrlokans/booklet/internal/lifecycle"
	"github.com/mrlokans/booklet/internal/scheduler"
)

// This file consolidates the interfaces HTTP controllers depend on.
// Each controller only depends on the methods it actually uses.

// BookStore provides catalogue CRUD.
type BookStore interface {
	ListBooks() ([]entities.Book, error)
	SearchBooks(query string) ([]entities.Book, error)
	GetBook(id uint) (*entities.Book, error)
	CreateBook(book *entities.Book) (uint, error)
	UpdateBook(id uint, book *entities.Book) error
	DeleteBook(id uint) error
	CountBooks() (int64, error)
}

// BookLocator answers where a book sits in the reading lifecycle.
type BookLocator interface {
	LocationOf(bookID uint) (entities.Location, error)
	LibraryBooks() ([]entities.Book, error)
	StartTracking(bookID uint) (*entities.TrackingEntry, error)
}

// ReadingEngine provides the lifecycle transitions and list reads.
type ReadingEngine interface {
	ListTracking() ([]entities.TrackingEntry, error)
	GetTracking(id uint) (*entities.TrackingEntry, error)
	UpdateProgress(trackingID uint, page int) (*entities.TrackingEntry, error)
	Complete(trackingID uint, in lifecycle.CompleteInput) (*entities.CompletedEntry, error)
	Abandon(trackingID uint, in lifecycle.AbandonInput) (*entities.AbandonedEntry, error)
	RemoveFromTracking(id uint) error

	ListCompleted(filter lifecycle.YearFilter) ([]entities.CompletedEntry, error)
	GetCompleted(id uint) (*entities.CompletedEntry, error)
	UpdateCompleted(id uint, rating *int, review *string) (*entities.CompletedEntry, error)
	RemoveFromCompleted(id uint) error

	ListAbandoned() ([]entities.AbandonedEntry, error)
	GetAbandoned(id uint) (*entities.AbandonedEntry, error)
	UpdateAbandoned(id uint, page *int, reason *string) (*entities.AbandonedEntry, error)
	RemoveFromAbandoned(id uint) error
}

// InvariantChecker reports books that sit on more than one list.
type InvariantChecker interface {
	CheckInvariant() ([]uint, error)
}

// BackupService writes, lists and restores backups.
type BackupService interface {
	BackupToDir(dir string) (*backup.Info, error)
	Restore(src string) error
	List(dir string) ([]backup.Info, error)
	Extension() string
}

// BackupSchedule exposes the scheduled backup state.
type BackupSchedule interface {
	IsRunning() bool
	NextRun() *time.Time
	LastRun() *scheduler.RunResult
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping() error
}
