// Package lifecycle moves books between the library and the tracking,
// completed and abandoned lists.
//
// A book is in at most one of the three entry tables at any time. Every
// write to those tables goes through Engine, and two-step transitions
// (insert into one table, delete from another) run in a single
// transaction.
//
//	Library ──StartTracking──▶ Tracking ──Complete──▶ Completed
//	   ▲                          │  ╰──────Abandon──▶ Abandoned
//	   ╰────────Remove*───────────┴────────────────────────╯
package lifecycle

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booklet/internal/database"
	"github.com/mrlokans/booklet/internal/entities"
	"github.com/mrlokans/booklet/internal/lifecycle/internal/entrystore"
)

// Engine runs lifecycle transitions against one database.
type Engine struct {
	conn database.Connector
	now  func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now for start, completion and abandonment dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(conn database.Connector, opts ...Option) *Engine {
	e := &Engine{conn: conn, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) db() *gorm.DB {
	return e.conn.Conn()
}

// transaction runs fn in a single transaction. A connection that already
// carries an error (a closed handle) fails before Begin, which would
// otherwise flatten that error into a plain string.
func (e *Engine) transaction(fn func(tx *gorm.DB) error) error {
	db := e.db()
	if db.Error != nil {
		return db.Error
	}
	return db.Transaction(fn)
}

// CompleteInput carries the optional metadata recorded on completion.
// StartDate is stored as given unless it is nil and UseTrackingStart is
// set, in which case the tracking entry's start date is copied.
type CompleteInput struct {
	Rating           *int
	Review           *string
	StartDate        *time.Time
	UseTrackingStart bool
}

// AbandonInput carries the optional metadata recorded on abandonment.
type AbandonInput struct {
	PageAtAbandonment *int
	Reason            *string
	StartDate         *time.Time
	UseTrackingStart  bool
}

// --- Transitions ---

// StartTracking moves a library book onto the tracking list at page 0.
func (e *Engine) StartTracking(bookID uint) (*entities.TrackingEntry, error) {
	var entry *entities.TrackingEntry
	err := e.transaction(func(tx *gorm.DB) error {
		book, err := getBook(tx, bookID)
		if err != nil {
			return err
		}
		if err := requireLibrary(tx, bookID, "start tracking"); err != nil {
			return err
		}

		entry = &entities.TrackingEntry{
			BookID:      bookID,
			CurrentPage: 0,
			StartDate:   e.now(),
		}
		if err := entrystore.CreateTracking(tx, entry); err != nil {
			return err
		}
		entry.Book = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateProgress sets the current page of a tracking entry. The page must
// lie within [0, pageCount]; for an orphaned entry only the lower bound is
// checked.
func (e *Engine) UpdateProgress(trackingID uint, page int) (*entities.TrackingEntry, error) {
	entry, err := entrystore.GetTracking(e.db(), trackingID)
	if err != nil {
		return nil, err
	}
	if err := checkPage(entry.Book, page); err != nil {
		return nil, fmt.Errorf("update progress of tracking entry %d: %w", trackingID, err)
	}
	if err := entrystore.UpdateTrackingPage(e.db(), trackingID, page); err != nil {
		return nil, err
	}
	entry.CurrentPage = page
	return entry, nil
}

// Complete moves a tracking entry to the completed list.
func (e *Engine) Complete(trackingID uint, in CompleteInput) (*entities.CompletedEntry, error) {
	var completed *entities.CompletedEntry
	err := e.transaction(func(tx *gorm.DB) error {
		tracking, err := e.leaveTracking(tx, trackingID, "complete")
		if err != nil {
			return err
		}

		completed = &entities.CompletedEntry{
			BookID:         tracking.BookID,
			Rating:         in.Rating,
			Review:         in.Review,
			StartDate:      resolveStart(in.StartDate, in.UseTrackingStart, tracking),
			CompletionDate: e.now(),
		}
		if err := database.Validate(completed); err != nil {
			return err
		}
		if err := entrystore.CreateCompleted(tx, completed); err != nil {
			return err
		}
		if err := entrystore.DeleteTracking(tx, trackingID); err != nil {
			return err
		}
		completed.Book = tracking.Book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// Abandon moves a tracking entry to the abandoned list.
func (e *Engine) Abandon(trackingID uint, in AbandonInput) (*entities.AbandonedEntry, error) {
	var abandoned *entities.AbandonedEntry
	err := e.transaction(func(tx *gorm.DB) error {
		tracking, err := e.leaveTracking(tx, trackingID, "abandon")
		if err != nil {
			return err
		}
		if in.PageAtAbandonment != nil {
			if err := checkPage(tracking.Book, *in.PageAtAbandonment); err != nil {
				return fmt.Errorf("abandon tracking entry %d: %w", trackingID, err)
			}
		}

		abandoned = &entities.AbandonedEntry{
			BookID:            tracking.BookID,
			PageAtAbandonment: in.PageAtAbandonment,
			Reason:            in.Reason,
			StartDate:         resolveStart(in.StartDate, in.UseTrackingStart, tracking),
			AbandonmentDate:   e.now(),
		}
		if err := database.Validate(abandoned); err != nil {
			return err
		}
		if err := entrystore.CreateAbandoned(tx, abandoned); err != nil {
			return err
		}
		if err := entrystore.DeleteTracking(tx, trackingID); err != nil {
			return err
		}
		abandoned.Book = tracking.Book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return abandoned, nil
}

// leaveTracking loads the tracking entry a terminal transition starts from
// and checks the book has no completed or abandoned entry already.
func (e *Engine) leaveTracking(tx *gorm.DB, trackingID uint, op string) (*entities.TrackingEntry, error) {
	tracking, err := entrystore.GetTracking(tx, trackingID)
	if err != nil {
		return nil, err
	}
	dups, err := entrystore.DuplicateBookIDs(tx)
	if err != nil {
		return nil, err
	}
	for _, id := range dups {
		if id == tracking.BookID {
			return nil, fmt.Errorf("%s tracking entry %d: book %d has more than one entry: %w",
				op, trackingID, tracking.BookID, ErrPreconditionViolation)
		}
	}
	return tracking, nil
}

// RemoveFromTracking deletes a tracking entry, returning the book to the
// library. Progress is lost.
func (e *Engine) RemoveFromTracking(id uint) error {
	return entrystore.DeleteTracking(e.db(), id)
}

// RemoveFromCompleted deletes a completed entry with its rating and review.
func (e *Engine) RemoveFromCompleted(id uint) error {
	return entrystore.DeleteCompleted(e.db(), id)
}

// RemoveFromAbandoned deletes an abandoned entry with its page and reason.
func (e *Engine) RemoveFromAbandoned(id uint) error {
	return entrystore.DeleteAbandoned(e.db(), id)
}

// UpdateCompleted overwrites the rating and review of a completed entry.
// Nil clears the field.
func (e *Engine) UpdateCompleted(id uint, rating *int, review *string) (*entities.CompletedEntry, error) {
	if err := database.Validate(&entities.CompletedEntry{Rating: rating}); err != nil {
		return nil, err
	}
	if err := entrystore.UpdateCompleted(e.db(), id, rating, review); err != nil {
		return nil, err
	}
	return entrystore.GetCompleted(e.db(), id)
}

// UpdateAbandoned overwrites the page and reason of an abandoned entry.
// Nil clears the field.
func (e *Engine) UpdateAbandoned(id uint, page *int, reason *string) (*entities.AbandonedEntry, error) {
	entry, err := entrystore.GetAbandoned(e.db(), id)
	if err != nil {
		return nil, err
	}
	if page != nil {
		if err := checkPage(entry.Book, *page); err != nil {
			return nil, fmt.Errorf("update abandoned entry %d: %w", id, err)
		}
	}
	if err := entrystore.UpdateAbandoned(e.db(), id, page, reason); err != nil {
		return nil, err
	}
	entry.PageAtAbandonment = page
	entry.Reason = reason
	return entry, nil
}

// --- Queries ---

// LocationOf reports where a book currently sits. A book id with no
// entries and no book row is ErrNotFound.
func (e *Engine) LocationOf(bookID uint) (entities.Location, error) {
	loc, found, err := entrystore.LocationOf(e.db(), bookID)
	if err != nil || found {
		return loc, err
	}
	if _, err := getBook(e.db(), bookID); err != nil {
		return "", err
	}
	return entities.LocationLibrary, nil
}

// LibraryBooks returns the books that are not on any list.
func (e *Engine) LibraryBooks() ([]entities.Book, error) {
	return entrystore.LibraryBooks(e.db())
}

func (e *Engine) ListTracking() ([]entities.TrackingEntry, error) {
	return entrystore.ListTracking(e.db())
}

func (e *Engine) GetTracking(id uint) (*entities.TrackingEntry, error) {
	return entrystore.GetTracking(e.db(), id)
}

// ListCompleted returns completed entries, most recently finished first,
// whose completion date falls in the filtered year.
func (e *Engine) ListCompleted(filter YearFilter) ([]entities.CompletedEntry, error) {
	entries, err := entrystore.ListCompleted(e.db())
	if err != nil || filter.IsAllTime() {
		return entries, err
	}

	filtered := make([]entities.CompletedEntry, 0, len(entries))
	for _, entry := range entries {
		if filter.Matches(entry.CompletionDate) {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

func (e *Engine) GetCompleted(id uint) (*entities.CompletedEntry, error) {
	return entrystore.GetCompleted(e.db(), id)
}

func (e *Engine) ListAbandoned() ([]entities.AbandonedEntry, error) {
	return entrystore.ListAbandoned(e.db())
}

func (e *Engine) GetAbandoned(id uint) (*entities.AbandonedEntry, error) {
	return entrystore.GetAbandoned(e.db(), id)
}

// CheckInvariant returns the ids of books that have more than one entry.
// An empty result means the store is consistent.
func (e *Engine) CheckInvariant() ([]uint, error) {
	return entrystore.DuplicateBookIDs(e.db())
}

// --- helpers ---

func getBook(db *gorm.DB, id uint) (*entities.Book, error) {
	var book entities.Book
	if err := db.First(&book, id).Error; err != nil {
		return nil, database.Classify(fmt.Sprintf("get book %d", id), err)
	}
	return &book, nil
}

func requireLibrary(tx *gorm.DB, bookID uint, op string) error {
	loc, found, err := entrystore.LocationOf(tx, bookID)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%s book %d: book is already %s: %w", op, bookID, loc, ErrPreconditionViolation)
	}
	return nil
}

func checkPage(book *entities.Book, page int) error {
	if page < 0 {
		return fmt.Errorf("page %d is negative: %w", page, ErrPageOutOfRange)
	}
	if book != nil && page > book.PageCount {
		return fmt.Errorf("page %d exceeds page count %d: %w", page, book.PageCount, ErrPageOutOfRange)
	}
	return nil
}

func resolveStart(given *time.Time, useTracking bool, tracking *entities.TrackingEntry) *time.Time {
	if given == nil && useTracking {
		start := tracking.StartDate
		return &start
	}
	return given
}
