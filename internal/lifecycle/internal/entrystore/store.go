// Package entrystore holds the raw reads and writes for the tracking,
// completed and abandoned tables. Every function takes the *gorm.DB to run
// on so the lifecycle engine can hand in a transaction.
//
// Writes here do not check the one-entry-per-book rule; callers outside
// internal/lifecycle cannot import this package.
package entrystore

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/booklet/internal/database"
	"github.com/mrlokans/booklet/internal/entities"
)

func list[T any](db *gorm.DB, op, order string) ([]T, error) {
	var rows []T
	if err := db.Preload("Book").Order(order).Find(&rows).Error; err != nil {
		return nil, database.Classify(op, err)
	}
	return rows, nil
}

func get[T any](db *gorm.DB, op string, id uint) (*T, error) {
	var row T
	if err := db.Preload("Book").First(&row, id).Error; err != nil {
		return nil, database.Classify(fmt.Sprintf("%s %d", op, id), err)
	}
	return &row, nil
}

func findByBook[T any](db *gorm.DB, op string, bookID uint) (*T, error) {
	var rows []T
	if err := db.Where("book_id = ?", bookID).Limit(1).Find(&rows).Error; err != nil {
		return nil, database.Classify(fmt.Sprintf("%s for book %d", op, bookID), err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func create(db *gorm.DB, op string, row any) error {
	return database.Classify(op, db.Omit(clause.Associations).Create(row).Error)
}

func update(db *gorm.DB, op string, model any, id uint, fields map[string]any) error {
	result := db.Model(model).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return database.Classify(fmt.Sprintf("%s %d", op, id), result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", op, id, database.ErrNotFound)
	}
	return nil
}

func remove(db *gorm.DB, op string, model any, id uint) error {
	result := db.Delete(model, id)
	if result.Error != nil {
		return database.Classify(fmt.Sprintf("%s %d", op, id), result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", op, id, database.ErrNotFound)
	}
	return nil
}

// --- Tracking ---

func ListTracking(db *gorm.DB) ([]entities.TrackingEntry, error) {
	return list[entities.TrackingEntry](db, "list tracking entries", "start_date DESC, id DESC")
}

func GetTracking(db *gorm.DB, id uint) (*entities.TrackingEntry, error) {
	return get[entities.TrackingEntry](db, "get tracking entry", id)
}

func CreateTracking(db *gorm.DB, entry *entities.TrackingEntry) error {
	return create(db, "create tracking entry", entry)
}

func UpdateTrackingPage(db *gorm.DB, id uint, page int) error {
	return update(db, "update tracking entry", &entities.TrackingEntry{}, id, map[string]any{"current_page": page})
}

func DeleteTracking(db *gorm.DB, id uint) error {
	return remove(db, "delete tracking entry", &entities.TrackingEntry{}, id)
}

// --- Completed ---

func ListCompleted(db *gorm.DB) ([]entities.CompletedEntry, error) {
	return list[entities.CompletedEntry](db, "list completed entries", "completion_date DESC, id DESC")
}

func GetCompleted(db *gorm.DB, id uint) (*entities.CompletedEntry, error) {
	return get[entities.CompletedEntry](db, "get completed entry", id)
}

func CreateCompleted(db *gorm.DB, entry *entities.CompletedEntry) error {
	return create(db, "create completed entry", entry)
}

func UpdateCompleted(db *gorm.DB, id uint, rating *int, review *string) error {
	return update(db, "update completed entry", &entities.CompletedEntry{}, id, map[string]any{
		"rating": rating,
		"review": review,
	})
}

func DeleteCompleted(db *gorm.DB, id uint) error {
	return remove(db, "delete completed entry", &entities.CompletedEntry{}, id)
}

// --- Abandoned ---

func ListAbandoned(db *gorm.DB) ([]entities.AbandonedEntry, error) {
	return list[entities.AbandonedEntry](db, "list abandoned entries", "abandonment_date DESC, id DESC")
}

func GetAbandoned(db *gorm.DB, id uint) (*entities.AbandonedEntry, error) {
	return get[entities.AbandonedEntry](db, "get abandoned entry", id)
}

func CreateAbandoned(db *gorm.DB, entry *entities.AbandonedEntry) error {
	return create(db, "create abandoned entry", entry)
}

func UpdateAbandoned(db *gorm.DB, id uint, page *int, reason *string) error {
	return update(db, "update abandoned entry", &entities.AbandonedEntry{}, id, map[string]any{
		"page_at_abandonment": page,
		"reason":              reason,
	})
}

func DeleteAbandoned(db *gorm.DB, id uint) error {
	return remove(db, "delete abandoned entry", &entities.AbandonedEntry{}, id)
}

// --- Cross-table queries ---

// LocationOf scans the entry tables in the order tracking, completed,
// abandoned and reports the first match. found is false when the book has
// no entry at all.
func LocationOf(db *gorm.DB, bookID uint) (loc entities.Location, found bool, err error) {
	if e, err := findByBook[entities.TrackingEntry](db, "find tracking entry", bookID); err != nil || e != nil {
		return entities.LocationTracking, e != nil, err
	}
	if e, err := findByBook[entities.CompletedEntry](db, "find completed entry", bookID); err != nil || e != nil {
		return entities.LocationCompleted, e != nil, err
	}
	if e, err := findByBook[entities.AbandonedEntry](db, "find abandoned entry", bookID); err != nil || e != nil {
		return entities.LocationAbandoned, e != nil, err
	}
	return entities.LocationLibrary, false, nil
}

const notInAnyEntryTable = `NOT EXISTS (SELECT 1 FROM tracking_entries t WHERE t.book_id = books.id)
	AND NOT EXISTS (SELECT 1 FROM completed_entries c WHERE c.book_id = books.id)
	AND NOT EXISTS (SELECT 1 FROM abandoned_entries a WHERE a.book_id = books.id)`

// LibraryBooks returns the books that have no entry in any of the three
// tables, newest first.
func LibraryBooks(db *gorm.DB) ([]entities.Book, error) {
	var books []entities.Book
	err := db.Where(notInAnyEntryTable).Order("date_added DESC, id DESC").Find(&books).Error
	if err != nil {
		return nil, database.Classify("list library books", err)
	}
	return books, nil
}

// DuplicateBookIDs returns book ids that appear more than once across all
// three entry tables.
func DuplicateBookIDs(db *gorm.DB) ([]uint, error) {
	var ids []uint
	err := db.Raw(`SELECT book_id FROM (
		SELECT book_id FROM tracking_entries
		UNION ALL SELECT book_id FROM completed_entries
		UNION ALL SELECT book_id FROM abandoned_entries
	) GROUP BY book_id HAVING COUNT(*) > 1 ORDER BY book_id`).Scan(&ids).Error
	if err != nil {
		return nil, database.Classify("check entry invariant", err)
	}
	return ids, nil
}
