// Package books provides database operations for the book catalogue.
//
// Books are free to be created, edited and deleted by any consumer; their
// reading state lives in the entry tables owned by internal/lifecycle.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	id, err := repo.CreateBook(&entities.Book{Title: "Dune", Author: "Herbert", PageCount: 412})
package books

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booklet/internal/database"
	"github.com/mrlokans/booklet/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	conn database.Connector
}

// NewRepository creates a new books repository.
func NewRepository(conn database.Connector) *Repository {
	return &Repository{conn: conn}
}

func (r *Repository) db() *gorm.DB {
	return r.conn.Conn()
}

// ListBooks returns every book, most recently added first.
func (r *Repository) ListBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db().Order("date_added DESC, id DESC").Find(&books).Error
	if err != nil {
		return nil, database.Classify("list books", err)
	}
	return books, nil
}

// GetBook retrieves a book by its ID.
func (r *Repository) GetBook(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db().First(&book, id).Error; err != nil {
		return nil, database.Classify(fmt.Sprintf("get book %d", id), err)
	}
	return &book, nil
}

// SearchBooks searches books by title or author (case-insensitive partial match).
func (r *Repository) SearchBooks(query string) ([]entities.Book, error) {
	var books []entities.Book
	searchPattern := "%" + query + "%"
	err := r.db().
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", searchPattern, searchPattern).
		Order("date_added DESC, id DESC").
		Find(&books).Error
	if err != nil {
		return nil, database.Classify("search books", err)
	}
	return books, nil
}

// CountBooks returns the number of books in the catalogue.
func (r *Repository) CountBooks() (int64, error) {
	var count int64
	err := r.db().Model(&entities.Book{}).Count(&count).Error
	return count, database.Classify("count books", err)
}

// CreateBook validates and inserts a book, returning its new ID.
// DateAdded defaults to now.
func (r *Repository) CreateBook(book *entities.Book) (uint, error) {
	if err := database.Validate(book); err != nil {
		return 0, err
	}

	book.ID = 0
	if book.DateAdded.IsZero() {
		book.DateAdded = time.Now()
	}

	if err := r.db().Create(book).Error; err != nil {
		return 0, database.Classify("create book", err)
	}
	return book.ID, nil
}

// UpdateBook overwrites the editable fields of a book. Nil optional fields
// are written as NULL. ID and DateAdded are never changed.
func (r *Repository) UpdateBook(id uint, book *entities.Book) error {
	if err := database.Validate(book); err != nil {
		return err
	}

	result := r.db().Model(&entities.Book{}).Where("id = ?", id).Updates(map[string]any{
		"title":         book.Title,
		"author":        book.Author,
		"page_count":    book.PageCount,
		"cover_url":     book.CoverURL,
		"series":        book.Series,
		"series_number": book.SeriesNumber,
		"synopsis":      book.Synopsis,
		"genre":         book.Genre,
	})
	if result.Error != nil {
		return database.Classify(fmt.Sprintf("update book %d", id), result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update book %d: %w", id, database.ErrNotFound)
	}
	book.ID = id
	return nil
}

// DeleteBook removes a book together with any tracking, completed or
// abandoned entry that references it.
func (r *Repository) DeleteBook(id uint) error {
	err := r.db().Transaction(func(tx *gorm.DB) error {
		for _, entry := range []any{&entities.TrackingEntry{}, &entities.CompletedEntry{}, &entities.AbandonedEntry{}} {
			if err := tx.Where("book_id = ?", id).Delete(entry).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("delete book %d: %w", id, database.ErrNotFound)
		}
		return nil
	})
	return database.Classify(fmt.Sprintf("delete book %d", id), err)
}
