package entities

import (
	"time"
)

// TrackingEntry marks a book as currently being read.
type TrackingEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BookID      uint      `gorm:"index;not null" json:"book_id"`
	CurrentPage int       `gorm:"not null" json:"current_page" validate:"gte=0"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`

	// Joined at read time, nil when the book row no longer exists.
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty" validate:"-"`
}

func (TrackingEntry) TableName() string {
	return "tracking_entries"
}

// IsStale reports whether the entry's book is missing.
func (e *TrackingEntry) IsStale() bool {
	return e.Book == nil
}

// ProgressPercentage returns currentPage / pageCount * 100.
func (e *TrackingEntry) ProgressPercentage() (float64, bool) {
	if e.Book == nil || e.Book.PageCount <= 0 {
		return 0, false
	}
	return float64(e.CurrentPage) / float64(e.Book.PageCount) * 100, true
}

type CompletedEntry struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	BookID         uint       `gorm:"index;not null" json:"book_id"`
	Rating         *int       `json:"rating" validate:"omitempty,min=1,max=5"`
	Review         *string    `gorm:"type:text" json:"review"`
	StartDate      *time.Time `json:"start_date"`
	CompletionDate time.Time  `gorm:"index;not null" json:"completion_date"`

	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty" validate:"-"`
}

func (CompletedEntry) TableName() string {
	return "completed_entries"
}

func (e *CompletedEntry) IsStale() bool {
	return e.Book == nil
}

// DaysToComplete returns the whole days between start and completion.
// It is only computable when a start date was recorded.
func (e *CompletedEntry) DaysToComplete() (int, bool) {
	if e.StartDate == nil {
		return 0, false
	}
	return wholeDays(*e.StartDate, e.CompletionDate), true
}

type AbandonedEntry struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	BookID            uint       `gorm:"index;not null" json:"book_id"`
	PageAtAbandonment *int       `json:"page_at_abandonment" validate:"omitempty,gte=0"`
	Reason            *string    `gorm:"type:text" json:"reason"`
	StartDate         *time.Time `json:"start_date"`
	AbandonmentDate   time.Time  `gorm:"index;not null" json:"abandonment_date"`

	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty" validate:"-"`
}

func (AbandonedEntry) TableName() string {
	return "abandoned_entries"
}

func (e *AbandonedEntry) IsStale() bool {
	return e.Book == nil
}

// ProgressPercentage returns how far into the book the reader got before
// giving up. Requires both the page and the joined book.
func (e *AbandonedEntry) ProgressPercentage() (float64, bool) {
	if e.PageAtAbandonment == nil || e.Book == nil || e.Book.PageCount <= 0 {
		return 0, false
	}
	return float64(*e.PageAtAbandonment) / float64(e.Book.PageCount) * 100, true
}

func wholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
