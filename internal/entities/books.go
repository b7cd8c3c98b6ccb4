package entities

import (
	"time"
)

type Book struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"index;size:512;not null" json:"title" validate:"required"`
	Author       string    `gorm:"index;size:256;not null" json:"author" validate:"required"`
	PageCount    int       `gorm:"not null" json:"page_count" validate:"gt=0"`
	CoverURL     *string   `gorm:"size:2048" json:"cover_url"`
	Series       *string   `gorm:"size:512" json:"series"`
	SeriesNumber *float64  `json:"series_number" validate:"omitempty,gte=0"` // 2.5 for novellas between volumes
	Synopsis     *string   `gorm:"type:text" json:"synopsis"`
	Genre        *string   `gorm:"size:128" json:"genre"`
	DateAdded    time.Time `gorm:"index;not null" json:"date_added"`
}

func (Book) TableName() string {
	return "books"
}

// Location is the lifecycle state of a book. A book with no entry in any
// of the three entry tables is in the library.
type Location string

const (
	LocationLibrary   Location = "library"
	LocationTracking  Location = "tracking"
	LocationCompleted Location = "completed"
	LocationAbandoned Location = "abandoned"
)

// StringPtr returns a pointer to s. Optional book fields distinguish
// nil (unset) from the empty string.
func StringPtr(s string) *string {
	return &s
}
