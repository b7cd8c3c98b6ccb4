package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/booklet/internal/database"
)

// AllTimeLabel is the filter value that disables year filtering.
const AllTimeLabel = "All Time"

// YearFilter narrows completed entries to one calendar year. The zero value
// matches every entry.
type YearFilter struct {
	Year int
}

// AllTime matches every completed entry.
var AllTime = YearFilter{}

// ParseYearFilter accepts a four digit year, "All Time" or an empty string.
func ParseYearFilter(s string) (YearFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AllTimeLabel) || strings.EqualFold(s, "all") {
		return AllTime, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1 || year > 9999 {
		return AllTime, fmt.Errorf("%w: invalid year filter %q", database.ErrInvalidRecord, s)
	}
	return YearFilter{Year: year}, nil
}

// IsAllTime reports whether the filter matches everything.
func (f YearFilter) IsAllTime() bool {
	return f.Year == 0
}

// Range returns the local-time half open interval [Jan 1 Y, Jan 1 Y+1).
func (f YearFilter) Range() (from, to time.Time) {
	from = time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.Local)
	return from, from.AddDate(1, 0, 0)
}

// Matches reports whether t falls into the filtered year.
func (f YearFilter) Matches(t time.Time) bool {
	if f.IsAllTime() {
		return true
	}
	from, to := f.Range()
	return !t.Before(from) && t.Before(to)
}

func (f YearFilter) String() string {
	if f.IsAllTime() {
		return AllTimeLabel
	}
	return strconv.Itoa(f.Year)
}
