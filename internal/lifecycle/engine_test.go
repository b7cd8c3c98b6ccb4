package lifecycle

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/booklet/internal/database"
	"github.com/mrlokans/booklet/internal/database/books"
	"github.com/mrlokans/booklet/internal/entities"
)

type fixture struct {
	db     *database.Database
	books  *books.Repository
	engine *Engine
	clock  time.Time
}

func setupEngine(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "lifecycle.db"), database.WithLogLevel(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{db: db, books: books.NewRepository(db), clock: time.Now()}
	f.engine = NewEngine(db, WithClock(func() time.Time { return f.clock }))
	return f
}

func (f *fixture) addBook(t *testing.T, title string, pages int) uint {
	t.Helper()
	id, err := f.books.CreateBook(&entities.Book{Title: title, Author: "Author", PageCount: pages})
	require.NoError(t, err)
	return id
}

func intPtr(v int) *int { return &v }

func TestEngine_DuneExample(t *testing.T) {
	f := setupEngine(t)
	bookID := f.addBook(t, "Dune", 412)

	loc, err := f.engine.LocationOf(bookID)
	require.NoError(t, err)
	assert.Equal(t, entities.LocationLibrary, loc)

	tracking, err := f.engine.StartTracking(bookID)
	require.NoError(t, err)
	assert.Equal(t, 0, tracking.CurrentPage)

	tracking, err = f.engine.UpdateProgress(tracking.ID, 200)
	require.NoError(t, err)
	pct, ok := tracking.ProgressPercentage()
	require.True(t, ok)
	assert.InDelta(t, 48.5, pct, 0.05)

	completed, err := f.engine.Complete(tracking.ID, CompleteInput{Rating: intPtr(5)})
	require.NoError(t, err)
	require.NotNil(t, completed.Rating)
	assert.Equal(t, 5, *completed.Rating)

	loc, err = f.engine.LocationOf(bookID)
	require.NoError(t, err)
	assert.Equal(t, entities.LocationCompleted, loc)

	library, err := f.engine.LibraryBooks()
	require.NoError(t, err)
	assert.Empty(t, library)

	_, err = f.engine.GetTracking(tracking.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestEngine_StartTracking(t *testing.T) {
	f := setupEngine(t)
	bookID := f.addBook(t, "Solaris", 204)

	t.Run("missing book", func(t *testing.T) {
		_, err := f.engine.StartTracking(9999)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("already tracking", func(t *testing.T) {
		_, err := f.engine.StartTracking(bookID)
		require.NoError(t, err)

		_, err = f.engine.StartTracking(bookID)
		assert.ErrorIs(t, err, ErrPreconditionViolation)
	})

	t.Run("already completed", func(t *testing.T) {
		other := f.addBook(t, "Roadside Picnic", 145)
		tracking, err := f.engine.StartTracking(other)
		require.NoError(t, err)
		_, err = f.engine.Complete(tracking.ID, CompleteInput{})
		require.NoError(t, err)

		_, err = f.engine.StartTracking(other)
		assert.ErrorIs(t, err, ErrPreconditionViolation)
	})
}

func TestEngine_UpdateProgress(t *testing.T) {
	f := setupEngine(t)
	bookID := f.addBook(t, "Short", 100)
	tracking, err := f.engine.StartTracking(bookID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		page    int
		wantErr bool
	}{
		{"zero", 0, false},
		{"middle", 50, false},
		{"last page", 100, false},
		{"negative", -1, true},
		{"past the end", 101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.UpdateProgress(tracking.ID, tt.page)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPageOutOfRange)
				assert.ErrorIs(t, err, ErrPreconditionViolation)
				return
			}
			require.NoError(t, err)
			got, err := f.engine.GetTracking(tracking.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.page, got.CurrentPage)
		})
	}

	t.Run("missing entry", func(t *testing.T) {
		_, err := f.engine.UpdateProgress(9999, 1)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestEngine_Complete(t *testing.T) {
	f := setupEngine(t)

	t.Run("invalid rating keeps tracking entry", func(t *testing.T) {
		tracking, err := f.engine.StartTracking(f.addBook(t, "Rated", 10))
		require.NoError(t, err)

		_, err = f.engine.Complete(tracking.ID, CompleteInput{Rating: intPtr(6)})
		assert.ErrorIs(t, err, database.ErrInvalidRecord)

		_, err = f.engine.GetTracking(tracking.ID)
		assert.NoError(t, err)
	})

	t.Run("copies tracking start date on request", func(t *testing.T) {
		f.clock = time.Date(2024, 2, 1, 9, 0, 0, 0, time.Local)
		tracking, err := f.engine.StartTracking(f.addBook(t, "Dated", 10))
		require.NoError(t, err)

		f.clock = time.Date(2024, 2, 11, 9, 0, 0, 0, time.Local)
		completed, err := f.engine.Complete(tracking.ID, CompleteInput{
			Review:           entities.StringPtr("Great"),
			UseTrackingStart: true,
		})
		require.NoError(t, err)

		stored, err := f.engine.GetCompleted(completed.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.StartDate)
		assert.True(t, stored.StartDate.Equal(tracking.StartDate))
		days, ok := stored.DaysToComplete()
		require.True(t, ok)
		assert.Equal(t, 10, days)
		assert.Equal(t, "Great", *stored.Review)
		assert.Nil(t, stored.Rating)
	})

	t.Run("without start date", func(t *testing.T) {
		tracking, err := f.engine.StartTracking(f.addBook(t, "Undated", 10))
		require.NoError(t, err)

		completed, err := f.engine.Complete(tracking.ID, CompleteInput{})
		require.NoError(t, err)

		stored, err := f.engine.GetCompleted(completed.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.StartDate)
		_, ok := stored.DaysToComplete()
		assert.False(t, ok)
	})

	t.Run("missing tracking entry", func(t *testing.T) {
		_, err := f.engine.Complete(9999, CompleteInput{})
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestEngine_Abandon(t *testing.T) {
	f := setupEngine(t)
	bookID := f.addBook(t, "Ulysses", 730)
	tracking, err := f.engine.StartTracking(bookID)
	require.NoError(t, err)

	_, err = f.engine.Abandon(tracking.ID, AbandonInput{PageAtAbandonment: intPtr(800)})
	assert.ErrorIs(t, err, ErrPageOutOfRange)

	abandoned, err := f.engine.Abandon(tracking.ID, AbandonInput{
		PageAtAbandonment: intPtr(73),
		Reason:            entities.StringPtr("Too dense"),
	})
	require.NoError(t, err)

	loc, err := f.engine.LocationOf(bookID)
	require.NoError(t, err)
	assert.Equal(t, entities.LocationAbandoned, loc)

	stored, err := f.engine.GetAbandoned(abandoned.ID)
	require.NoError(t, err)
	pct, ok := stored.ProgressPercentage()
	require.True(t, ok)
	assert.InDelta(t, 10.0, pct, 0.01)

	t.Run("update metadata", func(t *testing.T) {
		updated, err := f.engine.UpdateAbandoned(abandoned.ID, intPtr(100), nil)
		require.NoError(t, err)
		assert.Equal(t, 100, *updated.PageAtAbandonment)
		assert.Nil(t, updated.Reason)

		_, err = f.engine.UpdateAbandoned(abandoned.ID, intPtr(-3), nil)
		assert.ErrorIs(t, err, ErrPageOutOfRange)

		_, err = f.engine.UpdateAbandoned(9999, nil, nil)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestEngine_RemoveReturnsToLibrary(t *testing.T) {
	f := setupEngine(t)

	tests := []struct {
		name   string
		finish func(t *testing.T, trackingID uint) func() error
	}{
		{"tracking", func(t *testing.T, id uint) func() error {
			return func() error { return f.engine.RemoveFromTracking(id) }
		}},
		{"completed", func(t *testing.T, id uint) func() error {
			c, err := f.engine.Complete(id, CompleteInput{Rating: intPtr(3)})
			require.NoError(t, err)
			return func() error { return f.engine.RemoveFromCompleted(c.ID) }
		}},
		{"abandoned", func(t *testing.T, id uint) func() error {
			a, err := f.engine.Abandon(id, AbandonInput{})
			require.NoError(t, err)
			return func() error { return f.engine.RemoveFromAbandoned(a.ID) }
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookID := f.addBook(t, tt.name, 10)
			tracking, err := f.engine.StartTracking(bookID)
			require.NoError(t, err)

			remove := tt.finish(t, tracking.ID)
			require.NoError(t, remove())
			assert.ErrorIs(t, remove(), database.ErrNotFound)

			loc, err := f.engine.LocationOf(bookID)
			require.NoError(t, err)
			assert.Equal(t, entities.LocationLibrary, loc)

			library, err := f.engine.LibraryBooks()
			require.NoError(t, err)
			ids := make([]uint, 0, len(library))
			for _, b := range library {
				ids = append(ids, b.ID)
			}
			assert.Contains(t, ids, bookID)
		})
	}
}

func TestEngine_UpdateCompleted(t *testing.T) {
	f := setupEngine(t)
	tracking, err := f.engine.StartTracking(f.addBook(t, "Edit Me", 10))
	require.NoError(t, err)
	completed, err := f.engine.Complete(tracking.ID, CompleteInput{Rating: intPtr(2), Review: entities.StringPtr("meh")})
	require.NoError(t, err)

	updated, err := f.engine.UpdateCompleted(completed.ID, intPtr(4), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, *updated.Rating)
	assert.Nil(t, updated.Review)

	_, err = f.engine.UpdateCompleted(completed.ID, intPtr(0), nil)
	assert.ErrorIs(t, err, database.ErrInvalidRecord)

	_, err = f.engine.UpdateCompleted(9999, nil, nil)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestEngine_ListCompletedByYear(t *testing.T) {
	f := setupEngine(t)

	finishAt := func(title string, at time.Time) {
		tracking, err := f.engine.StartTracking(f.addBook(t, title, 10))
		require.NoError(t, err)
		f.clock = at
		_, err = f.engine.Complete(tracking.ID, CompleteInput{})
		require.NoError(t, err)
	}

	finishAt("2022", time.Date(2022, 6, 1, 12, 0, 0, 0, time.Local))
	finishAt("2023 early", time.Date(2023, 1, 1, 0, 0, 0, 0, time.Local))
	finishAt("2023 late", time.Date(2023, 12, 31, 23, 59, 0, 0, time.Local))
	finishAt("2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local))

	filter, err := ParseYearFilter("2023")
	require.NoError(t, err)
	entries, err := f.engine.ListCompleted(filter)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2023 late", entries[0].Book.Title)
	assert.Equal(t, "2023 early", entries[1].Book.Title)

	all, err := ParseYearFilter(AllTimeLabel)
	require.NoError(t, err)
	entries, err = f.engine.ListCompleted(all)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestEngine_OrphanedEntries(t *testing.T) {
	f := setupEngine(t)
	bookID := f.addBook(t, "Vanishing", 50)
	tracking, err := f.engine.StartTracking(bookID)
	require.NoError(t, err)

	// Drop the book row without the repository's cascade.
	require.NoError(t, f.db.Conn().Delete(&entities.Book{}, bookID).Error)

	entries, err := f.engine.ListTracking()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsStale())
	_, ok := entries[0].ProgressPercentage()
	assert.False(t, ok)

	_, err = f.engine.UpdateProgress(tracking.ID, 5000)
	require.NoError(t, err, "orphaned entries have no upper bound")

	loc, err := f.engine.LocationOf(bookID)
	require.NoError(t, err)
	assert.Equal(t, entities.LocationTracking, loc)

	completed, err := f.engine.Complete(tracking.ID, CompleteInput{})
	require.NoError(t, err)
	assert.True(t, completed.IsStale())

	require.NoError(t, f.engine.RemoveFromCompleted(completed.ID))
	_, err = f.engine.LocationOf(bookID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestEngine_TransitionIsAtomic(t *testing.T) {
	f := setupEngine(t)
	bookID := f.addBook(t, "Atomic", 10)
	tracking, err := f.engine.StartTracking(bookID)
	require.NoError(t, err)

	injected := errors.New("injected delete failure")
	callbacks := f.db.Conn().Callback().Delete()
	require.NoError(t, callbacks.Before("gorm:delete").Register("test:fail_tracking_delete", func(tx *gorm.DB) {
		if tx.Statement.Table == "tracking_entries" {
			tx.AddError(injected)
		}
	}))

	_, err = f.engine.Complete(tracking.ID, CompleteInput{Rating: intPtr(4)})
	assert.ErrorIs(t, err, injected)
	assert.ErrorIs(t, err, database.ErrStorageIO)

	require.NoError(t, callbacks.Remove("test:fail_tracking_delete"))

	completed, err := f.engine.ListCompleted(AllTime)
	require.NoError(t, err)
	assert.Empty(t, completed, "completed insert must be rolled back")

	loc, err := f.engine.LocationOf(bookID)
	require.NoError(t, err)
	assert.Equal(t, entities.LocationTracking, loc)
}

func TestEngine_ClosedDatabaseIsStorageError(t *testing.T) {
	f := setupEngine(t)
	bookID := f.addBook(t, "Closed", 10)
	require.NoError(t, f.db.Close())

	_, err := f.engine.ListTracking()
	assert.ErrorIs(t, err, database.ErrStorageIO)

	_, err = f.engine.ListCompleted(AllTime)
	assert.ErrorIs(t, err, database.ErrStorageIO)

	_, err = f.engine.StartTracking(bookID)
	assert.ErrorIs(t, err, database.ErrStorageIO)
	assert.ErrorIs(t, err, database.ErrClosed)

	_, err = f.engine.LocationOf(bookID)
	assert.ErrorIs(t, err, database.ErrStorageIO)
}

func TestEngine_InvariantHoldsUnderRandomOperations(t *testing.T) {
	f := setupEngine(t)
	rng := rand.New(rand.NewSource(42))

	var bookIDs []uint
	for i := 0; i < 6; i++ {
		bookIDs = append(bookIDs, f.addBook(t, "Book", 20))
	}

	pickBook := func() uint { return bookIDs[rng.Intn(len(bookIDs))] }

	// pick returns one of the live ids, or an id that does not exist one
	// time in five.
	pick := func(ids []uint) uint {
		if len(ids) == 0 || rng.Intn(5) == 0 {
			return uint(100000 + rng.Intn(100))
		}
		return ids[rng.Intn(len(ids))]
	}
	trackingID := func() uint {
		entries, err := f.engine.ListTracking()
		require.NoError(t, err)
		ids := make([]uint, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e.ID)
		}
		return pick(ids)
	}
	completedID := func() uint {
		entries, err := f.engine.ListCompleted(AllTime)
		require.NoError(t, err)
		ids := make([]uint, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e.ID)
		}
		return pick(ids)
	}
	abandonedID := func() uint {
		entries, err := f.engine.ListAbandoned()
		require.NoError(t, err)
		ids := make([]uint, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e.ID)
		}
		return pick(ids)
	}

	ops := []func() error{
		func() error { _, err := f.engine.StartTracking(pickBook()); return err },
		func() error { _, err := f.engine.UpdateProgress(trackingID(), rng.Intn(25)); return err },
		func() error {
			_, err := f.engine.Complete(trackingID(), CompleteInput{Rating: intPtr(rng.Intn(5) + 1)})
			return err
		},
		func() error { _, err := f.engine.Abandon(trackingID(), AbandonInput{}); return err },
		func() error { return f.engine.RemoveFromTracking(trackingID()) },
		func() error { return f.engine.RemoveFromCompleted(completedID()) },
		func() error { return f.engine.RemoveFromAbandoned(abandonedID()) },
	}

	for step := 0; step < 300; step++ {
		err := ops[rng.Intn(len(ops))]()
		if err != nil {
			require.True(t,
				errors.Is(err, ErrPreconditionViolation) || errors.Is(err, database.ErrNotFound),
				"step %d: unexpected error %v", step, err)
		}

		dups, err := f.engine.CheckInvariant()
		require.NoError(t, err)
		require.Empty(t, dups, "step %d", step)
	}

	library, err := f.engine.LibraryBooks()
	require.NoError(t, err)
	inLibrary := make(map[uint]bool)
	for _, b := range library {
		inLibrary[b.ID] = true
	}
	for _, id := range bookIDs {
		loc, err := f.engine.LocationOf(id)
		require.NoError(t, err)
		assert.Equal(t, loc == entities.LocationLibrary, inLibrary[id], "book %d at %s", id, loc)
	}
}

func TestParseYearFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    YearFilter
		wantErr bool
	}{
		{"", AllTime, false},
		{"All Time", AllTime, false},
		{"all", AllTime, false},
		{"2023", YearFilter{Year: 2023}, false},
		{" 1999 ", YearFilter{Year: 1999}, false},
		{"last year", AllTime, true},
		{"-5", AllTime, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseYearFilter(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, database.ErrInvalidRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "2023", YearFilter{Year: 2023}.String())
	assert.Equal(t, AllTimeLabel, AllTime.String())
}
