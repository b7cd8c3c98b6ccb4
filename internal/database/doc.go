// Package database provides the data access layer for the application.
//
// # Architecture
//
// The library lives in one SQLite file with four tables:
//
//	books               # the catalogue, see database/books
//	tracking_entries    # currently reading
//	completed_entries   # finished, with optional rating and review
//	abandoned_entries   # given up, with optional page and reason
//
// A book appears in at most one of the three entry tables. That rule is
// not a schema constraint: it is kept by internal/lifecycle, which is the
// only package that writes entry rows (its entry store sits under
// lifecycle/internal so nothing else can import it).
//
//	database/
//	├── database.go      # Connection setup, migrations, Swap for restore
//	├── errors.go        # ErrNotFound, ErrInvalidRecord, ErrStorageIO
//	├── validate.go      # validator/v10 struct checks
//	└── books/           # Book CRUD
//
// # Connections
//
// Repositories take a Connector and call Conn() per operation. A restore
// closes the pool, swaps the file and opens a new pool; any repository
// built on the same *Database picks up the new pool automatically.
//
//	db, err := database.NewDatabase("./booklet.db")
//	booksRepo := books.NewRepository(db)
//	engine := lifecycle.NewEngine(db)
//
// # Errors
//
// Every repository error is classified with Classify: gorm.ErrRecordNotFound
// becomes ErrNotFound, validation failures are ErrInvalidRecord and any other
// driver failure is a *StorageError matching ErrStorageIO.
package database
