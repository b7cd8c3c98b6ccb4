package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/booklet/internal/entities"
)

// Tables lists every table the schema is expected to contain. Restore uses
// it to check that a decompressed backup is one of ours.
var Tables = []string{
	entities.Book{}.TableName(),
	entities.TrackingEntry{}.TableName(),
	entities.CompletedEntry{}.TableName(),
	entities.AbandonedEntry{}.TableName(),
}

// Connector hands out the current connection pool. Repositories depend on
// it rather than on a fixed *gorm.DB so they survive a restore.
type Connector interface {
	Conn() *gorm.DB
}

// Database owns the single connection pool to the library file. The pool
// can be closed and reopened in place by Swap, so consumers must fetch it
// through Conn on every call instead of holding on to a *gorm.DB.
type Database struct {
	path     string
	logLevel logger.LogLevel

	mu     sync.RWMutex
	db     *gorm.DB
	closed bool
}

type Option func(*Database)

// WithLogLevel sets the gorm SQL log level. Defaults to logger.Warn.
func WithLogLevel(level logger.LogLevel) Option {
	return func(d *Database) {
		d.logLevel = level
	}
}

// NewDatabase opens (or creates) the SQLite file at dbPath and migrates
// the schema.
func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	d := &Database{path: dbPath, logLevel: logger.Warn}
	for _, opt := range opts {
		opt(d)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := d.open()
	if err != nil {
		return nil, err
	}
	d.db = db

	log.Printf("Database initialized successfully at %s", dbPath)

	return d, nil
}

func (d *Database) open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(d.path), &gorm.Config{
		Logger: logger.Default.LogMode(d.logLevel),
		// Entries may outlive their book, readers handle the orphan.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.TrackingEntry{},
		&entities.CompletedEntry{},
		&entities.AbandonedEntry{},
	)
	if err != nil {
		closeGorm(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Conn returns the current connection pool. On a closed handle it returns
// a session that fails every statement with ErrStorageIO.
func (d *Database) Conn() *gorm.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return closedSession(d.db)
	}
	return d.db
}

// Path returns the location of the live database file.
func (d *Database) Path() string {
	return d.path
}

// Ping checks that the connection pool is usable.
func (d *Database) Ping() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return &StorageError{Op: "ping database", Err: ErrClosed}
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return closeGorm(d.db)
}

// Snapshot writes a consistent copy of the live database to dest with
// VACUUM INTO. Writers are blocked by SQLite for the duration of the copy,
// not by the handle. dest must not exist.
func (d *Database) Snapshot(dest string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return &StorageError{Op: "snapshot database", Err: ErrClosed}
	}
	return Classify("snapshot database", d.db.Exec("VACUUM INTO ?", dest).Error)
}

// Swap closes the connection, lets replace put a new file at the live
// path and reopens it. The previous file is moved aside first; if replace
// fails or the new file does not open, it is moved back and reopened.
// No other Conn call returns until Swap is done.
func (d *Database) Swap(replace func(path string) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.closed {
		if err := closeGorm(d.db); err != nil {
			return fmt.Errorf("failed to close live database: %w", err)
		}
		d.closed = true
	}

	previous := d.path + ".prev"
	if err := os.Rename(d.path, previous); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return d.rollback("", fmt.Errorf("failed to move live database aside: %w", err))
		}
		previous = ""
	}

	if err := replace(d.path); err != nil {
		return d.rollback(previous, err)
	}

	db, err := d.open()
	if err != nil {
		return d.rollback(previous, fmt.Errorf("failed to reopen database after swap: %w", err))
	}
	d.db = db
	d.closed = false

	if previous == "" {
		log.Printf("Database opened at %s", d.path)
		return nil
	}
	if err := os.Remove(previous); err != nil {
		log.Printf("Failed to remove previous database file %s: %v", previous, err)
	}
	log.Printf("Database reopened at %s", d.path)
	return nil
}

// rollback puts the file at previous back in place, when given, and
// reopens it. cause is returned either way.
func (d *Database) rollback(previous string, cause error) error {
	if previous != "" {
		if err := os.Remove(d.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Failed to remove replacement database file: %v", err)
		}
		if err := os.Rename(previous, d.path); err != nil {
			return fmt.Errorf("%w (restoring previous database also failed: %v)", cause, err)
		}
	}

	db, err := d.open()
	if err != nil {
		return fmt.Errorf("%w (reopening previous database also failed: %v)", cause, err)
	}
	d.db = db
	d.closed = false
	return cause
}

// CheckFile opens the database at path the way NewDatabase does, schema
// migration included, and closes it again. The file is migrated in place.
func CheckFile(path string) error {
	d := &Database{path: path, logLevel: logger.Silent}
	db, err := d.open()
	if err != nil {
		return err
	}
	return closeGorm(db)
}

func closedSession(db *gorm.DB) *gorm.DB {
	tx := db.Session(&gorm.Session{NewDB: true})
	_ = tx.AddError(&StorageError{Op: "use database", Err: ErrClosed})
	return tx
}

func closeGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
