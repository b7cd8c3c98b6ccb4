// Package backup writes and restores compressed snapshots of the library
// database file.
//
// An artifact is a single zlib stream whose payload is exactly one SQLite
// file, taken with VACUUM INTO so concurrent writes never tear it. Restore
// verifies the payload before the live file is touched:
//
//	src ──zlib──▶ tmp/restore.db ──verify, migrate──▶ live.db.restore ──rename──▶ live.db
//
// A failure at any step before the rename leaves the live database as it
// was. A file that still fails to open after the rename is rolled back by
// the database handle.
package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/booklet/internal/database"
)

const (
	// DefaultExtension is used when the manager is built without one.
	DefaultExtension = ".booklet-backup"

	// FilePrefix starts every artifact name written by BackupToDir.
	FilePrefix = "booklet-"

	timestampLayout = "20060102_150405"
)

// Handle is the live database as seen by the backup manager.
type Handle interface {
	Path() string
	Snapshot(dest string) error
	Swap(replace func(path string) error) error
}

var _ Handle = (*database.Database)(nil)

// Info describes one artifact on disk.
type Info struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager serializes backups and restores of one database.
type Manager struct {
	db        Handle
	extension string
	now       func() time.Time

	mu sync.Mutex
}

type Option func(*Manager)

// WithExtension sets the artifact extension, including the leading dot.
func WithExtension(ext string) Option {
	return func(m *Manager) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.extension = ext
	}
}

// WithClock replaces time.Now for artifact names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(db Handle, opts ...Option) *Manager {
	m := &Manager{db: db, extension: DefaultExtension, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Extension returns the artifact extension, including the leading dot.
func (m *Manager) Extension() string {
	return m.extension
}

// Backup writes a compressed copy of the live database to dest.
func (m *Manager) Backup(dest string) (*Info, error) {
	if !m.hasExtension(dest) {
		return nil, fmt.Errorf("%w: %s does not end in %s", ErrInvalidBackupFile, dest, m.extension)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.db.Path()
	if _, err := os.Stat(live); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, live)
		}
		return nil, storageError("stat live database", err)
	}

	tempDir, err := os.MkdirTemp("", "booklet-backup-*")
	if err != nil {
		return nil, storageError("create temp directory", err)
	}
	defer os.RemoveAll(tempDir)

	snapshot := filepath.Join(tempDir, "snapshot.db")
	if err := m.db.Snapshot(snapshot); err != nil {
		return nil, err
	}
	if err := compressFile(snapshot, dest); err != nil {
		return nil, err
	}

	info, err := statInfo(dest)
	if err != nil {
		return nil, err
	}
	log.Printf("Backup written to %s (%d bytes)", dest, info.SizeBytes)
	return info, nil
}

// BackupToDir writes a timestamped artifact into dir.
func (m *Manager) BackupToDir(dir string) (*Info, error) {
	name := FilePrefix + m.now().Format(timestampLayout) + m.extension
	return m.Backup(filepath.Join(dir, name))
}

// Restore replaces the live database with the payload of src once the
// payload has been verified.
func (m *Manager) Restore(src string) error {
	if !m.hasExtension(src) {
		return fmt.Errorf("%w: %s does not end in %s", ErrInvalidBackupFile, src, m.extension)
	}
	fi, err := os.Stat(src)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrBackupFileNotFound, src)
	case err != nil:
		return storageError("stat backup file", err)
	case fi.IsDir():
		return fmt.Errorf("%w: %s is a directory", ErrInvalidBackupFile, src)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tempDir, err := os.MkdirTemp("", "booklet-restore-*")
	if err != nil {
		return storageError("create temp directory", err)
	}
	defer os.RemoveAll(tempDir)

	candidate := filepath.Join(tempDir, "restore.db")
	if err := decompressFile(src, candidate); err != nil {
		return err
	}
	if err := verifyDatabase(candidate); err != nil {
		return err
	}
	// Open it the way the live file will be reopened, so a schema the
	// migrator cannot bring up to date is rejected here.
	if err := database.CheckFile(candidate); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
	}

	// Stage next to the live file so the final step is a same-directory rename.
	staged := m.db.Path() + ".restore"
	defer os.Remove(staged)
	if err := copyFile(candidate, staged); err != nil {
		return storageError("stage restored database", err)
	}

	err = m.db.Swap(func(live string) error {
		if err := os.Rename(staged, live); err != nil {
			return storageError("replace live database", err)
		}
		for _, suffix := range []string{"-journal", "-wal", "-shm"} {
			if err := os.Remove(live + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Printf("Failed to remove stale %s file: %v", suffix, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Database restored from %s", src)
	return nil
}

// List returns the artifacts in dir, newest first. A missing directory has
// no artifacts.
func (m *Manager) List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Info{}, nil
		}
		return nil, storageError("read backup directory", err)
	}

	backups := make([]Info, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, FilePrefix) || !m.hasExtension(name) {
			continue
		}
		info, err := statInfo(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, FilePrefix), m.extension)
		if t, err := time.ParseInLocation(timestampLayout, stamp, time.Local); err == nil {
			info.CreatedAt = t
		}
		backups = append(backups, *info)
	}

	sortNewestFirst(backups)
	return backups, nil
}

// Prune deletes all but the newest keep artifacts in dir. keep <= 0
// disables pruning.
func (m *Manager) Prune(dir string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	backups, err := m.List(dir)
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	removed := 0
	for _, b := range backups[keep:] {
		if err := os.Remove(b.Path); err != nil {
			return removed, storageError("remove old backup", err)
		}
		removed++
	}
	log.Printf("Pruned %d old backups from %s", removed, dir)
	return removed, nil
}

func (m *Manager) hasExtension(path string) bool {
	return strings.HasSuffix(path, m.extension) && len(filepath.Base(path)) > len(m.extension)
}

// --- file helpers ---

func compressFile(src, dest string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return storageError("create backup directory", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return storageError("open snapshot", err)
	}
	defer in.Close()

	partial := dest + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return storageError("create backup file", err)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(partial)
		}
	}()

	zw, err := zlib.NewWriterLevel(out, zlib.BestCompression)
	if err != nil {
		return storageError("create compressor", err)
	}
	if _, err := io.Copy(zw, in); err != nil {
		return storageError("compress snapshot", err)
	}
	if err := zw.Close(); err != nil {
		return storageError("finish compression", err)
	}
	if err := out.Sync(); err != nil {
		return storageError("sync backup file", err)
	}
	if err := out.Close(); err != nil {
		return storageError("close backup file", err)
	}
	if err := os.Rename(partial, dest); err != nil {
		return storageError("move backup into place", err)
	}
	return nil
}

// corruptionReader tags read errors from the decompressor so they can be
// told apart from write errors on the destination.
type corruptionReader struct {
	r io.Reader
}

func (c corruptionReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
	}
	return n, err
}

func decompressFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return storageError("open backup file", err)
	}
	defer in.Close()

	zr, err := zlib.NewReader(in)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
	}
	defer zr.Close()

	out, err := os.Create(dest)
	if err != nil {
		return storageError("create restore file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, corruptionReader{zr}); err != nil {
		if errors.Is(err, ErrCorruptedBackup) {
			return err
		}
		return storageError("write restore file", err)
	}
	return out.Close()
}

// verifyDatabase opens path read-only, runs SQLite's integrity check and
// checks that every library table is present in its catalogue.
func verifyDatabase(path string) error {
	conn, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
	}
	defer conn.Close()

	var integrity string
	if err := conn.QueryRow(`PRAGMA integrity_check`).Scan(&integrity); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
	}
	if integrity != "ok" {
		return fmt.Errorf("%w: integrity check: %s", ErrCorruptedBackup, integrity)
	}

	rows, err := conn.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
	}

	for _, table := range database.Tables {
		if !present[table] {
			return fmt.Errorf("%w: table %s is missing", ErrCorruptedBackup, table)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Close()
}

func sortNewestFirst(backups []Info) {
	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].CreatedAt.After(backups[j].CreatedAt)
		}
		return backups[i].Name > backups[j].Name
	})
}

func statInfo(path string) (*Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, storageError("stat backup file", err)
	}
	return &Info{
		Path:      path,
		Name:      fi.Name(),
		SizeBytes: fi.Size(),
		CreatedAt: fi.ModTime(),
	}, nil
}

func storageError(op string, err error) error {
	return &database.StorageError{Op: op, Err: err}
}
