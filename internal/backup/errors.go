package backup

import "errors"

var (
	// ErrDatabaseNotFound is returned by Backup when no live database file
	// exists yet.
	ErrDatabaseNotFound = errors.New("database file not found")

	// ErrBackupFileNotFound is returned by Restore when the source is missing.
	ErrBackupFileNotFound = errors.New("backup file not found")

	// ErrInvalidBackupFile is returned when a path does not carry the backup
	// extension or is a directory.
	ErrInvalidBackupFile = errors.New("invalid backup file")

	// ErrCorruptedBackup is returned when the artifact does not decompress
	// or its payload is not a library database.
	ErrCorruptedBackup = errors.New("corrupted backup")
)
