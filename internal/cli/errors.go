package cli

import (
	"errors"
	"fmt"

	"github.com/mrlokans/booklet/internal/backup"
	"github.com/mrlokans/booklet/internal/database"
	"github.com/mrlokans/booklet/internal/lifecycle"
)

var hints = []struct {
	target error
	hint   string
}{
	{backup.ErrCorruptedBackup, "the backup is damaged or is not a booklet database, the library was not changed"},
	{backup.ErrInvalidBackupFile, "point --file at a backup file written by booklet"},
	{backup.ErrBackupFileNotFound, "run 'booklet backups' to see the available backups"},
	{backup.ErrDatabaseNotFound, "there is nothing to back up until the library has been created"},
	{lifecycle.ErrPreconditionViolation, "the book is not on the list this command expects"},
	{database.ErrInvalidRecord, "check the values passed on the command line"},
	{database.ErrNotFound, "no record with that id"},
	{database.ErrStorageIO, "the database file could not be read or written"},
}

// describe adds a short hint for known error classes.
func describe(err error) error {
	for _, h := range hints {
		if errors.Is(err, h.target) {
			return fmt.Errorf("%w (%s)", err, h.hint)
		}
	}
	return err
}
