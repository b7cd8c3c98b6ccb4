package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/booklet/internal/backup"
	"github.com/mrlokans/booklet/internal/database"
)

type harness struct {
	dir       string
	backupDir string
	auditDir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("DATABASE_LOG_LEVEL", "silent")
	dir := t.TempDir()
	return &harness{
		dir:       dir,
		backupDir: filepath.Join(dir, "backups"),
		auditDir:  filepath.Join(dir, "audit"),
	}
}

// run executes one command line and returns what it printed.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp("test")
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)

	argv := append([]string{"booklet",
		"--db", filepath.Join(h.dir, "library.db"),
		"--backup-dir", h.backupDir,
		"--audit-dir", h.auditDir,
	}, args...)
	err := app.Run(argv)
	return out.String(), err
}

func TestBooksCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "books", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No books")

	out, err = h.run(t, "", "books", "add", "--title", "Dune", "--author", "Frank Herbert", "--pages", "412", "--series", "Dune", "--series-number", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Added book 1: Dune by Frank Herbert")

	_, err = h.run(t, "", "books", "add", "--title", "Solaris", "--author", "Stanislaw Lem", "--pages", "204")
	require.NoError(t, err)

	out, err = h.run(t, "", "books", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "Solaris")
	assert.Contains(t, out, "library")

	out, err = h.run(t, "", "books", "list", "--q", "lem")
	require.NoError(t, err)
	assert.Contains(t, out, "Solaris")
	assert.NotContains(t, out, "Dune")

	out, err = h.run(t, "", "books", "unassigned")
	require.NoError(t, err)
	assert.Contains(t, out, "Dune")

	t.Run("invalid book", func(t *testing.T) {
		_, err := h.run(t, "", "books", "add", "--title", "Empty", "--author", "Nobody", "--pages", "0")
		assert.ErrorIs(t, err, database.ErrInvalidRecord)
	})

	t.Run("missing required flag", func(t *testing.T) {
		_, err := h.run(t, "", "books", "add", "--title", "No author")
		assert.Error(t, err)
	})
}

func TestBackupAndRestoreCommands(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "books", "add", "--title", "Dune", "--author", "Frank Herbert", "--pages", "412")
	require.NoError(t, err)

	artifact := filepath.Join(h.dir, "manual"+backup.DefaultExtension)
	out, err := h.run(t, "", "backup", "--out", artifact)
	require.NoError(t, err)
	assert.Contains(t, out, "Backup written to "+artifact)

	out, err = h.run(t, "", "backup")
	require.NoError(t, err)
	assert.Contains(t, out, h.backupDir)

	out, err = h.run(t, "", "backups")
	require.NoError(t, err)
	assert.Contains(t, out, backup.FilePrefix)

	out, err = h.run(t, "", "backups", "--dir", filepath.Join(h.dir, "empty"))
	require.NoError(t, err)
	assert.Contains(t, out, "No backups")

	_, err = h.run(t, "", "books", "add", "--title", "Added later", "--author", "Someone", "--pages", "10")
	require.NoError(t, err)

	t.Run("declined confirmation keeps the library", func(t *testing.T) {
		out, err := h.run(t, "n\n", "restore", "--file", artifact)
		require.NoError(t, err)
		assert.Contains(t, out, "Restore cancelled")

		out, err = h.run(t, "", "books", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Added later")
	})

	t.Run("confirmed restore", func(t *testing.T) {
		out, err := h.run(t, "yes\n", "restore", "--file", artifact)
		require.NoError(t, err)
		assert.Contains(t, out, "Library restored")

		out, err = h.run(t, "", "books", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Dune")
		assert.NotContains(t, out, "Added later")
	})

	t.Run("corrupted backup", func(t *testing.T) {
		bad := filepath.Join(h.dir, "bad"+backup.DefaultExtension)
		require.NoError(t, os.WriteFile(bad, []byte("nope"), 0644))

		_, err := h.run(t, "", "restore", "--file", bad, "--yes")
		assert.ErrorIs(t, err, backup.ErrCorruptedBackup)
		assert.Contains(t, err.Error(), "the library was not changed")
	})

	entries, err := os.ReadDir(h.auditDir)
	require.NoError(t, err)
	// two backups, one successful restore, one failed restore
	assert.Len(t, entries, 4)
}
