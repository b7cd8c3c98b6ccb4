package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/booklet/internal/audit"
	"github.com/mrlokans/booklet/internal/backup"
	"github.com/mrlokans/booklet/internal/database"
	"github.com/mrlokans/booklet/internal/database/books"
	"github.com/mrlokans/booklet/internal/lifecycle"
)

type testServer struct {
	router    *gin.Engine
	db        *database.Database
	backupDir string
	journal   *audit.Journal
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	db, err := database.NewDatabase(filepath.Join(dir, "library.db"), database.WithLogLevel(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := &testServer{
		db:        db,
		backupDir: filepath.Join(dir, "backups"),
		journal:   audit.NewJournal(filepath.Join(dir, "audit")),
	}
	s.router = NewRouter(RouterConfig{
		Database:  db,
		Books:     books.NewRepository(db),
		Lifecycle: lifecycle.NewEngine(db),
		Backups:   backup.NewManager(db),
		BackupDir: s.backupDir,
		Journal:   s.journal,
		Version:   "test",
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// createBook posts a book and returns its id.
func (s *testServer) createBook(t *testing.T, title string, pages int) uint {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/books", gin.H{"title": title, "author": "Author of " + title, "page_count": pages})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decode(t, w)["id"].(float64))
}

// startTracking moves a book onto the tracking list and returns the entry id.
func (s *testServer) startTracking(t *testing.T, bookID uint) uint {
	t.Helper()
	w := s.do(t, http.MethodPost, bookPath(bookID)+"/tracking", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decode(t, w)["id"].(float64))
}
