package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/booklet/internal/backup"
	"github.com/mrlokans/booklet/internal/database"
	"github.com/mrlokans/booklet/internal/lifecycle"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseIDParam_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "123"}}

	id, ok := parseIDParam(c, "id")

	assert.True(t, ok)
	assert.Equal(t, uint(123), id)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIDParam_Invalid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	id, ok := parseIDParam(c, "id")

	assert.False(t, ok)
	assert.Equal(t, uint(0), id)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid id")
}

func TestParseIDParam_Negative(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "-1"}}

	id, ok := parseIDParam(c, "id")

	assert.False(t, ok)
	assert.Equal(t, uint(0), id)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("get book 1: %w", database.ErrNotFound), http.StatusNotFound, "not_found"},
		{"precondition", fmt.Errorf("start: %w", lifecycle.ErrPreconditionViolation), http.StatusConflict, "precondition_failed"},
		{"page out of range", fmt.Errorf("progress: %w", lifecycle.ErrPageOutOfRange), http.StatusConflict, "page_out_of_range"},
		{"invalid record", fmt.Errorf("%w: Title failed required", database.ErrInvalidRecord), http.StatusBadRequest, "invalid_record"},
		{"backup missing", backup.ErrBackupFileNotFound, http.StatusNotFound, "backup_not_found"},
		{"invalid backup", backup.ErrInvalidBackupFile, http.StatusBadRequest, "invalid_backup_file"},
		{"corrupted backup", backup.ErrCorruptedBackup, http.StatusUnprocessableEntity, "corrupted_backup"},
		{"no database", backup.ErrDatabaseNotFound, http.StatusConflict, "database_not_found"},
		{"storage", &database.StorageError{Op: "list", Err: fmt.Errorf("disk I/O error")}, http.StatusInternalServerError, "storage_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondDomainError(c, tt.err, "book")

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}

	t.Run("storage details stay private", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondDomainError(c, &database.StorageError{Op: "list", Err: fmt.Errorf("secret path /x")}, "book")
		assert.NotContains(t, w.Body.String(), "secret path")
	})
}

func TestRespondDeleted(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondDeleted(c, "gone")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"irreversible":true`)
}
