package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklet/internal/backup"
	"github.com/mrlokans/booklet/internal/database"
	"github.com/mrlokans/booklet/internal/lifecycle"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// DeleteResponse is returned by endpoints that permanently remove data.
type DeleteResponse struct {
	Message      string `json:"message"`
	Irreversible bool   `json:"irreversible"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "bad_request"})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: "not_found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "storage_error"})
}

// errorClass maps one sentinel onto a status, a code and a message shown
// to the user. Order matters: the first match wins.
type errorClass struct {
	target  error
	status  int
	code    string
	message string
}

var errorClasses = []errorClass{
	{database.ErrNotFound, http.StatusNotFound, "not_found", "not found"},
	{lifecycle.ErrPageOutOfRange, http.StatusConflict, "page_out_of_range", "page is outside the book"},
	{lifecycle.ErrPreconditionViolation, http.StatusConflict, "precondition_failed", "not allowed from the book's current list"},
	{database.ErrInvalidRecord, http.StatusBadRequest, "invalid_record", "invalid input"},
	{backup.ErrBackupFileNotFound, http.StatusNotFound, "backup_not_found", "backup file not found"},
	{backup.ErrInvalidBackupFile, http.StatusBadRequest, "invalid_backup_file", "not a backup file"},
	{backup.ErrCorruptedBackup, http.StatusUnprocessableEntity, "corrupted_backup", "backup is corrupted, the library was not changed"},
	{backup.ErrDatabaseNotFound, http.StatusConflict, "database_not_found", "there is no database to back up yet"},
}

// respondDomainError classifies err and sends the matching status. Anything
// unclassified, storage failures included, is a 500.
func respondDomainError(c *gin.Context, err error, resource string) {
	for _, class := range errorClasses {
		if !errors.Is(err, class.target) {
			continue
		}
		message := class.message
		if class.target == database.ErrNotFound {
			message = resource + " not found"
		}
		c.JSON(class.status, ErrorResponse{Error: message, Code: class.code, Details: err.Error()})
		return
	}
	respondInternalError(c, err, resource)
}

// respondError sends an error response with the given status code.
// Use the specific helpers (respondBadRequest, respondNotFound, etc.) when possible.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message and optional data.
func respondSuccess(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message, Data: data})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondDeleted sends a 200 OK response flagging the removal as permanent.
func respondDeleted(c *gin.Context, message string) {
	c.JSON(http.StatusOK, DeleteResponse{Message: message, Irreversible: true})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the request body or responds with a 400.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty.
func bindOptionalJSON(c *gin.Context, dest any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dest)
}
