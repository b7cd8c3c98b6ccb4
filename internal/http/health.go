package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db        Pinger
	books     BookStore
	invariant InvariantChecker
	version   string
}

func NewHealthController(db Pinger, books BookStore, invariant InvariantChecker, version string) *HealthController {
	return &HealthController{
		db:        db,
		books:     books,
		invariant: invariant,
		version:   version,
	}
}

// Status reports database connectivity, the number of books and whether
// any book sits on more than one reading list.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db == nil {
		checks["database"] = "not configured"
	} else if err := h.db.Ping(); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "unhealthy"
	} else {
		checks["database"] = "ok"
	}

	if status == "healthy" && h.books != nil {
		if count, err := h.books.CountBooks(); err != nil {
			checks["books"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["books"] = strconv.FormatInt(count, 10)
		}
	}

	if status == "healthy" && h.invariant != nil {
		if dups, err := h.invariant.CheckInvariant(); err != nil {
			checks["invariant"] = "error: " + err.Error()
			status = "unhealthy"
		} else if len(dups) > 0 {
			checks["invariant"] = fmt.Sprintf("books on more than one list: %v", dups)
			status = "degraded"
		} else {
			checks["invariant"] = "ok"
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
