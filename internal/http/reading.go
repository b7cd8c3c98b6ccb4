package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklet/internal/entities"
	"github.com/mrlokans/booklet/internal/lifecycle"
)

// --- Views ---

type trackingView struct {
	entities.TrackingEntry
	ProgressPercentage *float64 `json:"progress_percentage"`
	Stale              bool     `json:"stale"`
}

func newTrackingView(e entities.TrackingEntry) trackingView {
	v := trackingView{TrackingEntry: e, Stale: e.IsStale()}
	if pct, ok := e.ProgressPercentage(); ok {
		v.ProgressPercentage = &pct
	}
	return v
}

type completedView struct {
	entities.CompletedEntry
	DaysToComplete *int `json:"days_to_complete"`
	Stale          bool `json:"stale"`
}

func newCompletedView(e entities.CompletedEntry) completedView {
	v := completedView{CompletedEntry: e, Stale: e.IsStale()}
	if days, ok := e.DaysToComplete(); ok {
		v.DaysToComplete = &days
	}
	return v
}

type abandonedView struct {
	entities.AbandonedEntry
	ProgressPercentage *float64 `json:"progress_percentage"`
	Stale              bool     `json:"stale"`
}

func newAbandonedView(e entities.AbandonedEntry) abandonedView {
	v := abandonedView{AbandonedEntry: e, Stale: e.IsStale()}
	if pct, ok := e.ProgressPercentage(); ok {
		v.ProgressPercentage = &pct
	}
	return v
}

// --- Requests ---

type progressRequest struct {
	Page *int `json:"page" binding:"required"`
}

type completeRequest struct {
	Rating           *int       `json:"rating"`
	Review           *string    `json:"review"`
	StartDate        *time.Time `json:"start_date"`
	UseTrackingStart bool       `json:"use_tracking_start"`
}

type abandonRequest struct {
	PageAtAbandonment *int       `json:"page_at_abandonment"`
	Reason            *string    `json:"reason"`
	StartDate         *time.Time `json:"start_date"`
	UseTrackingStart  bool       `json:"use_tracking_start"`
}

type updateCompletedRequest struct {
	Rating *int    `json:"rating"`
	Review *string `json:"review"`
}

type updateAbandonedRequest struct {
	PageAtAbandonment *int    `json:"page_at_abandonment"`
	Reason            *string `json:"reason"`
}

// ReadingController serves the tracking, completed and abandoned lists.
type ReadingController struct {
	engine ReadingEngine
}

func NewReadingController(engine ReadingEngine) *ReadingController {
	return &ReadingController{engine: engine}
}

// --- Tracking ---

func (controller *ReadingController) ListTracking(c *gin.Context) {
	entries, err := controller.engine.ListTracking()
	if err != nil {
		respondDomainError(c, err, "tracking entries")
		return
	}
	views := make([]trackingView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newTrackingView(e))
	}
	c.JSON(http.StatusOK, gin.H{"tracking": views, "count": len(views)})
}

func (controller *ReadingController) GetTracking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := controller.engine.GetTracking(id)
	if err != nil {
		respondDomainError(c, err, "tracking entry")
		return
	}
	c.JSON(http.StatusOK, newTrackingView(*entry))
}

func (controller *ReadingController) UpdateProgress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req progressRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := controller.engine.UpdateProgress(id, *req.Page)
	if err != nil {
		respondDomainError(c, err, "tracking entry")
		return
	}
	c.JSON(http.StatusOK, newTrackingView(*entry))
}

func (controller *ReadingController) Complete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req completeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	entry, err := controller.engine.Complete(id, lifecycle.CompleteInput{
		Rating:           req.Rating,
		Review:           req.Review,
		StartDate:        req.StartDate,
		UseTrackingStart: req.UseTrackingStart,
	})
	if err != nil {
		respondDomainError(c, err, "tracking entry")
		return
	}
	respondCreated(c, newCompletedView(*entry))
}

func (controller *ReadingController) Abandon(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req abandonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	entry, err := controller.engine.Abandon(id, lifecycle.AbandonInput{
		PageAtAbandonment: req.PageAtAbandonment,
		Reason:            req.Reason,
		StartDate:         req.StartDate,
		UseTrackingStart:  req.UseTrackingStart,
	})
	if err != nil {
		respondDomainError(c, err, "tracking entry")
		return
	}
	respondCreated(c, newAbandonedView(*entry))
}

func (controller *ReadingController) RemoveTracking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := controller.engine.RemoveFromTracking(id); err != nil {
		respondDomainError(c, err, "tracking entry")
		return
	}
	respondDeleted(c, "book returned to the library, reading progress discarded")
}

// --- Completed ---

// ListCompleted accepts ?year=2023 or ?year=All Time.
func (controller *ReadingController) ListCompleted(c *gin.Context) {
	filter, err := lifecycle.ParseYearFilter(c.Query("year"))
	if err != nil {
		respondDomainError(c, err, "completed entries")
		return
	}
	entries, err := controller.engine.ListCompleted(filter)
	if err != nil {
		respondDomainError(c, err, "completed entries")
		return
	}
	views := make([]completedView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newCompletedView(e))
	}
	c.JSON(http.StatusOK, gin.H{"completed": views, "count": len(views), "year": filter.String()})
}

func (controller *ReadingController) GetCompleted(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := controller.engine.GetCompleted(id)
	if err != nil {
		respondDomainError(c, err, "completed entry")
		return
	}
	c.JSON(http.StatusOK, newCompletedView(*entry))
}

func (controller *ReadingController) UpdateCompleted(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateCompletedRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := controller.engine.UpdateCompleted(id, req.Rating, req.Review)
	if err != nil {
		respondDomainError(c, err, "completed entry")
		return
	}
	c.JSON(http.StatusOK, newCompletedView(*entry))
}

func (controller *ReadingController) RemoveCompleted(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := controller.engine.RemoveFromCompleted(id); err != nil {
		respondDomainError(c, err, "completed entry")
		return
	}
	respondDeleted(c, "book returned to the library, rating and review discarded")
}

// --- Abandoned ---

func (controller *ReadingController) ListAbandoned(c *gin.Context) {
	entries, err := controller.engine.ListAbandoned()
	if err != nil {
		respondDomainError(c, err, "abandoned entries")
		return
	}
	views := make([]abandonedView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newAbandonedView(e))
	}
	c.JSON(http.StatusOK, gin.H{"abandoned": views, "count": len(views)})
}

func (controller *ReadingController) GetAbandoned(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := controller.engine.GetAbandoned(id)
	if err != nil {
		respondDomainError(c, err, "abandoned entry")
		return
	}
	c.JSON(http.StatusOK, newAbandonedView(*entry))
}

func (controller *ReadingController) UpdateAbandoned(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateAbandonedRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := controller.engine.UpdateAbandoned(id, req.PageAtAbandonment, req.Reason)
	if err != nil {
		respondDomainError(c, err, "abandoned entry")
		return
	}
	c.JSON(http.StatusOK, newAbandonedView(*entry))
}

func (controller *ReadingController) RemoveAbandoned(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := controller.engine.RemoveFromAbandoned(id); err != nil {
		respondDomainError(c, err, "abandoned entry")
		return
	}
	respondDeleted(c, "book returned to the library, abandonment notes discarded")
}
