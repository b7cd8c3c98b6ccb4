package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Books, cfg.Lifecycle, cfg.Version)
	booksController := NewBooksController(cfg.Books, cfg.Lifecycle)
	readingController := NewReadingController(cfg.Lifecycle)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Catalogue
	api.GET("/books", booksController.ListBooks)
	api.POST("/books", booksController.CreateBook)
	api.GET("/books/unassigned", booksController.LibraryBooks)
	api.GET("/books/:id", booksController.GetBook)
	api.PUT("/books/:id", booksController.UpdateBook)
	api.DELETE("/books/:id", booksController.DeleteBook)
	api.GET("/books/:id/location", booksController.Location)
	api.POST("/books/:id/tracking", booksController.StartTracking)

	// Currently reading
	api.GET("/tracking", readingController.ListTracking)
	api.GET("/tracking/:id", readingController.GetTracking)
	api.PUT("/tracking/:id/progress", readingController.UpdateProgress)
	api.POST("/tracking/:id/complete", readingController.Complete)
	api.POST("/tracking/:id/abandon", readingController.Abandon)
	api.DELETE("/tracking/:id", readingController.RemoveTracking)

	// Finished
	api.GET("/completed", readingController.ListCompleted)
	api.GET("/completed/:id", readingController.GetCompleted)
	api.PUT("/completed/:id", readingController.UpdateCompleted)
	api.DELETE("/completed/:id", readingController.RemoveCompleted)

	// Given up
	api.GET("/abandoned", readingController.ListAbandoned)
	api.GET("/abandoned/:id", readingController.GetAbandoned)
	api.PUT("/abandoned/:id", readingController.UpdateAbandoned)
	api.DELETE("/abandoned/:id", readingController.RemoveAbandoned)

	// Backup endpoints
	if cfg.Backups != nil {
		backupsController := NewBackupsController(cfg.Backups, cfg.BackupSchedule, cfg.Journal, cfg.BackupDir)
		api.GET("/backups", backupsController.ListBackups)
		api.POST("/backups", backupsController.CreateBackup)
		api.POST("/backups/restore", backupsController.Restore)
		api.GET("/backups/history", backupsController.History)
	}

	router.NoRoute(func(c *gin.Context) {
		respondNotFound(c, "route")
	})

	return router
}
