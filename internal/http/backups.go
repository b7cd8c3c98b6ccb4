package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklet/internal/audit"
	"github.com/mrlokans/booklet/internal/entities"
)

// AuditTrigger tags journal entries written by HTTP requests.
const AuditTrigger = "http"

type restoreRequest struct {
	// Path is either an absolute path or a file name inside the backup directory.
	Path string `json:"path" binding:"required"`
}

type BackupsController struct {
	backups  BackupService
	schedule BackupSchedule
	journal  *audit.Journal
	dir      string
}

func NewBackupsController(backups BackupService, schedule BackupSchedule, journal *audit.Journal, dir string) *BackupsController {
	return &BackupsController{
		backups:  backups,
		schedule: schedule,
		journal:  journal,
		dir:      dir,
	}
}

// ListBackups returns the artifacts in the backup directory, newest first.
func (controller *BackupsController) ListBackups(c *gin.Context) {
	list, err := controller.backups.List(controller.dir)
	if err != nil {
		respondDomainError(c, err, "backups")
		return
	}

	response := gin.H{"backups": list, "count": len(list), "dir": controller.dir}
	if controller.schedule != nil {
		response["schedule"] = gin.H{
			"running":  controller.schedule.IsRunning(),
			"next_run": controller.schedule.NextRun(),
			"last_run": controller.schedule.LastRun(),
		}
	}
	c.JSON(http.StatusOK, response)
}

// CreateBackup writes a new timestamped artifact into the backup directory.
func (controller *BackupsController) CreateBackup(c *gin.Context) {
	info, err := controller.backups.BackupToDir(controller.dir)
	if err != nil {
		controller.journal.RecordResult(entities.AuditActionBackup, AuditTrigger, controller.dir, 0, "", err)
		respondDomainError(c, err, "backup")
		return
	}
	controller.journal.RecordResult(entities.AuditActionBackup, AuditTrigger, info.Path, info.SizeBytes, "", nil)
	respondCreated(c, info)
}

// Restore replaces the library with the contents of a backup. The library
// is left unchanged when the backup fails verification.
func (controller *BackupsController) Restore(c *gin.Context) {
	var req restoreRequest
	if !bindJSON(c, &req) {
		return
	}

	path := req.Path
	if !filepath.IsAbs(path) && !strings.ContainsRune(path, filepath.Separator) {
		path = filepath.Join(controller.dir, path)
	}

	err := controller.backups.Restore(path)
	controller.journal.RecordResult(entities.AuditActionRestore, AuditTrigger, path, 0, "", err)
	if err != nil {
		respondDomainError(c, err, "backup")
		return
	}
	respondSuccess(c, "library restored", gin.H{"restored_from": path})
}

// History returns the most recent journal entries.
func (controller *BackupsController) History(c *gin.Context) {
	if !controller.journal.Enabled() {
		respondError(c, http.StatusNotFound, "backup journal is disabled")
		return
	}
	events, err := controller.journal.Recent(50)
	if err != nil {
		respondInternalError(c, err, "read backup journal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
