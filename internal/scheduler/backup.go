// Package scheduler runs periodic backups of the library on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/booklet/internal/audit"
	"github.com/mrlokans/booklet/internal/backup"
	"github.com/mrlokans/booklet/internal/entities"
)

// AuditTrigger tags journal entries written by scheduled runs.
const AuditTrigger = "schedule"

// BackupRunner is the part of the backup manager the scheduler drives.
type BackupRunner interface {
	BackupToDir(dir string) (*backup.Info, error)
	Prune(dir string, keep int) (int, error)
}

var _ BackupRunner = (*backup.Manager)(nil)

// BackupConfig controls when and where scheduled backups go.
type BackupConfig struct {
	Enabled   bool
	Schedule  string
	Dir       string
	Retention int
}

// RunResult is the outcome of the last backup run.
type RunResult struct {
	At      time.Time    `json:"at"`
	Backup  *backup.Info `json:"backup,omitempty"`
	Pruned  int          `json:"pruned"`
	Error   string       `json:"error,omitempty"`
	Success bool         `json:"success"`
}

// BackupScheduler manages periodic backups into the backup directory
type BackupScheduler struct {
	runner  BackupRunner
	journal *audit.Journal
	config  BackupConfig

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc

	runMu   sync.Mutex
	lastRun *RunResult
}

// NewBackupScheduler creates a new scheduler instance
func NewBackupScheduler(runner BackupRunner, journal *audit.Journal, config BackupConfig) *BackupScheduler {
	if config.Schedule == "" {
		config.Schedule = DefaultBackupSchedule
	}
	return &BackupScheduler{
		runner:  runner,
		journal: journal,
		config:  config,
		cron:    cron.New(cron.WithParser(parser)),
	}
}

// Start begins the scheduler if scheduled backups are enabled
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Backup scheduler: disabled")
		return nil
	}

	if s.config.Dir == "" {
		log.Printf("Backup scheduler: backup directory not configured, skipping")
		return nil
	}

	if err := ValidateCronSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.RunNow(); err != nil {
			log.Printf("Backup scheduler: run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule backup job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := GetNextRunTime(s.config.Schedule, time.Now())
	log.Printf("Backup scheduler: started with schedule '%s' (%s). Next run: %v",
		s.config.Schedule,
		GetCronDescription(s.config.Schedule),
		nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running backup to finish and stops the scheduler
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron.Remove(s.entryID)

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Backup scheduler: stopped")
}

// RunNow performs one backup followed by pruning, regardless of whether the
// schedule is active.
func (s *BackupScheduler) RunNow() (*RunResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	result := &RunResult{At: time.Now()}
	defer func() { s.lastRun = result }()

	if s.config.Dir == "" {
		err := fmt.Errorf("backup directory not configured")
		result.Error = err.Error()
		return result, err
	}

	log.Printf("Backup scheduler: writing backup to %s", s.config.Dir)
	info, err := s.runner.BackupToDir(s.config.Dir)
	if err != nil {
		s.journal.RecordResult(entities.AuditActionBackup, AuditTrigger, s.config.Dir, 0, "scheduled backup", err)
		result.Error = err.Error()
		return result, err
	}
	result.Backup = info
	s.journal.RecordResult(entities.AuditActionBackup, AuditTrigger, info.Path, info.SizeBytes, "scheduled backup", nil)

	pruned, err := s.runner.Prune(s.config.Dir, s.config.Retention)
	result.Pruned = pruned
	if pruned > 0 || err != nil {
		s.journal.RecordResult(entities.AuditActionPrune, AuditTrigger, s.config.Dir, 0,
			fmt.Sprintf("removed %d old backups, keeping %d", pruned, s.config.Retention), err)
	}
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	result.Success = true
	log.Printf("Backup scheduler: wrote %s (%d bytes), pruned %d", info.Name, info.SizeBytes, pruned)
	return result, nil
}

// IsRunning returns whether the scheduler is active
func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next backup will occur, nil when stopped.
func (s *BackupScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// LastRun returns the result of the most recent run, nil before the first.
func (s *BackupScheduler) LastRun() *RunResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.lastRun
}

// Config returns the scheduler settings.
func (s *BackupScheduler) Config() BackupConfig {
	return s.config
}
