// Package audit keeps a journal of backup, restore and prune attempts as
// one JSON file per event. The journal lives outside the database so a
// restore cannot erase the record of itself.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mrlokans/booklet/internal/entities"
)

const maxErrorLength = 500

// Journal writes audit events into a directory. A journal with an empty
// directory, or a nil *Journal, records nothing.
type Journal struct {
	AuditDir string
	now      func() time.Time
}

func NewJournal(auditDir string) *Journal {
	return &Journal{
		AuditDir: auditDir,
		now:      time.Now,
	}
}

// Enabled reports whether events are written anywhere.
func (j *Journal) Enabled() bool {
	return j != nil && j.AuditDir != ""
}

// Record saves the event as <uuid>.json and returns the file name. ID and
// CreatedAt are filled in when empty.
func (j *Journal) Record(event entities.AuditEvent) (string, error) {
	if !j.Enabled() {
		return "", nil
	}
	if err := j.ensureAuditDir(); err != nil {
		return "", fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = j.now()
	}

	filename := fmt.Sprintf("%s.json", event.ID)
	path := filepath.Join(j.AuditDir, filename)

	jsonData, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal audit event: %w", err)
	}
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	return filename, nil
}

// RecordResult records the outcome of an action. A non-nil opErr marks the
// event failed. Journal write failures are logged, never returned.
func (j *Journal) RecordResult(action entities.AuditAction, trigger, path string, sizeBytes int64, description string, opErr error) {
	if !j.Enabled() {
		return
	}

	event := entities.AuditEvent{
		Action:      action,
		Trigger:     trigger,
		Path:        path,
		SizeBytes:   sizeBytes,
		Description: description,
		Status:      entities.AuditStatusSuccess,
	}
	if opErr != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(opErr.Error(), maxErrorLength)
	}

	if _, err := j.Record(event); err != nil {
		log.Printf("Failed to record %s audit event: %v", action, err)
	}
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
// Files that do not parse are skipped.
func (j *Journal) Recent(limit int) ([]entities.AuditEvent, error) {
	if !j.Enabled() {
		return []entities.AuditEvent{}, nil
	}

	entries, err := os.ReadDir(j.AuditDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []entities.AuditEvent{}, nil
		}
		return nil, fmt.Errorf("failed to read audit directory: %w", err)
	}

	events := make([]entities.AuditEvent, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(j.AuditDir, entry.Name()))
		if err != nil {
			continue
		}
		var event entities.AuditEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}
		events = append(events, event)
	}

	sort.Slice(events, func(a, b int) bool {
		return events[a].CreatedAt.After(events[b].CreatedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// ensureAuditDir creates the audit directory if it doesn't exist
func (j *Journal) ensureAuditDir() error {
	if _, err := os.Stat(j.AuditDir); os.IsNotExist(err) {
		if err := os.MkdirAll(j.AuditDir, 0755); err != nil {
			return fmt.Errorf("failed to create audit directory: %w", err)
		}
	}
	return nil
}

// truncate caps s at maxLen bytes, cutting on a rune boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
