package config

import (
	"strings"

	"github.com/spf13/viper"
	"gorm.io/gorm/logger"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Backup
		Audit
	}

	HTTP struct {
		Port    int32
		Host    string
		GinMode string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path     string
		LogLevel string // silent, error, warn, info
	}
	Backup struct {
		Dir             string
		Extension       string
		ScheduleEnabled bool
		Schedule        string // Cron format: "0 3 * * *" = daily at 03:00
		Retention       int    // Scheduled backups to keep, 0 keeps all
	}
	Audit struct {
		Dir string // Empty disables the backup journal
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	// AUDIT_DIR="" turns the journal off instead of falling back to the default.
	v.AllowEmptyEnv(true)
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_log_level", "warn")
	v.SetDefault("backup_dir", DefaultBackupDir)
	v.SetDefault("backup_extension", DefaultBackupExtension)
	v.SetDefault("backup_schedule_enabled", false)
	v.SetDefault("backup_schedule", "0 3 * * *") // Daily at 03:00
	v.SetDefault("backup_retention", 7)
	v.SetDefault("audit_dir", "./audit")

	return &Config{
		HTTP: HTTP{
			Port:    v.GetInt32("PORT"),
			Host:    v.GetString("HOST"),
			GinMode: v.GetString("GIN_MODE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:     v.GetString("DATABASE_PATH"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Backup: Backup{
			Dir:             v.GetString("BACKUP_DIR"),
			Extension:       v.GetString("BACKUP_EXTENSION"),
			ScheduleEnabled: v.GetBool("BACKUP_SCHEDULE_ENABLED"),
			Schedule:        v.GetString("BACKUP_SCHEDULE"),
			Retention:       v.GetInt("BACKUP_RETENTION"),
		},
		Audit: Audit{
			Dir: v.GetString("AUDIT_DIR"),
		},
	}
}

// GormLogLevel maps DATABASE_LOG_LEVEL onto gorm's logger levels. Unknown
// values fall back to warn.
func (d Database) GormLogLevel() logger.LogLevel {
	switch strings.ToLower(d.LogLevel) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
