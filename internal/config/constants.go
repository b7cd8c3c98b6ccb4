package config

const (
	// DefaultDatabasePath is the default path for the library database
	DefaultDatabasePath = "./booklet.db"

	// DefaultBackupDir is where scheduled and CLI backups go by default
	DefaultBackupDir = "./backups"

	// DefaultBackupExtension is appended to every backup artifact
	DefaultBackupExtension = ".booklet-backup"
)
