package constants

import "time"

const (
	AppName            = "daybook"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/daybook/daybook.db"
	Version            = "v0.1.0"

	// DateFormat is the canonical DateKey layout (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the task time anchor layout (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "daybook-"
	BackupFileSuffix = ".db"

	// Store retry constants, used by the CLI when the store reports a transient failure
	StoreMaxRetries   = 3
	StoreRetryBackoff = 200 * time.Millisecond

	// Environment variables
	EnvConnectionString = "DAYBOOK_DB_CONNECTION"
	EnvConfigPath       = "DAYBOOK_CONFIG"
	EnvUser             = "DAYBOOK_USER"

	// DocStoreSuffix marks a config path as a diskv document store directory
	DocStoreSuffix = ".d"
)
