package storage

import (
	"context"

	"github.com/julianstephens/daybook/internal/models"
)

// Provider is the durable per-user store behind day records.
//
// Record and template getters return (nil, nil) when nothing is stored.
// I/O failures wrap errors.ErrStoreUnavailable.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Day records
	GetRecord(ctx context.Context, userID, dateKey string) (*models.DayRecord, error)
	UpsertRecord(ctx context.Context, record models.DayRecord) error
	// QueryMostRecent returns records strictly before beforeDateKey, newest
	// first. A non-positive limit returns all of them.
	QueryMostRecent(ctx context.Context, userID, beforeDateKey string, limit int) ([]models.DayRecord, error)

	// Templates
	GetTemplate(ctx context.Context, userID string) (*models.Template, error)
	SaveTemplate(ctx context.Context, tpl models.Template) error

	// Utils
	GetConfigPath() string
}

// Versioned is implemented by SQL-backed providers that track a schema version.
type Versioned interface {
	SchemaVersion() (current, latest int, err error)
}
