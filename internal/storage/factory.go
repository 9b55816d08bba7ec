package storage

import (
	"errors"
	"strings"

	"github.com/julianstephens/daybook/internal/constants"
	"github.com/julianstephens/daybook/internal/storage/docstore"
	"github.com/julianstephens/daybook/internal/storage/postgres"
	"github.com/julianstephens/daybook/internal/storage/sqlite"
)

// Backend names the store implementation chosen for a config value.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendDocStore Backend = "docstore"
)

// IsPostgres reports whether config is a PostgreSQL connection URL.
func IsPostgres(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

// BackendFor picks the backend for a config value: a PostgreSQL URL, a
// document store directory ending in ".d", or a SQLite file.
func BackendFor(config string) Backend {
	switch {
	case IsPostgres(config):
		return BackendPostgres
	case strings.HasSuffix(strings.TrimRight(config, "/"), constants.DocStoreSuffix):
		return BackendDocStore
	default:
		return BackendSQLite
	}
}

// New returns an unopened Provider for config. Paths must already be expanded.
func New(config string) Provider {
	switch BackendFor(config) {
	case BackendPostgres:
		return postgres.New(config)
	case BackendDocStore:
		return docstore.New(strings.TrimRight(config, "/"))
	default:
		return sqlite.New(config)
	}
}

// HasEmbeddedCredentials reports whether a PostgreSQL connection string
// carries a password.
func HasEmbeddedCredentials(connStr string) bool {
	_, err := postgres.ValidateConnString(connStr)
	return errors.Is(err, postgres.ErrEmbeddedCredentials)
}

var (
	_ Provider = (*sqlite.Store)(nil)
	_ Provider = (*postgres.Store)(nil)
	_ Provider = (*docstore.Store)(nil)

	_ Versioned = (*sqlite.Store)(nil)
	_ Versioned = (*postgres.Store)(nil)
)
