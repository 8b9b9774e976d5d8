// Package store persists a built catalog so query commands do not rescan the
// images tree. PostgreSQL and an embedded SQLite file are supported.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andresmejia3/fargo/internal/catalog"
	"github.com/andresmejia3/fargo/internal/logger"
	"github.com/andresmejia3/fargo/internal/types"
)

// Store saves and restores catalog snapshots.
type Store interface {
	// Save replaces any previous snapshot.
	Save(ctx context.Context, c *catalog.Catalog, purposes []types.ProtocolPurpose) error
	// Load returns the snapshot, or an error wrapping types.ErrNotFound if none was saved.
	Load(ctx context.Context) (*Snapshot, error)
	// Reset drops every table.
	Reset(ctx context.Context) error
	Close(ctx context.Context) error
}

// Snapshot is what Load restores.
type Snapshot struct {
	Catalog  *catalog.Catalog
	Purposes []types.ProtocolPurpose
}

// Open picks the backend from the DSN: postgres:// and postgresql:// URLs go
// to PostgreSQL, anything else is an SQLite path with an optional sqlite:// prefix.
func Open(ctx context.Context, dsn string, log *logger.Logger) (Store, error) {
	log = logger.OrNop(log)
	if IsPostgres(dsn) {
		return NewPostgres(ctx, dsn, log)
	}
	path := strings.TrimPrefix(dsn, "sqlite://")
	if path == "" {
		return nil, errors.New("empty database path")
	}
	return NewSQLite(ctx, path, log)
}

// IsPostgres reports whether dsn addresses a PostgreSQL server.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Redact hides the password of a PostgreSQL URL for display.
func Redact(dsn string) string {
	if !IsPostgres(dsn) {
		return dsn
	}
	scheme, rest, _ := strings.Cut(dsn, "://")
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":xxxxx@" + host
}

var errNothingToSave = errors.New("refusing to save a catalog without clients")

var errEmpty = fmt.Errorf("%w: no catalog saved, run \"fargo create\" first", types.ErrNotFound)

// restore rebuilds and validates a catalog from stored rows.
func restore(clients []types.Client, files []types.File, purposes []types.ProtocolPurpose) (*Snapshot, error) {
	if len(clients) == 0 {
		return nil, errEmpty
	}
	c, err := catalog.New(clients, files)
	if err != nil {
		return nil, fmt.Errorf("stored catalog is inconsistent: %w", err)
	}
	return &Snapshot{Catalog: c, Purposes: purposes}, nil
}
