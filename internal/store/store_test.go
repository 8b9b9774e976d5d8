package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/andresmejia3/fargo/internal/catalog/catalogtest"
	"github.com/andresmejia3/fargo/internal/protocol"
	"github.com/andresmejia3/fargo/internal/types"
)

var smallLayout = catalogtest.Layout{Clients: 6, Shots: 2, PoseShots: 1}

func purposes(t *testing.T, names ...string) []types.ProtocolPurpose {
	t.Helper()
	var out []types.ProtocolPurpose
	for _, name := range names {
		pp, err := protocol.Default().Purposes(name)
		require.NoError(t, err)
		out = append(out, pp...)
	}
	return out
}

// roundTrip saves a small catalog, loads it back and checks both match.
func roundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, types.ErrNotFound)

	c := smallLayout.Catalog(t, types.Partition{WorldMax: 2, DevMax: 4})
	pp := purposes(t, "mc-rgb", "pos-yaw_left-ud-nir")
	require.NoError(t, s.Save(ctx, c, pp))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.Clients(), snap.Catalog.Clients())
	assert.Equal(t, c.Files(), snap.Catalog.Files())
	assert.Equal(t, pp, snap.Purposes)

	// Saving again replaces the previous snapshot.
	smaller := catalogtest.Layout{Clients: 2, Shots: 1}.Catalog(t, types.Partition{WorldMax: 1, DevMax: 2})
	require.NoError(t, s.Save(ctx, smaller, purposes(t, "ud-depth")))
	snap, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, smaller.Len(), snap.Catalog.Len())
	assert.Len(t, snap.Purposes, 5)

	require.NoError(t, s.Reset(ctx))
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fargo.sql3")

	s, err := Open(ctx, "sqlite://"+path, nil)
	require.NoError(t, err)
	require.IsType(t, &SQLite{}, s)
	roundTrip(t, s)
	require.NoError(t, s.Close(ctx))

	// Reset dropped the tables; reopening recreates an empty schema.
	s, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close(ctx)
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSQLiteRejectsEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "empty.sql3"), nil)
	require.NoError(t, err)
	defer s.Close(ctx)

	empty := catalogtest.Layout{}.Catalog(t, types.DefaultPartition)
	assert.ErrorIs(t, s.Save(ctx, empty, nil), errNothingToSave)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "sqlite://", nil)
	assert.Error(t, err)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://fargo:xxxxx@db:5432/fargo", Redact("postgres://fargo:secret@db:5432/fargo"))
	assert.Equal(t, "postgres://db:5432/fargo", Redact("postgres://db:5432/fargo"))
	assert.Equal(t, "fargo.sql3", Redact("fargo.sql3"))
	assert.True(t, IsPostgres("postgresql://db/fargo"))
	assert.False(t, IsPostgres("sqlite://fargo.sql3"))
}

// TestPostgresIntegration runs the round trip against a real Postgres container.
// It requires Docker to be running.
func TestPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// We wrap this in a function to recover from panics inside testcontainers (e.g. socket not found)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		cli, err := testcontainers.NewDockerClientWithOpts(ctx)
		if err != nil {
			return err
		}
		defer cli.Close()
		_, err = cli.Ping(ctx)
		return err
	}()
	if err != nil {
		t.Skipf("Docker not available, skipping integration test: %v", err)
	}

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("fargo_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(noopLogger{}),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	s, err := Open(ctx, connStr, nil)
	if err != nil {
		t.Fatalf("Failed to connect to store: %v", err)
	}
	defer s.Close(ctx)
	require.IsType(t, &Postgres{}, s)

	roundTrip(t, s)
}

type noopLogger struct{}

func (n noopLogger) Printf(format string, v ...interface{}) {}
