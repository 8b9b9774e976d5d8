package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andresmejia3/fargo/internal/catalog"
	"github.com/andresmejia3/fargo/internal/logger"
	"github.com/andresmejia3/fargo/internal/types"
)

// Postgres stores snapshots over a single pgx connection.
type Postgres struct {
	conn *pgx.Conn
	log  *logger.Logger
}

// NewPostgres connects and ensures the schema is initialized.
func NewPostgres(ctx context.Context, connString string, log *logger.Logger) (*Postgres, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Postgres{conn: conn, log: logger.OrNop(log)}, nil
}

// initSchema creates the tables if they don't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS client (
			id INTEGER PRIMARY KEY,
			sgroup TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS file (
			id INTEGER PRIMARY KEY,
			client_id INTEGER NOT NULL REFERENCES client(id),
			path TEXT NOT NULL UNIQUE,
			light TEXT NOT NULL,
			device TEXT NOT NULL,
			recording INTEGER NOT NULL,
			modality TEXT NOT NULL,
			pose TEXT NOT NULL,
			orientation TEXT NOT NULL DEFAULT '',
			shot INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS protocol (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS protocol_purpose (
			id SERIAL PRIMARY KEY,
			protocol_id INTEGER NOT NULL REFERENCES protocol(id),
			sgroup TEXT NOT NULL,
			purpose TEXT NOT NULL,
			UNIQUE (protocol_id, sgroup, purpose)
		);
		CREATE INDEX IF NOT EXISTS file_client_id_idx ON file (client_id);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Postgres) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// Save replaces the stored snapshot in one transaction.
func (s *Postgres) Save(ctx context.Context, c *catalog.Catalog, purposes []types.ProtocolPurpose) error {
	clients := c.Clients()
	if len(clients) == 0 {
		return errNothingToSave
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE protocol_purpose, protocol, file, client RESTART IDENTITY"); err != nil {
		return err
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"client"}, []string{"id", "sgroup"},
		pgx.CopyFromSlice(len(clients), func(i int) ([]any, error) {
			return []any{clients[i].ID, string(clients[i].Group)}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to copy clients: %w", err)
	}
	s.log.Debug("copied clients", "rows", n)

	files := c.Files()
	n, err = tx.CopyFrom(ctx, pgx.Identifier{"file"},
		[]string{"id", "client_id", "path", "light", "device", "recording", "modality", "pose", "orientation", "shot"},
		pgx.CopyFromSlice(len(files), func(i int) ([]any, error) {
			f := files[i]
			return []any{f.ID, f.ClientID, f.Path, string(f.Light), string(f.Device), int(f.Recording),
				string(f.Modality), string(f.Pose), f.Orientation, f.Shot}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to copy files: %w", err)
	}
	s.log.Debug("copied files", "rows", n)

	ids := make(map[string]int)
	for _, pp := range purposes {
		id, ok := ids[pp.Protocol]
		if !ok {
			if err := tx.QueryRow(ctx, "INSERT INTO protocol (name) VALUES ($1) RETURNING id", pp.Protocol).Scan(&id); err != nil {
				return fmt.Errorf("failed to insert protocol %s: %w", pp.Protocol, err)
			}
			ids[pp.Protocol] = id
		}
		if _, err := tx.Exec(ctx, "INSERT INTO protocol_purpose (protocol_id, sgroup, purpose) VALUES ($1, $2, $3)",
			id, string(pp.Group), string(pp.Purpose)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", pp, err)
		}
	}

	return tx.Commit(ctx)
}

// Load reads the snapshot back.
func (s *Postgres) Load(ctx context.Context) (*Snapshot, error) {
	clients, err := collect(ctx, s.conn, "SELECT id, sgroup FROM client ORDER BY id", func(row pgx.CollectableRow) (types.Client, error) {
		var cl types.Client
		var group string
		err := row.Scan(&cl.ID, &group)
		cl.Group = types.Group(group)
		return cl, err
	})
	if err != nil {
		return nil, err
	}

	files, err := collect(ctx, s.conn, `
		SELECT id, client_id, path, light, device, recording, modality, pose, orientation, shot
		FROM file ORDER BY id
	`, func(row pgx.CollectableRow) (types.File, error) {
		var f types.File
		var light, device, modality, pose string
		var rec int
		err := row.Scan(&f.ID, &f.ClientID, &f.Path, &light, &device, &rec, &modality, &pose, &f.Orientation, &f.Shot)
		f.Light, f.Device, f.Recording = types.Light(light), types.Device(device), types.Recording(rec)
		f.Modality, f.Pose = types.Modality(modality), types.Pose(pose)
		return f, err
	})
	if err != nil {
		return nil, err
	}

	purposes, err := collect(ctx, s.conn, `
		SELECT p.name, pp.sgroup, pp.purpose
		FROM protocol_purpose pp JOIN protocol p ON p.id = pp.protocol_id
		ORDER BY pp.id
	`, func(row pgx.CollectableRow) (types.ProtocolPurpose, error) {
		var pp types.ProtocolPurpose
		var group, purpose string
		err := row.Scan(&pp.Protocol, &group, &purpose)
		pp.Group, pp.Purpose = types.Group(group), types.Purpose(purpose)
		return pp, err
	})
	if err != nil {
		return nil, err
	}

	return restore(clients, files, purposes)
}

func collect[T any](ctx context.Context, conn *pgx.Conn, query string, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}

// Reset drops all application tables to clear the database state.
// The schema is recreated on the next connection.
func (s *Postgres) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS protocol_purpose CASCADE;
		DROP TABLE IF EXISTS protocol CASCADE;
		DROP TABLE IF EXISTS file CASCADE;
		DROP TABLE IF EXISTS client CASCADE;
	`)
	return err
}
