package store

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/andresmejia3/fargo/internal/catalog"
	"github.com/andresmejia3/fargo/internal/logger"
	"github.com/andresmejia3/fargo/internal/types"
)

const batchSize = 500

type clientRow struct {
	ID    int    `gorm:"primaryKey;autoIncrement:false"`
	Group string `gorm:"column:sgroup;not null"`
}

func (clientRow) TableName() string { return "client" }

type fileRow struct {
	ID          int    `gorm:"primaryKey;autoIncrement:false"`
	ClientID    int    `gorm:"not null;index"`
	Path        string `gorm:"not null;uniqueIndex"`
	Light       string `gorm:"not null"`
	Device      string `gorm:"not null"`
	Recording   int    `gorm:"not null"`
	Modality    string `gorm:"not null"`
	Pose        string `gorm:"not null"`
	Orientation string `gorm:"not null;default:''"`
	Shot        int    `gorm:"not null"`
}

func (fileRow) TableName() string { return "file" }

type protocolRow struct {
	ID       uint         `gorm:"primaryKey"`
	Name     string       `gorm:"not null;uniqueIndex"`
	Purposes []purposeRow `gorm:"foreignKey:ProtocolID"`
}

func (protocolRow) TableName() string { return "protocol" }

type purposeRow struct {
	ID         uint   `gorm:"primaryKey"`
	ProtocolID uint   `gorm:"not null;uniqueIndex:idx_protocol_purpose"`
	Group      string `gorm:"column:sgroup;not null;uniqueIndex:idx_protocol_purpose"`
	Purpose    string `gorm:"not null;uniqueIndex:idx_protocol_purpose"`
}

func (purposeRow) TableName() string { return "protocol_purpose" }

// SQLite stores snapshots in a single local file through gorm.
type SQLite struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSQLite opens (creating if needed) the database file at path and migrates the schema.
func NewSQLite(ctx context.Context, path string, log *logger.Logger) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	s := &SQLite{db: db, log: logger.OrNop(log)}
	if err := s.migrate(ctx); err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&clientRow{}, &fileRow{}, &protocolRow{}, &purposeRow{})
}

func (s *SQLite) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save replaces the stored snapshot in one transaction.
func (s *SQLite) Save(ctx context.Context, c *catalog.Catalog, purposes []types.ProtocolPurpose) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"protocol_purpose", "protocol", "file", "client"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}

		clients := make([]clientRow, 0, len(c.Clients()))
		for _, cl := range c.Clients() {
			clients = append(clients, clientRow{ID: cl.ID, Group: string(cl.Group)})
		}
		if len(clients) == 0 {
			return errNothingToSave
		}
		if err := tx.CreateInBatches(&clients, batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert clients: %w", err)
		}

		files := make([]fileRow, 0, c.Len())
		for _, f := range c.Files() {
			files = append(files, fileRow{
				ID: f.ID, ClientID: f.ClientID, Path: f.Path,
				Light: string(f.Light), Device: string(f.Device), Recording: int(f.Recording),
				Modality: string(f.Modality), Pose: string(f.Pose), Orientation: f.Orientation, Shot: f.Shot,
			})
		}
		if len(files) > 0 {
			if err := tx.CreateInBatches(&files, batchSize).Error; err != nil {
				return fmt.Errorf("failed to insert files: %w", err)
			}
		}
		s.log.Debug("inserted catalog rows", "clients", len(clients), "files", len(files))

		var protocols []protocolRow
		index := make(map[string]int)
		for _, pp := range purposes {
			i, ok := index[pp.Protocol]
			if !ok {
				i = len(protocols)
				index[pp.Protocol] = i
				protocols = append(protocols, protocolRow{Name: pp.Protocol})
			}
			protocols[i].Purposes = append(protocols[i].Purposes, purposeRow{Group: string(pp.Group), Purpose: string(pp.Purpose)})
		}
		if len(protocols) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&protocols, batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert protocols: %w", err)
		}
		return nil
	})
}

// Load reads the snapshot back.
func (s *SQLite) Load(ctx context.Context) (*Snapshot, error) {
	db := s.db.WithContext(ctx)

	var clientRows []clientRow
	if err := db.Order("id").Find(&clientRows).Error; err != nil {
		return nil, err
	}
	var fileRows []fileRow
	if err := db.Order("id").Find(&fileRows).Error; err != nil {
		return nil, err
	}
	var protocolRows []protocolRow
	err := db.Preload("Purposes", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("id").Find(&protocolRows).Error
	if err != nil {
		return nil, err
	}

	clients := make([]types.Client, len(clientRows))
	for i, r := range clientRows {
		clients[i] = types.Client{ID: r.ID, Group: types.Group(r.Group)}
	}
	files := make([]types.File, len(fileRows))
	for i, r := range fileRows {
		files[i] = types.File{
			ID: r.ID, ClientID: r.ClientID, Path: r.Path,
			Light: types.Light(r.Light), Device: types.Device(r.Device), Recording: types.Recording(r.Recording),
			Modality: types.Modality(r.Modality), Pose: types.Pose(r.Pose), Orientation: r.Orientation, Shot: r.Shot,
		}
	}
	var purposes []types.ProtocolPurpose
	for _, p := range protocolRows {
		for _, r := range p.Purposes {
			purposes = append(purposes, types.ProtocolPurpose{Protocol: p.Name, Group: types.Group(r.Group), Purpose: types.Purpose(r.Purpose)})
		}
	}
	return restore(clients, files, purposes)
}

// Reset drops all application tables. The schema is recreated on the next open.
func (s *SQLite) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Migrator().DropTable(&purposeRow{}, &protocolRow{}, &fileRow{}, &clientRow{})
}
