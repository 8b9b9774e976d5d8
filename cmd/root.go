package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/andresmejia3/fargo/internal/catalog"
	"github.com/andresmejia3/fargo/internal/config"
	"github.com/andresmejia3/fargo/internal/logger"
	"github.com/andresmejia3/fargo/internal/protocol"
	"github.com/andresmejia3/fargo/internal/query"
	"github.com/andresmejia3/fargo/internal/store"
	"github.com/andresmejia3/fargo/internal/types"
	"github.com/andresmejia3/fargo/internal/utils"
	"github.com/spf13/cobra"
)

var (
	// DB is the store shared by subcommands, opened on first use
	DB store.Store
	// cfg is the environment configuration, resolved before any command runs
	cfg *config.Config
	log *logger.Logger

	dbURL         string
	imagesDir     string
	protocolsFile string
	verbosity     int
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "fargo",
	Short:   "FARGO face verification database: catalog, protocols and file lists",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		// Flags override the environment
		if imagesDir == "" {
			imagesDir = cfg.ImagesDir
		}
		if protocolsFile == "" {
			protocolsFile = cfg.ProtocolsFile
		}
		log, err = logger.New(cfg.LogMode, verbosity)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		cleanup()
	},
}

// cleanup closes the store and flushes the logger. Cobra skips
// PersistentPostRun when a command fails, so Execute calls it on that path too.
func cleanup() {
	if DB != nil {
		// Use Background here because the main context might be cancelled already (due to Ctrl+C)
		// and we still need to close the connection cleanly.
		if err := DB.Close(context.Background()); err != nil {
			logger.OrNop(log).Warn("failed to close database", "error", err)
		}
		DB = nil
	}
	if log != nil {
		log.Sync()
	}
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// Errors are reported once, through the error box.
	rootCmd.SilenceErrors = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		cleanup()
		utils.Die("Command failed", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Catalog database: a postgres:// URL or an SQLite file (default: "+config.DefaultDatabase+")")
	rootCmd.PersistentFlags().StringVar(&imagesDir, "images", "", "Root of the extracted images tree; query commands scan it instead of reading the database")
	rootCmd.PersistentFlags().StringVar(&protocolsFile, "protocols", "", "YAML protocol table overriding the built-in one")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
}

// openStore connects to the configured database once per process.
func openStore(ctx context.Context) (store.Store, error) {
	if DB != nil {
		return DB, nil
	}
	dsn := cfg.Database(dbURL)
	log.Info("opening database", "dsn", store.Redact(dsn))
	s, err := store.Open(ctx, dsn, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %w", store.Redact(dsn), err)
	}
	DB = s
	return DB, nil
}

func loadRegistry() (*protocol.Registry, error) {
	r, err := protocol.LoadFile(protocolsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load protocol table: %w", err)
	}
	return r, nil
}

// errProtocolMismatch reports a stored catalog created with another protocol table.
var errProtocolMismatch = errors.New("stored catalog was created with a different protocol table")

// storedProtocols lists the protocol names of a snapshot in stored order.
func storedProtocols(purposes []types.ProtocolPurpose) []string {
	var names []string
	for _, pp := range purposes {
		if !slices.Contains(names, pp.Protocol) {
			names = append(names, pp.Protocol)
		}
	}
	return names
}

// checkStoredProtocols compares the loaded table with the one saved by create.
// Without --protocols a difference is an error; an explicit table only warns.
func checkStoredProtocols(reg *protocol.Registry, purposes []types.ProtocolPurpose) error {
	stored := storedProtocols(purposes)
	if slices.Equal(stored, reg.Names()) {
		return nil
	}
	if protocolsFile != "" {
		log.Warn("protocol table differs from the one stored with the catalog",
			"file", protocolsFile, "stored", len(stored), "loaded", len(reg.Names()))
		return nil
	}
	return fmt.Errorf("%w (%d stored protocols, %d built in): pass the table given to create with --protocols",
		errProtocolMismatch, len(stored), len(reg.Names()))
}

// buildOptions carries the configured scan settings.
func buildOptions() catalog.BuildOptions {
	return catalog.BuildOptions{
		Partition: cfg.Partition(),
		Extension: cfg.Extension,
		Workers:   cfg.ScanWorkers,
		Logger:    log,
	}
}

// loadEngine scans --images when given, otherwise restores the catalog from the database.
func loadEngine(ctx context.Context) (*query.Engine, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}

	var c *catalog.Catalog
	if imagesDir != "" {
		c, err = catalog.Build(ctx, imagesDir, buildOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", imagesDir, err)
		}
	} else {
		s, err := openStore(ctx)
		if err != nil {
			return nil, err
		}
		snap, err := s.Load(ctx)
		if err != nil {
			return nil, err
		}
		if err := checkStoredProtocols(reg, snap.Purposes); err != nil {
			return nil, err
		}
		c = snap.Catalog
	}
	log.Info("catalog ready", "clients", len(c.Clients()), "files", c.Len())
	return query.New(c, reg), nil
}
