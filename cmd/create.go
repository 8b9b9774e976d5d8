package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/andresmejia3/fargo/internal/catalog"
	"github.com/andresmejia3/fargo/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var createRecreate bool

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Scan the images tree and store the catalog in the database",
	Long: `Walks --images (layout <client>/<light>/SR300-<device>/<recording>/<stream>[/<orientation>]/<shot>),
assigns clients to world/dev/eval by id and saves clients, files and protocol purposes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if imagesDir == "" {
			return errors.New("--images (or FARGO_IMAGES_DIR) is required")
		}
		cmd.SilenceUsage = true
		ctx := cmd.Context()

		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		s, err := openStore(ctx)
		if err != nil {
			return err
		}

		if !createRecreate {
			if snap, err := s.Load(ctx); err == nil {
				fmt.Fprintf(os.Stderr, "⚠️  Catalog already exists (%d clients, %d files). Use --recreate to rebuild it.\n",
					len(snap.Catalog.Clients()), snap.Catalog.Len())
				return nil
			} else if !errors.Is(err, types.ErrNotFound) {
				log.Warn("existing catalog could not be read, rebuilding", "error", err)
			}
		}

		clients, err := catalog.ClientDirs(imagesDir)
		if err != nil {
			return fmt.Errorf("failed to list clients in %s: %w", imagesDir, err)
		}

		bar := progressbar.NewOptions(len(clients),
			progressbar.OptionSetDescription("📂 FARGO Scanning"),
			progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
			progressbar.OptionShowCount(),
		)
		opts := buildOptions()
		opts.Progress = func(int) { bar.Add(1) }

		start := time.Now()
		c, err := catalog.Build(ctx, imagesDir, opts)
		bar.Finish()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", imagesDir, err)
		}

		var purposes []types.ProtocolPurpose
		for _, name := range reg.Names() {
			pp, err := reg.Purposes(name)
			if err != nil {
				return err
			}
			purposes = append(purposes, pp...)
		}

		fmt.Fprintln(os.Stderr, "💾 Saving catalog...")
		if err := s.Save(ctx, c, purposes); err != nil {
			return fmt.Errorf("failed to save catalog: %w", err)
		}

		fmt.Fprintf(os.Stderr, "✨ Catalog created: %d clients, %d files, %d protocols in %s\n",
			len(c.Clients()), c.Len(), len(reg.Names()), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	createCmd.Flags().BoolVar(&createRecreate, "recreate", false, "Drop the stored catalog and rebuild it")
	rootCmd.AddCommand(createCmd)
}
