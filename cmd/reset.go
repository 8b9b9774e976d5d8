package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/andresmejia3/fargo/internal/store"
	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop the catalog tables from the database",
	Long:  "Clears clients, files and protocols. The schema is recreated the next time the database is opened.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		dsn := store.Redact(cfg.Database(dbURL))

		reader := bufio.NewReader(cmd.InOrStdin())
		if !resetYes && !confirm(reader, fmt.Sprintf("⚠️  Are you sure you want to DROP all tables of %s?", dsn)) {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}

		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "🗑️  Clearing Database...")
		if err := s.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		fmt.Fprintln(os.Stderr, "✨ Database Reset Complete.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}
