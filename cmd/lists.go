package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/andresmejia3/fargo/internal/filelist"
	"github.com/andresmejia3/fargo/internal/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	listsOut          string
	listsProtocols    []string
	listsSingleColumn bool
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Write the world, enrollment and probe file lists of each protocol",
	Long: `Writes <out>/<protocol>/norm/train_world.lst and
<out>/<protocol>/{dev,eval}/{for_models,for_probes}.lst for every selected protocol.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listsOut == "" {
			return errors.New("--out is required")
		}
		cmd.SilenceUsage = true
		ctx := cmd.Context()

		e, err := loadEngine(ctx)
		if err != nil {
			return err
		}
		names := utils.SplitList(listsProtocols)
		if len(names) == 0 {
			names = e.ProtocolNames()
		}

		opts := filelist.Options{DuplicateModelColumn: !listsSingleColumn, Logger: log}
		bar := progressbar.NewOptions(len(names),
			progressbar.OptionSetDescription("📝 Writing lists"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
		total := 0
		for _, name := range names {
			counts, err := filelist.Build(ctx, e, name, listsOut, opts)
			if err != nil {
				bar.Exit()
				return fmt.Errorf("protocol %s: %w", name, err)
			}
			for _, n := range counts {
				total += n
			}
			bar.Add(1)
		}
		bar.Finish()
		fmt.Fprintln(os.Stderr)

		fmt.Fprintf(os.Stderr, "✨ Wrote %d lists (%d records) under %s\n",
			len(names)*len(filelist.Lists(opts)), total, listsOut)
		return nil
	},
}

func init() {
	listsCmd.Flags().StringVarP(&listsOut, "out", "o", "", "Output directory")
	listsCmd.Flags().StringSliceVarP(&listsProtocols, "protocol", "p", nil, "Protocols to write (default all)")
	listsCmd.Flags().BoolVar(&listsSingleColumn, "single-model-column", false, "Write enrollment lists as '<path> <client>' instead of '<path> <model> <client>'")
	rootCmd.AddCommand(listsCmd)
}
