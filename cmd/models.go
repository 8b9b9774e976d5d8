package cmd

import (
	"fmt"

	"github.com/andresmejia3/fargo/internal/types"
	"github.com/andresmejia3/fargo/internal/utils"
	"github.com/spf13/cobra"
)

var modelGroups []string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Print the model ids (client ids) of the given groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		e, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		ids, err := e.ModelIDs(utils.SplitList(modelGroups))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, id := range ids {
			fmt.Fprintln(out, types.FormatClientID(id))
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringSliceVarP(&modelGroups, "groups", "g", nil, "Groups: world (train), dev, eval (default all)")
	rootCmd.AddCommand(modelsCmd)
}
