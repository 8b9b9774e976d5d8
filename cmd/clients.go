package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/andresmejia3/fargo/internal/types"
	"github.com/andresmejia3/fargo/internal/utils"
	"github.com/spf13/cobra"
)

var clientGroups []string

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List the clients of the catalog and their groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		e, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		clients, err := e.Clients(utils.SplitList(clientGroups))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(clients) == 0 {
			fmt.Fprintln(out, "No clients found in catalog.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tGROUP")
		fmt.Fprintln(w, "--\t-----")
		for _, cl := range clients {
			fmt.Fprintf(w, "%s\t%s\n", types.FormatClientID(cl.ID), cl.Group)
		}
		return w.Flush()
	},
}

func init() {
	clientsCmd.Flags().StringSliceVarP(&clientGroups, "groups", "g", nil, "Groups: world (train), dev, eval (default all)")
	rootCmd.AddCommand(clientsCmd)
}
