package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/andresmejia3/fargo/internal/types"
	"github.com/spf13/cobra"
)

var protocolsVerbose bool

var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "List the evaluation protocols and their probe rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		// With an explicit database, list what its catalog was created with.
		if dbURL != "" && imagesDir == "" {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := s.Load(cmd.Context())
			switch {
			case err == nil:
				if err := checkStoredProtocols(reg, snap.Purposes); err != nil {
					return err
				}
			case !errors.Is(err, types.ErrNotFound):
				return err
			}
		}

		out := cmd.OutOrStdout()
		if !protocolsVerbose {
			for _, name := range reg.Names() {
				fmt.Fprintln(out, name)
			}
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tMODALITY\tPROBE LIGHT\tPROBE POSE\tORIENTATION\tRECORDINGS")
		fmt.Fprintln(w, "----\t--------\t-----------\t----------\t-----------\t----------")
		for _, p := range reg.Protocols() {
			fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%v\t%v\n",
				p.Name, p.Modality, p.Probe.Light, p.Probe.Pose, p.Probe.Orientation, p.Probe.Recording)
		}
		return w.Flush()
	},
}

func init() {
	protocolsCmd.Flags().BoolVarP(&protocolsVerbose, "long", "l", false, "Show the probe rule of every protocol")
	rootCmd.AddCommand(protocolsCmd)
}
