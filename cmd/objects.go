package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/andresmejia3/fargo/internal/query"
	"github.com/andresmejia3/fargo/internal/utils"
	"github.com/spf13/cobra"
)

var (
	objProtocol  string
	objGroups    []string
	objPurposes  []string
	objModelIDs  []string
	objDirectory string
	objExtension string
)

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "Print the files of a protocol, one path per line",
	Long: `Selects files by protocol, groups and purposes. --model-ids restricts
enrollment files only; probes are always returned in full.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if objProtocol == "" {
			return errors.New("--protocol is required")
		}
		modelIDs, err := utils.ParseIDs(objModelIDs)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		e, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		req := query.Request{
			Protocol: objProtocol,
			Groups:   utils.SplitList(objGroups),
			Purposes: utils.SplitList(objPurposes),
			ModelIDs: modelIDs,
		}
		log.Debug("running query", "request", req.String())

		files, err := e.Objects(req)
		if err != nil {
			return err
		}

		w := bufio.NewWriter(cmd.OutOrStdout())
		for _, f := range files {
			path := f.Path
			if objDirectory != "" || objExtension != "" {
				path = f.MakePath(objDirectory, objExtension)
			}
			fmt.Fprintln(w, path)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✅ %d files\n", len(files))
		return nil
	},
}

func init() {
	objectsCmd.Flags().StringVarP(&objProtocol, "protocol", "p", "", "Protocol name (see 'fargo protocols')")
	objectsCmd.Flags().StringSliceVarP(&objGroups, "groups", "g", nil, "Groups: world (train), dev, eval (default all)")
	objectsCmd.Flags().StringSliceVarP(&objPurposes, "purposes", "u", nil, "Purposes: train, enroll, probe (default all)")
	objectsCmd.Flags().StringSliceVarP(&objModelIDs, "model-ids", "m", nil, "Restrict enrollment files to these client ids")
	objectsCmd.Flags().StringVarP(&objDirectory, "directory", "d", "", "Prefix printed paths with this directory")
	objectsCmd.Flags().StringVarP(&objExtension, "extension", "e", "", "Append this extension to printed paths")
	rootCmd.AddCommand(objectsCmd)
}
