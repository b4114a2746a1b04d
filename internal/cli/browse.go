package cli

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/linkboard/internal/browse"
	"github.com/JonMunkholm/linkboard/internal/core"
)

func newBrowseCmd(root *rootOptions) *cobra.Command {
	var (
		flags  criteriaFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "browse <file.csv>",
		Short: "Explore a review file interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.criteria()
			if err != nil {
				return err
			}
			rows, err := loadDataset(args[0], root.maxBytes)
			if err != nil {
				return err
			}

			ws := core.NewWorkspace()
			ws.Load(args[0], rows)
			ws.Apply(c)
			return browse.Run(browse.NewWithWorkspace(ws, output))
		},
	}

	flags.bind(cmd.Flags(), false)
	cmd.Flags().StringVarP(&output, "output", "o", core.ExportFileName, "path written by the export action")
	return cmd
}
