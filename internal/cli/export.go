package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/linkboard/internal/core"
)

type exportOptions struct {
	criteriaFlags
	output string
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Write the filtered, sorted view as CSV",
		Long: `Export writes every row matching the filters, in sort order, with
the header Ulasan,Rating,Kategori,Nama Produk,Sentiment. Use -o - to
write to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.criteria()
			if err != nil {
				return err
			}
			rows, err := loadDataset(args[0], root.maxBytes)
			if err != nil {
				return err
			}
			v := core.DeriveView(rows, c, 1)

			if opts.output == "-" {
				return core.WriteExport(cmd.OutOrStdout(), v.Filtered)
			}

			f, err := os.Create(opts.output)
			if err != nil {
				return err
			}
			if err := core.WriteExport(f, v.Filtered); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			slog.Info("export written", "path", opts.output, "rows", len(v.Filtered))
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d rows to %s\n", len(v.Filtered), opts.output)
			return nil
		},
	}

	opts.bind(cmd.Flags(), false)
	cmd.Flags().StringVarP(&opts.output, "output", "o", core.ExportFileName, "output path, or - for stdout")
	return cmd
}
