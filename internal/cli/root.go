// Package cli implements the sentimen command: offline analysis, export,
// watching and browsing of review CSV files using the same core pipeline as
// the web dashboard.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/linkboard/internal/logging"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	logLevel  string
	logFormat string
	maxBytes  int64
}

// defaultMaxBytes matches the web upload limit.
const defaultMaxBytes = 10 << 20

// NewRootCmd builds the sentimen command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "sentimen",
		Short: "Sentiment analysis for product review CSV files",
		Long: `sentimen reads review exports with the columns
Ulasan, Rating, Kategori, Nama Produk and label, and reports
sentiment counts, rating distribution and filtered views.

Examples:
  sentimen analyze reviews.csv --sentiment negative --sort rating --desc
  sentimen export reviews.csv --kategori Elektronik -o elektronik.csv
  sentimen watch reviews.csv
  sentimen browse reviews.csv`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")
	root.PersistentFlags().Int64Var(&opts.maxBytes, "max-bytes", defaultMaxBytes, "maximum input file size in bytes (0 disables the limit)")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newExportCmd(opts),
		newWatchCmd(opts),
		newBrowseCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
