package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/linkboard/internal/browse"
	"github.com/JonMunkholm/linkboard/internal/core"
)

// report is the machine-readable form of one analyzed view.
type report struct {
	Source     string          `json:"source" yaml:"source"`
	Criteria   core.Criteria   `json:"criteria" yaml:"criteria"`
	Page       int             `json:"page" yaml:"page"`
	TotalPages int             `json:"totalPages" yaml:"totalPages"`
	Aggregates core.Aggregates `json:"aggregates" yaml:"aggregates"`
	Charts     core.Charts     `json:"charts" yaml:"charts"`
	Rows       []core.Row      `json:"rows" yaml:"rows"`
}

func newReport(source string, v core.ViewState, all bool) report {
	rows := v.Window
	if all {
		rows = v.Filtered
	}
	return report{
		Source:     source,
		Criteria:   v.Criteria,
		Page:       v.Page,
		TotalPages: v.TotalPages,
		Aggregates: v.Aggregates,
		Charts:     core.BuildCharts(v.Aggregates),
		Rows:       rows,
	}
}

type analyzeOptions struct {
	criteriaFlags
	format string
	all    bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file.csv>",
		Short: "Summarize a review file and print one page of the filtered view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.criteria()
			if err != nil {
				return err
			}
			rows, err := loadDataset(args[0], root.maxBytes)
			if err != nil {
				return err
			}
			v := core.DeriveView(rows, c, opts.page)
			return writeReport(cmd.OutOrStdout(), opts.format, newReport(args[0], v, opts.all), v)
		},
	}

	opts.bind(cmd.Flags(), true)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "output format (table, json, yaml)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "include every filtered row in json/yaml output instead of one page")
	return cmd
}

// writeReport renders r in format. The table format draws v directly.
func writeReport(w io.Writer, format string, r report, v core.ViewState) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		_, err := fmt.Fprint(w, renderText(r.Source, v))
		return err
	}
	return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
}

// renderText is the human-readable report shared by analyze and watch.
func renderText(source string, v core.ViewState) string {
	out := source + "\n" + browse.RenderSummary(v) + "\n"
	if v.Aggregates.Total == 0 {
		return out + "No reviews match the current filters.\n"
	}
	return out + browse.RenderTable(v) + "\n" +
		fmt.Sprintf("Page %s of %d\n", browse.RenderPageStrip(v), v.TotalPages)
}
