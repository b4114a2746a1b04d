package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/JonMunkholm/linkboard/internal/core"
)

// loadDataset reads and parses a review file. A file that yields no rows
// reports why: an empty file, a missing column, or a header with no data.
func loadDataset(path string, maxBytes int64) ([]core.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	text, err := core.ReadText(f, maxBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rows := core.Parse(text)
	if len(rows) == 0 {
		if err := core.ValidateHeader(text); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", path, core.ErrEmptyDataset, err)
		}
		return nil, fmt.Errorf("%s: %w", path, core.ErrEmptyDataset)
	}

	slog.Debug("dataset loaded", "path", path, "rows", len(rows), "bytes", len(text))
	return rows, nil
}

// criteriaFlags holds the filter and sort flags of a view command.
type criteriaFlags struct {
	search     string
	kategori   string
	namaProduk string
	sentiment  string
	sort       string
	desc       bool
	page       int
}

func (f *criteriaFlags) bind(fs *pflag.FlagSet, withPage bool) {
	fs.StringVarP(&f.search, "search", "s", "", "case-insensitive substring of the review text")
	fs.StringVar(&f.kategori, "kategori", "", "only rows in this category")
	fs.StringVar(&f.namaProduk, "produk", "", "only rows for this product")
	fs.StringVar(&f.sentiment, "sentiment", "", "only Positive or Negative rows")
	fs.StringVar(&f.sort, "sort", "", "sort by "+strings.Join(sortKeyNames(), ", "))
	fs.BoolVar(&f.desc, "desc", false, "sort descending")
	if withPage {
		fs.IntVarP(&f.page, "page", "p", 1, "page to show")
	}
}

// criteria validates the flags and converts them to core criteria.
func (f *criteriaFlags) criteria() (core.Criteria, error) {
	c := core.Criteria{
		Search:     f.search,
		Kategori:   f.kategori,
		NamaProduk: f.namaProduk,
		SortDir:    core.SortAsc,
	}
	if f.desc {
		c.SortDir = core.SortDesc
	}

	key, err := core.ParseSortKey(f.sort)
	if err != nil {
		return core.Criteria{}, err
	}
	c.SortKey = key

	if f.sentiment != "" {
		s, ok := core.ParseSentiment(f.sentiment)
		if !ok {
			return core.Criteria{}, fmt.Errorf("unknown sentiment %q (want Positive or Negative)", f.sentiment)
		}
		c.Sentiment = s
	}
	return c, nil
}

func sortKeyNames() []string {
	names := make([]string, len(core.SortKeys))
	for i, k := range core.SortKeys {
		names[i] = string(k)
	}
	return names
}
