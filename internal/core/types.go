package core

import (
	"fmt"
	"strings"
)

// Sentiment is the label derived from a review's "label" column.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
)

// Sentiments lists the known labels in display order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative}

// ParseSentiment accepts a label name case-insensitively.
// Returns false for anything other than the two known labels.
func ParseSentiment(s string) (Sentiment, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return SentimentPositive, true
	case "negative":
		return SentimentNegative, true
	}
	return "", false
}

// Row is one parsed review record. Rows are values and are never mutated
// after parsing; views are built from copies.
type Row struct {
	Ulasan     string    `json:"ulasan" yaml:"ulasan"`
	Rating     int       `json:"rating" yaml:"rating"`
	Kategori   string    `json:"kategori" yaml:"kategori"`
	NamaProduk string    `json:"namaProduk" yaml:"namaProduk"`
	Sentiment  Sentiment `json:"sentiment" yaml:"sentiment"`
}

// SortKey names the Row field a view is ordered by.
type SortKey string

const (
	SortNone       SortKey = ""
	SortUlasan     SortKey = "ulasan"
	SortRating     SortKey = "rating"
	SortKategori   SortKey = "kategori"
	SortNamaProduk SortKey = "namaProduk"
	SortSentiment  SortKey = "sentiment"
)

// SortKeys lists every sortable field.
var SortKeys = []SortKey{SortUlasan, SortRating, SortKategori, SortNamaProduk, SortSentiment}

// ParseSortKey resolves a field name (case-insensitive). The empty string
// maps to SortNone.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortNone, nil
	}
	for _, k := range SortKeys {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return SortNone, fmt.Errorf("unknown sort key %q", s)
}

// SortDir is the ordering direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// ParseSortDir returns SortDesc for "desc" and SortAsc for anything else.
func ParseSortDir(s string) SortDir {
	if strings.EqualFold(strings.TrimSpace(s), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// Criteria is the active search/filter/sort configuration.
// The zero value means no filtering and no sort.
type Criteria struct {
	Search     string    `json:"search" yaml:"search,omitempty"`
	Kategori   string    `json:"kategori" yaml:"kategori,omitempty"`
	NamaProduk string    `json:"namaProduk" yaml:"namaProduk,omitempty"`
	Sentiment  Sentiment `json:"sentiment" yaml:"sentiment,omitempty"`
	SortKey    SortKey   `json:"sortKey" yaml:"sortKey,omitempty"`
	SortDir    SortDir   `json:"sortDir" yaml:"sortDir,omitempty"`
}

// normalized fills in the default direction so two criteria that only
// differ by an unset direction compare equal.
func (c Criteria) normalized() Criteria {
	if c.SortDir != SortDesc {
		c.SortDir = SortAsc
	}
	return c
}

// RowsPerPage is the fixed size of a page window.
const RowsPerPage = 10

// SentimentCounts holds per-label counts. Both labels are always present.
type SentimentCounts struct {
	Positive int `json:"positive" yaml:"positive"`
	Negative int `json:"negative" yaml:"negative"`
}

// Aggregates are the summaries derived from a filtered view.
type Aggregates struct {
	Total         int             `json:"totalReviews" yaml:"totalReviews"`
	Sentiments    SentimentCounts `json:"sentimentCounts" yaml:"sentimentCounts"`
	Ratings       map[int]int     `json:"ratingCounts" yaml:"ratingCounts"`
	MeanRating    float64         `json:"-" yaml:"-"`
	AverageRating string          `json:"averageRating" yaml:"averageRating"`
}

// ViewState is everything derived from a dataset and criteria: the filtered
// rows, the current page window and the aggregates.
type ViewState struct {
	Criteria   Criteria   `json:"criteria"`
	Filtered   []Row      `json:"-"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	Window     []Row      `json:"rows"`
	Aggregates Aggregates `json:"aggregates"`
}

// FilterOptions lists the values a user can pick from in the filter controls.
type FilterOptions struct {
	Kategori   []string    `json:"kategori"`
	NamaProduk []string    `json:"namaProduk"`
	Sentiment  []Sentiment `json:"sentiment"`
}
