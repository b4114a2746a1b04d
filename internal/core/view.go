package core

// view.go derives a ViewState from a dataset and criteria.
//
// DeriveView is pure: it never mutates the dataset, and calling it twice
// with the same inputs gives the same result. Filters run in a fixed order
// (category, product, sentiment, then free-text search) and combine with AND.

import (
	"cmp"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// DeriveView filters, sorts and pages dataset according to c. The page is
// clamped into [1, totalPages].
func DeriveView(dataset []Row, c Criteria, page int) ViewState {
	c = c.normalized()
	filtered := FilterRows(dataset, c)
	SortRows(filtered, c.SortKey, c.SortDir)

	v := ViewState{
		Criteria:   c,
		Filtered:   filtered,
		Aggregates: Aggregate(filtered),
	}
	v.Window, v.Page, v.TotalPages = Paginate(filtered, page)
	return v
}

// WithPage returns a copy of v showing a different page of the same view.
func (v ViewState) WithPage(page int) ViewState {
	v.Window, v.Page, v.TotalPages = Paginate(v.Filtered, page)
	return v
}

// FilterRows returns a new slice holding the rows of dataset that satisfy c.
// Empty criteria fields are skipped. The result never aliases dataset.
func FilterRows(dataset []Row, c Criteria) []Row {
	search := strings.ToLower(c.Search)

	out := make([]Row, 0, len(dataset))
	for _, r := range dataset {
		if c.Kategori != "" && r.Kategori != c.Kategori {
			continue
		}
		if c.NamaProduk != "" && r.NamaProduk != c.NamaProduk {
			continue
		}
		if c.Sentiment != "" && r.Sentiment != c.Sentiment {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.Ulasan), search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortRows orders rows in place by key. Equal keys keep their relative order.
// SortNone leaves rows untouched.
func SortRows(rows []Row, key SortKey, dir SortDir) {
	if key == SortNone {
		return
	}
	compare := compareBy(key)
	if dir == SortDesc {
		sort.SliceStable(rows, func(i, j int) bool { return compare(rows[j], rows[i]) < 0 })
		return
	}
	sort.SliceStable(rows, func(i, j int) bool { return compare(rows[i], rows[j]) < 0 })
}

// compareBy returns a three-way comparison on the given field.
// Strings compare lexicographically, ratings numerically.
func compareBy(key SortKey) func(a, b Row) int {
	switch key {
	case SortRating:
		return func(a, b Row) int { return cmp.Compare(a.Rating, b.Rating) }
	case SortKategori:
		return func(a, b Row) int { return strings.Compare(a.Kategori, b.Kategori) }
	case SortNamaProduk:
		return func(a, b Row) int { return strings.Compare(a.NamaProduk, b.NamaProduk) }
	case SortSentiment:
		return func(a, b Row) int { return strings.Compare(string(a.Sentiment), string(b.Sentiment)) }
	default:
		return func(a, b Row) int { return strings.Compare(a.Ulasan, b.Ulasan) }
	}
}

// Aggregate computes the summary counts for rows. Both sentiment labels and
// every rating from 1 to 5 are present even when their count is zero.
// Ratings outside 1..5 count toward the mean but not the distribution.
func Aggregate(rows []Row) Aggregates {
	a := Aggregates{
		Total:   len(rows),
		Ratings: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	sum := 0
	for _, r := range rows {
		switch r.Sentiment {
		case SentimentPositive:
			a.Sentiments.Positive++
		case SentimentNegative:
			a.Sentiments.Negative++
		}
		if _, ok := a.Ratings[r.Rating]; ok {
			a.Ratings[r.Rating]++
		}
		sum += r.Rating
	}

	mean := 0.0
	if len(rows) > 0 {
		mean = float64(sum) / float64(len(rows))
	}
	a.AverageRating = formatFixed2(mean)
	a.MeanRating, _ = strconv.ParseFloat(a.AverageRating, 64)
	return a
}

// formatFixed2 formats x with two decimals. It rounds the exact binary value
// of x half away from zero, so 3.0/40 (stored just below 0.075) gives "0.07"
// and 0.125 gives "0.13".
func formatFixed2(x float64) string {
	r := new(big.Rat).SetFloat64(math.Abs(x))
	if r == nil {
		return fmt.Sprintf("%.2f", x)
	}
	r.Mul(r, big.NewRat(100, 1))
	r.Add(r, big.NewRat(1, 2))
	cents := new(big.Int).Quo(r.Num(), r.Denom())

	hundred := big.NewInt(100)
	whole, frac := new(big.Int).QuoRem(cents, hundred, new(big.Int))
	s := fmt.Sprintf("%s.%02d", whole.String(), frac.Int64())
	if x < 0 {
		s = "-" + s
	}
	return s
}

// DistinctValues returns the unique values of a string field in first-seen order.
func DistinctValues(rows []Row, get func(Row) string) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0)
	for _, r := range rows {
		v := get(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Options lists the filter choices offered for dataset. Options come from
// the full dataset, not the filtered view, so a filter can always be undone.
func Options(dataset []Row) FilterOptions {
	return FilterOptions{
		Kategori:   DistinctValues(dataset, func(r Row) string { return r.Kategori }),
		NamaProduk: DistinctValues(dataset, func(r Row) string { return r.NamaProduk }),
		Sentiment:  append([]Sentiment(nil), Sentiments...),
	}
}
