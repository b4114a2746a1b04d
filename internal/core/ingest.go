package core

// ingest.go turns uploaded review text into rows.
//
// Parsing is deliberately forgiving: it never returns an error. Lines are
// split on bare commas with no quote handling, so a review containing a comma
// shifts the remaining columns. Callers treat an empty result as "no valid
// data" and leave their current dataset untouched.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Column names expected in the header row. Matching is exact and case-sensitive.
const (
	ColumnUlasan     = "Ulasan"
	ColumnRating     = "Rating"
	ColumnKategori   = "Kategori"
	ColumnNamaProduk = "Nama Produk"
	ColumnLabel      = "label"
)

// RequiredColumns lists the header names Parse needs, in canonical order.
var RequiredColumns = []string{ColumnUlasan, ColumnRating, ColumnKategori, ColumnNamaProduk, ColumnLabel}

// positiveLabel is the only label value that maps to SentimentPositive.
const positiveLabel = "1"

// ErrEmptyDataset is returned by callers when ingestion produced zero rows.
var ErrEmptyDataset = errors.New("no valid data found in CSV")

// columnIndex holds the position of every required column in a header.
type columnIndex struct {
	ulasan, rating, kategori, namaProduk, label int
}

// locateColumns finds the required columns in a header row. The first
// occurrence of a name wins. Returns the missing names when any are absent.
func locateColumns(header []string) (columnIndex, []string) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := pos[h]; !seen {
			pos[h] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	idx := columnIndex{
		ulasan:     lookup(ColumnUlasan),
		rating:     lookup(ColumnRating),
		kategori:   lookup(ColumnKategori),
		namaProduk: lookup(ColumnNamaProduk),
		label:      lookup(ColumnLabel),
	}
	return idx, missing
}

// ValidateHeader reports which required columns are missing from the first
// non-empty line of text. Parse itself only returns an empty slice in that
// case; this gives callers something more specific to log.
func ValidateHeader(text string) error {
	lines := splitLines(text)
	if len(lines) == 0 {
		return fmt.Errorf("empty file")
	}
	if _, missing := locateColumns(splitFields(lines[0])); len(missing) > 0 {
		return fmt.Errorf("missing required column: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Parse converts delimited review text into rows.
//
// The first non-empty line is the header. Every following non-empty line
// becomes one Row. Parse returns an empty slice when there is no header or
// any required column is missing.
func Parse(text string) []Row {
	lines := splitLines(text)
	if len(lines) < 1 {
		return []Row{}
	}

	idx, missing := locateColumns(splitFields(lines[0]))
	if len(missing) > 0 {
		return []Row{}
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cols := splitFields(line)
		sentiment := SentimentNegative
		if field(cols, idx.label) == positiveLabel {
			sentiment = SentimentPositive
		}
		rows = append(rows, Row{
			Ulasan:     field(cols, idx.ulasan),
			Rating:     parseLeadingInt(field(cols, idx.rating)),
			Kategori:   field(cols, idx.kategori),
			NamaProduk: field(cols, idx.namaProduk),
			Sentiment:  sentiment,
		})
	}
	return rows
}

// splitLines splits on '\n', trims each line and drops empty ones.
// Trimming also removes the '\r' of CRLF files.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// splitFields splits a line on every comma and trims each field.
func splitFields(line string) []string {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// field returns cols[i] or "" when the line is too short.
func field(cols []string, i int) string {
	if i < 0 || i >= len(cols) {
		return ""
	}
	return cols[i]
}

// parseLeadingInt reads an optional sign followed by decimal digits from the
// start of s, ignoring anything after them ("4.5" is 4, "5 stars" is 5).
// Returns 0 when s has no leading digits or the value overflows.
func parseLeadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
