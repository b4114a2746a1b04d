package core

import (
	"io"
	"strconv"
	"strings"
)

// ExportHeader is the header row written by Export.
var ExportHeader = []string{"Ulasan", "Rating", "Kategori", "Nama Produk", "Sentiment"}

// ExportFileName is the suggested download name for exported views.
const ExportFileName = "sentiment_data.csv"

// Export serializes rows as comma-delimited text, one line per row after the
// header. Only the review text is quoted (with inner quotes doubled); the
// other fields are written raw. Lines are joined by '\n' with no trailing
// newline.
//
// Export does not round-trip through Parse: Parse does not unquote, and a
// category or product containing a comma is not escaped.
func Export(rows []Row) string {
	var b strings.Builder
	b.WriteString(strings.Join(ExportHeader, ","))
	for _, r := range rows {
		b.WriteByte('\n')
		b.WriteString(exportLine(r))
	}
	return b.String()
}

// WriteExport writes Export(rows) to w.
func WriteExport(w io.Writer, rows []Row) error {
	_, err := io.WriteString(w, Export(rows))
	return err
}

func exportLine(r Row) string {
	return strings.Join([]string{
		`"` + strings.ReplaceAll(r.Ulasan, `"`, `""`) + `"`,
		strconv.Itoa(r.Rating),
		r.Kategori,
		r.NamaProduk,
		string(r.Sentiment),
	}, ",")
}
