package browse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JonMunkholm/linkboard/internal/core"
)

// maxReviewWidth truncates long review text in table cells.
const maxReviewWidth = 48

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Align(lipgloss.Center)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	oddRowStyle  = cellStyle.Foreground(lipgloss.Color("245"))
	positive     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	negative     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	currentStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	menuStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
)

// RenderTable draws the page window of v as a bordered table. Row numbers
// count from the start of the filtered view.
func RenderTable(v core.ViewState) string {
	offset := (v.Page - 1) * core.RowsPerPage
	rows := make([][]string, 0, len(v.Window))
	for i, r := range v.Window {
		rows = append(rows, []string{
			strconv.Itoa(offset + i + 1),
			truncate(r.Ulasan, maxReviewWidth),
			strconv.Itoa(r.Rating),
			r.Kategori,
			r.NamaProduk,
			string(r.Sentiment),
		})
	}

	headers := append([]string{"#"}, core.ExportHeader...)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 5 && row < len(v.Window) {
				switch v.Window[row].Sentiment {
				case core.SentimentPositive:
					return cellStyle.Inherit(positive)
				case core.SentimentNegative:
					return cellStyle.Inherit(negative)
				}
			}
			if row%2 == 1 {
				return oddRowStyle
			}
			return cellStyle
		})
	return t.Render()
}

// RenderSummary formats the aggregates of v on one line.
func RenderSummary(v core.ViewState) string {
	a := v.Aggregates
	ratings := make([]string, 0, 5)
	for star := 1; star <= 5; star++ {
		ratings = append(ratings, fmt.Sprintf("%d★ %d", star, a.Ratings[star]))
	}
	return fmt.Sprintf("%d reviews  %s  %s  avg %s  [%s]",
		a.Total,
		positive.Render(fmt.Sprintf("+%d", a.Sentiments.Positive)),
		negative.Render(fmt.Sprintf("-%d", a.Sentiments.Negative)),
		a.AverageRating,
		strings.Join(ratings, " "),
	)
}

// RenderPageStrip formats the page buttons, marking the current page.
func RenderPageStrip(v core.ViewState) string {
	var parts []string
	for _, it := range core.PageStrip(v.Page, v.TotalPages) {
		switch {
		case it.Ellipsis:
			parts = append(parts, "...")
		case it.Current:
			parts = append(parts, currentStyle.Render(fmt.Sprintf("[%d]", it.Page)))
		default:
			parts = append(parts, strconv.Itoa(it.Page))
		}
	}
	return strings.Join(parts, " ")
}

// describeCriteria lists the active filters, or "no filters".
func describeCriteria(c core.Criteria) string {
	var parts []string
	if c.Search != "" {
		parts = append(parts, fmt.Sprintf("search=%q", c.Search))
	}
	if c.Kategori != "" {
		parts = append(parts, "kategori="+c.Kategori)
	}
	if c.NamaProduk != "" {
		parts = append(parts, "produk="+c.NamaProduk)
	}
	if c.Sentiment != "" {
		parts = append(parts, "sentiment="+string(c.Sentiment))
	}
	if c.SortKey != core.SortNone {
		parts = append(parts, fmt.Sprintf("sort=%s %s", c.SortKey, c.SortDir))
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
