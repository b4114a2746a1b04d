package core

// TotalPages returns max(1, ceil(n / RowsPerPage)).
func TotalPages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + RowsPerPage - 1) / RowsPerPage
}

// ClampPage forces page into [1, total].
func ClampPage(page, total int) int {
	if total < 1 {
		total = 1
	}
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// Paginate returns the window of rows for page along with the clamped page
// and the page count. The window is a sub-slice of rows.
func Paginate(rows []Row, page int) (window []Row, clamped, total int) {
	total = TotalPages(len(rows))
	clamped = ClampPage(page, total)

	start := (clamped - 1) * RowsPerPage
	end := min(start+RowsPerPage, len(rows))
	if start >= len(rows) {
		return rows[:0:0], clamped, total
	}
	return rows[start:end:end], clamped, total
}

// PageItem is one entry of a page-number strip.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

// maxFullStrip is the largest page count shown without abbreviation.
const maxFullStrip = 5

// PageStrip lays out page-number buttons for current out of total.
//
// Up to five pages are listed in full. Beyond that the strip shows the first
// page, an ellipsis when the window does not touch the start, the pages
// around current, an ellipsis when the window does not touch the end, and the
// last page.
func PageStrip(current, total int) []PageItem {
	total = max(total, 1)
	current = ClampPage(current, total)

	item := func(p int) PageItem { return PageItem{Page: p, Current: p == current} }

	if total <= maxFullStrip {
		strip := make([]PageItem, 0, total)
		for p := 1; p <= total; p++ {
			strip = append(strip, item(p))
		}
		return strip
	}

	strip := []PageItem{item(1)}
	if current > 3 {
		strip = append(strip, PageItem{Ellipsis: true})
	}
	for p := current - 1; p <= current+1; p++ {
		if p > 1 && p < total {
			strip = append(strip, item(p))
		}
	}
	if current < total-2 {
		strip = append(strip, PageItem{Ellipsis: true})
	}
	return append(strip, item(total))
}
