package core

import (
	"sync"
	"time"
)

// Workspace holds one user's dataset and view criteria and keeps the derived
// view current. Any change to the dataset or criteria recomputes the view and
// returns to page 1; page moves only re-slice the existing view.
//
// A Workspace is safe for concurrent use.
type Workspace struct {
	mu       sync.RWMutex
	dataset  []Row
	source   string
	loadedAt time.Time
	criteria Criteria
	view     ViewState
}

// NewWorkspace returns an empty workspace with default criteria.
func NewWorkspace() *Workspace {
	w := &Workspace{criteria: Criteria{}.normalized()}
	w.view = DeriveView(nil, w.criteria, 1)
	return w
}

// Load replaces the dataset wholesale. The criteria are kept, the view is
// recomputed and the page resets to 1.
func (w *Workspace) Load(source string, rows []Row) ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.dataset = rows
	w.source = source
	w.loadedAt = time.Now()
	w.view = DeriveView(w.dataset, w.criteria, 1)
	return w.view
}

// Apply sets new criteria and recomputes the view on page 1.
func (w *Workspace) Apply(c Criteria) ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.criteria = c.normalized()
	w.view = DeriveView(w.dataset, w.criteria, 1)
	return w.view
}

// Update is the entry point for clients that send their full view state on
// every request. Criteria that differ from the current ones are applied and
// the view returns to page 1, ignoring page. Otherwise, when move is set,
// the view moves to page clamped into range.
func (w *Workspace) Update(c Criteria, page int, move bool) ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c = c.normalized(); c != w.criteria {
		w.criteria = c
		w.view = DeriveView(w.dataset, w.criteria, 1)
		return w.view
	}
	if move {
		w.view = w.view.WithPage(page)
	}
	return w.view
}

// Reset clears every filter and the sort.
func (w *Workspace) Reset() ViewState {
	return w.Apply(Criteria{})
}

// SetPage moves to page, clamped into range.
func (w *Workspace) SetPage(page int) ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.view = w.view.WithPage(page)
	return w.view
}

// NextPage moves forward one page, stopping at the last.
func (w *Workspace) NextPage() ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.view = w.view.WithPage(w.view.Page + 1)
	return w.view
}

// PrevPage moves back one page, stopping at the first.
func (w *Workspace) PrevPage() ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.view = w.view.WithPage(w.view.Page - 1)
	return w.view
}

// ToggleSort mirrors a column-header click: the same key flips direction, a
// new key sorts ascending.
func (w *Workspace) ToggleSort(key SortKey) ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := w.criteria
	if c.SortKey == key {
		if c.SortDir == SortAsc {
			c.SortDir = SortDesc
		} else {
			c.SortDir = SortAsc
		}
	} else {
		c.SortKey = key
		c.SortDir = SortAsc
	}
	w.criteria = c.normalized()
	w.view = DeriveView(w.dataset, w.criteria, 1)
	return w.view
}

// View returns the current view.
func (w *Workspace) View() ViewState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.view
}

// Criteria returns the active criteria.
func (w *Workspace) Criteria() Criteria {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.criteria
}

// HasData reports whether a dataset has been loaded.
func (w *Workspace) HasData() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.dataset) > 0
}

// Source returns the name of the loaded file and when it was loaded.
func (w *Workspace) Source() (string, time.Time) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.source, w.loadedAt
}

// Options returns the filter choices for the loaded dataset.
func (w *Workspace) Options() FilterOptions {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Options(w.dataset)
}
