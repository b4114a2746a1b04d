package browse

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/linkboard/internal/core"
)

// MenuItem is one entry of the action menu. An item either opens a
// submenu or runs an action; "Back" returns to the parent menu.
type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func(m *Model) tea.Cmd
}

// Menu is a titled list of items.
type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent
	for i := range menu.Items {
		item := &menu.Items[i]
		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}
		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

var sortLabels = map[core.SortKey]string{
	core.SortUlasan:     "Ulasan",
	core.SortRating:     "Rating",
	core.SortKategori:   "Kategori",
	core.SortNamaProduk: "Nama Produk",
	core.SortSentiment:  "Sentiment",
}

// buildMenu assembles the action menu for the loaded dataset. Category and
// product choices come from the dataset itself.
func buildMenu(opts core.FilterOptions) *Menu {
	sortMenu := &Menu{Title: "Sort by"}
	for _, k := range core.SortKeys {
		sortMenu.Items = append(sortMenu.Items, MenuItem{
			Label:  sortLabels[k],
			Action: func(m *Model) tea.Cmd { return m.toggleSort(k) },
		})
	}
	sortMenu.Items = append(sortMenu.Items, MenuItem{Label: "Back"})

	sentimentMenu := &Menu{Title: "Sentiment"}
	sentimentMenu.Items = append(sentimentMenu.Items, MenuItem{
		Label:  "All",
		Action: func(m *Model) tea.Cmd { return m.setFilter(func(c *core.Criteria) { c.Sentiment = "" }) },
	})
	for _, s := range opts.Sentiment {
		sentimentMenu.Items = append(sentimentMenu.Items, MenuItem{
			Label:  string(s),
			Action: func(m *Model) tea.Cmd { return m.setFilter(func(c *core.Criteria) { c.Sentiment = s }) },
		})
	}
	sentimentMenu.Items = append(sentimentMenu.Items, MenuItem{Label: "Back"})

	root := &Menu{
		Title: "Actions",
		Items: []MenuItem{
			{Label: "Sort ->", Submenu: sortMenu},
			{Label: "Sentiment ->", Submenu: sentimentMenu},
			{Label: "Kategori ->", Submenu: valueMenu("Kategori", opts.Kategori, func(c *core.Criteria, v string) { c.Kategori = v })},
			{Label: "Nama Produk ->", Submenu: valueMenu("Nama Produk", opts.NamaProduk, func(c *core.Criteria, v string) { c.NamaProduk = v })},
			{Label: "Reset filters", Action: func(m *Model) tea.Cmd { return m.reset() }},
			{Label: "Export CSV", Action: func(m *Model) tea.Cmd { return m.export() }},
			{Label: "Back"},
		},
	}

	linkParents(root, nil)
	return root
}

func valueMenu(title string, values []string, set func(*core.Criteria, string)) *Menu {
	menu := &Menu{Title: title}
	menu.Items = append(menu.Items, MenuItem{
		Label:  "All",
		Action: func(m *Model) tea.Cmd { return m.setFilter(func(c *core.Criteria) { set(c, "") }) },
	})
	for _, v := range values {
		menu.Items = append(menu.Items, MenuItem{
			Label:  v,
			Action: func(m *Model) tea.Cmd { return m.setFilter(func(c *core.Criteria) { set(c, v) }) },
		})
	}
	menu.Items = append(menu.Items, MenuItem{Label: "Back"})
	return menu
}
