package tui

import (
	"fmt"
	"strings"

	"workboard/internal/model"
	"workboard/internal/store"

	"github.com/charmbracelet/lipgloss"
)

// columnView is the on-screen state of one category list. The list controller
// calls Render with every snapshot; the view redraws from scratch each time.
type columnView struct {
	category model.Category
	items    []model.Work
	count    string

	// sel is the highlighted row; selID keeps the highlight on the same work
	// across snapshots that shift positions.
	sel   int
	selID string
}

func newColumnView(c model.Category) *columnView {
	return &columnView{category: c, count: "0", sel: -1}
}

func (c *columnView) Render(snap store.Snapshot, countLabel string) {
	c.items = snap.Items
	c.count = countLabel
	c.clamp()
}

func (c *columnView) clamp() {
	if c.selID != "" {
		for i, w := range c.items {
			if w.ID == c.selID {
				c.sel = i
				return
			}
		}
	}
	if len(c.items) == 0 {
		c.sel = -1
		c.selID = ""
		return
	}
	if c.sel < 0 {
		c.sel = 0
	}
	if c.sel >= len(c.items) {
		c.sel = len(c.items) - 1
	}
	c.selID = c.items[c.sel].ID
}

func (c *columnView) move(delta int) {
	if len(c.items) == 0 {
		return
	}
	c.sel += delta
	c.selID = ""
	c.clamp()
}

func (c *columnView) selectID(id string) {
	c.selID = id
	c.clamp()
}

func (c *columnView) header() string {
	return fmt.Sprintf("%s (%s)", c.category, c.count)
}

func renderBoard(cols []*columnView, focused int, dateLayout string, width, height int) string {
	n := len(cols)
	if n == 0 {
		return normalizePane("", width, height)
	}

	gap := 2
	avail := width - gap*(n-1)
	if avail < n {
		avail = n
	}
	colW := avail / n
	if colW < 12 {
		colW = 12
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(colorSurfaceFg).Background(colorControlBg)
	headerFocusedStyle := headerStyle.Foreground(colorAccentFg).Background(colorAccent)
	itemStyle := lipgloss.NewStyle().Padding(0, 1)
	itemSelectedStyle := itemStyle.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	innerW := colW - 2

	rendered := make([]string, 0, n*2)
	for ci, col := range cols {
		hs := headerStyle
		if ci == focused {
			hs = headerFocusedStyle
		}
		lines := []string{hs.Width(colW).Render(truncateCells(col.header(), innerW)), ""}

		if len(col.items) == 0 {
			lines = append(lines, styleMuted().Padding(0, 1).Render("(empty)"))
		}
		for ii, w := range col.items {
			title := strings.TrimSpace(w.Title)
			if title == "" {
				title = "(untitled)"
			}
			meta := "no due date"
			if !w.DueDate.IsZero() {
				meta = "due " + model.FormatDue(w.DueDate, dateLayout)
			}
			selected := ci == focused && ii == col.sel
			st := itemStyle
			metaSt := styleMuted().Padding(0, 1)
			if selected {
				st = itemSelectedStyle
				metaSt = itemSelectedStyle.Bold(false)
			}
			lines = append(lines,
				st.Width(colW).Render(truncateCells(title, innerW)),
				metaSt.Width(colW).Render(truncateCells(meta, innerW)),
				"",
			)
		}

		rendered = append(rendered, normalizePane(strings.Join(lines, "\n"), colW, height))
		if ci < n-1 {
			rendered = append(rendered, normalizePane("", gap, height))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
