package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type mdKey struct {
	dark  bool
	width int
}

// Renderers are built lazily per background and wrap width. View runs on the
// program goroutine only, so the cache needs no lock. A fixed standard style is
// used because glamour's auto style queries the terminal and can block.
var mdRenderers = map[mdKey]*glamour.TermRenderer{}

func markdownRenderer(width int) (*glamour.TermRenderer, error) {
	k := mdKey{dark: lipgloss.HasDarkBackground(), width: width}
	if r, ok := mdRenderers[k]; ok {
		return r, nil
	}
	style := "light"
	if k.dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	mdRenderers[k] = r
	return r, nil
}

// renderMarkdown renders a work body for the read-only form. If glamour fails
// the raw text is shown instead.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	r, err := markdownRenderer(max(width, 10))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
