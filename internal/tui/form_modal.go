package tui

import (
	"errors"
	"fmt"
	"strings"

	"workboard/internal/form"
	"workboard/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formFocus int

const (
	focusTitle formFocus = iota
	focusDue
	focusBody
	formFocusCount
)

// formModal is the input-widget side of a form.Controller: it owns the widgets,
// feeds raw input into the controller and renders the modal box.
type formModal struct {
	ctl        *form.Controller
	keys       formKeyMap
	dateLayout string

	title textinput.Model
	due   textinput.Model
	body  textarea.Model
	focus formFocus

	// dueText is the due field as first shown; confirming it unchanged keeps the
	// draft's due date at full precision.
	dueText string

	// hint is a one-line status shown under the fields (e.g. missing title).
	hint string
}

func newFormModal(ctl *form.Controller, dateLayout string) *formModal {
	d := ctl.Draft()

	title := textinput.New()
	title.Placeholder = "Title"
	title.Prompt = ""
	title.SetValue(d.Title)

	due := textinput.New()
	due.Placeholder = dateLayout
	due.Prompt = ""
	dueText := model.FormatDue(d.DueDate, dateLayout)
	due.SetValue(dueText)

	body := textarea.New()
	body.Placeholder = "Write…"
	body.ShowLineNumbers = false
	// No rune limit: the body is capped in characters by GuardBody.
	body.CharLimit = 0
	body.SetWidth(60)
	body.SetHeight(8)
	body.SetValue(d.Body)

	m := &formModal{
		ctl:        ctl,
		keys:       newFormKeyMap(),
		dateLayout: dateLayout,
		title:      title,
		due:        due,
		body:       body,
		dueText:    dueText,
	}
	m.applyFieldStyle()
	return m
}

// applyFieldStyle enables or disables the widgets for the controller's mode:
// editable fields use normal colors and take focus, read-only ones are dimmed.
func (m *formModal) applyFieldStyle() tea.Cmd {
	st := m.ctl.FieldStyle()
	text := lipgloss.NewStyle().Foreground(colorSurfaceFg)
	if st.Dimmed {
		text = lipgloss.NewStyle().Foreground(colorReadOnlyFg)
	}
	m.title.TextStyle = text
	m.due.TextStyle = text
	m.body.FocusedStyle.Text = text
	m.body.BlurredStyle.Text = text

	m.title.Blur()
	m.due.Blur()
	m.body.Blur()
	if !st.Editable {
		return nil
	}
	switch m.focus {
	case focusDue:
		return m.due.Focus()
	case focusBody:
		return m.body.Focus()
	default:
		return m.title.Focus()
	}
}

func (m *formModal) setWidth(w int) {
	inner := modalInnerWidth(w)
	m.title.Width = inner
	m.due.Width = inner
	m.body.SetWidth(inner)
}

func (m *formModal) update(msg tea.Msg) tea.Cmd {
	km, isKey := msg.(tea.KeyMsg)
	if !isKey {
		return m.updateFocused(msg)
	}

	switch {
	case key.Matches(km, m.keys.Cancel):
		m.ctl.Cancel()
		return nil
	case key.Matches(km, m.keys.Confirm):
		return m.confirm()
	}

	if m.ctl.Mode() == form.ModeViewing {
		switch {
		case key.Matches(km, m.keys.Edit):
			m.ctl.ToggleEdit()
			m.hint = ""
			return m.applyFieldStyle()
		case km.String() == "enter":
			return m.confirm()
		}
		return nil
	}

	switch {
	case key.Matches(km, m.keys.Next):
		m.focus = (m.focus + 1) % formFocusCount
		return m.applyFieldStyle()
	case key.Matches(km, m.keys.Prev):
		m.focus = (m.focus + formFocusCount - 1) % formFocusCount
		return m.applyFieldStyle()
	}
	return m.updateFocused(msg)
}

func (m *formModal) updateFocused(msg tea.Msg) tea.Cmd {
	if !m.ctl.Editable() {
		return nil
	}
	var cmd tea.Cmd
	switch m.focus {
	case focusTitle:
		m.title, cmd = m.title.Update(msg)
	case focusDue:
		m.due, cmd = m.due.Update(msg)
	case focusBody:
		m.body, cmd = m.body.Update(msg)
		if v := m.body.Value(); m.ctl.GuardBody(v) != v {
			m.body.SetValue(m.ctl.GuardBody(v))
		}
	}
	return cmd
}

// confirm pushes the widget values into the draft and asks the controller to
// finish. Invalid input keeps the modal open with a hint.
func (m *formModal) confirm() tea.Cmd {
	if m.ctl.Editable() {
		due := m.ctl.Draft().DueDate
		if v := m.due.Value(); v != m.dueText {
			at, err := model.ParseDue(v, m.dateLayout)
			if err != nil {
				m.hint = "due date must look like " + m.dateLayout
				return nil
			}
			due = at
		}
		m.ctl.UpdateDraft(m.title.Value(), m.body.Value(), due)
	}
	if _, err := m.ctl.Confirm(); err != nil {
		if errors.Is(err, form.ErrInvalidDraft) {
			m.hint = "title is required"
			m.focus = focusTitle
			return m.applyFieldStyle()
		}
		m.hint = err.Error()
	}
	return nil
}

func (m *formModal) view(width int) string {
	inner := modalInnerWidth(width)
	label := lipgloss.NewStyle().Bold(true)
	muted := styleMuted()

	heading := string(m.ctl.Category())
	switch m.ctl.Mode() {
	case form.ModeCreating:
		heading += " · new"
	case form.ModeEditing:
		heading += " · editing"
	default:
		heading += " · view"
	}

	var bodyView string
	if m.ctl.Editable() {
		bodyView = m.body.View()
	} else {
		bodyView = renderMarkdown(m.ctl.Draft().Body, inner)
		if bodyView == "" {
			bodyView = muted.Render("(no description)")
		}
	}

	counter := muted.Render(fmt.Sprintf("%d/%d", model.BodyLength(m.body.Value()), model.MaxBodyLength))

	parts := []string{
		label.Render("Title"),
		m.title.View(),
		"",
		label.Render("Due"),
		m.due.View(),
		"",
		label.Render("Body") + "  " + counter,
		bodyView,
		"",
	}
	if m.hint != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorError).Render(m.hint))
	}
	parts = append(parts, muted.Width(inner).Render(m.helpLine()))

	return renderModalBox(width, heading, strings.Join(parts, "\n"))
}

func (m *formModal) helpLine() string {
	if m.ctl.Mode() == form.ModeViewing {
		return "e: edit   enter/ctrl+s: done   esc: close"
	}
	return "tab: next field   ctrl+s: done   esc: cancel"
}

func modalInnerWidth(width int) int {
	w := width - 8
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

func renderModalBox(width int, title, content string) string {
	inner := modalInnerWidth(width)
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccentFg).
		Background(colorAccent).
		Padding(0, 1).
		Width(inner).
		Render(title)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Background(colorModalBg).
		Padding(0, 1).
		Render(head + "\n\n" + content)
}
