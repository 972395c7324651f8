package tui

import (
	"fmt"
	"strings"

	"workboard/internal/board"
	"workboard/internal/config"
	"workboard/internal/form"
	"workboard/internal/logging"
	"workboard/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

// modalHost is the board.Presenter for the program: at most one form is shown
// at a time, on top of the board.
type modalHost struct {
	dateLayout string
	width      int
	modal      *formModal
}

func (h *modalHost) PresentModal(ctl *form.Controller) {
	h.modal = newFormModal(ctl, h.dateLayout)
	h.modal.setWidth(h.width)
}

func (h *modalHost) DismissModal() { h.modal = nil }

var _ board.Presenter = (*modalHost)(nil)

type Options struct {
	Store      *store.Store
	Logger     logrus.FieldLogger
	Theme      string
	DateLayout string

	// FormOptions are passed to every form (tests use them to pin ids and time).
	FormOptions []form.Option
}

type appModel struct {
	store *store.Store
	coord *board.Coordinator
	host  *modalHost
	log   logrus.FieldLogger

	cols    []*columnView
	lists   []*board.ListController
	focused int

	width  int
	height int

	keys       boardKeyMap
	help       help.Model
	showHelp   bool
	status     string
	dateLayout string
}

func newAppModel(opts Options) (appModel, error) {
	if opts.Store == nil {
		return appModel{}, fmt.Errorf("tui: store is required")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	layout := strings.TrimSpace(opts.DateLayout)
	if layout == "" {
		layout = config.DefaultDateLayout
	}

	host := &modalHost{dateLayout: layout, width: 80}
	coord := board.NewCoordinator(opts.Store, host,
		board.WithCoordinatorLogger(log),
		board.WithFormOptions(opts.FormOptions...),
	)

	m := appModel{
		store:      opts.Store,
		coord:      coord,
		host:       host,
		log:        log,
		width:      80,
		height:     24,
		keys:       newBoardKeyMap(),
		help:       help.New(),
		dateLayout: layout,
	}
	for _, c := range opts.Store.Categories() {
		col := newColumnView(c)
		l := coord.ListController(c, col)
		if err := l.Attach(); err != nil {
			m.detach()
			return appModel{}, err
		}
		m.cols = append(m.cols, col)
		m.lists = append(m.lists, l)
	}
	return m, nil
}

func (m appModel) detach() {
	for _, l := range m.lists {
		l.Detach()
	}
}

func (m appModel) Init() tea.Cmd { return nil }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.host.width = msg.Width
		m.help.Width = msg.Width
		if m.host.modal != nil {
			m.host.modal.setWidth(msg.Width)
		}
		return m, nil

	case tea.KeyMsg:
		if m.host.modal != nil {
			cmd := m.host.modal.update(msg)
			return m, cmd
		}
		return m.updateBoard(msg)
	}

	if m.host.modal != nil {
		return m, m.host.modal.update(msg)
	}
	return m, nil
}

func (m appModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	col := m.focusedColumn()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.detach()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case key.Matches(msg, m.keys.Left):
		m.focus(m.focused - 1)
	case key.Matches(msg, m.keys.Right):
		m.focus(m.focused + 1)
	case key.Matches(msg, m.keys.Up):
		if col != nil {
			col.move(-1)
		}
	case key.Matches(msg, m.keys.Down):
		if col != nil {
			col.move(1)
		}
	case key.Matches(msg, m.keys.Open):
		if col != nil {
			m.lists[m.focused].SelectItem(col.sel)
		}
	case key.Matches(msg, m.keys.New):
		if col != nil {
			m.coord.NewWork(col.category)
		}
	case key.Matches(msg, m.keys.Delete):
		if col != nil && col.sel >= 0 {
			title := col.items[col.sel].Title
			if m.lists[m.focused].DeleteItem(col.sel) {
				m.status = "Deleted: " + title
			}
		}
	case key.Matches(msg, m.keys.MoveNext):
		m.moveSelected(1)
	case key.Matches(msg, m.keys.MovePrev):
		m.moveSelected(-1)
	}
	return m, nil
}

// moveSelected moves the highlighted work to the neighbouring column and keeps
// it highlighted there.
func (m *appModel) moveSelected(dir int) {
	col := m.focusedColumn()
	target := m.focused + dir
	if col == nil || col.sel < 0 || target < 0 || target >= len(m.cols) {
		return
	}
	id := col.items[col.sel].ID
	to := m.cols[target].category
	if !m.lists[m.focused].MoveItem(col.sel, to) {
		return
	}
	if _, ok := m.store.Lookup(id); !ok {
		return
	}
	m.focus(target)
	m.cols[target].selectID(id)
	m.status = "Moved to " + string(to)
}

func (m *appModel) focus(i int) {
	if len(m.cols) == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(m.cols) {
		i = len(m.cols) - 1
	}
	m.focused = i
}

func (m appModel) focusedColumn() *columnView {
	if m.focused < 0 || m.focused >= len(m.cols) {
		return nil
	}
	return m.cols[m.focused]
}

func (m appModel) View() string {
	footer := m.footer()
	bodyH := m.height - lipgloss.Height(footer)
	if bodyH < 1 {
		bodyH = 1
	}

	if m.host.modal != nil {
		modal := m.host.modal.view(m.width)
		return lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, modal) + "\n" + footer
	}
	return renderBoard(m.cols, m.focused, m.dateLayout, m.width, bodyH) + "\n" + footer
}

func (m appModel) footer() string {
	var lines []string
	if m.status != "" {
		lines = append(lines, truncateCells(m.status, m.width))
	}
	lines = append(lines, m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

// Run shows the board until the user quits.
func Run(opts Options) error {
	applyColorProfilePreference()
	applyThemePreference(opts.Theme)

	m, err := newAppModel(opts)
	if err != nil {
		return err
	}
	defer m.detach()

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
