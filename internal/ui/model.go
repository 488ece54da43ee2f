// Package ui provides the Bubble Tea directory browser for breate.
package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/breate/internal/engine"
	"github.com/five82/breate/internal/filter"
	"github.com/five82/breate/internal/prefs"
	"github.com/five82/breate/internal/state"
)

// Screen is the slice of an engine the UI drives.
type Screen interface {
	Name() string
	Snapshot() engine.View
	SetFilter(field, value string) filter.Criteria
	Refresh()
	Toggle(itemID, kind string) (state.Mutation, error)
	Changes() <-chan struct{}
}

// Column is one rendered item field.
type Column struct {
	Title string
	Field string
	Width int
}

// Choice is one value of a cycled filter.
type Choice struct {
	Value string
	Label string
}

// Cycle binds a key to stepping a criteria field through its choices.
type Cycle struct {
	Key     string
	Field   string
	Label   string
	Choices []Choice
}

// Tab is one screen with its presentation.
type Tab struct {
	Title   string
	Screen  Screen
	Columns []Column
	// SearchField receives the text typed into the search box. Empty hides
	// the box.
	SearchField string
	Cycles      []Cycle
	// ToggleKind is the mutation kind bound to ctrl+s; ToggleField is the
	// item field it flips.
	ToggleKind  string
	ToggleField string
	// IdleHint is shown while the criteria do not constrain anything.
	IdleHint string
}

// Options configures the UI.
type Options struct {
	Context     context.Context
	Tabs        []Tab
	ThemeName   string
	PrefsPath   string
	StartScreen string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	tabs      []Tab
	prefsPath string

	// UI state
	theme    Theme
	active   int
	width    int
	height   int
	ready    bool
	showHelp bool
	notice   string
	input    textinput.Model

	// Per-tab state
	queries  []string
	cycles   []map[string]int
	selected []int
	views    []engine.View
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "search"
	input.CharLimit = 80
	input.Focus()

	m := Model{
		ctx:       ctx,
		tabs:      opts.Tabs,
		prefsPath: prefsPath,
		theme:     GetTheme(themeName),
		input:     input,
		queries:   make([]string, len(opts.Tabs)),
		cycles:    make([]map[string]int, len(opts.Tabs)),
		selected:  make([]int, len(opts.Tabs)),
		views:     make([]engine.View, len(opts.Tabs)),
	}
	for i, tab := range opts.Tabs {
		m.cycles[i] = make(map[string]int)
		if tab.Screen != nil {
			m.views[i] = tab.Screen.Snapshot()
			if tab.SearchField != "" {
				m.queries[i] = m.views[i].Criteria.Get(tab.SearchField)
			}
		}
		if tab.Screen != nil && tab.Screen.Name() == opts.StartScreen {
			m.active = i
		}
	}
	m.syncInput()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	for i, tab := range m.tabs {
		if tab.Screen != nil {
			cmds = append(cmds, waitForChange(m.ctx, i, tab.Screen.Changes()))
		}
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = maxInt(10, msg.Width/3)
		m.ready = true
		return m, nil

	case changedMsg:
		if msg.tab < 0 || msg.tab >= len(m.tabs) {
			return m, nil
		}
		screen := m.tabs[msg.tab].Screen
		m.views[msg.tab] = screen.Snapshot()
		m.clampSelection(msg.tab)
		return m, waitForChange(m.ctx, msg.tab, screen.Changes())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if len(m.tabs) == 0 {
		return m, tea.Quit
	}
	tab := m.tabs[m.active]

	switch msg.String() {
	case "ctrl+c", "esc":
		m.savePrefs()
		return m, tea.Quit

	case "f1":
		m.showHelp = true
		return m, nil

	case "tab":
		m.switchTab(1)
		return m, nil

	case "shift+tab":
		m.switchTab(-1)
		return m, nil

	case "up", "ctrl+p":
		m.moveSelection(-1)
		return m, nil

	case "down", "ctrl+n":
		m.moveSelection(1)
		return m, nil

	case "pgup":
		m.moveSelection(-m.listHeight())
		return m, nil

	case "pgdown":
		m.moveSelection(m.listHeight())
		return m, nil

	case "ctrl+r":
		m.notice = ""
		tab.Screen.Refresh()
		return m, nil

	case "ctrl+s":
		m.toggleSelected()
		return m, nil

	case "ctrl+t":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil
	}

	for _, c := range tab.Cycles {
		if msg.String() == c.Key && len(c.Choices) > 0 {
			next := (m.cycles[m.active][c.Key] + 1) % len(c.Choices)
			m.cycles[m.active][c.Key] = next
			tab.Screen.SetFilter(c.Field, c.Choices[next].Value)
			m.selected[m.active] = 0
			return m, nil
		}
	}

	if tab.SearchField == "" {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != m.queries[m.active] {
		m.queries[m.active] = value
		m.selected[m.active] = 0
		tab.Screen.SetFilter(tab.SearchField, value)
	}
	return m, cmd
}

func (m *Model) switchTab(delta int) {
	n := len(m.tabs)
	m.active = ((m.active+delta)%n + n) % n
	m.notice = ""
	m.views[m.active] = m.tabs[m.active].Screen.Snapshot()
	m.clampSelection(m.active)
	m.syncInput()
}

func (m *Model) syncInput() {
	if len(m.tabs) == 0 {
		return
	}
	m.input.SetValue(m.queries[m.active])
	m.input.CursorEnd()
}

func (m *Model) moveSelection(delta int) {
	m.selected[m.active] += delta
	m.clampSelection(m.active)
}

func (m *Model) clampSelection(tab int) {
	n := len(m.views[tab].Items)
	switch {
	case n == 0:
		m.selected[tab] = 0
	case m.selected[tab] >= n:
		m.selected[tab] = n - 1
	case m.selected[tab] < 0:
		m.selected[tab] = 0
	}
}

func (m *Model) toggleSelected() {
	tab := m.tabs[m.active]
	if tab.ToggleKind == "" {
		return
	}
	items := m.views[m.active].Items
	if len(items) == 0 {
		return
	}
	item := items[m.selected[m.active]]
	if _, err := tab.Screen.Toggle(item.ID, tab.ToggleKind); err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = ""
	m.views[m.active] = tab.Screen.Snapshot()
}

func (m Model) savePrefs() {
	if m.prefsPath == "" || len(m.tabs) == 0 {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{
		Theme:      m.theme.Name,
		LastScreen: m.tabs[m.active].Screen.Name(),
	})
}

func (m Model) listHeight() int {
	// header, filters, status, column titles, footer
	return maxInt(1, m.height-5)
}

// Messages

type changedMsg struct{ tab int }

// Commands

func waitForChange(ctx context.Context, tab int, ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ch:
			return changedMsg{tab: tab}
		case <-ctx.Done():
			return nil
		}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
