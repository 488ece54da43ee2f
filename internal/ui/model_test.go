package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/breate/internal/engine"
	"github.com/five82/breate/internal/filter"
	"github.com/five82/breate/internal/prefs"
	"github.com/five82/breate/internal/state"
)

type fakeScreen struct {
	name      string
	criteria  filter.Criteria
	items     []state.Item
	toggled   []string
	refreshes int
	changes   chan struct{}
}

func newFakeScreen(name string, items ...state.Item) *fakeScreen {
	return &fakeScreen{name: name, items: items, changes: make(chan struct{}, 1)}
}

func (f *fakeScreen) Name() string { return f.name }

func (f *fakeScreen) Snapshot() engine.View {
	return engine.View{
		Snapshot: state.Snapshot{Items: f.items, Loaded: true},
		Criteria: f.criteria,
		Total:    len(f.items),
	}
}

func (f *fakeScreen) SetFilter(field, value string) filter.Criteria {
	f.criteria = f.criteria.Set(field, value)
	return f.criteria
}

func (f *fakeScreen) Refresh() { f.refreshes++ }

func (f *fakeScreen) Toggle(itemID, kind string) (state.Mutation, error) {
	if kind != "save" {
		return state.Mutation{}, errors.New("unknown kind")
	}
	f.toggled = append(f.toggled, itemID)
	return state.Mutation{ItemID: itemID, Kind: kind}, nil
}

func (f *fakeScreen) Changes() <-chan struct{} { return f.changes }

func item(id, username string) state.Item {
	return state.Item{ID: id, Fields: map[string]any{"username": username, "is_saved": false}}
}

func testModel(t *testing.T, screens ...*fakeScreen) Model {
	t.Helper()
	tabs := make([]Tab, 0, len(screens))
	for _, s := range screens {
		tabs = append(tabs, Tab{
			Title:       titleCase(s.name),
			Screen:      s,
			Columns:     []Column{{Title: "User", Field: "username", Width: 12}, {Title: "Saved", Field: "is_saved", Width: 5}},
			SearchField: filter.FieldSearch,
			Cycles: []Cycle{{
				Key:     "ctrl+a",
				Field:   filter.FieldArchetype,
				Label:   "archetype",
				Choices: []Choice{{Value: filter.All, Label: "All"}, {Value: "3", Label: "Director"}},
			}},
			ToggleKind:  "save",
			ToggleField: "is_saved",
		})
	}
	m := New(Options{Tabs: tabs, PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return next.(Model)
}

func press(m Model, msgs ...tea.KeyMsg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_TypingSetsSearchFilter(t *testing.T) {
	discover := newFakeScreen("discover")
	m := testModel(t, discover)

	m = press(m, runes("f"), runes("i"), runes("l"), runes("m"))
	assert.Equal(t, "film", discover.criteria.Get(filter.FieldSearch))

	m = press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "fil", discover.criteria.Get(filter.FieldSearch))
	assert.Contains(t, m.View(), "fil")
}

func TestModel_CycleKeyStepsChoices(t *testing.T) {
	discover := newFakeScreen("discover")
	m := testModel(t, discover)

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.Equal(t, "3", discover.criteria.Get(filter.FieldArchetype))
	assert.Contains(t, m.View(), "Director")

	press(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.False(t, discover.criteria.Constrained(filter.FieldArchetype))
}

func TestModel_ToggleTargetsSelectedRow(t *testing.T) {
	discover := newFakeScreen("discover", item("1", "ama"), item("2", "kofi"))
	m := testModel(t, discover)

	m = press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, []string{"2"}, discover.toggled)

	m = press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, []string{"2", "2"}, discover.toggled, "selection is clamped to the last row")

	press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, 1, discover.refreshes)
}

func TestModel_TabsKeepTheirOwnQuery(t *testing.T) {
	discover := newFakeScreen("discover")
	coalitions := newFakeScreen("coalitions")
	m := testModel(t, discover, coalitions)

	m = press(m, runes("a"), runes("m"), runes("a"))
	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "", m.input.Value())

	m = press(m, runes("x"))
	assert.Equal(t, "x", coalitions.criteria.Get(filter.FieldSearch))
	assert.Equal(t, "ama", discover.criteria.Get(filter.FieldSearch))

	m = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, "ama", m.input.Value())
}

func TestModel_ChangeMessageReloadsView(t *testing.T) {
	discover := newFakeScreen("discover")
	m := testModel(t, discover)
	require.Empty(t, m.views[0].Items)

	discover.items = []state.Item{item("9", "esi")}
	next, cmd := m.Update(changedMsg{tab: 0})
	m = next.(Model)
	require.NotNil(t, cmd, "a new wait is scheduled")
	require.Len(t, m.views[0].Items, 1)
	assert.Contains(t, m.View(), "esi")
}

func TestModel_ThemeAndScreenArePersisted(t *testing.T) {
	discover := newFakeScreen("discover")
	coalitions := newFakeScreen("coalitions")
	m := testModel(t, discover, coalitions)

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlT}, tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	saved, err := prefs.Load(m.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, "Slate", saved.Theme)
	assert.Equal(t, "coalitions", saved.LastScreen)
}

func TestModel_StartScreen(t *testing.T) {
	tabs := []Tab{{Screen: newFakeScreen("discover")}, {Screen: newFakeScreen("collabhub")}}
	m := New(Options{Tabs: tabs, StartScreen: "collabhub"})
	assert.Equal(t, 1, m.active)
}

func TestStatusLine(t *testing.T) {
	text, _ := statusLine(engine.View{Idle: true}, "")
	assert.Equal(t, "Type to search", text)

	text, _ = statusLine(engine.View{Snapshot: state.Snapshot{Loading: true}}, "")
	assert.Equal(t, "Loading...", text)

	offline := engine.View{Snapshot: state.Snapshot{
		Loaded:              true,
		Items:               []state.Item{item("1", "ama")},
		LastError:           errors.New("dial tcp: refused"),
		ConsecutiveFailures: 2,
	}}
	text, tone := statusLine(offline, "")
	assert.True(t, strings.HasPrefix(text, "Offline: Unable to reach the service"))
	assert.Contains(t, text, "Showing last results")
	assert.Equal(t, toneDanger, tone)

	text, _ = statusLine(engine.View{Snapshot: state.Snapshot{Loaded: true}}, "")
	assert.Equal(t, "No results", text)
	text, _ = statusLine(engine.View{
		Snapshot: state.Snapshot{Loaded: true},
		Criteria: filter.Criteria{}.Set(filter.FieldRegion, "Lagos"),
	}, "")
	assert.Equal(t, "No results match these filters", text)

	updated := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	text, _ = statusLine(engine.View{
		Snapshot: state.Snapshot{Loaded: true, Items: []state.Item{item("1", "ama")}, Pending: 1, LastUpdated: updated},
		Total:    3,
	}, "")
	assert.Equal(t, "1 of 3 results · 1 unsynced · updated 09:30:00", text)
}

func TestRenderRow_ShowsToggleMarker(t *testing.T) {
	tab := Tab{
		Columns:     []Column{{Field: "username", Width: 6}, {Field: "is_saved", Width: 1}},
		ToggleField: "is_saved",
	}
	it := state.Item{ID: "1", Fields: map[string]any{"username": "adwoa-b", "is_saved": true}}
	assert.Equal(t, "adw... ★", renderRow(tab, it))
}

func TestCellTruncatesAndPads(t *testing.T) {
	assert.Equal(t, "ab  ", cell("ab", 4))
	assert.Equal(t, "a...", cell("abcdef", 4))
	assert.Equal(t, "Collab Hub", titleCase("collab_hub"))
}
