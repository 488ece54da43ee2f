package app

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/five82/breate/internal/api"
	"github.com/five82/breate/internal/config"
	"github.com/five82/breate/internal/engine"
	"github.com/five82/breate/internal/fetch"
	"github.com/five82/breate/internal/filter"
	"github.com/five82/breate/internal/ui"
)

// Screen names, also used as [screens.<name>] config sections.
const (
	ScreenDiscover     = "discover"
	ScreenCoalitions   = "coalitions"
	ScreenCollabHub    = "collabhub"
	ScreenCollabCircle = "collabcircle"
)

// KindSave flips a peer's saved flag for the session.
const KindSave = "save"

var (
	discoverRegions   = []string{"Accra", "Lagos", "Nairobi", "Global"}
	coalitionRegions  = []string{"Accra, Ghana", "Lagos, Nigeria", "Nairobi, Kenya", "Cape Town, South Africa"}
	collabHubRegions  = []string{"Accra", "Lagos", "Nairobi", "Cape Town"}
	errUnknownScreen  = errors.New("unknown screen")
	errNeedsUsername  = errors.New("collab circle needs a username; set username in the config or BREATE_USERNAME")
	screenOrder       = []string{ScreenDiscover, ScreenCoalitions, ScreenCollabHub, ScreenCollabCircle}
	collabHubDelay    = 700 * time.Millisecond
	collabHubPolicy   = fetch.Policy{MaxRetries: 3, BaseDelay: time.Second, Backoff: fetch.BackoffFixed}
	defaultListPolicy = fetch.DefaultPolicy()
)

// ScreenNames lists the screens in tab order.
func ScreenNames() []string {
	return append([]string(nil), screenOrder...)
}

// ScreenConfig returns the engine configuration of the named screen with the
// user's overrides applied.
func ScreenConfig(name string, cfg config.Config) (engine.Config, error) {
	base := engine.Config{
		Name:        name,
		Debounce:    cfg.Debounce,
		MutationTTL: cfg.MutationTTL,
		Defaults:    filter.NewCriteria(map[string]string{filter.FieldRegion: filter.All}),
	}

	switch name {
	case ScreenDiscover:
		base.Shape = filter.Shape{
			Endpoint: "/discover/",
			Params: []filter.ParamField{
				{Field: filter.FieldSearch, Name: "name"},
				{Field: filter.FieldArchetype},
				{Field: filter.FieldTier},
			},
			Local: []filter.LocalMatch{
				{Field: filter.FieldRegion, ItemFields: []string{"region"}, Mode: filter.MatchEquals},
			},
			SkipEmpty: cfg.SkipEmpty(name, true),
		}
		base.Policy = cfg.Policy(name, defaultListPolicy)
		base.Kinds = map[string]engine.Kind{KindSave: {Field: "is_saved"}}

	case ScreenCoalitions:
		base.Shape = filter.Shape{
			Endpoint: "/coalitions",
			Local: []filter.LocalMatch{
				{Field: filter.FieldSearch, ItemFields: []string{"name", "focus"}, Mode: filter.MatchContains},
				{Field: filter.FieldRegion, ItemFields: []string{"location"}, Mode: filter.MatchEquals},
			},
			SkipEmpty: cfg.SkipEmpty(name, false),
		}
		base.Policy = cfg.Policy(name, defaultListPolicy)

	case ScreenCollabHub:
		base.Shape = filter.Shape{
			Endpoint: "/projects",
			Local: []filter.LocalMatch{
				{Field: filter.FieldSearch, ItemFields: []string{"title", "objective", "project_type", "open_roles"}, Mode: filter.MatchContains},
				{Field: filter.FieldRegion, ItemFields: []string{"region"}, Mode: filter.MatchEquals},
			},
			SkipEmpty: cfg.SkipEmpty(name, false),
		}
		base.Policy = cfg.Policy(name, collabHubPolicy)
		base.InitialDelay = collabHubDelay

	case ScreenCollabCircle:
		if strings.TrimSpace(cfg.Username) == "" {
			return engine.Config{}, errNeedsUsername
		}
		base.Shape = filter.Shape{
			Endpoint: api.CirclePath(cfg.Username),
			Local: []filter.LocalMatch{
				{Field: filter.FieldSearch, ItemFields: []string{"collaborator_username", "project_name"}, Mode: filter.MatchContains},
			},
			SkipEmpty: cfg.SkipEmpty(name, false),
			ResultKey: "collab_circle",
			IDField:   "collaborator_username",
		}
		base.Policy = cfg.Policy(name, defaultListPolicy)
		base.Defaults = filter.Criteria{}

	default:
		return engine.Config{}, fmt.Errorf("%w %q", errUnknownScreen, name)
	}
	return base, nil
}

// ScreenTab returns the presentation of the named screen. Screen is left for
// the caller to fill in.
func ScreenTab(name string, vocab api.Vocabulary) ui.Tab {
	switch name {
	case ScreenDiscover:
		return ui.Tab{
			Title: "Discover",
			Columns: []ui.Column{
				{Title: "User", Field: "username", Width: 18},
				{Title: "Archetype", Field: "archetype", Width: 16},
				{Title: "Tier", Field: "tier", Width: 12},
				{Title: "Region", Field: "region", Width: 10},
				{Title: "Projects", Field: "active_projects", Width: 8},
				{Title: "Saved", Field: "is_saved", Width: 5},
			},
			SearchField: filter.FieldSearch,
			Cycles: []ui.Cycle{
				{Key: "f2", Field: filter.FieldArchetype, Label: "archetype", Choices: optionChoices(vocab.Archetypes)},
				{Key: "f3", Field: filter.FieldTier, Label: "tier", Choices: optionChoices(vocab.Tiers)},
				{Key: "f4", Field: filter.FieldRegion, Label: "region", Choices: regionChoices(discoverRegions)},
			},
			ToggleKind:  KindSave,
			ToggleField: "is_saved",
			IdleHint:    "Type a name or pick an archetype or tier to discover peers",
		}
	case ScreenCoalitions:
		return ui.Tab{
			Title: "Coalitions",
			Columns: []ui.Column{
				{Title: "Name", Field: "name", Width: 26},
				{Title: "Focus", Field: "focus", Width: 16},
				{Title: "Location", Field: "location", Width: 24},
				{Title: "Members", Field: "memberCount", Width: 7},
			},
			SearchField: filter.FieldSearch,
			Cycles: []ui.Cycle{
				{Key: "f4", Field: filter.FieldRegion, Label: "region", Choices: regionChoices(coalitionRegions)},
			},
		}
	case ScreenCollabHub:
		return ui.Tab{
			Title: "Collab Hub",
			Columns: []ui.Column{
				{Title: "Title", Field: "title", Width: 20},
				{Title: "Type", Field: "project_type", Width: 14},
				{Title: "Open roles", Field: "open_roles", Width: 18},
				{Title: "Timeline", Field: "timeline", Width: 10},
				{Title: "Region", Field: "region", Width: 10},
			},
			SearchField: filter.FieldSearch,
			Cycles: []ui.Cycle{
				{Key: "f4", Field: filter.FieldRegion, Label: "region", Choices: regionChoices(collabHubRegions)},
			},
		}
	case ScreenCollabCircle:
		return ui.Tab{
			Title: "Circle",
			Columns: []ui.Column{
				{Title: "Collaborator", Field: "collaborator_username", Width: 20},
				{Title: "Project", Field: "project_name", Width: 24},
				{Title: "Verified", Field: "verified_at", Width: 20},
			},
			SearchField: filter.FieldSearch,
		}
	}
	return ui.Tab{Title: name}
}

func optionChoices(options []api.Option) []ui.Choice {
	choices := []ui.Choice{{Value: filter.All, Label: "All"}}
	sorted := append([]api.Option(nil), options...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, o := range sorted {
		choices = append(choices, ui.Choice{Value: strconv.FormatInt(o.ID, 10), Label: o.Name})
	}
	return choices
}

func regionChoices(regions []string) []ui.Choice {
	choices := []ui.Choice{{Value: filter.All, Label: "All"}}
	for _, r := range regions {
		choices = append(choices, ui.Choice{Value: r, Label: r})
	}
	return choices
}
