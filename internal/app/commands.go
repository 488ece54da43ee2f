package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"

	"github.com/five82/breate/internal/api"
	"github.com/five82/breate/internal/engine"
	"github.com/five82/breate/internal/state"
)

// SearchOptions configure a one-shot search.
type SearchOptions struct {
	Screen   string
	Criteria map[string]string
}

// Search settles the screen once with the given criteria and returns the view.
func Search(ctx context.Context, env *Env, opts SearchOptions) (engine.View, error) {
	cfg, err := ScreenConfig(opts.Screen, env.Config)
	if err != nil {
		return engine.View{}, err
	}
	for field, value := range opts.Criteria {
		cfg.Defaults = cfg.Defaults.Set(field, value)
	}

	eng := engine.New(env.Client, cfg, engine.WithLogger(env.Logger))
	defer eng.Close()

	view, err := eng.Load(ctx)
	if err != nil {
		return view, fmt.Errorf("search %s: %w", opts.Screen, err)
	}
	return view, nil
}

// PrintView writes the view as a table with the screen's columns.
func PrintView(w io.Writer, screen string, view engine.View, fields []string) error {
	if view.Idle {
		hint := ScreenTab(screen, api.Vocabulary{}).IdleHint
		if hint == "" {
			hint = "Nothing to search for"
		}
		_, err := fmt.Fprintln(w, hint)
		return err
	}
	if len(view.Items) == 0 {
		_, err := fmt.Fprintln(w, "No results")
		return err
	}

	headers, columns := printColumns(screen, fields)
	rows := make([][]string, 0, len(view.Items))
	for _, it := range view.Items {
		rows = append(rows, printRow(it, columns))
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}

	summary := fmt.Sprintf("%d results", len(view.Items))
	if view.Total != len(view.Items) {
		summary = fmt.Sprintf("%d of %d results", len(view.Items), view.Total)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func printColumns(screen string, fields []string) ([]string, []string) {
	if len(fields) > 0 {
		return fields, fields
	}
	tab := ScreenTab(screen, api.Vocabulary{})
	headers := make([]string, 0, len(tab.Columns))
	columns := make([]string, 0, len(tab.Columns))
	for _, c := range tab.Columns {
		headers = append(headers, c.Title)
		columns = append(columns, c.Field)
	}
	return headers, columns
}

func printRow(it state.Item, columns []string) []string {
	row := make([]string, 0, len(columns))
	for _, field := range columns {
		row = append(row, it.String(field))
	}
	return row
}

// CreateCoalition posts a coalition and reloads the coalitions screen so the
// returned view includes it.
func CreateCoalition(ctx context.Context, env *Env, in api.CoalitionInput) (api.Coalition, engine.View, error) {
	created, err := env.Client.CreateCoalition(ctx, in)
	if err != nil {
		return api.Coalition{}, engine.View{}, err
	}
	env.Logger.Info("coalition created", zap.Int64("id", created.ID), zap.String("name", created.Name))
	view, err := reload(ctx, env, ScreenCoalitions)
	return created, view, err
}

// CreateProject posts a project and reloads the collab hub screen.
func CreateProject(ctx context.Context, env *Env, in api.ProjectInput) (api.Project, engine.View, error) {
	created, err := env.Client.CreateProject(ctx, in)
	if err != nil {
		return api.Project{}, engine.View{}, err
	}
	env.Logger.Info("project created", zap.Int64("id", created.ID), zap.String("title", created.Title))
	view, err := reload(ctx, env, ScreenCollabHub)
	return created, view, err
}

func reload(ctx context.Context, env *Env, screen string) (engine.View, error) {
	eng, err := env.NewEngine(screen)
	if err != nil {
		return engine.View{}, err
	}
	defer eng.Close()

	view, err := eng.Load(ctx)
	if err != nil {
		return view, fmt.Errorf("reload %s: %w", screen, err)
	}
	return view, nil
}

// ProfileEdit lists the profile fields to change. Nil fields are kept.
type ProfileEdit struct {
	FullName        *string
	Bio             *string
	PreferredThemes *string
	PortfolioLinks  *string
	NextBuild       *string
	Affiliations    *string
}

// Empty reports whether the edit changes nothing.
func (p ProfileEdit) Empty() bool {
	return p.FullName == nil && p.Bio == nil && p.PreferredThemes == nil &&
		p.PortfolioLinks == nil && p.NextBuild == nil && p.Affiliations == nil
}

func (p ProfileEdit) apply(dst *api.Profile) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&dst.FullName, p.FullName)
	set(&dst.Bio, p.Bio)
	set(&dst.PreferredThemes, p.PreferredThemes)
	set(&dst.PortfolioLinks, p.PortfolioLinks)
	set(&dst.NextBuild, p.NextBuild)
	set(&dst.Affiliations, p.Affiliations)
}

// ShowProfile reads the profile of username, defaulting to the configured
// user.
func ShowProfile(ctx context.Context, env *Env, username string) (api.Profile, error) {
	if strings.TrimSpace(username) == "" {
		username = env.Config.Username
	}
	if strings.TrimSpace(username) == "" {
		return api.Profile{}, &api.ValidationError{Field: "username", Reason: "is required"}
	}
	return env.Client.Profile(ctx, username)
}

// EditProfile logs in with creds and applies edit to the caller's own
// profile.
func EditProfile(ctx context.Context, env *Env, creds api.Credentials, edit ProfileEdit) (api.Profile, error) {
	if edit.Empty() {
		return api.Profile{}, errors.New("nothing to change")
	}
	session, err := env.Client.Login(ctx, creds)
	if err != nil {
		return api.Profile{}, err
	}
	if session.Expired(time.Now()) {
		return api.Profile{}, errors.New("login returned an expired token")
	}
	env.Client.SetToken(session.AccessToken)

	username := session.User.Username
	current, err := env.Client.Profile(ctx, username)
	if err != nil {
		return api.Profile{}, err
	}
	edit.apply(&current)

	updated, err := env.Client.UpdateProfile(ctx, username, current)
	if err != nil {
		return api.Profile{}, err
	}
	env.Logger.Info("profile updated", zap.String("username", username))
	return updated, nil
}
