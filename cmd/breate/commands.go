package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/breate/internal/api"
	"github.com/five82/breate/internal/app"
	"github.com/five82/breate/internal/devserver"
	"github.com/five82/breate/internal/fetch"
	"github.com/five82/breate/internal/filter"
	"github.com/five82/breate/internal/logging"
)

// userError replaces API and fetch failures with the text a user should see,
// keeping validation and server detail messages verbatim.
func userError(err error) error {
	var (
		apiErr   *api.Error
		verr     *api.ValidationError
		fetchErr *fetch.FetchError
	)
	if errors.As(err, &apiErr) || errors.As(err, &verr) || errors.As(err, &fetchErr) {
		return errors.New(api.UserMessage(err))
	}
	return err
}

func searchCmd() *cobra.Command {
	var (
		archetype string
		tier      string
		region    string
		fields    []string
	)
	cmd := &cobra.Command{
		Use:   "search <screen> [query]",
		Short: "Load one screen with the given filters and print the results",
		Long: `Screens: ` + strings.Join(app.ScreenNames(), ", ") + `.
The query is matched against names the same way the interactive search box is.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria := map[string]string{
				filter.FieldArchetype: archetype,
				filter.FieldTier:      tier,
				filter.FieldRegion:    region,
			}
			if len(args) == 2 {
				criteria[filter.FieldSearch] = args[1]
			}
			view, err := app.Search(cmd.Context(), env, app.SearchOptions{
				Screen:   args[0],
				Criteria: criteria,
			})
			if err != nil {
				if view.Loaded && len(view.Items) > 0 {
					_ = app.PrintView(cmd.OutOrStdout(), args[0], view, fields)
				}
				return userError(err)
			}
			return app.PrintView(cmd.OutOrStdout(), args[0], view, fields)
		},
	}
	cmd.Flags().StringVar(&archetype, "archetype", "", "archetype id (discover)")
	cmd.Flags().StringVar(&tier, "tier", "", "tier id (discover)")
	cmd.Flags().StringVar(&region, "region", filter.All, "region to match")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "item fields to print instead of the screen's columns")
	return cmd
}

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a coalition or project",
	}

	var coalition api.CoalitionInput
	coalitionCmd := &cobra.Command{
		Use:   "coalition",
		Short: "Create a coalition and print the refreshed list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, view, err := app.CreateCoalition(cmd.Context(), env, coalition)
			if err != nil && created.ID == 0 {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created coalition %q (id %d)\n", created.Name, created.ID)
			if err != nil {
				return userError(err)
			}
			return app.PrintView(cmd.OutOrStdout(), app.ScreenCoalitions, view, nil)
		},
	}
	coalitionCmd.Flags().StringVar(&coalition.Name, "name", "", "coalition name")
	coalitionCmd.Flags().StringVar(&coalition.Focus, "focus", "", "creative focus")
	coalitionCmd.Flags().StringVar(&coalition.Location, "location", "", "location, for example \"Accra, Ghana\"")
	coalitionCmd.Flags().StringVar(&coalition.Description, "description", "", "short description")

	var project api.ProjectInput
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Create a project and print the refreshed hub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, view, err := app.CreateProject(cmd.Context(), env, project)
			if err != nil && created.ID == 0 {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %q (id %d)\n", created.Title, created.ID)
			if err != nil {
				return userError(err)
			}
			return app.PrintView(cmd.OutOrStdout(), app.ScreenCollabHub, view, nil)
		},
	}
	projectCmd.Flags().StringVar(&project.Title, "title", "", "project title")
	projectCmd.Flags().StringVar(&project.Objective, "objective", "", "what the project sets out to do")
	projectCmd.Flags().StringVar(&project.Timeline, "timeline", "", "timeline, for example \"3 months\"")
	projectCmd.Flags().StringVar(&project.OpenRoles, "open-roles", "", "roles still open")
	projectCmd.Flags().StringVar(&project.ProjectType, "type", "", "project type")
	projectCmd.Flags().StringVar(&project.Region, "region", "", "region")
	projectCmd.Flags().StringSliceVar(&project.NeededArchetypes, "archetypes", nil, "needed archetypes")
	projectCmd.Flags().StringSliceVar(&project.CoalitionTags, "coalitions", nil, "coalition tags")

	cmd.AddCommand(coalitionCmd, projectCmd)
	return cmd
}

func profileCmd() *cobra.Command {
	var (
		email    string
		password string
		edit     struct{ fullName, bio, themes, links, next, affiliations string }
	)
	cmd := &cobra.Command{
		Use:   "profile [username]",
		Short: "Show a profile, or edit your own with --email",
		Long: `Without --email the profile of username (default: the configured
username) is printed. With --email and --password (or BREATE_PASSWORD) the
given fields of your own profile are updated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if email == "" {
				username := ""
				if len(args) == 1 {
					username = args[0]
				}
				p, err := app.ShowProfile(cmd.Context(), env, username)
				if err != nil {
					return userError(err)
				}
				printProfile(cmd, p)
				return nil
			}

			if password == "" {
				password = os.Getenv("BREATE_PASSWORD")
			}
			var changes app.ProfileEdit
			flags := cmd.Flags()
			for name, bind := range map[string]struct {
				dst **string
				src *string
			}{
				"full-name":    {&changes.FullName, &edit.fullName},
				"bio":          {&changes.Bio, &edit.bio},
				"themes":       {&changes.PreferredThemes, &edit.themes},
				"portfolio":    {&changes.PortfolioLinks, &edit.links},
				"next-build":   {&changes.NextBuild, &edit.next},
				"affiliations": {&changes.Affiliations, &edit.affiliations},
			} {
				if flags.Changed(name) {
					*bind.dst = bind.src
				}
			}
			p, err := app.EditProfile(cmd.Context(), env, api.Credentials{Email: email, Password: password}, changes)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(out, "Profile updated")
			printProfile(cmd, p)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "log in with this email to edit your profile")
	cmd.Flags().StringVar(&password, "password", "", "password (default $BREATE_PASSWORD)")
	cmd.Flags().StringVar(&edit.fullName, "full-name", "", "full name")
	cmd.Flags().StringVar(&edit.bio, "bio", "", "bio")
	cmd.Flags().StringVar(&edit.themes, "themes", "", "preferred themes")
	cmd.Flags().StringVar(&edit.links, "portfolio", "", "portfolio links")
	cmd.Flags().StringVar(&edit.next, "next-build", "", "what you are building next")
	cmd.Flags().StringVar(&edit.affiliations, "affiliations", "", "affiliations")
	return cmd
}

func printProfile(cmd *cobra.Command, p api.Profile) {
	out := cmd.OutOrStdout()
	rows := [][2]string{
		{"Username", p.Username},
		{"Full name", p.FullName},
		{"Bio", p.Bio},
		{"Themes", p.PreferredThemes},
		{"Portfolio", p.PortfolioLinks},
		{"Next build", p.NextBuild},
		{"Affiliations", p.Affiliations},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(out, "%-13s %s\n", r[0]+":", r[1])
	}
}

func devserverCmd() *cobra.Command {
	var opts devserver.Options
	addr := "127.0.0.1:8000"
	cmd := &cobra.Command{
		Use:         "devserver",
		Short:       "Serve an in-memory directory API for local development",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"bootstrap": "skip"},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logging.Options{Verbose: verbose})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			opts.Logger = logger
			if opts.Secret == "" {
				opts.Secret = os.Getenv("BREATE_DEV_SECRET")
			}

			srv, err := devserver.New(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving http://%s/api/v1 (seed password %q)\n", addr, devserver.SeedPassword)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", addr, "listen address")
	cmd.Flags().IntVar(&opts.FailFirst, "fail-first", 0, "answer the first N GET requests with 503")
	cmd.Flags().DurationVar(&opts.Latency, "latency", 0, "delay every request by this much")
	cmd.Flags().DurationVar(&opts.TokenTTL, "token-ttl", 24*time.Hour, "access token lifetime")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "token signing secret (default $BREATE_DEV_SECRET or a fixed dev secret)")
	return cmd
}
