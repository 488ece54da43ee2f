// Package app is the composition root of breate.
//
// # Overview
//
// Bootstrap loads .env and config.toml, builds the zap logger and the API
// client, and returns an Env shared by every command. The interactive Run
// builds one engine per screen, starts them, optionally launches the poller
// and hands the engines to the TUI. Search, CreateCoalition, CreateProject,
// ShowProfile and EditProfile back the one-shot subcommands.
//
// # Screens
//
// ScreenConfig holds the per-screen presets:
//
//   - discover: /discover/ with name, archetype_id and tier_id params, a
//     400ms debounce, 3 retries 800ms apart, no request while nothing is
//     constrained, region matched locally, and a session-only save toggle.
//   - coalitions: /coalitions loaded whole, filtered locally on name or
//     focus and on location.
//   - collabhub: /projects with 3 retries 1s apart and a 700ms delay before
//     the first load.
//   - collabcircle: /collabcircle/{username} for the configured username,
//     results under collab_circle keyed by collaborator_username. Without a
//     username the screen is left out.
//
// Retry settings and skip_empty can be overridden per screen in config.toml.
//
// # Polling
//
// When an interval is configured the poller reloads every screen on that
// cadence. Consecutive failed rounds double the wait up to 30 seconds; loads
// superseded by a newer settle do not count as failures.
//
// # Error Handling
//
// Only configuration and logger setup failures abort startup. Fetch failures
// surface in the screens' status line and the last good results stay on
// screen. An unreachable vocabulary endpoint leaves the archetype and tier
// filters at "All".
package app
