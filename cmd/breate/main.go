package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/breate/internal/app"
)

var (
	configPath  string
	envPath     string
	pollSeconds int
	verbose     bool

	env *app.Env
)

var rootCmd = &cobra.Command{
	Use:   "breate",
	Short: "Browse the creative collaboration directory from the terminal",
	Long: `breate keeps filtered lists of peers, coalitions, projects and your
collab circle in sync with the directory API. Typing in a search box is
debounced, failed requests are retried, and out-of-order responses are
discarded so the list always matches the latest filters.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["bootstrap"] == "skip" {
			return nil
		}
		var err error
		env, err = app.Bootstrap(app.Options{
			ConfigPath:  configPath,
			EnvPath:     envPath,
			Verbose:     verbose,
			LogToStderr: cmd != cmd.Root(),
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if env != nil {
			env.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), env, app.RunOptions{
			PollEvery: time.Duration(pollSeconds) * time.Second,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/breate/config.toml)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", "", "environment file (default ./.env when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().IntVar(&pollSeconds, "poll", 0, "reload every screen this often in seconds (default from config, 0 disables)")

	rootCmd.AddCommand(searchCmd(), createCmd(), profileCmd(), devserverCmd())
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "breate: %v\n", err)
		return 1
	}
	return 0
}
