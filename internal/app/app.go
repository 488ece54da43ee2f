package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/breate/internal/api"
	"github.com/five82/breate/internal/config"
	"github.com/five82/breate/internal/engine"
	"github.com/five82/breate/internal/fetch"
	"github.com/five82/breate/internal/logging"
	"github.com/five82/breate/internal/prefs"
	"github.com/five82/breate/internal/ui"
)

const vocabularyTimeout = 15 * time.Second

// Options configure Bootstrap.
type Options struct {
	ConfigPath string
	EnvPath    string // empty uses ./.env when present
	Verbose    bool
	// LogToStderr ignores the configured log file. Interactive runs keep
	// the file so the TUI owns the terminal.
	LogToStderr bool
}

// Env holds what every command shares.
type Env struct {
	Config config.Config
	Logger *zap.Logger
	Client *api.Client
}

// Bootstrap loads the environment file and config, then builds the logger and
// API client.
func Bootstrap(opts Options) (*Env, error) {
	if err := config.LoadEnv(opts.EnvPath); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logOpts := logging.Options{Level: cfg.LogLevel, Path: cfg.LogPath, Verbose: opts.Verbose}
	if opts.LogToStderr {
		logOpts.Path = ""
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg.APIBase, logger.Named("api"))
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}
	logger.Debug("bootstrapped",
		zap.String("api_base", client.BaseURL()),
		zap.String("username", cfg.Username))
	return &Env{Config: cfg, Logger: logger, Client: client}, nil
}

// Close flushes the logger.
func (e *Env) Close() {
	_ = e.Logger.Sync()
}

// NewEngine builds the engine of the named screen over the API client.
func (e *Env) NewEngine(screen string, opts ...engine.Option) (*engine.Engine, error) {
	cfg, err := ScreenConfig(screen, e.Config)
	if err != nil {
		return nil, err
	}
	opts = append([]engine.Option{engine.WithLogger(e.Logger)}, opts...)
	return engine.New(e.Client, cfg, opts...), nil
}

// RunOptions configure the interactive browser.
type RunOptions struct {
	PrefsPath string // empty uses ~/.config/breate/prefs.toml
	// PollEvery reloads every screen at this cadence. Zero uses the config's
	// poll_seconds; when both are zero nothing polls.
	PollEvery time.Duration
}

// Run boots the TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, env *Env, opts RunOptions) error {
	userPrefs, _ := prefs.Load(opts.PrefsPath)

	vocab := loadVocabulary(ctx, env)

	var (
		tabs    []ui.Tab
		loaders []Loader
		engines []*engine.Engine
	)
	defer func() {
		for _, e := range engines {
			e.Close()
		}
	}()
	for _, name := range ScreenNames() {
		eng, err := env.NewEngine(name)
		if errors.Is(err, errNeedsUsername) {
			env.Logger.Info("screen disabled", zap.String("screen", name), zap.Error(err))
			continue
		}
		if err != nil {
			return err
		}
		engines = append(engines, eng)
		loaders = append(loaders, eng)

		tab := ScreenTab(name, vocab)
		tab.Screen = eng
		tabs = append(tabs, tab)
		eng.Start()
	}

	interval := opts.PollEvery
	if interval <= 0 {
		interval = env.Config.PollInterval
	}
	if interval > 0 {
		pollCtx, stopPoller := context.WithCancel(ctx)
		done := StartPoller(pollCtx, loaders, interval, env.Logger)
		defer func() {
			stopPoller()
			<-done
		}()
	}

	return ui.Run(ui.Options{
		Context:     ctx,
		Tabs:        tabs,
		ThemeName:   userPrefs.Theme,
		PrefsPath:   opts.PrefsPath,
		StartScreen: userPrefs.LastScreen,
	})
}

// loadVocabulary fetches the archetype and tier options. Failures leave the
// filters with only "All" rather than blocking startup.
func loadVocabulary(ctx context.Context, env *Env) api.Vocabulary {
	vctx, cancel := context.WithTimeout(ctx, vocabularyTimeout)
	defer cancel()

	vocab, err := env.Client.Vocabulary(vctx, env.Config.Policy("vocabulary", fetch.DefaultPolicy()))
	if err != nil {
		env.Logger.Warn("filter options unavailable", zap.Error(err))
		return api.Vocabulary{}
	}
	return vocab
}
