package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/evanschultz/dragboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/dragboard/internal/app"
	"github.com/evanschultz/dragboard/internal/config"
	"github.com/evanschultz/dragboard/internal/drag"
	"github.com/evanschultz/dragboard/internal/layout"
	"github.com/evanschultz/dragboard/internal/platform"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
	Send(msg tea.Msg)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run builds the command tree and executes args against it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool

	stdout io.Writer
	stderr io.Writer
}

// newRootCommand wires the persistent flags and every subcommand.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	envOpts := platform.OptionsFromEnv(os.Getenv)
	opts := &rootOptions{
		appName: envOpts.AppName,
		devMode: envOpts.DevMode,
		stdout:  stdout,
		stderr:  stderr,
	}
	if opts.appName == "" {
		opts.appName = platform.DefaultAppName
	}

	root := &cobra.Command{
		Use:   "dragboard",
		Short: "A two-level board with drag-and-drop reordering",
		Long: `dragboard keeps columns of rows and reorders both by long-press drag.

Run without a subcommand to open the terminal board.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML (env "+platform.EnvConfigPath+")")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database (env "+platform.EnvDBPath+")")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config and data dirs (env "+platform.EnvAppName+")")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use isolated dev paths and the dev log file (env "+platform.EnvDevMode+")")

	root.AddCommand(
		newTUICommand(opts),
		newServeCommand(opts),
		newReplayCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newShowCommand(opts),
		newEventsCommand(opts),
		newInitCommand(opts),
		newPathsCommand(opts),
	)
	return root
}

// resolvePaths applies env and flag overrides to the platform defaults.
func (o *rootOptions) resolvePaths() (platform.Paths, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
	if err != nil {
		return platform.Paths{}, fmt.Errorf("resolve paths: %w", err)
	}
	paths = platform.ApplyEnv(paths, os.Getenv)
	if v := strings.TrimSpace(o.configPath); v != "" {
		paths.ConfigPath = v
	}
	if v := strings.TrimSpace(o.dbPath); v != "" {
		paths.DBPath = v
	}
	return paths, nil
}

// loadConfig reads the config file over the defaults for paths. An explicit
// --db always wins over the file.
func (o *rootOptions) loadConfig(paths platform.Paths) (config.Config, config.Config, error) {
	defaults := config.Default(paths.DBPath)
	cfg, err := config.Load(paths.ConfigPath, defaults)
	if err != nil {
		return config.Config{}, config.Config{}, fmt.Errorf("load config %q: %w", paths.ConfigPath, err)
	}
	if strings.TrimSpace(o.dbPath) != "" || os.Getenv(platform.EnvDBPath) != "" {
		cfg.Database.Path = paths.DBPath
	}
	return cfg, defaults, nil
}

// runtimeEnv is one opened board: config, logger, storage and a started service.
type runtimeEnv struct {
	paths    platform.Paths
	cfg      config.Config
	defaults config.Config
	logger   *runtimeLogger
	repo     *sqlite.Repository
	svc      *app.Service
	grid     *layout.Grid

	stderr io.Writer
	cancel context.CancelFunc
}

// envOptions tunes openEnv per command.
type envOptions struct {
	command  string
	quiet    bool
	grid     func(cfg config.Config) layout.GridConfig
	tuning   func(cfg config.Config, viewportWidth float64) drag.Tuning
	inMemory bool
}

// openEnv resolves paths and config, opens storage and starts the board
// service. Callers must call close.
func openEnv(ctx context.Context, opts *rootOptions, eo envOptions) (*runtimeEnv, error) {
	paths, err := opts.resolvePaths()
	if err != nil {
		return nil, err
	}
	cfg, defaults, err := opts.loadConfig(paths)
	if err != nil {
		return nil, err
	}
	logger, err := newRuntimeLogger(opts.stderr, opts.appName, paths.DataDir, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if eo.quiet {
		logger.SetConsoleEnabled(false)
	}
	env := &runtimeEnv{
		paths:    paths,
		cfg:      cfg,
		defaults: defaults,
		logger:   logger,
		stderr:   opts.stderr,
	}
	logger.Info("startup configuration resolved",
		"command", eo.command,
		"app", opts.appName,
		"dev_mode", opts.devMode,
		"config_path", paths.ConfigPath,
		"db_path", cfg.Database.Path,
		"log_level", cfg.Logging.Level,
	)
	if devLogPath := logger.DevLogPath(); devLogPath != "" {
		logger.Info("dev file logging enabled", "path", devLogPath)
	}

	if eo.inMemory {
		env.repo, err = sqlite.OpenInMemory()
	} else {
		env.repo, err = sqlite.Open(cfg.Database.Path)
	}
	if err != nil {
		env.close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}

	gridCfg := cfg.Grid
	if eo.grid != nil {
		gridCfg = eo.grid(cfg)
	}
	env.grid = layout.NewGrid(gridCfg)
	tuningFor := config.Config.Tuning
	if eo.tuning != nil {
		tuningFor = eo.tuning
	}
	svcCfg := app.ServiceConfig{
		SeedColumns: cfg.SeedColumns(),
		Tuning:      tuningFor(cfg, gridCfg.ViewportWidth),
	}
	env.svc = app.NewService(env.repo, uuid.NewString, nil, svcCfg,
		app.WithLogger(logger.Component("board")),
		app.WithGrid(env.grid),
	)
	runCtx, cancel := context.WithCancel(ctx)
	env.cancel = cancel
	if err := env.svc.Start(runCtx); err != nil {
		env.close()
		return nil, fmt.Errorf("start board service: %w", err)
	}
	return env, nil
}

// watchConfig reloads the config file in the background until the env closes.
func (e *runtimeEnv) watchConfig(ctx context.Context, onChange func(config.Config)) {
	go func() {
		err := config.Watch(ctx, e.paths.ConfigPath, e.defaults, func(cfg config.Config) {
			e.logger.Info("config reloaded", "config_path", e.paths.ConfigPath)
			onChange(cfg)
		},
			config.WithWatchLogger(e.logger.Component("config")),
			config.WithWatchErrorHandler(func(err error) {
				e.logger.Warn("config reload rejected", "config_path", e.paths.ConfigPath, "err", err)
			}),
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Warn("config watch stopped", "config_path", e.paths.ConfigPath, "err", err)
		}
	}()
}

// close stops the service loop and releases storage and log files.
func (e *runtimeEnv) close() {
	if e == nil {
		return
	}
	if e.cancel != nil {
		e.cancel()
		if e.svc != nil {
			<-e.svc.Done()
		}
	}
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			e.logger.Warn("sqlite repository close failed", "err", err)
		}
	}
	if err := e.logger.Close(); err != nil && e.stderr != nil {
		_, _ = fmt.Fprintf(e.stderr, "warning: close runtime logger: %v\n", err)
	}
}
