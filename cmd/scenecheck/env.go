package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scenecheck/internal/check"
	"scenecheck/internal/checks"
	"scenecheck/internal/config"
	"scenecheck/internal/logger"
	"scenecheck/internal/observ"
	"scenecheck/internal/scene/memscene"
	"scenecheck/internal/session"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	color      bool
	quiet      bool
	timings    bool
	maxIssues  int
	logLevel   string
	logFormat  string
}

func readGlobalFlags(cmd *cobra.Command) (globalFlags, error) {
	var g globalFlags
	flags := cmd.Root().PersistentFlags()
	var err error
	if g.configPath, err = flags.GetString("config"); err != nil {
		return g, fmt.Errorf("failed to get config flag: %w", err)
	}
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return g, fmt.Errorf("failed to get color flag: %w", err)
	}
	if g.color, err = readColor(colorFlag); err != nil {
		return g, err
	}
	if g.quiet, err = flags.GetBool("quiet"); err != nil {
		return g, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if g.timings, err = flags.GetBool("timings"); err != nil {
		return g, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if g.maxIssues, err = flags.GetInt("max-issues"); err != nil {
		return g, fmt.Errorf("failed to get max-issues flag: %w", err)
	}
	if g.logLevel, err = flags.GetString("log-level"); err != nil {
		return g, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	if g.logFormat, err = flags.GetString("log-format"); err != nil {
		return g, fmt.Errorf("failed to get log-format flag: %w", err)
	}
	return g, nil
}

// loadConfig reads --config or discovers scenecheck.toml upwards from dir.
func loadConfig(g globalFlags, dir string) (*config.Config, error) {
	if g.configPath != "" {
		return config.Load(g.configPath)
	}
	return config.Discover(dir)
}

// appEnv is everything a command needs to validate one scene.
type appEnv struct {
	flags     globalFlags
	cfg       *config.Config
	log       *zap.Logger
	cliLog    *zap.SugaredLogger
	metrics   *observ.Metrics
	timer     *observ.Timer
	scenePath string
	scene     *memscene.Scene
	registry  *check.Registry
	session   *session.Session
}

type envOptions struct {
	sink session.Sink
	only []string
	skip []string
}

func setupEnv(cmd *cobra.Command, scenePath string, opts envOptions) (*appEnv, error) {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return nil, err
	}
	env := &appEnv{flags: g, scenePath: scenePath, metrics: observ.NewMetrics()}
	if g.timings {
		env.timer = observ.NewTimer()
	}

	if err := env.timer.Measure("config", func() error {
		env.cfg, err = loadConfig(g, filepath.Dir(scenePath))
		return err
	}); err != nil {
		return nil, err
	}

	level := firstNonEmpty(g.logLevel, env.cfg.Log.Level)
	format := firstNonEmpty(g.logFormat, env.cfg.Log.Format)
	if env.log, err = logger.FromStrings(level, format, cmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	env.cliLog = logger.For(env.log, logger.ComponentCLI)
	if env.cfg.Path != "" {
		env.cliLog.Debugw("config loaded", "path", env.cfg.Path)
	}

	if err := env.timer.Measure("load scene", func() error {
		env.scene, err = memscene.Load(scenePath)
		return err
	}); err != nil {
		return nil, err
	}

	if env.registry, err = checks.Build(env.cfg); err != nil {
		return nil, err
	}
	if err := applyOnlySkip(env.registry, opts.only, opts.skip); err != nil {
		return nil, err
	}

	maxIssues := env.cfg.Session.MaxIssues
	if g.maxIssues >= 0 {
		maxIssues = g.maxIssues
	}
	env.session, err = session.New(env.registry, env.scene, session.Options{
		Logger:    logger.For(env.log, logger.ComponentSession),
		Metrics:   env.metrics,
		Sink:      opts.sink,
		MaxIssues: maxIssues,
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

// applyOnlySkip disables checks outside --only and inside --skip.
func applyOnlySkip(reg *check.Registry, only, skip []string) error {
	if len(only) > 0 {
		keep := make(map[string]bool, len(only))
		for _, id := range only {
			if _, ok := reg.Lookup(id); !ok {
				return fmt.Errorf("--only: unknown check %q (known: %s)", id, strings.Join(checks.IDs(), ", "))
			}
			keep[id] = true
		}
		for _, c := range reg.All() {
			if !keep[c.ID()] {
				if err := reg.Disable(c.ID()); err != nil {
					return err
				}
			}
		}
	}
	for _, id := range skip {
		if err := reg.Disable(id); err != nil {
			return fmt.Errorf("--skip: %w", err)
		}
	}
	return nil
}

// runAll executes every enabled check and records the phase.
func (e *appEnv) runAll(ctx context.Context) (session.Snapshot, error) {
	var snap session.Snapshot
	err := e.timer.Measure("run checks", func() error {
		var err error
		snap, err = e.session.RunAll(ctx)
		return err
	})
	return snap, err
}

// save writes the scene back to path, or to the scene's own path when empty.
func (e *appEnv) save(path string) error {
	if path == "" {
		path = e.scenePath
	}
	return e.timer.Measure("save scene", func() error {
		if err := memscene.Save(path, e.scene); err != nil {
			return err
		}
		e.cliLog.Infow("scene saved", "path", path)
		return nil
	})
}

func (e *appEnv) finish(cmd *cobra.Command) {
	if e.flags.timings {
		printTimings(cmd.ErrOrStderr(), e.timer)
	}
	_ = e.log.Sync()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
