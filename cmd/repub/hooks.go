package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"repub/config"
	"repub/misc"
	"repub/state"
)

// before runs once command line is parsed. It loads configuration, opens
// debug report when requested and replaces discarding logger with the
// configured one.
func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)
	configFile := cmd.String("config")

	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	env.Cfg = cfg

	if cmd.Bool("debug") {
		if env.Rpt, err = cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug report: %w", err)
		}
		if data, err := config.Dump(cfg); len(configFile) > 0 && err == nil {
			env.Rpt.StoreData("config/"+filepath.Base(configFile), data)
		}
	}

	if env.Log, err = cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args),
		zap.String("ver", misc.GetVersion()),
		zap.String("runtime", runtime.Version()),
		zap.String("hash", misc.GetGitHash()))
	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

// after releases everything before prepared. Log is closed first, so errors
// from here on go to stderr.
func after(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	env.RestoreStdLog()

	if er := env.Rpt.Close(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
	}
	if env.Cfg != nil {
		err = multierr.Append(err, env.Cfg.Logging.ReleasePanicLog())
	}
	return err
}

// errLogged is set when error returned by command has already made it into
// the log.
var errLogged bool

// onExitError is called while log is still open.
func onExitError(ctx context.Context, _ *cli.Command, err error) {
	if env := state.EnvFromContext(ctx); env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errLogged = true
	}
}

func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func onCommandNotFound(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}
