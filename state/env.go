// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"repub/config"
)

type envKey struct{}

// BuildOptions carries settings of build subcommand collected from command
// line.
type BuildOptions struct {
	Overrides config.Overrides
	// Keep staging directory after the run.
	PreserveStaging bool
	// Write merged book configuration back to the source.
	SaveBook bool
}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg   *config.Config
	Rpt   *config.Report
	Log   *zap.Logger
	Build BuildOptions

	start         time.Time
	restoreStdLog func()
}

// EnvFromContext returns environment stored by ContextWithEnv, it panics
// when there is none.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(envKey{}).(*LocalEnv)
	if !ok {
		panic("program environment is missing from context")
	}
	return env
}

// ContextWithEnv returns context carrying fresh environment. Its logger
// discards everything until configured one replaces it.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{Log: zap.NewNop(), start: time.Now()})
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// RedirectStdLog sends output of standard library logger to Log until
// RestoreStdLog is called.
func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil || e.restoreStdLog != nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

// RestoreStdLog flushes Log and undoes RedirectStdLog, calling it more than
// once is safe.
func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if restore := e.restoreStdLog; restore != nil {
		e.restoreStdLog = nil
		restore()
	}
}
