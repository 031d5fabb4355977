package main

import (
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"repub/config"
	"repub/state"
)

func dumpConfig(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	kind, data, err := configuration(env, cmd.Bool("default"))
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	var out io.Writer = os.Stdout
	fname := cmd.Args().Get(0)
	if len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer f.Close()
		out = f
	} else {
		fname = "STDOUT"
	}

	env.Log.Info("Outputting configuration", zap.String("state", kind), zap.String("file", fname))
	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}

// configuration returns either embedded defaults or configuration program
// runs with, which is loaded here when no command caused it to load yet.
func configuration(env *state.LocalEnv, defaults bool) (string, []byte, error) {
	if defaults {
		data, err := config.Template()
		return "default", data, err
	}
	if env.Cfg == nil {
		cfg, err := config.LoadConfiguration("")
		if err != nil {
			return "", nil, err
		}
		env.Cfg = cfg
	}
	data, err := config.Dump(env.Cfg)
	return "actual", data, err
}
