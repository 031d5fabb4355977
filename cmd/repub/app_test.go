package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"repub/state"
)

func TestDumpConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default", []string{"dumpconfig", "--default"}, "# Configuration file version"},
		{"actual", []string{"dumpconfig"}, "toc_title: Table of Contents"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "config.yaml")
			args := append([]string{"repub"}, tt.args...)
			args = append(args, out)

			ctx := state.ContextWithEnv(context.Background())
			if err := newApp().Run(ctx, args); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("output does not contain %q:\n%s", tt.want, data)
			}
			if state.EnvFromContext(ctx).Cfg == nil {
				t.Error("configuration is not loaded")
			}
		})
	}
}

func TestConfigurationLoadsDefaults(t *testing.T) {
	env := state.EnvFromContext(state.ContextWithEnv(context.Background()))
	kind, data, err := configuration(env, false)
	if err != nil {
		t.Fatalf("configuration() error = %v", err)
	}
	if kind != "actual" || env.Cfg == nil || !strings.Contains(string(data), "version: 1") {
		t.Errorf("unexpected result %q, cfg loaded: %v", kind, env.Cfg != nil)
	}
}
