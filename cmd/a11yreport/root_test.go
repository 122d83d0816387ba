package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "a11yreport" {
			t.Errorf("expected use 'a11yreport', got %q", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has log-json flag", func(t *testing.T) {
		t.Parallel()
		if cmd.PersistentFlags().Lookup("log-json") == nil {
			t.Fatal("expected log-json flag")
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{
			"report":  false,
			"summary": false,
			"compare": false,
			"init":    false,
			"version": false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("json logs", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		var stderr bytes.Buffer
		root.SetErr(&stderr)
		if err := root.PersistentFlags().Set("log-json", "true"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		setupLogger(root, false).Warn("page not reachable", "cookie", "session=abc")

		out := stderr.String()
		if !strings.HasPrefix(out, "{") {
			t.Errorf("expected JSON log line, got %q", out)
		}
		if strings.Contains(out, "session=abc") {
			t.Errorf("expected cookie to be masked, got %q", out)
		}
	})

	t.Run("text logs without root", func(t *testing.T) {
		t.Parallel()

		cmd := NewSummaryCmd()
		var stderr bytes.Buffer
		cmd.SetErr(&stderr)

		setupLogger(cmd, false).Warn("page not reachable")

		if !strings.Contains(stderr.String(), "level=WARN") {
			t.Errorf("expected text log line, got %q", stderr.String())
		}
	})
}
