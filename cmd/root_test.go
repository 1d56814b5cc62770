package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	SetVersion(testVersion)

	if rootCmd.Version != testVersion {
		t.Errorf("expected version %s, got %s", testVersion, rootCmd.Version)
	}
}

func TestRootCommandProperties(t *testing.T) {
	if rootCmd.Use != "mcp-gateway" {
		t.Errorf("expected Use to be 'mcp-gateway', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}
	if !rootCmd.SilenceUsage {
		t.Error("expected SilenceUsage to be true")
	}
	if rootCmd.Runnable() == false {
		t.Error("expected rootCmd to be runnable")
	}
}

func TestRootCommandHasNoSubcommands(t *testing.T) {
	if rootCmd.HasSubCommands() {
		t.Error("expected a flat CLI surface with no subcommands")
	}
}

func TestConfigPathFlagPrintsSearchPathsAndExits(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--config-path"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "config.yaml") {
		t.Errorf("expected search paths output to mention config.yaml, got %q", out)
	}
}
