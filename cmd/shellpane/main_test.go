package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[shell]\nprogram = \"/bin/zsh\"\n\n[logging]\nlevel = \"warn\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(flags{configPath: path}, []string{})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Shell.Program != "/bin/zsh" || cfg.Logging.Level != "warn" {
		t.Errorf("file not applied: %+v %+v", cfg.Shell, cfg.Logging)
	}

	cfg, err = loadConfig(flags{
		configPath: path,
		shell:      "/bin/bash",
		logLevel:   "debug",
		logFile:    "/tmp/shellpane.log",
	}, []string{"SHELLPANE_SHELL_PROGRAM=/bin/fish"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Shell.Program != "/bin/bash" {
		t.Errorf("program = %q, flag should win", cfg.Shell.Program)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.File != "/tmp/shellpane.log" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(flags{configPath: filepath.Join(t.TempDir(), "nope.toml")}, []string{})
	if err == nil {
		t.Fatal("expected an error for a missing --config file")
	}
}

func TestLoadConfigInvalidFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(flags{configPath: path, logLevel: "loud"}, []string{})
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("err = %v, want a logging.level error", err)
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "dir", "shell", "log-level", "log-file"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing --%s", name)
		}
	}
	if cmd.Flags().ShorthandLookup("c") == nil || cmd.Flags().ShorthandLookup("d") == nil {
		t.Error("missing -c or -d")
	}
	if !strings.HasPrefix(cmd.Version, version) {
		t.Errorf("version = %q", cmd.Version)
	}
}
