package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cratechef/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "cratechef")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.Database != filepath.Join(wantData, "tracks.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.Database)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Import.SniffBytes != 4096 {
		t.Fatalf("unexpected sniff bytes: %d", cfg.Import.SniffBytes)
	}
	if cfg.Scan.MinFileBytes != 1024 {
		t.Fatalf("unexpected min file bytes: %d", cfg.Scan.MinFileBytes)
	}
	if cfg.Scan.BadSampleLimit != 5 {
		t.Fatalf("unexpected bad sample limit: %d", cfg.Scan.BadSampleLimit)
	}
	if _, ok := cfg.ScanExtensionSet()[".flac"]; !ok {
		t.Fatalf("expected .flac in default extensions, got %v", cfg.Scan.Extensions)
	}
	if cfg.API.RecentDefault != 10 || cfg.API.RecentMax != 100 {
		t.Fatalf("unexpected api limits: %+v", cfg.API)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.LockPath() != cfg.Paths.Database+".lock" {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "cratechef.toml")
	content := `
[paths]
data_dir = "~/djdata"

[scan]
extensions = ["MP3", "flac", ".mp3", " "]
min_file_bytes = 2048

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "djdata") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.Database != filepath.Join(tempHome, "djdata", "tracks.db") {
		t.Fatalf("database should follow data dir, got %q", cfg.Paths.Database)
	}
	if strings.Join(cfg.Scan.Extensions, ",") != ".mp3,.flac" {
		t.Fatalf("unexpected normalized extensions: %v", cfg.Scan.Extensions)
	}
	if cfg.Scan.MinFileBytes != 2048 {
		t.Fatalf("unexpected min file bytes: %d", cfg.Scan.MinFileBytes)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings: %+v", cfg.Logging)
	}
}

func TestEnvVarOverridesDatabasePath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	override := filepath.Join(t.TempDir(), "elsewhere.db")
	t.Setenv("CRATECHEF_DATABASE", override)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.Database != override {
		t.Fatalf("expected database from env, got %q", cfg.Paths.Database)
	}
}

func TestEnsureDirectoriesCreatesDatabaseParent(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.Database = filepath.Join(base, "nested", "db", "tracks.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, filepath.Dir(cfg.Paths.Database), cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "cratechef") {
		t.Fatalf("expected data dir to contain cratechef, got %q", cfg.Paths.DataDir)
	}
	if cfg.Scan.BadSampleLimit != 5 {
		t.Fatalf("unexpected sample bad_sample_limit: %d", cfg.Scan.BadSampleLimit)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing database", func(c *config.Config) { c.Paths.Database = "" }, "paths.database"},
		{"no extensions", func(c *config.Config) { c.Scan.Extensions = nil }, "scan.extensions"},
		{"recent max too high", func(c *config.Config) { c.API.RecentMax = 500 }, "api.recent_max"},
		{"default above max", func(c *config.Config) { c.API.RecentDefault = 50; c.API.RecentMax = 20 }, "api.recent_default"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.Database = "/tmp/tracks.db"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}
