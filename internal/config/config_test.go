package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "chatvault")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CHATVAULT_DB_PATH",
		"CHATVAULT_LISTEN_ADDR",
		"CHATVAULT_LOG_LEVEL",
		"CHATVAULT_INCLUDE_HTML",
		"CHATVAULT_FETCH_CONCURRENCY",
		"CHATVAULT_HTTP_TIMEOUT_SECONDS",
		"CHATVAULT_USER_AGENT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != filepath.Join(home, ".local", "share", "chatvault", "chatvault.db") {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.ListenAddr != defaultListenAddr || cfg.LogLevel != slog.LevelInfo || cfg.IncludeHTML {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.FetchConcurrency != defaultFetchConcurrent || cfg.HTTPTimeout != 20*time.Second || cfg.UserAgent != defaultUserAgent {
		t.Fatalf("unexpected fetch defaults: %+v", cfg)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	clearEnv(t)
	writeConfig(t, `
db_path = "/tmp/cv.db"
listen_addr = ":9000"
log_level = "debug"
include_html = true
shutdown_seconds = 3
fetch_concurrency = 2
http_timeout_seconds = 5
user_agent = "cv-test/1.0"

[[profile]]
name = "gemini"
message_selector = "message-content"
assistant_selector = ".model-response"
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/cv.db" || cfg.ListenAddr != ":9000" || cfg.LogLevel != slog.LevelDebug || !cfg.IncludeHTML {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.FetchConcurrency != 2 || cfg.HTTPTimeout != 5*time.Second || cfg.UserAgent != "cv-test/1.0" {
		t.Fatalf("fetch settings not applied: %+v", cfg)
	}
	if len(cfg.Profiles) != 1 || cfg.Profiles[0].Name != "gemini" || cfg.Profiles[0].AssistantSelector != ".model-response" {
		t.Fatalf("profiles = %+v", cfg.Profiles)
	}

	t.Setenv("CHATVAULT_DB_PATH", "/tmp/env.db")
	t.Setenv("CHATVAULT_LOG_LEVEL", "error")
	t.Setenv("CHATVAULT_INCLUDE_HTML", "false")
	t.Setenv("CHATVAULT_FETCH_CONCURRENCY", "0")
	t.Setenv("CHATVAULT_USER_AGENT", "env-agent")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" || cfg.LogLevel != slog.LevelError || cfg.IncludeHTML {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.FetchConcurrency != 2 || cfg.UserAgent != "env-agent" {
		t.Fatalf("fetch env overrides: %+v", cfg)
	}
}

func TestLoadConfig_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":       "db_path = \"/x\"\nstale_minutes = 5\n",
		"empty db path":     "db_path = \" \"\n",
		"bad log level":     "log_level = \"loud\"\n",
		"bad shutdown":      "shutdown_seconds = 0\n",
		"bad concurrency":   "fetch_concurrency = 0\n",
		"empty user agent":  "user_agent = \"\"\n",
		"profile no name":   "[[profile]]\nmessage_selector = \"div\"\n",
		"profile no select": "[[profile]]\nname = \"x\"\n",
		"duplicate profile": "[[profile]]\nname = \"x\"\nmessage_selector = \"a\"\n[[profile]]\nname = \"x\"\nmessage_selector = \"b\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			writeConfig(t, body)
			_, err := LoadConfig()
			if err == nil || !strings.Contains(err.Error(), "invalid config file") {
				t.Fatalf("expected invalid config error, got %v", err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"DEBUG": slog.LevelDebug, "": slog.LevelInfo, "warning": slog.LevelWarn, "error": slog.LevelError} {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLogLevel("trace"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
