package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultListenAddr      = "127.0.0.1:8765"
	defaultShutdownSeconds = 10
	defaultLogLevel        = "info"
	defaultFetchConcurrent = 4
	defaultHTTPTimeoutSec  = 20
	defaultUserAgent       = "chatvault/0.1"
)

const (
	configFolderName  = "chatvault"
	configFileName    = "config.toml"
	configPathEnvName = "XDG_CONFIG_HOME"
)

type Config struct {
	DBPath          string
	ListenAddr      string
	LogLevel        slog.Level
	IncludeHTML     bool
	ShutdownTimeout time.Duration
	Profiles        []Profile

	FetchConcurrency int
	HTTPTimeout      time.Duration
	UserAgent        string
}

// Profile describes how to find messages in a saved page of one chat
// application. Name and message_selector are required. A profile named after
// a built-in one replaces it, and its empty optional selectors are taken from
// the built-in.
type Profile struct {
	Name              string `toml:"name"`
	MessageSelector   string `toml:"message_selector"`
	RoleAttr          string `toml:"role_attr"`
	UserSelector      string `toml:"user_selector"`
	AssistantSelector string `toml:"assistant_selector"`
	ContentSelector   string `toml:"content_selector"`
	TitleSelector     string `toml:"title_selector"`
}

func LoadConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:          filepath.Join(home, ".local", "share", "chatvault", "chatvault.db"),
		ListenAddr:      defaultListenAddr,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownSeconds * time.Second,

		FetchConcurrency: defaultFetchConcurrent,
		HTTPTimeout:      defaultHTTPTimeoutSec * time.Second,
		UserAgent:        defaultUserAgent,
	}

	configPath, hasConfig, err := findConfigPath(home)
	if err != nil {
		return Config{}, err
	}
	if hasConfig {
		fileCfg, err := loadFileConfig(configPath)
		if err != nil {
			return Config{}, err
		}
		applyFileConfig(&cfg, fileCfg)
	}

	applyEnvOverrides(&cfg)

	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = defaultFetchConcurrent
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeoutSec * time.Second
	}
	return cfg, nil
}

type fileConfig struct {
	DBPath          *string   `toml:"db_path"`
	ListenAddr      *string   `toml:"listen_addr"`
	LogLevel        *string   `toml:"log_level"`
	IncludeHTML     *bool     `toml:"include_html"`
	ShutdownSeconds *int      `toml:"shutdown_seconds"`
	Profiles        []Profile `toml:"profile"`

	FetchConcurrency   *int    `toml:"fetch_concurrency"`
	HTTPTimeoutSeconds *int    `toml:"http_timeout_seconds"`
	UserAgent          *string `toml:"user_agent"`
}

func findConfigPath(home string) (string, bool, error) {
	candidates := make([]string, 0, 2)
	if xdgConfigHome := strings.TrimSpace(os.Getenv(configPathEnvName)); xdgConfigHome != "" {
		candidates = append(candidates, filepath.Join(xdgConfigHome, configFolderName, configFileName))
	}
	candidates = append(candidates, filepath.Join(home, ".config", configFolderName, configFileName))

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", false, fmt.Errorf("config path %q is a directory; expected a file", candidate)
			}
			return candidate, true, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		return "", false, fmt.Errorf("failed to read config path %q: %w", candidate, err)
	}
	return "", false, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		unknown := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		sort.Strings(unknown)
		return fileConfig{}, fmt.Errorf("invalid config file %q: unknown key(s): %s", path, strings.Join(unknown, ", "))
	}
	if err := validateFileConfig(path, cfg); err != nil {
		return fileConfig{}, err
	}
	return cfg, nil
}

func validateFileConfig(path string, cfg fileConfig) error {
	if cfg.DBPath != nil && strings.TrimSpace(*cfg.DBPath) == "" {
		return fmt.Errorf("invalid config file %q: db_path must be non-empty when provided", path)
	}
	if cfg.ListenAddr != nil && strings.TrimSpace(*cfg.ListenAddr) == "" {
		return fmt.Errorf("invalid config file %q: listen_addr must be non-empty when provided", path)
	}
	if cfg.LogLevel != nil {
		if _, err := ParseLogLevel(*cfg.LogLevel); err != nil {
			return fmt.Errorf("invalid config file %q: %w", path, err)
		}
	}
	if cfg.ShutdownSeconds != nil && *cfg.ShutdownSeconds <= 0 {
		return fmt.Errorf("invalid config file %q: shutdown_seconds must be > 0", path)
	}
	if cfg.FetchConcurrency != nil && *cfg.FetchConcurrency < 1 {
		return fmt.Errorf("invalid config file %q: fetch_concurrency must be >= 1", path)
	}
	if cfg.HTTPTimeoutSeconds != nil && *cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid config file %q: http_timeout_seconds must be > 0", path)
	}
	if cfg.UserAgent != nil && strings.TrimSpace(*cfg.UserAgent) == "" {
		return fmt.Errorf("invalid config file %q: user_agent must be non-empty when provided", path)
	}
	seen := make(map[string]struct{}, len(cfg.Profiles))
	for i, p := range cfg.Profiles {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("invalid config file %q: profile %d has no name", path, i+1)
		}
		if strings.TrimSpace(p.MessageSelector) == "" {
			return fmt.Errorf("invalid config file %q: profile %q needs message_selector", path, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("invalid config file %q: duplicate profile %q", path, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func applyFileConfig(cfg *Config, fileCfg fileConfig) {
	if fileCfg.DBPath != nil {
		cfg.DBPath = *fileCfg.DBPath
	}
	if fileCfg.ListenAddr != nil {
		cfg.ListenAddr = *fileCfg.ListenAddr
	}
	if fileCfg.LogLevel != nil {
		cfg.LogLevel, _ = ParseLogLevel(*fileCfg.LogLevel)
	}
	if fileCfg.IncludeHTML != nil {
		cfg.IncludeHTML = *fileCfg.IncludeHTML
	}
	if fileCfg.ShutdownSeconds != nil {
		cfg.ShutdownTimeout = time.Duration(*fileCfg.ShutdownSeconds) * time.Second
	}
	if fileCfg.FetchConcurrency != nil {
		cfg.FetchConcurrency = *fileCfg.FetchConcurrency
	}
	if fileCfg.HTTPTimeoutSeconds != nil {
		cfg.HTTPTimeout = time.Duration(*fileCfg.HTTPTimeoutSeconds) * time.Second
	}
	if fileCfg.UserAgent != nil {
		cfg.UserAgent = *fileCfg.UserAgent
	}
	for _, p := range fileCfg.Profiles {
		p.Name = strings.TrimSpace(p.Name)
		cfg.Profiles = append(cfg.Profiles, p)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("CHATVAULT_DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("CHATVAULT_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("CHATVAULT_LOG_LEVEL"); ok && v != "" {
		if level, err := ParseLogLevel(v); err == nil {
			cfg.LogLevel = level
		}
	}
	if v, ok := os.LookupEnv("CHATVAULT_INCLUDE_HTML"); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.IncludeHTML = b
		}
	}
	if v, ok := os.LookupEnv("CHATVAULT_FETCH_CONCURRENCY"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.FetchConcurrency = n
		}
	}
	if v, ok := os.LookupEnv("CHATVAULT_HTTP_TIMEOUT_SECONDS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeout = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("CHATVAULT_USER_AGENT"); ok && v != "" {
		cfg.UserAgent = v
	}
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(v string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", defaultLogLevel:
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level %q must be one of debug, info, warn, error", v)
	}
}
