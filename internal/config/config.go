package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures walletlink's service configuration.
type Config struct {
	APIBind           string
	LogFile           string
	PoolSize          int
	DefaultServer     string
	DeprecatedServers []string
	RestoreCommand    []string
	StatusEvery       time.Duration
	KeepVisibleEvery  time.Duration
	RefreshEvery      time.Duration
}

const (
	defaultConfigPath       = "~/.config/walletlink/config.toml"
	defaultLogFile          = "~/.local/share/walletlink/walletlink.log"
	defaultAPIBind          = "127.0.0.1:9067"
	defaultServer           = "https://lightd1.pirate.black:443"
	defaultPoolSize         = 4
	defaultStatusEvery      = time.Second
	defaultKeepVisibleEvery = 10 * time.Second
	defaultRefreshEvery     = 5 * time.Second
)

var defaultDeprecatedServers = []string{"cryptoforge"}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:           defaultAPIBind,
		LogFile:           mustExpand(defaultLogFile),
		PoolSize:          defaultPoolSize,
		DefaultServer:     defaultServer,
		DeprecatedServers: append([]string(nil), defaultDeprecatedServers...),
		StatusEvery:       defaultStatusEvery,
		KeepVisibleEvery:  defaultKeepVisibleEvery,
		RefreshEvery:      defaultRefreshEvery,
	}
}

// Load locates and parses the walletlink config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind           string   `toml:"api_bind"`
		LogFile           string   `toml:"log_file"`
		PoolSize          int      `toml:"pool_size"`
		DefaultServer     string   `toml:"default_server"`
		DeprecatedServers []string `toml:"deprecated_servers"`
		RestoreCommand    []string `toml:"restore_command"`
		StatusEvery       string   `toml:"status_every"`
		KeepVisibleEvery  string   `toml:"keep_visible_every"`
		RefreshEvery      string   `toml:"refresh_every"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBind); v != "" {
		cfg.APIBind = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if raw.PoolSize > 0 {
		cfg.PoolSize = raw.PoolSize
	}
	if v := strings.TrimSpace(raw.DefaultServer); v != "" {
		cfg.DefaultServer = v
	}
	if raw.DeprecatedServers != nil {
		cfg.DeprecatedServers = trimAll(raw.DeprecatedServers)
	}
	cfg.RestoreCommand = trimAll(raw.RestoreCommand)

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"status_every", raw.StatusEvery, &cfg.StatusEvery},
		{"keep_visible_every", raw.KeepVisibleEvery, &cfg.KeepVisibleEvery},
		{"refresh_every", raw.RefreshEvery, &cfg.RefreshEvery},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse config: %s: %w", d.name, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("parse config: %s must be positive", d.name)
		}
		*d.dst = parsed
	}

	return cfg, nil
}

// IsDeprecatedServer reports whether server matches any deprecated entry,
// compared case-insensitively as a substring.
func (c Config) IsDeprecatedServer(server string) bool {
	lower := strings.ToLower(server)
	for _, entry := range c.DeprecatedServers {
		if entry == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(entry)) {
			return true
		}
	}
	return false
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
