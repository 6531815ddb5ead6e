// Package settings holds the user's walletlink settings and the runtime flags
// shared between the bootstrap loader and the UI.
// Persistent settings are stored in ~/.config/walletlink/settings.toml.
package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Settings is the persisted part of the store.
type Settings struct {
	Server string `toml:"server"`
	Theme  string `toml:"theme"`
}

// Defaults fill in values that are missing from the settings file.
type Defaults struct {
	Server   string
	Theme    string
	Headless bool
}

const (
	defaultSettingsPath = "~/.config/walletlink/settings.toml"
	defaultTheme        = "Nightfox"
)

// DefaultPath returns the default settings file path.
func DefaultPath() string {
	return defaultSettingsPath
}

// Store guards settings shared by the loader and the UI.
type Store struct {
	mu       sync.RWMutex
	path     string
	settings Settings
	defaults Defaults
	headless bool
	syncing  bool
}

// Load reads settings from path, falling back to defaults when the file is
// missing or unreadable. It never fails; a broken file is treated as absent.
func Load(path string, defaults Defaults) *Store {
	if strings.TrimSpace(defaults.Theme) == "" {
		defaults.Theme = defaultTheme
	}
	s := &Store{
		path:     path,
		defaults: defaults,
		headless: defaults.Headless,
		settings: Settings{Server: defaults.Server, Theme: defaults.Theme},
	}

	loaded, err := read(path)
	if err != nil {
		return s
	}
	if server := strings.TrimSpace(loaded.Server); server != "" {
		s.settings.Server = server
	}
	if theme := strings.TrimSpace(loaded.Theme); theme != "" {
		s.settings.Theme = theme
	}
	return s
}

// Settings returns a copy of the persisted settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Server returns the configured lightwalletd server.
func (s *Store) Server() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Server
}

// SetDefaultServer replaces the server with the default one and persists the
// change. A failed write is returned alongside the updated settings; the
// in-memory value is changed either way.
func (s *Store) SetDefaultServer() (Settings, error) {
	s.mu.Lock()
	s.settings.Server = s.defaults.Server
	snapshot := s.settings
	path := s.path
	s.mu.Unlock()

	return snapshot, save(path, snapshot)
}

// Theme returns the UI theme name.
func (s *Store) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Theme
}

// SetTheme changes the UI theme and persists it.
func (s *Store) SetTheme(name string) error {
	s.mu.Lock()
	s.settings.Theme = name
	snapshot := s.settings
	path := s.path
	s.mu.Unlock()

	return save(path, snapshot)
}

// IsHeadless reports whether walletlink runs without a UI.
func (s *Store) IsHeadless() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.headless
}

// SetSyncing mirrors the loader's syncing flag.
func (s *Store) SetSyncing(syncing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncing = syncing
}

// IsSyncing reports whether the wallet is syncing.
func (s *Store) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncing
}

// Save persists the current settings.
func (s *Store) Save() error {
	return save(s.path, s.Settings())
}

func read(path string) (Settings, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Settings{}, err
	}
	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, err
		}
		return Settings{}, fmt.Errorf("open settings: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var loaded Settings
	if err := toml.Unmarshal(bytes, &loaded); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return loaded, nil
}

func save(path string, settings Settings) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	bytes, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultSettingsPath)
	}
	return expandPath(path)
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
