package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/rushhour/game/engine"
	"github.com/wricardo/rushhour/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// watchDebounce is how long Watch waits for a burst of file events to
// settle before refreshing.
const watchDebounce = 250 * time.Millisecond

// Manager handles puzzle configuration loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.PuzzleConfig
	// defaultName is the config chosen with SetDefault, empty for automatic.
	defaultName string
	configs     map[string]*engine.PuzzleConfig
	mu          sync.RWMutex

	debounce  time.Duration
	refreshed func(changed []string)
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.PuzzleConfig),
		debounce:  watchDebounce,
	}

	m.defaultConfig = m.loadDefaultConfig()

	return m, nil
}

// configID strips a known extension from name.
func configID(name string) string {
	if engine.IsConfigFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// LoadConfig loads a configuration by name, with or without extension
func (m *Manager) LoadConfig(name string) (*engine.PuzzleConfig, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: invalid name %q", ErrConfigNotFound, name)
	}
	id := configID(name)

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	configPath, err := engine.FindConfigFile(m.configDir, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to locate config file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := engine.DecodePuzzleConfig(data, filepath.Ext(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := engine.ValidatePuzzleConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	config.ApplyDefaults()

	m.configs[id] = config
	return config, nil
}

// ListConfigs returns information about all available configurations
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !engine.IsConfigFile(entry.Name()) {
			continue
		}

		id := configID(entry.Name())
		if seen[id] {
			continue
		}

		config, err := m.LoadConfig(entry.Name())
		if err != nil {
			log.Printf("Warning: skipping config %s: %v", entry.Name(), err)
			continue
		}
		seen[id] = true

		configs = append(configs, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			Width:       config.Width,
			Height:      config.Height,
			Vehicles:    len(config.Vehicles),
			Exit:        config.Exit,
		})
	}

	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.PuzzleConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	m.defaultName = configID(name)
	return nil
}

// RefreshCache drops every cached configuration and reloads the default.
// A default chosen with SetDefault is reloaded by name while its file exists.
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.PuzzleConfig)
	chosen := m.defaultName
	m.mu.Unlock()

	var def *engine.PuzzleConfig
	if chosen != "" {
		config, err := m.LoadConfig(chosen)
		if err != nil {
			log.Printf("Warning: default config %s unavailable, picking another: %v", chosen, err)
		} else {
			def = config
		}
	}
	if def == nil {
		def = m.loadDefaultConfig()
	}

	m.mu.Lock()
	m.defaultConfig = def
	m.mu.Unlock()
	return nil
}

// loadDefaultConfig picks classic, then the first valid config on disk, then
// the built-in puzzle.
func (m *Manager) loadDefaultConfig() *engine.PuzzleConfig {
	if config, err := m.LoadConfig("classic"); err == nil {
		return config
	}

	configs, err := m.ListConfigs()
	if err == nil && len(configs) > 0 {
		if config, err := m.LoadConfig(configs[0].Filename); err == nil {
			return config
		}
	}

	return engine.DefaultPuzzleConfig()
}

// SaveConfig saves a configuration to disk. Names ending in .yaml or .yml are
// written as YAML, everything else as JSON.
func (m *Manager) SaveConfig(name string, config *engine.PuzzleConfig) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidConfig, name)
	}
	if err := engine.ValidatePuzzleConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	filename := name
	if !engine.IsConfigFile(filename) {
		filename = name + ".json"
	}
	configPath := filepath.Join(m.configDir, filename)

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[configID(name)] = config
	m.mu.Unlock()

	return nil
}

// Watch refreshes the cache when config files in the directory are created,
// written, renamed or removed. Events are collected until none has arrived
// for the debounce window, then the cache is refreshed once. Watch returns
// once the watcher is running; watching stops when ctx is done.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(m.configDir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", m.configDir, err)
	}

	go func() {
		defer watcher.Close()

		pending := map[string]struct{}{}
		var timer *time.Timer
		var timerC <-chan time.Time
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !engine.IsConfigFile(event.Name) || event.Op == fsnotify.Chmod {
					continue
				}
				pending[filepath.Base(event.Name)] = struct{}{}
				if timer == nil {
					timer = time.NewTimer(m.debounce)
					timerC = timer.C
				} else {
					timer.Reset(m.debounce)
				}

			case <-timerC:
				timer, timerC = nil, nil
				changed := make([]string, 0, len(pending))
				for name := range pending {
					changed = append(changed, name)
				}
				sort.Strings(changed)
				pending = map[string]struct{}{}

				log.Printf("Config change detected: %s", strings.Join(changed, ", "))
				if err := m.RefreshCache(); err != nil {
					log.Printf("Warning: failed to refresh config cache: %v", err)
				}
				if m.refreshed != nil {
					m.refreshed(changed)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Warning: config watcher error: %v", err)
			}
		}
	}()

	return nil
}
