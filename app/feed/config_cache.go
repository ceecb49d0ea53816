package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/newsreader/app/news"
)

const (
	defaultRefreshInterval = 3600
	defaultMaxItems        = 50
	defaultTimeout         = 30
)

var filterFields = []string{"title", "description", "content", "authors", "link", "categories"}

// ConfigCache holds the publisher feed definitions found in the feeds
// directory, keyed by file name without extension.
type ConfigCache struct {
	feedsDir string

	mu      sync.RWMutex
	configs map[string]*Config
}

func NewConfigCache(feedsDir string) *ConfigCache {
	return &ConfigCache{
		feedsDir: feedsDir,
		configs:  make(map[string]*Config),
	}
}

// Run loads every *.yml and *.yaml file. A missing directory means no feeds.
func (cc *ConfigCache) Run() error {
	entries, err := os.ReadDir(cc.feedsDir)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("Feeds directory not found, no publisher feeds loaded", "dir", cc.feedsDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read feeds directory: %w", err)
	}

	loaded := make(map[string]*Config)
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yml" && ext != ".yaml") {
			continue
		}

		path := filepath.Join(cc.feedsDir, entry.Name())
		feedConfig, err := cc.Load(path)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", path, err)
		}
		if _, dup := loaded[feedConfig.Name]; dup {
			return fmt.Errorf("duplicate feed name %q in %s", feedConfig.Name, cc.feedsDir)
		}
		loaded[feedConfig.Name] = feedConfig

		slog.Debug("Configuration loaded", "feed", feedConfig.Name, "category", feedConfig.Category,
			"enabled", feedConfig.Settings.Enabled, "refresh_interval", feedConfig.Settings.RefreshInterval)
	}

	cc.mu.Lock()
	cc.configs = loaded
	cc.mu.Unlock()

	return nil
}

// Load parses and validates a single feed file without caching it.
func (cc *ConfigCache) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var feedConfig Config
	if err := yaml.Unmarshal(data, &feedConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	feedConfig.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	applyDefaults(&feedConfig)

	if err := validate(&feedConfig); err != nil {
		return nil, err
	}
	return &feedConfig, nil
}

func (cc *ConfigCache) Get(name string) (*Config, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	feedConfig, ok := cc.configs[name]
	return feedConfig, ok
}

// Configs returns all loaded feeds sorted by name.
func (cc *ConfigCache) Configs() []*Config {
	return cc.collect(func(*Config) bool { return true })
}

func (cc *ConfigCache) Enabled() []*Config {
	return cc.collect(func(c *Config) bool { return c.Settings.Enabled })
}

func (cc *ConfigCache) ByCategory(category news.Category) []*Config {
	return cc.collect(func(c *Config) bool { return c.Category == category })
}

func (cc *ConfigCache) Len() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.configs)
}

func (cc *ConfigCache) collect(keep func(*Config) bool) []*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	out := make([]*Config, 0, len(cc.configs))
	for _, c := range cc.configs {
		if keep(c) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b *Config) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func applyDefaults(c *Config) {
	if c.Publisher == "" {
		c.Publisher = c.Name
	}
	if c.Settings.RefreshInterval == 0 {
		c.Settings.RefreshInterval = defaultRefreshInterval
	}
	if c.Settings.MaxItems == 0 {
		c.Settings.MaxItems = defaultMaxItems
	}
	if c.Settings.Timeout == 0 {
		c.Settings.Timeout = defaultTimeout
	}
}

func validate(c *Config) error {
	switch {
	case c.URL == "":
		return errors.New("feed URL is required")
	case c.Category == "":
		return errors.New("feed category is required")
	}

	if _, err := news.ParseCategory(string(c.Category)); err != nil {
		return err
	}

	if c.Settings.RefreshInterval < 0 {
		return errors.New("refresh interval must be non-negative")
	}
	if c.Settings.MaxItems < 0 {
		return errors.New("max items must be non-negative")
	}
	if c.Settings.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}

	for i, filter := range c.Filters {
		if !slices.Contains(filterFields, filter.Field) {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
