// Package config implements the layered configuration store: hardcoded
// defaults, deep-merged environment overrides, then persisted user
// preferences for a restricted subset of sections.
package config

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"typing-battle/client/eventbus"
	"typing-battle/client/internal/prefs"
	"typing-battle/client/logging"
)

// TopicChanged is published on every Set.
const TopicChanged = "config:changed"

// PreferencesKey is the storage key for the persisted preference subset.
const PreferencesKey = "typing_battle_preferences"

// preferenceSections is the subset of sections users may persist.
var preferenceSections = []string{"audio", "graphics", "debug"}

// Environment identifies the deployment target.
type Environment string

const (
	EnvLocal      Environment = "local"
	EnvStaging    Environment = "staging"
	EnvProduction Environment = "production"
)

// DetectEnvironment infers the environment from a deployment host name.
func DetectEnvironment(hostname string) Environment {
	host := strings.ToLower(hostname)
	switch {
	case host == "" || host == "localhost" || host == "127.0.0.1" || strings.HasSuffix(host, ".local"):
		return EnvLocal
	case strings.Contains(host, "staging") || strings.Contains(host, "test"):
		return EnvStaging
	default:
		return EnvProduction
	}
}

// Change is the payload published on TopicChanged.
type Change struct {
	Path  string
	Value any
}

// Options configures construction.
type Options struct {
	Hostname string
	Store    prefs.Store
	Bus      *eventbus.Bus
	Pub      logging.Publisher
}

// Config is the layered settings tree, queried by dotted path.
type Config struct {
	mu          sync.Mutex
	settings    map[string]any
	environment Environment
	store       prefs.Store
	bus         *eventbus.Bus
	pub         logging.Publisher
}

// New builds the configuration: defaults, then environment overrides, then
// whatever valid preferences the store holds. A missing or corrupt store
// never fails construction.
func New(opts Options) *Config {
	pub := opts.Pub
	if pub == nil {
		pub = logging.NopPublisher()
	}
	environment := DetectEnvironment(opts.Hostname)

	cfg := &Config{
		settings:    defaults(),
		environment: environment,
		store:       opts.Store,
		bus:         opts.Bus,
		pub:         pub,
	}
	if overrides, ok := environmentOverrides[environment]; ok {
		cfg.settings = deepMerge(cfg.settings, overrides)
	}
	cfg.loadUserPreferences()
	return cfg
}

// Environment reports the detected environment.
func (c *Config) Environment() Environment {
	return c.environment
}

// Get resolves a dotted path. Missing segments yield nil, never a panic.
func (c *Config) Get(path string) any {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var current any = c.settings
	for _, segment := range strings.Split(path, ".") {
		container, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = container[segment]
	}
	return current
}

// Set writes a value, creating intermediate containers as needed, and
// publishes a change event.
func (c *Config) Set(path string, value any) {
	if c == nil || path == "" {
		return
	}
	c.mu.Lock()
	segments := strings.Split(path, ".")
	container := c.settings
	for _, segment := range segments[:len(segments)-1] {
		child, ok := container[segment].(map[string]any)
		if !ok {
			child = make(map[string]any)
			container[segment] = child
		}
		container = child
	}
	container[segments[len(segments)-1]] = value
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.Publish(TopicChanged, Change{Path: path, Value: value})
	}
}

// Duration returns the duration at path, or fallback when absent or of the
// wrong type.
func (c *Config) Duration(path string, fallback time.Duration) time.Duration {
	if value, ok := c.Get(path).(time.Duration); ok {
		return value
	}
	return fallback
}

// Int returns the integer at path, or fallback.
func (c *Config) Int(path string, fallback int) int {
	if value, ok := c.Get(path).(int); ok {
		return value
	}
	return fallback
}

// Float returns the float at path, or fallback.
func (c *Config) Float(path string, fallback float64) float64 {
	if value, ok := c.Get(path).(float64); ok {
		return value
	}
	return fallback
}

// Bool returns the boolean at path, or fallback.
func (c *Config) Bool(path string, fallback bool) bool {
	if value, ok := c.Get(path).(bool); ok {
		return value
	}
	return fallback
}

// String returns the string at path, or fallback.
func (c *Config) String(path string, fallback string) string {
	if value, ok := c.Get(path).(string); ok {
		return value
	}
	return fallback
}

// SaveUserPreferences persists the restricted preference subset.
func (c *Config) SaveUserPreferences() error {
	if c == nil || c.store == nil {
		return nil
	}
	c.mu.Lock()
	subset := make(map[string]any, len(preferenceSections))
	for _, section := range preferenceSections {
		if value, ok := c.settings[section]; ok {
			subset[section] = value
		}
	}
	c.mu.Unlock()

	data, err := json.Marshal(subset)
	if err != nil {
		return err
	}
	return c.store.Save(PreferencesKey, string(data))
}

func (c *Config) loadUserPreferences() {
	if c.store == nil {
		return
	}
	raw, ok, err := c.store.Load(PreferencesKey)
	if err != nil || !ok {
		if err != nil {
			c.warnPreferences(err.Error())
		}
		return
	}
	var loaded map[string]any
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		c.warnPreferences(err.Error())
		return
	}
	restricted := make(map[string]any, len(preferenceSections))
	for _, section := range preferenceSections {
		if value, ok := loaded[section].(map[string]any); ok {
			restricted[section] = value
		}
	}
	c.settings = deepMerge(c.settings, restricted)
}

func (c *Config) warnPreferences(detail string) {
	c.pub.Publish(context.Background(), logging.Event{
		Type:     "config.preferences_skipped",
		Actor:    logging.EntityRef{Kind: logging.EntityKindSystem},
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Payload:  map[string]string{"detail": detail},
	})
}

// deepMerge merges source into target key by key: nested maps merge
// recursively, arrays and scalars replace wholesale.
func deepMerge(target, source map[string]any) map[string]any {
	result := make(map[string]any, len(target)+len(source))
	for key, value := range target {
		result[key] = value
	}
	for key, value := range source {
		sourceMap, sourceIsMap := value.(map[string]any)
		targetMap, targetIsMap := result[key].(map[string]any)
		if sourceIsMap && targetIsMap {
			result[key] = deepMerge(targetMap, sourceMap)
			continue
		}
		result[key] = value
	}
	return result
}
