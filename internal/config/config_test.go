package config

import (
	"testing"
	"time"

	"typing-battle/client/eventbus"
	"typing-battle/client/internal/prefs"
	"typing-battle/client/logging"
)

func TestDetectEnvironment(t *testing.T) {
	cases := []struct {
		hostname string
		expected Environment
	}{
		{"localhost", EnvLocal},
		{"127.0.0.1", EnvLocal},
		{"", EnvLocal},
		{"dev-machine.local", EnvLocal},
		{"staging.typing-battle.example", EnvStaging},
		{"test-3.typing-battle.example", EnvStaging},
		{"play.typing-battle.example", EnvProduction},
	}
	for _, tc := range cases {
		if got := DetectEnvironment(tc.hostname); got != tc.expected {
			t.Fatalf("hostname %q: expected %s, got %s", tc.hostname, tc.expected, got)
		}
	}
}

func TestEnvironmentOverridesDeepMerge(t *testing.T) {
	cfg := New(Options{Hostname: "localhost"})

	if got := cfg.String("debug.logLevel", ""); got != "DEBUG" {
		t.Fatalf("expected local override DEBUG, got %q", got)
	}
	if got := cfg.Duration("network.timeout", 0); got != 5*time.Second {
		t.Fatalf("expected local timeout override, got %v", got)
	}
	// Sibling keys in an overridden section survive the merge.
	if got := cfg.Duration("network.heartbeatInterval", 0); got != 30*time.Second {
		t.Fatalf("expected default heartbeat untouched, got %v", got)
	}
}

func TestProductionDisablesParticles(t *testing.T) {
	cfg := New(Options{Hostname: "play.typing-battle.example"})
	if cfg.Bool("graphics.enableParticles", true) {
		t.Fatalf("expected particles disabled in production")
	}
}

func TestGetMissingPathReturnsNil(t *testing.T) {
	cfg := New(Options{Hostname: "localhost"})
	if got := cfg.Get("no.such.path"); got != nil {
		t.Fatalf("expected nil for missing path, got %v", got)
	}
	if got := cfg.Get("game.maxPlayers.deeper"); got != nil {
		t.Fatalf("expected nil when descending through a scalar, got %v", got)
	}
}

func TestSetPublishesChangeEvent(t *testing.T) {
	bus := eventbus.New(logging.NopPublisher())
	cfg := New(Options{Hostname: "localhost", Bus: bus})

	var changes []Change
	bus.Subscribe(TopicChanged, func(args ...any) {
		if len(args) == 1 {
			if change, ok := args[0].(Change); ok {
				changes = append(changes, change)
			}
		}
	})

	cfg.Set("audio.masterVolume", 0.4)

	if got := cfg.Float("audio.masterVolume", 0); got != 0.4 {
		t.Fatalf("expected 0.4, got %v", got)
	}
	if len(changes) != 1 || changes[0].Path != "audio.masterVolume" {
		t.Fatalf("expected one change event for the path, got %v", changes)
	}
}

func TestSetCreatesIntermediateContainers(t *testing.T) {
	cfg := New(Options{Hostname: "localhost"})
	cfg.Set("experimental.words.glow", true)
	if got := cfg.Bool("experimental.words.glow", false); !got {
		t.Fatalf("expected created path to hold true")
	}
}

func TestUserPreferencesRestrictedSubset(t *testing.T) {
	store := prefs.NewMemory()
	store.Save(PreferencesKey, `{
		"audio": {"enabled": false},
		"network": {"timeout": 1}
	}`)

	cfg := New(Options{Hostname: "localhost", Store: store})

	if cfg.Bool("audio.enabled", true) {
		t.Fatalf("expected persisted audio preference applied")
	}
	// Sections outside audio/graphics/debug never load from storage.
	if got := cfg.Duration("network.timeout", 0); got != 5*time.Second {
		t.Fatalf("expected network section immune to preferences, got %v", got)
	}
}

func TestCorruptPreferencesFallBackToDefaults(t *testing.T) {
	store := prefs.NewMemory()
	store.Save(PreferencesKey, `{not json`)

	cfg := New(Options{Hostname: "localhost", Store: store})

	if !cfg.Bool("audio.enabled", false) {
		t.Fatalf("expected default audio.enabled=true despite corrupt storage")
	}
}

func TestSaveUserPreferencesPersistsSubsetOnly(t *testing.T) {
	store := prefs.NewMemory()
	cfg := New(Options{Hostname: "localhost", Store: store})

	cfg.Set("audio.enabled", false)
	if err := cfg.SaveUserPreferences(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded := New(Options{Hostname: "localhost", Store: store})
	if reloaded.Bool("audio.enabled", true) {
		t.Fatalf("expected saved preference to round-trip")
	}
	if got := reloaded.Duration("network.timeout", 0); got != 5*time.Second {
		t.Fatalf("expected non-preference sections untouched, got %v", got)
	}
}

func TestArraysReplaceWholesale(t *testing.T) {
	merged := deepMerge(
		map[string]any{"list": []any{1, 2, 3}, "nested": map[string]any{"keep": true}},
		map[string]any{"list": []any{9}, "nested": map[string]any{"add": 1}},
	)

	list, ok := merged["list"].([]any)
	if !ok || len(list) != 1 || list[0] != 9 {
		t.Fatalf("expected array replaced wholesale, got %v", merged["list"])
	}
	nested, _ := merged["nested"].(map[string]any)
	if nested["keep"] != true || nested["add"] != 1 {
		t.Fatalf("expected nested maps merged key-by-key, got %v", nested)
	}
}
