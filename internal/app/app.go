// Package app assembles the client: logging router, event bus, state
// store, configuration, connection manager, and game engine, wired
// together and torn down in order.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"typing-battle/client/eventbus"
	"typing-battle/client/internal/config"
	"typing-battle/client/internal/game"
	clientnet "typing-battle/client/internal/net"
	"typing-battle/client/internal/net/proto"
	"typing-battle/client/internal/prefs"
	"typing-battle/client/internal/store"
	"typing-battle/client/logging"
	"typing-battle/client/logging/sinks"
)

// Options carries the process-level knobs resolved by main.
type Options struct {
	Hostname    string
	PrefsPath   string
	ServerURL   string
	PlayerName  string
	PlayerSkin  string
	Spectate    bool
	MinSeverity logging.Severity
}

// OptionsFromEnv reads the TB_* environment, falling back to sane local
// defaults. A .env file loaded before this call feeds the same variables.
func OptionsFromEnv() Options {
	hostname := os.Getenv("TB_ENV")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	opts := Options{
		Hostname:    hostname,
		PrefsPath:   os.Getenv("TB_PREFS_PATH"),
		ServerURL:   os.Getenv("TB_SERVER_URL"),
		PlayerName:  os.Getenv("TB_PLAYER_NAME"),
		PlayerSkin:  os.Getenv("TB_PLAYER_SKIN"),
		Spectate:    os.Getenv("TB_SPECTATE") == "1",
		MinSeverity: logging.SeverityInfo,
	}
	if opts.PrefsPath == "" {
		opts.PrefsPath = "typing-battle.db"
	}
	if opts.PlayerName == "" {
		opts.PlayerName = "Player"
	}
	if opts.PlayerSkin == "" {
		opts.PlayerSkin = "😊"
	}
	return opts
}

// Run wires the client together and blocks until the context is cancelled
// or an interrupt arrives.
func Run(ctx context.Context, opts Options) error {
	router := logging.NewRouter(logging.SystemClock{}, opts.MinSeverity, []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout)},
	})
	defer func() {
		if err := router.Close(context.Background()); err != nil {
			log.Printf("close logging router: %v", err)
		}
	}()

	bus := eventbus.New(router)
	st := store.New(bus, router)

	prefStore, err := prefs.OpenSQLite(opts.PrefsPath)
	var cfgStore prefs.Store = prefStore
	if err != nil {
		// Preferences are best-effort: run on the in-memory store instead.
		log.Printf("open preferences store: %v", err)
		cfgStore = prefs.NewMemory()
	} else {
		defer prefStore.Close()
	}

	cfg := config.New(config.Options{
		Hostname: opts.Hostname,
		Store:    cfgStore,
		Bus:      bus,
		Pub:      router,
	})
	if opts.ServerURL != "" {
		cfg.Set("network.serverURL", opts.ServerURL)
	}

	manager := clientnet.NewManager(clientnet.Options{
		Store:  st,
		Bus:    bus,
		Config: cfg,
		Pub:    router,
	})
	defer manager.Close()
	manager.BindIntents()

	engine := game.New(game.Options{
		Store:  st,
		Bus:    bus,
		Config: cfg,
		Pub:    router,
	})
	if err := engine.Init(); err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	var credentials *proto.Credentials
	if !opts.Spectate {
		credentials = &proto.Credentials{Name: opts.PlayerName, Skin: opts.PlayerSkin}
	}
	if err := manager.Connect(credentials); err != nil {
		// The manager keeps the offline queue and the reconnect ladder; a
		// failed first dial is not fatal.
		log.Printf("initial connect: %v", err)
	}

	unbind := bus.SubscribeOnce(clientnet.TopicAuthSuccess, func(args ...any) {
		if len(args) >= 1 {
			if userID, ok := args[0].(string); ok {
				engine.SetLocalPlayer(userID)
			}
		}
	})
	defer unbind()
	if opts.Spectate {
		engine.SetLocalPlayer("")
	}

	engine.Start()
	defer engine.Stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-signals:
	}

	manager.Disconnect()
	if err := cfg.SaveUserPreferences(); err != nil {
		log.Printf("save preferences: %v", err)
	}
	return nil
}
