// Package game drives the per-tick cycle: local game rules run optimistically
// against the state store, timed effects expire, the word supply is topped
// up, and each tick ends with a read-only frame snapshot handed to the
// renderer callback.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"typing-battle/client/eventbus"
	"typing-battle/client/internal/config"
	"typing-battle/client/internal/state"
	"typing-battle/client/internal/store"
	"typing-battle/client/logging"
	"typing-battle/client/logging/lifecycle"
)

// Viewport is the renderer surface size used for camera follow.
type Viewport struct {
	Width  float64
	Height float64
}

// Frame is the read-only world snapshot delivered once per tick. Players
// arrive in leaderboard order.
type Frame struct {
	Players []state.Player
	Words   []state.Word
	Effects []state.ActiveEffect
	Camera  state.Camera
	MapSize state.MapSize
}

// FrameFunc receives each tick's snapshot.
type FrameFunc func(Frame)

// Engine owns the tick loop and the local rule set. All world mutation
// funnels through the store; the engine never holds references into the
// tree across ticks.
type Engine struct {
	store *store.Store
	bus   *eventbus.Bus
	pub   logging.Publisher
	rng   *rand.Rand
	now   func() time.Time

	tickInterval time.Duration
	wordGenRate  time.Duration
	maxWords     int
	viewDistance float64
	attackRange  float64
	attackDamage int
	healAmount   int
	moveSpeed    float64
	viewport     Viewport

	mu        sync.Mutex
	systems   []System
	frameFn   FrameFunc
	localID   string
	spectator bool
	input     string
	running   bool
	paused    bool
	stop      chan struct{}
	done      chan struct{}
}

// Options wires the engine's collaborators.
type Options struct {
	Store    *store.Store
	Bus      *eventbus.Bus
	Config   *config.Config
	Pub      logging.Publisher
	Now      func() time.Time
	Rand     *rand.Rand
	Viewport Viewport
}

// New builds a stopped engine from configuration.
func New(opts Options) *Engine {
	pub := opts.Pub
	if pub == nil {
		pub = logging.NopPublisher()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(now().UnixNano()))
	}
	viewport := opts.Viewport
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = Viewport{Width: 800, Height: 600}
	}
	cfg := opts.Config
	tickRate := cfg.Int("game.tickRate", 60)
	if tickRate <= 0 {
		tickRate = 60
	}
	return &Engine{
		store:        opts.Store,
		bus:          opts.Bus,
		pub:          pub,
		rng:          rng,
		now:          now,
		tickInterval: time.Second / time.Duration(tickRate),
		wordGenRate:  cfg.Duration("game.wordGenerationRate", 5*time.Second),
		maxWords:     cfg.Int("game.maxWords", 50),
		viewDistance: cfg.Float("game.viewDistance", 300),
		attackRange:  cfg.Float("player.attackRange", 400),
		attackDamage: cfg.Int("player.attackDamage", 20),
		healAmount:   cfg.Int("player.healAmount", 25),
		moveSpeed:    cfg.Float("player.moveSpeed", 5),
		viewport:     viewport,
	}
}

// Register adds subsystems the engine drives through every lifecycle phase.
func (e *Engine) Register(systems ...System) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.systems = append(e.systems, systems...)
}

// OnFrame sets the per-tick snapshot callback.
func (e *Engine) OnFrame(fn FrameFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameFn = fn
}

// SetLocalPlayer selects which player the local rules act as. An empty id
// is spectator mode: no local player, drags pan the camera.
func (e *Engine) SetLocalPlayer(playerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.localID = playerID
	e.spectator = playerID == ""
}

// Spectating reports whether no player represents the local user.
func (e *Engine) Spectating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spectator
}

// Init runs every registered system's Init and fails on the first error.
func (e *Engine) Init() error {
	e.mu.Lock()
	systems := append([]System(nil), e.systems...)
	e.mu.Unlock()
	for _, sys := range systems {
		if err := sys.Init(); err != nil {
			lifecycle.SystemFailed(context.Background(), e.pub, sys.Name(), err)
			return fmt.Errorf("init %s: %w", sys.Name(), err)
		}
	}
	return nil
}

// Start seeds the initial word supply, starts the systems, and launches
// the tick loop. Starting a running engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.paused = false
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	stop, done := e.stop, e.done
	systems := append([]System(nil), e.systems...)
	e.mu.Unlock()

	e.topUpWords()
	for _, sys := range systems {
		sys.Start()
		lifecycle.SystemStarted(context.Background(), e.pub, sys.Name())
	}
	go e.run(stop, done)
}

// Pause freezes rule processing and frame delivery without tearing the
// loop down.
func (e *Engine) Pause() {
	e.mu.Lock()
	already := !e.running || e.paused
	e.paused = true
	systems := append([]System(nil), e.systems...)
	e.mu.Unlock()
	if already {
		return
	}
	for _, sys := range systems {
		sys.Pause()
	}
}

// Resume reverses Pause.
func (e *Engine) Resume() {
	e.mu.Lock()
	already := !e.running || !e.paused
	e.paused = false
	systems := append([]System(nil), e.systems...)
	e.mu.Unlock()
	if already {
		return
	}
	for _, sys := range systems {
		sys.Resume()
	}
}

// Stop cancels the tick loop, waits for it to exit, and drives the
// systems through Stop and Cleanup. Stopping a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	stop, done := e.stop, e.done
	e.stop, e.done = nil, nil
	systems := append([]System(nil), e.systems...)
	e.mu.Unlock()

	close(stop)
	<-done
	for _, sys := range systems {
		sys.Stop()
		lifecycle.SystemStopped(context.Background(), e.pub, sys.Name())
	}
	for _, sys := range systems {
		sys.Cleanup()
	}
}

// run is the fixed-rate tick loop.
func (e *Engine) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	lastGen := e.now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			paused := e.paused
			e.mu.Unlock()
			if paused {
				continue
			}
			now := e.now()
			e.pruneEffects(now)
			if now.Sub(lastGen) >= e.wordGenRate {
				e.topUpWords()
				lastGen = now
			}
			e.deliverFrame()
		}
	}
}

// pruneEffects drops timed effects whose expiry has passed.
func (e *Engine) pruneEffects(now time.Time) {
	effects, _ := e.store.Get("world.effects").([]state.ActiveEffect)
	if len(effects) == 0 {
		return
	}
	cutoff := now.UnixMilli()
	kept := effects[:0]
	for _, effect := range effects {
		if effect.ExpiresAt > cutoff {
			kept = append(kept, effect)
		}
	}
	if len(kept) == len(effects) {
		return
	}
	e.store.SetWith("world.effects", append([]state.ActiveEffect(nil), kept...), store.UpdateOptions{SkipHistory: true})
}

// deliverFrame snapshots the world and hands it to the frame callback.
// Camera follow is recomputed here every tick, never persisted.
func (e *Engine) deliverFrame() {
	e.mu.Lock()
	fn := e.frameFn
	e.mu.Unlock()
	if fn == nil {
		return
	}
	fn(e.Snapshot())
}

// Snapshot builds the current frame on demand.
func (e *Engine) Snapshot() Frame {
	e.mu.Lock()
	localID := e.localID
	spectator := e.spectator
	viewport := e.viewport
	e.mu.Unlock()

	mapSize, _ := e.store.Get("world.mapSize").(state.MapSize)
	words, _ := e.store.Get("world.words").([]state.Word)
	effects, _ := e.store.Get("world.effects").([]state.ActiveEffect)

	camera, _ := e.store.Get("world.camera").(state.Camera)
	if !spectator {
		if player, ok := e.store.Player(localID); ok {
			camera = state.Camera{
				X: player.Position.X - viewport.Width/2,
				Y: player.Position.Y - viewport.Height/2,
			}
		}
	}

	return Frame{
		Players: e.store.Leaderboard(),
		Words:   words,
		Effects: effects,
		Camera:  camera,
		MapSize: mapSize,
	}
}

func (e *Engine) playerRef(playerID string) logging.EntityRef {
	return logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer}
}
