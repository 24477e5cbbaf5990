package game

import (
	"errors"
	"sync"
	"testing"
	"time"

	"typing-battle/client/eventbus"
	"typing-battle/client/internal/config"
	"typing-battle/client/internal/state"
	"typing-battle/client/internal/store"
	"typing-battle/client/logging"
)

type recordingSystem struct {
	BaseSystem
	mu      sync.Mutex
	name    string
	phases  []string
	initErr error
}

func (s *recordingSystem) Name() string { return s.name }

func (s *recordingSystem) record(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases = append(s.phases, phase)
}

func (s *recordingSystem) Init() error {
	s.record("init")
	return s.initErr
}
func (s *recordingSystem) Start()   { s.record("start") }
func (s *recordingSystem) Pause()   { s.record("pause") }
func (s *recordingSystem) Resume()  { s.record("resume") }
func (s *recordingSystem) Stop()    { s.record("stop") }
func (s *recordingSystem) Cleanup() { s.record("cleanup") }

func (s *recordingSystem) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.phases...)
}

func newLoopEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	bus := eventbus.New(logging.NopPublisher())
	st := store.New(bus, logging.NopPublisher())
	cfg := config.New(config.Options{Hostname: "localhost"})
	cfg.Set("game.tickRate", 200)
	cfg.Set("game.wordGenerationRate", time.Millisecond)
	cfg.Set("game.maxWords", 3)
	engine := New(Options{
		Store:  st,
		Bus:    bus,
		Config: cfg,
		Pub:    logging.NopPublisher(),
	})
	t.Cleanup(engine.Stop)
	return engine, st
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSystemsDrivenThroughEveryPhase(t *testing.T) {
	engine, _ := newLoopEngine(t)
	sys := &recordingSystem{name: "audio"}
	engine.Register(sys)

	if err := engine.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	engine.Start()
	engine.Pause()
	engine.Resume()
	engine.Stop()

	want := []string{"init", "start", "pause", "resume", "stop", "cleanup"}
	got := sys.seen()
	if len(got) != len(want) {
		t.Fatalf("expected phases %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected phases %v, got %v", want, got)
		}
	}
}

func TestInitStopsAtFirstSystemError(t *testing.T) {
	engine, _ := newLoopEngine(t)
	failing := &recordingSystem{name: "broken", initErr: errors.New("no device")}
	after := &recordingSystem{name: "after"}
	engine.Register(failing, after)

	if err := engine.Init(); err == nil {
		t.Fatalf("expected init to propagate the system error")
	}
	if len(after.seen()) != 0 {
		t.Fatalf("expected later systems untouched, saw %v", after.seen())
	}
}

func TestStartSeedsAndTopsUpWords(t *testing.T) {
	engine, st := newLoopEngine(t)
	engine.Start()

	waitUntil(t, "initial word seed", func() bool {
		words, _ := st.Get("world.words").([]state.Word)
		return len(words) == 3
	})

	// Consuming a word leaves a gap the generation pass refills.
	words, _ := st.Get("world.words").([]state.Word)
	st.RemoveWord(words[0].ID)

	waitUntil(t, "word top-up", func() bool {
		words, _ := st.Get("world.words").([]state.Word)
		return len(words) == 3
	})
}

func TestExpiredEffectsPrunedEachTick(t *testing.T) {
	engine, st := newLoopEngine(t)
	st.Set("world.effects", []state.ActiveEffect{
		{ID: "old", PlayerID: "p1", Kind: state.WordSpeed, ExpiresAt: time.Now().Add(-time.Second).UnixMilli()},
		{ID: "live", PlayerID: "p1", Kind: state.WordShield, ExpiresAt: time.Now().Add(time.Minute).UnixMilli()},
	})

	engine.Start()

	waitUntil(t, "expired effect pruned", func() bool {
		effects, _ := st.Get("world.effects").([]state.ActiveEffect)
		return len(effects) == 1 && effects[0].ID == "live"
	})
}

func TestFrameCarriesCameraFollowAndLeaderboardOrder(t *testing.T) {
	engine, st := newLoopEngine(t)
	st.AddPlayer(state.Player{ID: "local", Health: 60, Position: state.Position{X: 1000, Y: 1000}})
	st.AddPlayer(state.Player{ID: "rival", Health: 90, Position: state.Position{X: 500, Y: 500}})
	engine.SetLocalPlayer("local")

	var mu sync.Mutex
	var last Frame
	frames := 0
	engine.OnFrame(func(frame Frame) {
		mu.Lock()
		defer mu.Unlock()
		last = frame
		frames++
	})
	engine.Start()

	waitUntil(t, "frames delivered", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return frames > 1
	})

	mu.Lock()
	frame := last
	mu.Unlock()
	if frame.Camera.X != 600 || frame.Camera.Y != 700 {
		t.Fatalf("expected camera follow at (600,700), got %+v", frame.Camera)
	}
	if len(frame.Players) != 2 || frame.Players[0].ID != "rival" {
		t.Fatalf("expected leaderboard order by health, got %+v", frame.Players)
	}
	if frame.MapSize != store.DefaultMapSize {
		t.Fatalf("unexpected map size %+v", frame.MapSize)
	}
}

func TestPauseFreezesFrameDelivery(t *testing.T) {
	engine, _ := newLoopEngine(t)

	var mu sync.Mutex
	frames := 0
	engine.OnFrame(func(Frame) {
		mu.Lock()
		defer mu.Unlock()
		frames++
	})
	engine.Start()
	waitUntil(t, "first frame", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return frames > 0
	})

	engine.Pause()
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	paused := frames
	mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	still := frames
	mu.Unlock()
	if still != paused {
		t.Fatalf("expected no frames while paused, %d grew to %d", paused, still)
	}

	engine.Resume()
	waitUntil(t, "frames after resume", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return frames > still
	})
}

func TestStopCancelsTheLoop(t *testing.T) {
	engine, _ := newLoopEngine(t)

	var mu sync.Mutex
	frames := 0
	engine.OnFrame(func(Frame) {
		mu.Lock()
		defer mu.Unlock()
		frames++
	})
	engine.Start()
	waitUntil(t, "first frame", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return frames > 0
	})

	engine.Stop()
	mu.Lock()
	stopped := frames
	mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	after := frames
	mu.Unlock()
	if after != stopped {
		t.Fatalf("expected no frames after stop, %d grew to %d", stopped, after)
	}

	// Stopping twice is safe.
	engine.Stop()
}
