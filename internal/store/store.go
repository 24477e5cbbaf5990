// Package store implements the canonical in-memory state tree for the
// client: world, players, UI, and network state. The store is the single
// source of truth; collaborators read defensive copies and mutate only
// through its API.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"typing-battle/client/eventbus"
	"typing-battle/client/internal/state"
	"typing-battle/client/logging"
	"typing-battle/client/logging/lifecycle"
)

// Event topics published alongside store mutations.
const (
	TopicStateChanged      = "state:changed"
	TopicStateBatchChanged = "state:batchChanged"
	TopicStateUndo         = "state:undo"
	TopicStateReset        = "state:reset"
)

// maxHistorySize bounds the undo stack; the oldest snapshot is evicted
// first.
const maxHistorySize = 50

// Middleware may transform a value before it is written. Middleware run in
// registration order; each receives the previous one's output.
type Middleware func(path string, value any) any

// Subscriber receives the new value at its subscribed path.
type Subscriber func(value any, path string)

// Change is the payload published on TopicStateChanged.
type Change struct {
	Path  string
	Value any
}

// UpdateOptions tunes a single write.
type UpdateOptions struct {
	// Silent suppresses subscriber notification for this write.
	Silent bool
	// SkipHistory leaves the undo stack untouched.
	SkipHistory bool
}

type subEntry struct {
	id uint64
	fn Subscriber
}

// Store is the mutex-guarded state tree.
type Store struct {
	mu         sync.Mutex
	tree       map[string]any
	history    []map[string]any
	subs       map[string][]subEntry
	nextSub    uint64
	middleware []Middleware
	mapSize    state.MapSize
	bus        *eventbus.Bus
	pub        logging.Publisher
}

// New creates a store with the default map bounds.
func New(bus *eventbus.Bus, pub logging.Publisher) *Store {
	return NewSized(bus, pub, DefaultMapSize)
}

// NewSized creates a store whose world uses the given map bounds.
func NewSized(bus *eventbus.Bus, pub logging.Publisher, mapSize state.MapSize) *Store {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Store{
		tree:    initialState(mapSize),
		subs:    make(map[string][]subEntry),
		mapSize: mapSize,
		bus:     bus,
		pub:     pub,
	}
}

// Use registers a middleware transform applied to every subsequent write.
func (s *Store) Use(mw Middleware) {
	if s == nil || mw == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middleware = append(s.middleware, mw)
}

// Get returns a deep copy of the whole tree (empty path) or of the subtree
// at a dotted path. Missing segments yield nil, never a panic.
func (s *Store) Get(path string) any {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == "" {
		return cloneTree(s.tree)
	}
	return cloneValue(lookup(s.tree, path))
}

// Set writes a value at a dotted path with default options.
func (s *Store) Set(path string, value any) {
	s.SetWith(path, value, UpdateOptions{})
}

// SetWith writes a value at a dotted path, auto-creating intermediate
// containers. Identity-keyed containers (the players mapping) take the
// write through keyed insert. Middleware run first; unless silent, exact
// and ancestor subscribers are notified and a state change event is
// published.
func (s *Store) SetWith(path string, value any, opts UpdateOptions) {
	if s == nil || path == "" {
		return
	}

	s.mu.Lock()
	if !opts.SkipHistory {
		s.recordHistoryLocked()
	}
	for _, mw := range s.middleware {
		value = mw(path, value)
	}
	value = cloneValue(value)
	if !writeTree(s.tree, path, value) {
		s.mu.Unlock()
		s.pub.Publish(context.Background(), logging.Event{
			Type:     "state.write_rejected",
			Actor:    logging.EntityRef{ID: path, Kind: logging.EntityKindWorld},
			Severity: logging.SeverityWarn,
			Category: logging.CategoryState,
		})
		return
	}
	var notes []note
	if !opts.Silent {
		notes = s.collectNotesLocked([]string{path})
	}
	s.mu.Unlock()

	s.deliver(notes)
	if s.bus != nil {
		s.bus.Publish(TopicStateChanged, Change{Path: path, Value: cloneValue(value)})
	}
}

// BatchUpdate applies several writes atomically with respect to history
// (one snapshot) and notification: subscribers fire once per affected path,
// only after every write has landed.
func (s *Store) BatchUpdate(updates map[string]any, opts UpdateOptions) {
	if s == nil || len(updates) == 0 {
		return
	}

	paths := make([]string, 0, len(updates))
	for path := range updates {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	s.mu.Lock()
	if !opts.SkipHistory {
		s.recordHistoryLocked()
	}
	applied := paths[:0]
	for _, path := range paths {
		value := updates[path]
		for _, mw := range s.middleware {
			value = mw(path, value)
		}
		if writeTree(s.tree, path, cloneValue(value)) {
			applied = append(applied, path)
		}
	}
	var notes []note
	if !opts.Silent {
		notes = s.collectNotesLocked(applied)
	}
	s.mu.Unlock()

	s.deliver(notes)
	if s.bus != nil {
		s.bus.Publish(TopicStateBatchChanged, append([]string(nil), applied...))
	}
}

// Subscribe registers a callback for changes at path. Ancestor paths also
// fire when a descendant changes, receiving the recomputed value at their
// own path. The returned function unsubscribes.
func (s *Store) Subscribe(path string, fn Subscriber) func() {
	if s == nil || fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[path] = append(s.subs[path], subEntry{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		entries := s.subs[path]
		for i, entry := range entries {
			if entry.id == id {
				s.subs[path] = append(entries[:i:i], entries[i+1:]...)
				break
			}
		}
		if len(s.subs[path]) == 0 {
			delete(s.subs, path)
		}
	}
}

// Undo restores the most recent history snapshot and reports whether an
// undo happened.
func (s *Store) Undo() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return false
	}
	last := len(s.history) - 1
	s.tree = s.history[last]
	s.history = s.history[:last]
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(TopicStateUndo)
	}
	return true
}

// Reset restores the initial state shape and clears history.
func (s *Store) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.tree = initialState(s.mapSize)
	s.history = nil
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(TopicStateReset)
	}
}

// Stats reports store bookkeeping counters.
type Stats struct {
	HistorySize     int
	SubscriberCount int
	PlayerCount     int
	WordCount       int
}

// GetStats summarizes the store for diagnostics.
func (s *Store) GetStats() Stats {
	if s == nil {
		return Stats{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	subscribers := 0
	for _, entries := range s.subs {
		subscribers += len(entries)
	}
	players, _ := lookup(s.tree, "players").(Players)
	words, _ := lookup(s.tree, "world.words").([]state.Word)
	return Stats{
		HistorySize:     len(s.history),
		SubscriberCount: subscribers,
		PlayerCount:     len(players),
		WordCount:       len(words),
	}
}

func (s *Store) recordHistoryLocked() {
	s.history = append(s.history, cloneTree(s.tree))
	if len(s.history) > maxHistorySize {
		s.history = s.history[1:]
	}
}

type note struct {
	path    string
	value   any
	targets []subEntry
}

// collectNotesLocked computes the notification set for the changed paths:
// every exact path plus every distinct ancestor, each at most once, with
// values recomputed after all writes.
func (s *Store) collectNotesLocked(changed []string) []note {
	seen := make(map[string]bool)
	ordered := make([]string, 0, len(changed)*2)
	for _, path := range changed {
		if !seen[path] {
			seen[path] = true
			ordered = append(ordered, path)
		}
	}
	for _, path := range changed {
		parts := strings.Split(path, ".")
		for i := len(parts) - 1; i > 0; i-- {
			ancestor := strings.Join(parts[:i], ".")
			if !seen[ancestor] {
				seen[ancestor] = true
				ordered = append(ordered, ancestor)
			}
		}
	}

	notes := make([]note, 0, len(ordered))
	for _, path := range ordered {
		entries := s.subs[path]
		if len(entries) == 0 {
			continue
		}
		notes = append(notes, note{
			path:    path,
			value:   cloneValue(lookup(s.tree, path)),
			targets: append([]subEntry(nil), entries...),
		})
	}
	return notes
}

func (s *Store) deliver(notes []note) {
	for _, n := range notes {
		for _, entry := range n.targets {
			s.invoke(n.path, entry.fn, n.value)
		}
	}
}

func (s *Store) invoke(path string, fn Subscriber, value any) {
	defer func() {
		if recovered := recover(); recovered != nil {
			lifecycle.HandlerPanic(context.Background(), s.pub, path, recovered)
		}
	}()
	fn(value, path)
}

// lookup resolves a dotted path against the tree. Unknown segments resolve
// to nil. Player structs expose their JSON field names so paths like
// "players.p1.health" read through the identity-keyed mapping.
func lookup(tree map[string]any, path string) any {
	var current any = tree
	for _, segment := range strings.Split(path, ".") {
		switch container := current.(type) {
		case map[string]any:
			current = container[segment]
		case Players:
			player, ok := container[segment]
			if !ok {
				return nil
			}
			current = player
		case state.Player:
			current = playerField(container, segment)
		default:
			return nil
		}
		if current == nil {
			return nil
		}
	}
	return current
}

func playerField(player state.Player, field string) any {
	switch field {
	case "id":
		return player.ID
	case "name":
		return player.Name
	case "skin":
		return player.Skin
	case "health":
		return player.Health
	case "position":
		return player.Position
	case "inventory":
		return player.Inventory
	default:
		return nil
	}
}

// writeTree writes value at path, creating map containers for missing
// intermediate segments. A write whose final container is the players
// mapping requires a state.Player value. Traversal into a non-container
// rejects the write.
func writeTree(tree map[string]any, path string, value any) bool {
	segments := strings.Split(path, ".")
	last := segments[len(segments)-1]

	var parent any = tree
	for _, segment := range segments[:len(segments)-1] {
		container, ok := parent.(map[string]any)
		if !ok {
			return false
		}
		child, exists := container[segment]
		if !exists || child == nil {
			created := make(map[string]any)
			container[segment] = created
			parent = created
			continue
		}
		parent = child
	}

	switch container := parent.(type) {
	case map[string]any:
		container[last] = value
		return true
	case Players:
		player, ok := value.(state.Player)
		if !ok {
			return false
		}
		container[last] = player
		return true
	default:
		return false
	}
}
