package store

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"typing-battle/client/internal/state"
)

// Domain event topics. Collaborators (audio, UI) observe these instead of
// polling state.
const (
	TopicPlayerAdded       = "player:added"
	TopicPlayerRemoved     = "player:removed"
	TopicPlayerUpdated     = "player:updated"
	TopicWordAdded         = "word:added"
	TopicWordRemoved       = "word:removed"
	TopicNotificationAdded = "notification:added"
	TopicErrorSet          = "error:set"
	TopicLoadingChanged    = "loading:changed"
)

// PlayerPatch aliases the state package's partial player update so store
// callers don't need a second import.
type PlayerPatch = state.PlayerPatch

// AddPlayer inserts a player into the identity-keyed mapping.
func (s *Store) AddPlayer(player state.Player) {
	player.ApplyHealthDelta(0)
	player.ClampPosition(s.mapSize)
	s.Set("players."+player.ID, player)
	if s.bus != nil {
		s.bus.Publish(TopicPlayerAdded, player.Clone())
	}
}

// RemovePlayer deletes a player by id. Unknown ids are ignored.
func (s *Store) RemovePlayer(playerID string) {
	players, ok := s.Get("players").(Players)
	if !ok {
		return
	}
	player, exists := players[playerID]
	if !exists {
		return
	}
	delete(players, playerID)
	s.Set("players", players)
	if s.bus != nil {
		s.bus.Publish(TopicPlayerRemoved, player)
	}
}

// UpdatePlayer applies a partial patch to one player. Unknown ids are
// ignored.
func (s *Store) UpdatePlayer(playerID string, patch PlayerPatch) {
	players, ok := s.Get("players").(Players)
	if !ok {
		return
	}
	player, exists := players[playerID]
	if !exists {
		return
	}
	patch.Apply(&player)
	player.ClampPosition(s.mapSize)
	s.Set("players."+playerID, player)
	if s.bus != nil {
		s.bus.Publish(TopicPlayerUpdated, playerID, patch)
	}
}

// Player returns a copy of one player and whether it exists.
func (s *Store) Player(playerID string) (state.Player, bool) {
	players, ok := s.Get("players").(Players)
	if !ok {
		return state.Player{}, false
	}
	player, exists := players[playerID]
	return player, exists
}

// Leaderboard returns players ordered by health descending, id ascending
// as a tiebreak. The mapping's iteration order is never relied on for
// display ranking.
func (s *Store) Leaderboard() []state.Player {
	players, ok := s.Get("players").(Players)
	if !ok {
		return nil
	}
	ranked := make([]state.Player, 0, len(players))
	for _, player := range players {
		ranked = append(ranked, player)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Health != ranked[j].Health {
			return ranked[i].Health > ranked[j].Health
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// AddWord appends a word to the active set.
func (s *Store) AddWord(word state.Word) {
	words, _ := s.Get("world.words").([]state.Word)
	s.Set("world.words", append(words, word))
	if s.bus != nil {
		s.bus.Publish(TopicWordAdded, word)
	}
}

// RemoveWord deletes a word by id and reports whether it was present.
func (s *Store) RemoveWord(wordID string) bool {
	words, _ := s.Get("world.words").([]state.Word)
	for i, word := range words {
		if word.ID == wordID {
			s.Set("world.words", append(words[:i:i], words[i+1:]...))
			if s.bus != nil {
				s.bus.Publish(TopicWordRemoved, word)
			}
			return true
		}
	}
	return false
}

// AddNotification appends a transient UI notification, assigning id and
// timestamp.
func (s *Store) AddNotification(kind, message string, duration time.Duration) {
	notifications, _ := s.Get("ui.notifications").([]state.Notification)
	notification := state.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		Duration:  duration.Milliseconds(),
		Timestamp: time.Now().UnixMilli(),
	}
	s.Set("ui.notifications", append(notifications, notification))
	if s.bus != nil {
		s.bus.Publish(TopicNotificationAdded, notification)
	}
}

// RemoveNotification deletes a notification by id.
func (s *Store) RemoveNotification(notificationID string) {
	notifications, _ := s.Get("ui.notifications").([]state.Notification)
	for i, notification := range notifications {
		if notification.ID == notificationID {
			s.Set("ui.notifications", append(notifications[:i:i], notifications[i+1:]...))
			return
		}
	}
}

// SetError surfaces a user-visible error message and a matching error
// notification.
func (s *Store) SetError(message string) {
	s.Set("ui.error", message)
	if message != "" {
		s.AddNotification("error", message, 5*time.Second)
	}
	if s.bus != nil {
		s.bus.Publish(TopicErrorSet, message)
	}
}

// ClearError resets the error state.
func (s *Store) ClearError() {
	s.Set("ui.error", "")
}

// SetLoading flips the UI loading flag.
func (s *Store) SetLoading(loading bool) {
	s.Set("ui.isLoading", loading)
	if s.bus != nil {
		s.bus.Publish(TopicLoadingChanged, loading)
	}
}
