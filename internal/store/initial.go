package store

import (
	"typing-battle/client/internal/state"
)

// Players is the identity-keyed mapping the store holds under "players".
// Path writes whose parent resolves to this type go through keyed insert
// rather than generic container assignment.
type Players map[string]state.Player

// Clone deep-copies the mapping.
func (p Players) Clone() Players {
	cloned := make(Players, len(p))
	for id, player := range p {
		cloned[id] = player.Clone()
	}
	return cloned
}

// DefaultMapSize matches the configured world bounds.
var DefaultMapSize = state.MapSize{Width: 2000, Height: 2000}

// initialState builds the documented initial state shape. Every Reset and
// every new store starts from a fresh copy of this tree.
func initialState(mapSize state.MapSize) map[string]any {
	return map[string]any{
		"game": map[string]any{
			"status":    "menu", // menu, playing, paused, ended
			"mode":      "multiplayer",
			"startTime": int64(0),
			"endTime":   int64(0),
			"score":     0,
		},
		"user": map[string]any{
			"id":              "",
			"name":            "",
			"skin":            "😊",
			"isAuthenticated": false,
			"preferences":     map[string]any{},
		},
		"players": Players{},
		"world": map[string]any{
			"words":   []state.Word{},
			"items":   []state.Item{},
			"effects": []state.ActiveEffect{},
			"camera":  state.Camera{},
			"mapSize": mapSize,
		},
		"ui": map[string]any{
			"currentScreen": "login",
			"isLoading":     false,
			"error":         "",
			"notifications": []state.Notification{},
			"modals": map[string]any{
				"settings":   false,
				"inventory":  false,
				"playerList": false,
			},
		},
		"network": map[string]any{
			"connected":     false,
			"latency":       int64(0),
			"reconnecting":  false,
			"lastHeartbeat": int64(0),
		},
	}
}
