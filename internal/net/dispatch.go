package net

import (
	"context"
	"errors"
	"fmt"
	"time"

	"typing-battle/client/internal/net/proto"
	"typing-battle/client/internal/state"
	"typing-battle/client/internal/store"
	lognet "typing-battle/client/logging/network"
)

// dispatch applies one inbound server message to the state store. Protocol
// errors (malformed frames, unknown types) drop the single message and
// keep the connection alive.
func (m *Manager) dispatch(raw []byte) {
	msg, err := proto.DecodeInbound(raw)
	if err != nil {
		payload := lognet.DropPayload{Error: err.Error()}
		if errors.Is(err, proto.ErrUnknownType) {
			payload.MessageType = "unknown"
		}
		lognet.ProtocolDropped(context.Background(), m.pub, m.connRef(), payload)
		return
	}

	switch msg := msg.(type) {
	case proto.AuthResponse:
		m.handleAuthResponse(msg)
	case proto.PlayerJoined:
		m.store.AddPlayer(msg.Player)
		m.store.AddNotification("info", fmt.Sprintf("%s joined the game", msg.Player.Name), 3*time.Second)
	case proto.PlayerLeft:
		if player, ok := m.store.Player(msg.PlayerID); ok {
			m.store.RemovePlayer(msg.PlayerID)
			m.store.AddNotification("info", fmt.Sprintf("%s left the game", player.Name), 3*time.Second)
		}
	case proto.PlayerUpdate:
		m.store.UpdatePlayer(msg.PlayerID, msg.Updates)
	case proto.WordSpawned:
		m.store.AddWord(msg.Word)
	case proto.WordTyped:
		m.store.RemoveWord(msg.WordID)
		if m.bus != nil {
			m.bus.Publish(TopicWordComplete, msg.WordID)
		}
	case proto.ItemDropped:
		items, _ := m.store.Get("world.items").([]state.Item)
		m.store.Set("world.items", append(items, msg.Item))
	case proto.GameState:
		m.applyGameState(msg)
	case proto.Heartbeat:
		latency := m.now().UnixMilli() - msg.Timestamp
		if latency < 0 {
			latency = 0
		}
		m.store.BatchUpdate(map[string]any{
			"network.latency":       latency,
			"network.lastHeartbeat": m.now().UnixMilli(),
		}, store.UpdateOptions{SkipHistory: true})
	case proto.ServerError:
		m.store.SetError(msg.Message)
	case proto.Response:
		res := result{data: msg.Data}
		if !msg.Success {
			res = result{err: fmt.Errorf("server rejected request: %s", msg.Err)}
		}
		m.settlePending(msg.RequestID, res)
	}
}

func (m *Manager) handleAuthResponse(msg proto.AuthResponse) {
	if msg.Success {
		m.store.BatchUpdate(map[string]any{
			"user.isAuthenticated": true,
			"user.id":              msg.UserID,
			"user.name":            msg.Username,
		}, store.UpdateOptions{})
		if m.bus != nil {
			m.bus.Publish(TopicAuthSuccess, msg.UserID, msg.Username)
		}
		return
	}
	message := msg.Err
	if message == "" {
		message = "Authentication failed"
	}
	m.store.SetError(message)
	if m.bus != nil {
		m.bus.Publish(TopicAuthFailed, message)
	}
}

// applyGameState performs the authoritative resync: the server snapshot
// replaces players, words, and items wholesale. Local optimistic state is
// discarded, never merged.
func (m *Manager) applyGameState(msg proto.GameState) {
	mapSize, _ := m.store.Get("world.mapSize").(state.MapSize)
	players := make(store.Players, len(msg.Players))
	for _, player := range msg.Players {
		player.ApplyHealthDelta(0)
		player.ClampPosition(mapSize)
		players[player.ID] = player
	}
	words := msg.Words
	if words == nil {
		words = []state.Word{}
	}
	items := msg.Items
	if items == nil {
		items = []state.Item{}
	}
	m.store.BatchUpdate(map[string]any{
		"players":     players,
		"world.words": words,
		"world.items": items,
	}, store.UpdateOptions{})
}
