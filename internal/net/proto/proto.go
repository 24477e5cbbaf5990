// Package proto defines the JSON wire protocol the client expects from a
// game server. Inbound messages form a closed tagged union: DecodeInbound
// maps every known message type onto its own struct, so dispatch is an
// exhaustive type switch instead of stringly-typed branching.
package proto

import (
	"encoding/json"
	"errors"
	"fmt"

	"typing-battle/client/internal/state"
)

// Outbound message type tags.
const (
	TypeAuth         = "auth"
	TypeHeartbeat    = "heartbeat"
	TypePlayerUpdate = "player_update"
	TypeWordTyped    = "word_typed"
	TypeItemUsed     = "item_used"
	TypeGetGameState = "get_game_state"
)

// Outbound is the envelope for every client-to-server message. The id is
// assigned by the client and echoed back on correlated responses.
type Outbound struct {
	Type           string `json:"type"`
	Data           any    `json:"data,omitempty"`
	ID             uint64 `json:"id"`
	Timestamp      int64  `json:"timestamp"`
	ExpectResponse bool   `json:"expectResponse,omitempty"`
}

// Credentials is the auth payload supplied by the login collaborator.
type Credentials struct {
	Name string `json:"name"`
	Skin string `json:"skin"`
}

// ErrUnknownType marks an inbound message whose type tag is not part of
// the protocol; the message is dropped, the connection survives.
var ErrUnknownType = errors.New("unknown message type")

// Inbound is the closed set of server-to-client messages.
type Inbound interface {
	inboundMessage()
}

// AuthResponse reports the outcome of an auth message.
type AuthResponse struct {
	Success  bool
	UserID   string
	Username string
	Err      string
}

// PlayerJoined announces a new participant.
type PlayerJoined struct {
	Player state.Player
}

// PlayerLeft announces a departure.
type PlayerLeft struct {
	PlayerID string
}

// PlayerUpdate carries a partial patch for one player.
type PlayerUpdate struct {
	PlayerID string
	Updates  state.PlayerPatch
}

// WordSpawned adds a word to the world.
type WordSpawned struct {
	Word state.Word
}

// WordTyped removes a word consumed by any player.
type WordTyped struct {
	WordID string
}

// ItemDropped appends an item to the shared world list.
type ItemDropped struct {
	Item state.Item
}

// GameState is the authoritative resync snapshot. It always replaces local
// players/words/items wholesale, never merges.
type GameState struct {
	Players []state.Player
	Words   []state.Word
	Items   []state.Item
}

// Heartbeat echoes the client's timestamp for latency measurement.
type Heartbeat struct {
	Timestamp int64
}

// ServerError surfaces a server-reported failure.
type ServerError struct {
	Message string
}

// Response correlates to an outbound message sent with expectResponse.
type Response struct {
	RequestID uint64
	Success   bool
	Data      json.RawMessage
	Err       string
}

func (AuthResponse) inboundMessage() {}
func (PlayerJoined) inboundMessage() {}
func (PlayerLeft) inboundMessage()   {}
func (PlayerUpdate) inboundMessage() {}
func (WordSpawned) inboundMessage()  {}
func (WordTyped) inboundMessage()    {}
func (ItemDropped) inboundMessage()  {}
func (GameState) inboundMessage()    {}
func (Heartbeat) inboundMessage()    {}
func (ServerError) inboundMessage()  {}
func (Response) inboundMessage()     {}

type envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Success   bool            `json:"success"`
	Error     string          `json:"error"`
	Timestamp int64           `json:"timestamp"`
	RequestID uint64          `json:"requestId"`
}

// DecodeInbound parses a raw server frame into its union variant.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch env.Type {
	case "auth_response":
		msg := AuthResponse{Success: env.Success, Err: env.Error}
		if env.Success && len(env.Data) > 0 {
			var data struct {
				UserID   string `json:"userId"`
				Username string `json:"username"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return nil, fmt.Errorf("auth_response payload: %w", err)
			}
			msg.UserID = data.UserID
			msg.Username = data.Username
		}
		return msg, nil
	case "player_joined":
		var player state.Player
		if err := json.Unmarshal(env.Data, &player); err != nil {
			return nil, fmt.Errorf("player_joined payload: %w", err)
		}
		return PlayerJoined{Player: player}, nil
	case "player_left":
		var data struct {
			PlayerID string `json:"playerId"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("player_left payload: %w", err)
		}
		return PlayerLeft{PlayerID: data.PlayerID}, nil
	case "player_update":
		var data struct {
			PlayerID string            `json:"playerId"`
			Updates  state.PlayerPatch `json:"updates"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("player_update payload: %w", err)
		}
		return PlayerUpdate{PlayerID: data.PlayerID, Updates: data.Updates}, nil
	case "word_spawned":
		var word state.Word
		if err := json.Unmarshal(env.Data, &word); err != nil {
			return nil, fmt.Errorf("word_spawned payload: %w", err)
		}
		return WordSpawned{Word: word}, nil
	case "word_typed":
		var data struct {
			WordID string `json:"wordId"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("word_typed payload: %w", err)
		}
		return WordTyped{WordID: data.WordID}, nil
	case "item_dropped":
		var item state.Item
		if err := json.Unmarshal(env.Data, &item); err != nil {
			return nil, fmt.Errorf("item_dropped payload: %w", err)
		}
		return ItemDropped{Item: item}, nil
	case "game_state":
		var data struct {
			Players []state.Player `json:"players"`
			Words   []state.Word   `json:"words"`
			Items   []state.Item   `json:"items"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("game_state payload: %w", err)
		}
		return GameState{Players: data.Players, Words: data.Words, Items: data.Items}, nil
	case "heartbeat":
		return Heartbeat{Timestamp: env.Timestamp}, nil
	case "error":
		return ServerError{Message: env.Error}, nil
	case "response":
		return Response{RequestID: env.RequestID, Success: env.Success, Data: env.Data, Err: env.Error}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}
