package proto

import (
	"errors"
	"testing"
)

func TestDecodeInboundVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want func(Inbound) bool
	}{
		{
			name: "auth success",
			raw:  `{"type":"auth_response","success":true,"data":{"userId":"u1","username":"Alice"}}`,
			want: func(msg Inbound) bool {
				auth, ok := msg.(AuthResponse)
				return ok && auth.Success && auth.UserID == "u1" && auth.Username == "Alice"
			},
		},
		{
			name: "auth failure",
			raw:  `{"type":"auth_response","success":false,"error":"bad credentials"}`,
			want: func(msg Inbound) bool {
				auth, ok := msg.(AuthResponse)
				return ok && !auth.Success && auth.Err == "bad credentials"
			},
		},
		{
			name: "player joined",
			raw:  `{"type":"player_joined","data":{"id":"p2","name":"Bob","health":100,"position":{"x":10,"y":20}}}`,
			want: func(msg Inbound) bool {
				joined, ok := msg.(PlayerJoined)
				return ok && joined.Player.ID == "p2" && joined.Player.Position.X == 10
			},
		},
		{
			name: "player left",
			raw:  `{"type":"player_left","data":{"playerId":"p2"}}`,
			want: func(msg Inbound) bool {
				left, ok := msg.(PlayerLeft)
				return ok && left.PlayerID == "p2"
			},
		},
		{
			name: "player update partial",
			raw:  `{"type":"player_update","data":{"playerId":"p2","updates":{"health":55}}}`,
			want: func(msg Inbound) bool {
				update, ok := msg.(PlayerUpdate)
				return ok && update.PlayerID == "p2" &&
					update.Updates.Health != nil && *update.Updates.Health == 55 &&
					update.Updates.Position == nil
			},
		},
		{
			name: "word spawned",
			raw:  `{"type":"word_spawned","data":{"id":"w1","text":"회복","type":"heal","position":{"x":1,"y":2}}}`,
			want: func(msg Inbound) bool {
				spawned, ok := msg.(WordSpawned)
				return ok && spawned.Word.ID == "w1" && spawned.Word.Kind == "heal"
			},
		},
		{
			name: "word typed",
			raw:  `{"type":"word_typed","data":{"wordId":"w1"}}`,
			want: func(msg Inbound) bool {
				typed, ok := msg.(WordTyped)
				return ok && typed.WordID == "w1"
			},
		},
		{
			name: "heartbeat",
			raw:  `{"type":"heartbeat","timestamp":123456}`,
			want: func(msg Inbound) bool {
				hb, ok := msg.(Heartbeat)
				return ok && hb.Timestamp == 123456
			},
		},
		{
			name: "server error",
			raw:  `{"type":"error","error":"room full"}`,
			want: func(msg Inbound) bool {
				serverErr, ok := msg.(ServerError)
				return ok && serverErr.Message == "room full"
			},
		},
		{
			name: "response",
			raw:  `{"type":"response","requestId":7,"success":true,"data":{"ok":true}}`,
			want: func(msg Inbound) bool {
				resp, ok := msg.(Response)
				return ok && resp.RequestID == 7 && resp.Success
			},
		},
		{
			name: "game state",
			raw:  `{"type":"game_state","data":{"players":[{"id":"p1"}],"words":[],"items":[]}}`,
			want: func(msg Inbound) bool {
				gs, ok := msg.(GameState)
				return ok && len(gs.Players) == 1 && gs.Players[0].ID == "p1"
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := DecodeInbound([]byte(tc.raw))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !tc.want(msg) {
				t.Fatalf("unexpected decode result %#v", msg)
			}
		})
	}
}

func TestDecodeInboundUnknownType(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"type":"teleport","data":{}}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestDecodeInboundMalformedJSON(t *testing.T) {
	if _, err := DecodeInbound([]byte(`{"type":`)); err == nil {
		t.Fatalf("expected error for malformed frame")
	}
}
