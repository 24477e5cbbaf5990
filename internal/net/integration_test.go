package net

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"typing-battle/client/eventbus"
	"typing-battle/client/internal/config"
	"typing-battle/client/internal/net/proto"
	"typing-battle/client/internal/store"
	"typing-battle/client/logging"
)

// TestManagerAgainstRealWebsocket runs the manager over a real gorilla
// connection: authenticate, answer a correlated request, then close
// cleanly from the server side.
func TestManagerAgainstRealWebsocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg proto.Outbound
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Errorf("bad client frame: %v", err)
				return
			}
			switch msg.Type {
			case proto.TypeAuth:
				conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"auth_response","success":true,"data":{"userId":"u1","username":"Alice"}}`))
			case proto.TypeGetGameState:
				response := fmt.Sprintf(`{"type":"response","requestId":%d,"success":true,"data":{"players":[],"words":[],"items":[]}}`, msg.ID)
				conn.WriteMessage(websocket.TextMessage, []byte(response))
			}
		}
	}))
	defer server.Close()

	bus := eventbus.New(logging.NopPublisher())
	st := store.New(bus, logging.NopPublisher())
	cfg := config.New(config.Options{Hostname: "localhost"})
	cfg.Set("network.serverURL", "ws"+strings.TrimPrefix(server.URL, "http"))
	cfg.Set("network.heartbeatInterval", time.Hour)

	manager := NewManager(Options{
		Store:  st,
		Bus:    bus,
		Config: cfg,
		Pub:    logging.NopPublisher(),
	})
	defer manager.Close()

	if err := manager.Connect(&proto.Credentials{Name: "Alice", Skin: "😊"}); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	waitFor(t, "authentication", func() bool {
		return st.Get("user.isAuthenticated") == true
	})
	if got := st.Get("user.name"); got != "Alice" {
		t.Fatalf("expected authenticated name Alice, got %v", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := manager.RequestGameState(ctx)
	if err != nil {
		t.Fatalf("game state request failed: %v", err)
	}
	var snapshot struct {
		Players []json.RawMessage `json:"players"`
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("unexpected snapshot payload %s: %v", data, err)
	}

	manager.Disconnect()
	waitFor(t, "clean disconnect", func() bool {
		return st.Get("network.connected") == false
	})
	if manager.Stats().Attempts != 0 {
		t.Fatalf("expected no reconnect attempts after intentional close")
	}
}
