// Package state holds the domain entities owned by the state store. The
// types carry JSON tags matching the wire protocol so server payloads map
// onto them directly.
package state

import "math"

// Position is a point on the 2D map.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance between two positions.
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// MapSize describes the playable world bounds.
type MapSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Camera is the local-only viewport offset. It is never synchronized.
type Camera struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WordKind is the closed set of word effects.
type WordKind string

const (
	WordAttack WordKind = "attack"
	WordHeal   WordKind = "heal"
	WordSpeed  WordKind = "speed"
	WordShield WordKind = "shield"
	WordItem   WordKind = "item"
)

// WordKinds lists every kind in a fixed order for random selection.
var WordKinds = []WordKind{WordAttack, WordHeal, WordSpeed, WordShield, WordItem}

// ParseWordKind validates a kind string received from the server.
func ParseWordKind(value string) (WordKind, bool) {
	switch WordKind(value) {
	case WordAttack, WordHeal, WordSpeed, WordShield, WordItem:
		return WordKind(value), true
	default:
		return "", false
	}
}

// WordColor derives the display color for a kind deterministically.
func WordColor(kind WordKind) string {
	switch kind {
	case WordAttack:
		return "#e74c3c"
	case WordHeal:
		return "#2ecc71"
	case WordSpeed:
		return "#3498db"
	case WordShield:
		return "#f39c12"
	case WordItem:
		return "#9b59b6"
	default:
		return "#2c3e50"
	}
}

// WordTexts maps each kind to its candidate display strings.
var WordTexts = map[WordKind][]string{
	WordAttack: {"공격", "타격", "폭발", "번개", "화염"},
	WordHeal:   {"회복", "치료", "힐링", "재생", "생명"},
	WordSpeed:  {"속도", "빠름", "질주", "가속", "순간"},
	WordShield: {"방어", "보호", "실드", "가드", "차단"},
	WordItem:   {"아이템", "보물", "선물", "상자", "보상"},
}

// Word is an active typable word in the world.
type Word struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Kind     WordKind `json:"type"`
	Position Position `json:"position"`
	Color    string   `json:"color"`
}

// ItemKind is the closed set of inventory item types. "item" words grant
// one of these; there is no item of kind "item".
type ItemKind string

const (
	ItemAttack ItemKind = "attack"
	ItemHeal   ItemKind = "heal"
	ItemSpeed  ItemKind = "speed"
	ItemShield ItemKind = "shield"
)

// ItemKinds lists every grantable kind in a fixed order.
var ItemKinds = []ItemKind{ItemAttack, ItemHeal, ItemSpeed, ItemShield}

// ParseItemKind validates an item kind string.
func ParseItemKind(value string) (ItemKind, bool) {
	switch ItemKind(value) {
	case ItemAttack, ItemHeal, ItemSpeed, ItemShield:
		return ItemKind(value), true
	default:
		return "", false
	}
}

// Item is a value type: it has no identity of its own and is owned by
// exactly one inventory slot.
type Item struct {
	Kind  ItemKind `json:"type"`
	Emoji string   `json:"emoji"`
	Name  string   `json:"name"`
}

// NewItem builds the catalog item for a kind.
func NewItem(kind ItemKind) Item {
	switch kind {
	case ItemHeal:
		return Item{Kind: ItemHeal, Emoji: "❤️", Name: "회복 포션"}
	case ItemAttack:
		return Item{Kind: ItemAttack, Emoji: "⚔️", Name: "공격 아이템"}
	case ItemSpeed:
		return Item{Kind: ItemSpeed, Emoji: "⚡", Name: "속도 부스터"}
	case ItemShield:
		return Item{Kind: ItemShield, Emoji: "🛡️", Name: "방어막"}
	default:
		return Item{Kind: kind}
	}
}

// NetworkStatus is the derived connection state surfaced to the UI.
type NetworkStatus struct {
	Connected     bool  `json:"connected"`
	Latency       int64 `json:"latency"`
	Reconnecting  bool  `json:"reconnecting"`
	LastHeartbeat int64 `json:"lastHeartbeat"`
}

// ActiveEffect is a timed modifier attached to one player. Speed scales
// drag movement, shield halves incoming attack damage, until ExpiresAt
// (unix milliseconds).
type ActiveEffect struct {
	ID        string   `json:"id"`
	PlayerID  string   `json:"playerId"`
	Kind      WordKind `json:"type"`
	Magnitude float64  `json:"magnitude"`
	ExpiresAt int64    `json:"expiresAt"`
}

// Notification is a transient UI message.
type Notification struct {
	ID        string `json:"id"`
	Kind      string `json:"type"`
	Message   string `json:"message"`
	Duration  int64  `json:"duration"`
	Timestamp int64  `json:"timestamp"`
}
