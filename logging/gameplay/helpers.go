package gameplay

import (
	"context"

	"typing-battle/client/logging"
)

const (
	// EventWordMatched is emitted when typed text consumes a word.
	EventWordMatched logging.EventType = "gameplay.word_matched"
	// EventAttackLanded is emitted when an attack damages another player.
	EventAttackLanded logging.EventType = "gameplay.attack_landed"
	// EventHealApplied is emitted when a heal restores health.
	EventHealApplied logging.EventType = "gameplay.heal_applied"
	// EventItemGranted is emitted when an item lands in an inventory.
	EventItemGranted logging.EventType = "gameplay.item_granted"
	// EventInventoryFull is emitted when an item grant is refused.
	EventInventoryFull logging.EventType = "gameplay.inventory_full"
)

// WordPayload captures the consumed word.
type WordPayload struct {
	WordID string `json:"wordId"`
	Text   string `json:"text"`
	Kind   string `json:"kind"`
}

// CombatPayload captures a health delta applied to a target.
type CombatPayload struct {
	Delta  int `json:"delta"`
	Health int `json:"health"`
}

func WordMatched(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload WordPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventWordMatched,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func AttackLanded(ctx context.Context, pub logging.Publisher, actor, target logging.EntityRef, payload CombatPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventAttackLanded,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func HealApplied(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload CombatPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventHealApplied,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func ItemGranted(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, itemType string) {
	publish(ctx, pub, logging.Event{
		Type:     EventItemGranted,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  map[string]string{"itemType": itemType},
	})
}

func InventoryFull(ctx context.Context, pub logging.Publisher, actor logging.EntityRef) {
	publish(ctx, pub, logging.Event{
		Type:     EventInventoryFull,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
