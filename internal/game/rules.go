package game

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"typing-battle/client/internal/state"
	"typing-battle/client/internal/store"
	"typing-battle/client/logging/gameplay"
)

// Intent topics published after a local rule applies, for the connection
// layer to forward.
const (
	TopicIntentPlayerMoved = "player:moved"
	TopicIntentWordTyped   = "word:typed"
	TopicIntentItemUsed    = "item:used"
)

// effectDuration bounds timed speed/shield effects.
const effectDuration = 5 * time.Second

const (
	speedMultiplier  = 1.5
	shieldMultiplier = 0.5
	itemAttackDamage = 30
)

// AppendInput extends the local typing buffer.
func (e *Engine) AppendInput(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input += text
}

// Input returns the current typing buffer.
func (e *Engine) Input() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.input
}

// ClearInput empties the typing buffer.
func (e *Engine) ClearInput() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = ""
}

// SubmitInput submits the buffered text as a word attempt.
func (e *Engine) SubmitInput() bool {
	return e.SubmitWord(e.Input())
}

// SubmitWord runs the word-match rule: the typed text must equal a word's
// text exactly, and the word must lie within view distance of the local
// player. Among multiple matches the nearest wins; equal distances break
// on word id ascending. A match applies the word's effect optimistically,
// removes the word, spawns one replacement at a random position, clears
// the input buffer, and publishes the typed intent for the server.
func (e *Engine) SubmitWord(text string) bool {
	e.mu.Lock()
	localID := e.localID
	spectator := e.spectator
	e.mu.Unlock()
	if spectator || text == "" {
		return false
	}
	player, ok := e.store.Player(localID)
	if !ok {
		return false
	}

	words, _ := e.store.Get("world.words").([]state.Word)
	var candidates []state.Word
	for _, word := range words {
		if word.Text != text {
			continue
		}
		if player.Position.DistanceTo(word.Position) > e.viewDistance {
			continue
		}
		candidates = append(candidates, word)
	}
	if len(candidates) == 0 {
		return false
	}
	sort.Slice(candidates, func(i, j int) bool {
		di := player.Position.DistanceTo(candidates[i].Position)
		dj := player.Position.DistanceTo(candidates[j].Position)
		if di != dj {
			return di < dj
		}
		return candidates[i].ID < candidates[j].ID
	})
	matched := candidates[0]

	e.applyWordEffect(matched.Kind, player)
	e.store.RemoveWord(matched.ID)
	e.store.AddWord(e.generateWord())
	e.ClearInput()

	gameplay.WordMatched(context.Background(), e.pub, e.playerRef(localID), gameplay.WordPayload{
		WordID: matched.ID,
		Text:   matched.Text,
		Kind:   string(matched.Kind),
	})
	if e.bus != nil {
		e.bus.Publish(TopicIntentWordTyped, map[string]string{"wordId": matched.ID})
	}
	return true
}

// applyWordEffect resolves a matched word's kind against the acting player.
func (e *Engine) applyWordEffect(kind state.WordKind, actor state.Player) {
	switch kind {
	case state.WordAttack:
		e.attackNearest(actor, e.attackDamage)
	case state.WordHeal:
		e.heal(actor, e.healAmount)
	case state.WordSpeed:
		e.addTimedEffect(actor.ID, state.WordSpeed, speedMultiplier)
	case state.WordShield:
		e.addTimedEffect(actor.ID, state.WordShield, shieldMultiplier)
	case state.WordItem:
		e.grantRandomItem(actor)
	}
}

// attackNearest damages the closest other player within attack range.
// A shield effect on the target halves the damage. Out-of-range players
// are untouched.
func (e *Engine) attackNearest(actor state.Player, damage int) {
	players, _ := e.store.Get("players").(store.Players)
	var target state.Player
	best := e.attackRange
	found := false
	for id, other := range players {
		if id == actor.ID {
			continue
		}
		distance := actor.Position.DistanceTo(other.Position)
		if distance <= best {
			best = distance
			target = other
			found = true
		}
	}
	if !found {
		return
	}
	e.damagePlayer(actor, target, damage)
}

func (e *Engine) damagePlayer(actor, target state.Player, damage int) {
	if e.hasActiveEffect(target.ID, state.WordShield) {
		damage /= 2
	}
	health := target.Health - damage
	e.store.UpdatePlayer(target.ID, store.PlayerPatch{Health: &health})
	updated, _ := e.store.Player(target.ID)
	gameplay.AttackLanded(context.Background(), e.pub, e.playerRef(actor.ID), e.playerRef(target.ID), gameplay.CombatPayload{
		Delta:  -damage,
		Health: updated.Health,
	})
}

func (e *Engine) heal(actor state.Player, amount int) {
	health := actor.Health + amount
	e.store.UpdatePlayer(actor.ID, store.PlayerPatch{Health: &health})
	updated, _ := e.store.Player(actor.ID)
	gameplay.HealApplied(context.Background(), e.pub, e.playerRef(actor.ID), gameplay.CombatPayload{
		Delta:  amount,
		Health: updated.Health,
	})
}

// addTimedEffect records a speed/shield modifier that expires after the
// effect duration. The prune pass in the tick loop removes it.
func (e *Engine) addTimedEffect(playerID string, kind state.WordKind, magnitude float64) {
	effects, _ := e.store.Get("world.effects").([]state.ActiveEffect)
	effects = append(effects, state.ActiveEffect{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		Kind:      kind,
		Magnitude: magnitude,
		ExpiresAt: e.now().Add(effectDuration).UnixMilli(),
	})
	e.store.SetWith("world.effects", effects, store.UpdateOptions{SkipHistory: true})
}

// hasActiveEffect reports whether an unexpired effect of the kind is
// attached to the player.
func (e *Engine) hasActiveEffect(playerID string, kind state.WordKind) bool {
	effects, _ := e.store.Get("world.effects").([]state.ActiveEffect)
	now := e.now().UnixMilli()
	for _, effect := range effects {
		if effect.PlayerID == playerID && effect.Kind == kind && effect.ExpiresAt > now {
			return true
		}
	}
	return false
}

// grantRandomItem appends a uniformly random item to the actor's
// inventory. A full inventory is a silent no-op.
func (e *Engine) grantRandomItem(actor state.Player) {
	if len(actor.Inventory) >= state.MaxInventorySize {
		gameplay.InventoryFull(context.Background(), e.pub, e.playerRef(actor.ID))
		return
	}
	kind := state.ItemKinds[e.rng.Intn(len(state.ItemKinds))]
	inventory := append(append([]state.Item(nil), actor.Inventory...), state.NewItem(kind))
	e.store.UpdatePlayer(actor.ID, store.PlayerPatch{Inventory: &inventory})
	gameplay.ItemGranted(context.Background(), e.pub, e.playerRef(actor.ID), string(kind))
}

// Drag applies a pointer drag delta. With a local player it moves them,
// clamped to the map bounds, with an active speed effect scaling the
// delta. In spectator mode it pans the camera with no clamping.
func (e *Engine) Drag(deltaX, deltaY float64) {
	e.mu.Lock()
	localID := e.localID
	spectator := e.spectator
	e.mu.Unlock()

	if spectator {
		camera, _ := e.store.Get("world.camera").(state.Camera)
		camera.X += deltaX
		camera.Y += deltaY
		e.store.SetWith("world.camera", camera, store.UpdateOptions{SkipHistory: true})
		return
	}

	player, ok := e.store.Player(localID)
	if !ok {
		return
	}
	if e.hasActiveEffect(localID, state.WordSpeed) {
		deltaX *= speedMultiplier
		deltaY *= speedMultiplier
	}
	mapSize, _ := e.store.Get("world.mapSize").(state.MapSize)
	position := state.ClampToMap(state.Position{
		X: player.Position.X + deltaX,
		Y: player.Position.Y + deltaY,
	}, mapSize)
	e.store.UpdatePlayer(localID, store.PlayerPatch{Position: &position})
	if e.bus != nil {
		e.bus.Publish(TopicIntentPlayerMoved, map[string]float64{"x": position.X, "y": position.Y})
	}
}

// UseItemOn consumes one inventory item of the kind against an explicit
// target. Attack items need a target; heal, speed, and shield act on the
// local player regardless of target. Reports whether an item was consumed.
func (e *Engine) UseItemOn(kind state.ItemKind, targetID string) bool {
	e.mu.Lock()
	localID := e.localID
	e.mu.Unlock()
	player, ok := e.store.Player(localID)
	if !ok {
		return false
	}
	consumed := player.Clone()
	if !consumed.RemoveItem(kind) {
		return false
	}
	e.store.UpdatePlayer(localID, store.PlayerPatch{Inventory: &consumed.Inventory})

	switch kind {
	case state.ItemHeal:
		e.heal(consumed, e.healAmount)
	case state.ItemAttack:
		target, ok := e.store.Player(targetID)
		if ok && target.ID != localID {
			e.damagePlayer(consumed, target, itemAttackDamage)
		}
	case state.ItemSpeed:
		e.addTimedEffect(localID, state.WordSpeed, speedMultiplier)
	case state.ItemShield:
		e.addTimedEffect(localID, state.WordShield, shieldMultiplier)
	}

	if e.bus != nil {
		e.bus.Publish(TopicIntentItemUsed, map[string]string{"type": string(kind), "targetId": targetID})
	}
	return true
}

// UseItemAuto consumes an item with an automatic target: attack items hit
// the nearest other player in range, everything else acts on the local
// player.
func (e *Engine) UseItemAuto(kind state.ItemKind) bool {
	e.mu.Lock()
	localID := e.localID
	e.mu.Unlock()
	if kind != state.ItemAttack {
		return e.UseItemOn(kind, "")
	}
	player, ok := e.store.Player(localID)
	if !ok {
		return false
	}
	consumed := player.Clone()
	if !consumed.RemoveItem(kind) {
		return false
	}
	e.store.UpdatePlayer(localID, store.PlayerPatch{Inventory: &consumed.Inventory})
	e.attackNearest(consumed, itemAttackDamage)
	if e.bus != nil {
		e.bus.Publish(TopicIntentItemUsed, map[string]string{"type": string(kind)})
	}
	return true
}
