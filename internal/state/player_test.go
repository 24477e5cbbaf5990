package state

import "testing"

func TestApplyHealthDeltaClamps(t *testing.T) {
	player := Player{ID: "p1", Health: 90}

	player.ApplyHealthDelta(25)
	if player.Health != MaxHealth {
		t.Fatalf("expected health capped at %d, got %d", MaxHealth, player.Health)
	}

	player.ApplyHealthDelta(-250)
	if player.Health != 0 {
		t.Fatalf("expected health floored at 0, got %d", player.Health)
	}
}

func TestAddItemRespectsCapacity(t *testing.T) {
	player := Player{ID: "p1"}
	for i := 0; i < MaxInventorySize; i++ {
		if !player.AddItem(NewItem(ItemHeal)) {
			t.Fatalf("expected slot %d to accept an item", i)
		}
	}
	if player.AddItem(NewItem(ItemAttack)) {
		t.Fatalf("expected full inventory to refuse a tenth item")
	}
	if len(player.Inventory) != MaxInventorySize {
		t.Fatalf("expected %d items, got %d", MaxInventorySize, len(player.Inventory))
	}
}

func TestRemoveItemDropsFirstMatch(t *testing.T) {
	player := Player{ID: "p1"}
	player.AddItem(NewItem(ItemHeal))
	player.AddItem(NewItem(ItemShield))
	player.AddItem(NewItem(ItemHeal))

	if !player.RemoveItem(ItemHeal) {
		t.Fatalf("expected heal item to be removed")
	}
	if len(player.Inventory) != 2 {
		t.Fatalf("expected 2 items after removal, got %d", len(player.Inventory))
	}
	if player.Inventory[0].Kind != ItemShield {
		t.Fatalf("expected shield first after removal, got %s", player.Inventory[0].Kind)
	}
	if player.RemoveItem(ItemSpeed) {
		t.Fatalf("expected removal of absent kind to report false")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	player := Player{ID: "p1", Health: 50}
	player.AddItem(NewItem(ItemHeal))

	cloned := player.Clone()
	cloned.Health = 10
	cloned.Inventory[0] = NewItem(ItemAttack)

	if player.Health != 50 {
		t.Fatalf("expected original health untouched, got %d", player.Health)
	}
	if player.Inventory[0].Kind != ItemHeal {
		t.Fatalf("expected original inventory untouched, got %s", player.Inventory[0].Kind)
	}
}

func TestClampToMapBounds(t *testing.T) {
	size := MapSize{Width: 2000, Height: 2000}

	pos := ClampToMap(Position{X: -10, Y: 3000}, size)
	if pos.X != MapEdgeMargin {
		t.Fatalf("expected x clamped to %d, got %v", MapEdgeMargin, pos.X)
	}
	if pos.Y != size.Height-MapEdgeMargin {
		t.Fatalf("expected y clamped to %v, got %v", size.Height-MapEdgeMargin, pos.Y)
	}

	inside := Position{X: 400, Y: 700}
	if got := ClampToMap(inside, size); got != inside {
		t.Fatalf("expected interior position unchanged, got %v", got)
	}
}

func TestParseWordKind(t *testing.T) {
	if _, ok := ParseWordKind("attack"); !ok {
		t.Fatalf("expected attack to parse")
	}
	if _, ok := ParseWordKind("poison"); ok {
		t.Fatalf("expected unknown kind to be rejected")
	}
}
