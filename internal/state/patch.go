package state

// PlayerPatch is a partial player update; nil fields are left unchanged.
// Health still clamps and inventory still truncates at capacity when
// applied.
type PlayerPatch struct {
	Name      *string   `json:"name,omitempty"`
	Skin      *string   `json:"skin,omitempty"`
	Health    *int      `json:"health,omitempty"`
	Position  *Position `json:"position,omitempty"`
	Inventory *[]Item   `json:"inventory,omitempty"`
}

// Apply merges the patch into a player, enforcing the health and inventory
// invariants.
func (p PlayerPatch) Apply(player *Player) {
	if p.Name != nil {
		player.Name = *p.Name
	}
	if p.Skin != nil {
		player.Skin = *p.Skin
	}
	if p.Health != nil {
		player.Health = 0
		player.ApplyHealthDelta(*p.Health)
	}
	if p.Position != nil {
		player.Position = *p.Position
	}
	if p.Inventory != nil {
		inventory := append([]Item(nil), *p.Inventory...)
		if len(inventory) > MaxInventorySize {
			inventory = inventory[:MaxInventorySize]
		}
		player.Inventory = inventory
	}
}
