package state

const (
	// MaxHealth bounds every player's health pool.
	MaxHealth = 100
	// MaxInventorySize bounds every player's inventory slot count.
	MaxInventorySize = 9
	// MapEdgeMargin keeps players this far inside every map border.
	MapEdgeMargin = 50
)

// Player is a participant in the battle, local or remote.
type Player struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Skin      string   `json:"skin"`
	Health    int      `json:"health"`
	Position  Position `json:"position"`
	Inventory []Item   `json:"inventory"`
}

// Clone returns an independent copy, including the inventory slice.
func (p Player) Clone() Player {
	cloned := p
	if p.Inventory != nil {
		cloned.Inventory = append([]Item(nil), p.Inventory...)
	}
	return cloned
}

// ApplyHealthDelta adjusts health, clamping to [0, MaxHealth]. Bounds are
// enforced here so no caller can break the invariant.
func (p *Player) ApplyHealthDelta(delta int) {
	p.Health += delta
	if p.Health < 0 {
		p.Health = 0
	}
	if p.Health > MaxHealth {
		p.Health = MaxHealth
	}
}

// AddItem appends an item if capacity allows and reports whether it fit.
func (p *Player) AddItem(item Item) bool {
	if len(p.Inventory) >= MaxInventorySize {
		return false
	}
	p.Inventory = append(p.Inventory, item)
	return true
}

// RemoveItem drops the first inventory entry of the given kind and reports
// whether one was found.
func (p *Player) RemoveItem(kind ItemKind) bool {
	for i, item := range p.Inventory {
		if item.Kind == kind {
			p.Inventory = append(p.Inventory[:i:i], p.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// ClampPosition pulls the player inside the map bounds, keeping the edge
// margin on every side.
func (p *Player) ClampPosition(size MapSize) {
	p.Position = ClampToMap(p.Position, size)
}

// ClampToMap bounds a position to [margin, dimension-margin] on both axes.
func ClampToMap(pos Position, size MapSize) Position {
	if pos.X < MapEdgeMargin {
		pos.X = MapEdgeMargin
	}
	if max := size.Width - MapEdgeMargin; pos.X > max {
		pos.X = max
	}
	if pos.Y < MapEdgeMargin {
		pos.Y = MapEdgeMargin
	}
	if max := size.Height - MapEdgeMargin; pos.Y > max {
		pos.Y = max
	}
	return pos
}
