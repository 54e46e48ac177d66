package grid

import "tilescene.ai/internal/scene/model"

// SetBridge lifts the column at (x, z) one plane down and keeps the old
// ground tile as the bridge of the new bottom tile. The moved tiles keep
// their RenderLevel so walls and floors still draw at their original height.
func (g *Grid) SetBridge(x, z int) {
	if !g.InBounds(0, x, z) {
		return
	}
	ground := g.Tile(0, x, z)
	for p := 0; p < g.Planes-1; p++ {
		t := g.Tile(p+1, x, z)
		g.setTile(p, x, z, t)
		if t == nil {
			continue
		}
		t.Plane--
		for i := 0; i < t.EntityCount; i++ {
			o := t.Entities[i]
			if o.Tag.Kind == model.KindLocation && o.MinX == x && o.MinZ == z {
				o.Plane--
			}
		}
	}
	bottom := g.getOrCreate(0, x, z)
	bottom.Bridge = ground
	g.setTile(g.Planes-1, x, z, nil)
}
