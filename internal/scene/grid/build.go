package grid

import "tilescene.ai/internal/scene/model"

func centre(tile int) int { return tile*TileUnit + TileUnit/2 }

// AddPaint sets a flat floor, replacing any overlay.
func (g *Grid) AddPaint(plane, x, z int, p *Paint) {
	if p == nil || !g.InBounds(plane, x, z) {
		return
	}
	t := g.column(plane, x, z)
	t.Paint = p
	t.Overlay = nil
}

// AddOverlay sets a shaped floor, replacing any paint.
func (g *Grid) AddOverlay(plane, x, z int, m *TileModel) {
	if m == nil || !g.InBounds(plane, x, z) {
		return
	}
	t := g.column(plane, x, z)
	t.Overlay = m
	t.Paint = nil
}

func (g *Grid) AddWall(plane, x, z, floor int, a, b model.Renderable, faceA, faceB int, tag model.Tag) {
	if (a == nil && b == nil) || !g.InBounds(plane, x, z) {
		return
	}
	g.column(plane, x, z).Wall = &Wall{
		X:     centre(x),
		Z:     centre(z),
		Floor: floor,
		A:     a,
		B:     b,
		FaceA: faceA,
		FaceB: faceB,
		Tag:   tag,
	}
}

func (g *Grid) AddDecoration(plane, x, z, floor int, a, b model.Renderable, face, rotation, offsetX, offsetZ int, tag model.Tag) {
	if a == nil || !g.InBounds(plane, x, z) {
		return
	}
	g.column(plane, x, z).Decoration = &Decoration{
		X:        centre(x),
		Z:        centre(z),
		Floor:    floor,
		A:        a,
		B:        b,
		Face:     face,
		Rotation: rotation,
		OffsetX:  offsetX,
		OffsetZ:  offsetZ,
		Tag:      tag,
	}
}

func (g *Grid) AddGroundObject(plane, x, z, floor int, r model.Renderable, tag model.Tag) {
	if r == nil || !g.InBounds(plane, x, z) {
		return
	}
	g.getOrCreate(plane, x, z).Ground = &GroundObject{
		X:          centre(x),
		Z:          centre(z),
		Floor:      floor,
		Renderable: r,
		Tag:        tag,
	}
}

// AddItemPile places up to three stacked item renderables. The pile is
// lifted onto the tallest raised entity already on the tile.
func (g *Grid) AddItemPile(plane, x, z, floor int, bottom, middle, top model.Renderable, tag model.Tag) {
	if !g.InBounds(plane, x, z) {
		return
	}
	height := 0
	if t := g.Tile(plane, x, z); t != nil {
		for i := 0; i < t.EntityCount; i++ {
			o := t.Entities[i]
			if o.Tag.Raised && o.Renderable != nil {
				if h := o.Renderable.ModelHeight(); h > height {
					height = h
				}
			}
		}
	}
	g.getOrCreate(plane, x, z).Items = &ItemPile{
		X:      centre(x),
		Z:      centre(z),
		Floor:  floor,
		Bottom: bottom,
		Middle: middle,
		Top:    top,
		Height: height,
		Tag:    tag,
	}
}

// ScaleDecorationOffset rescales a decoration's wall offset by factor/16.
func (g *Grid) ScaleDecorationOffset(plane, x, z, factor int) {
	t := g.Tile(plane, x, z)
	if t == nil || t.Decoration == nil {
		return
	}
	d := t.Decoration
	d.OffsetX = factor * d.OffsetX / 16
	d.OffsetZ = factor * d.OffsetZ / 16
}

func (g *Grid) RemoveWall(plane, x, z int) {
	if t := g.Tile(plane, x, z); t != nil {
		t.Wall = nil
	}
}

func (g *Grid) RemoveDecoration(plane, x, z int) {
	if t := g.Tile(plane, x, z); t != nil {
		t.Decoration = nil
	}
}

func (g *Grid) RemoveGroundObject(plane, x, z int) {
	if t := g.Tile(plane, x, z); t != nil {
		t.Ground = nil
	}
}

func (g *Grid) RemoveItemPile(plane, x, z int) {
	if t := g.Tile(plane, x, z); t != nil {
		t.Items = nil
	}
}

func (g *Grid) WallAt(plane, x, z int) *Wall {
	if t := g.Tile(plane, x, z); t != nil {
		return t.Wall
	}
	return nil
}

func (g *Grid) DecorationAt(plane, x, z int) *Decoration {
	if t := g.Tile(plane, x, z); t != nil {
		return t.Decoration
	}
	return nil
}

func (g *Grid) GroundAt(plane, x, z int) *GroundObject {
	if t := g.Tile(plane, x, z); t != nil {
		return t.Ground
	}
	return nil
}

// ConfigFor returns the packed config of the object at a cell carrying tag,
// or -1 when no such object exists.
func (g *Grid) ConfigFor(plane, x, z int, tag model.Tag) int {
	t := g.Tile(plane, x, z)
	if t == nil {
		return -1
	}
	switch {
	case t.Wall != nil && t.Wall.Tag.Same(tag):
		return int(t.Wall.Tag.Config() & 255)
	case t.Decoration != nil && t.Decoration.Tag.Same(tag):
		return int(t.Decoration.Tag.Config() & 255)
	case t.Ground != nil && t.Ground.Tag.Same(tag):
		return int(t.Ground.Tag.Config() & 255)
	}
	for i := 0; i < t.EntityCount; i++ {
		if t.Entities[i].Tag.Same(tag) {
			return int(t.Entities[i].Tag.Config() & 255)
		}
	}
	return -1
}
