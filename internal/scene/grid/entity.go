package grid

import (
	"tilescene.ai/internal/scene/mathx"
	"tilescene.ai/internal/scene/model"
)

// Placement describes an entity footprint for AddEntityMarker.
type Placement struct {
	Plane        int
	MinX, MinZ   int // origin tile
	SizeX, SizeZ int // footprint in tiles, >= 1

	X, Z   int // world centre
	Height int

	Renderable  model.Renderable
	Orientation int
	Tag         model.Tag
	// Temporary entities are dropped by ClearTemporary.
	Temporary bool
}

// AddEntityMarker registers an entity across every tile of its footprint.
// It registers nothing and returns false when a covered cell is out of
// bounds or already full. A nil renderable is accepted without registering.
func (g *Grid) AddEntityMarker(p Placement) (*GameObject, bool) {
	if p.Renderable == nil {
		return nil, true
	}
	if p.SizeX <= 0 || p.SizeZ <= 0 || p.Plane < 0 || p.Plane >= g.Planes {
		return nil, false
	}
	for x := p.MinX; x < p.MinX+p.SizeX; x++ {
		for z := p.MinZ; z < p.MinZ+p.SizeZ; z++ {
			if !g.InBounds(p.Plane, x, z) {
				return nil, false
			}
			if t := g.Tile(p.Plane, x, z); t != nil && t.EntityCount >= MaxEntitiesPerTile {
				return nil, false
			}
		}
	}

	o := &GameObject{
		Tag:         p.Tag,
		Plane:       p.Plane,
		X:           p.X,
		Z:           p.Z,
		Height:      p.Height,
		Renderable:  p.Renderable,
		Orientation: p.Orientation,
		Temporary:   p.Temporary,
		MinX:        p.MinX,
		MinZ:        p.MinZ,
		MaxX:        p.MinX + p.SizeX - 1,
		MaxZ:        p.MinZ + p.SizeZ - 1,
	}
	for x := o.MinX; x <= o.MaxX; x++ {
		for z := o.MinZ; z <= o.MaxZ; z++ {
			e := o.EdgesAt(x, z)
			t := g.column(p.Plane, x, z)
			t.Entities[t.EntityCount] = o
			t.EntityEdges[t.EntityCount] = e
			t.Edges |= e
			t.EntityCount++
		}
	}
	if p.Temporary {
		g.temporary = append(g.temporary, o)
	}
	return o, true
}

// AddLocation registers a static object whose footprint starts at (x, z).
func (g *Grid) AddLocation(plane, x, z, height, sizeX, sizeZ int, r model.Renderable, orientation int, tag model.Tag) (*GameObject, bool) {
	return g.AddEntityMarker(Placement{
		Plane:       plane,
		MinX:        x,
		MinZ:        z,
		SizeX:       sizeX,
		SizeZ:       sizeZ,
		X:           x*TileUnit + sizeX*TileUnit/2,
		Z:           z*TileUnit + sizeZ*TileUnit/2,
		Height:      height,
		Renderable:  r,
		Orientation: orientation,
		Tag:         tag,
	})
}

// AddMobile registers a temporary entity centred at a world position. When
// extend is set the footprint grows one tile toward the facing direction so
// a moving entity covers the tile it is entering.
func (g *Grid) AddMobile(plane, worldX, worldZ, height, radius int, r model.Renderable, orientation int, tag model.Tag, extend bool) (*GameObject, bool) {
	if r == nil {
		return nil, true
	}
	minX := worldX - radius
	minZ := worldZ - radius
	maxX := worldX + radius
	maxZ := worldZ + radius
	if extend {
		if orientation > 640 && orientation < 1408 {
			maxZ += TileUnit
		}
		if orientation > 1152 && orientation < 1920 {
			maxX += TileUnit
		}
		if orientation > 1664 || orientation < 384 {
			minZ -= TileUnit
		}
		if orientation > 128 && orientation < 896 {
			minX -= TileUnit
		}
	}
	minX = mathx.FloorDiv(minX, TileUnit)
	minZ = mathx.FloorDiv(minZ, TileUnit)
	maxX = mathx.FloorDiv(maxX, TileUnit)
	maxZ = mathx.FloorDiv(maxZ, TileUnit)
	return g.AddMobileRect(plane, worldX, worldZ, height, r, orientation, tag, minX, minZ, maxX, maxZ)
}

// AddMobileRect registers a temporary entity over an explicit tile rectangle.
func (g *Grid) AddMobileRect(plane, worldX, worldZ, height int, r model.Renderable, orientation int, tag model.Tag, minX, minZ, maxX, maxZ int) (*GameObject, bool) {
	return g.AddEntityMarker(Placement{
		Plane:       plane,
		MinX:        minX,
		MinZ:        minZ,
		SizeX:       maxX - minX + 1,
		SizeZ:       maxZ - minZ + 1,
		X:           worldX,
		Z:           worldZ,
		Height:      height,
		Renderable:  r,
		Orientation: orientation,
		Tag:         tag,
		Temporary:   true,
	})
}

// RemoveEntity de-indexes o from every tile of its footprint and rebuilds
// each tile's boundary mask from the entities left behind.
func (g *Grid) RemoveEntity(o *GameObject) {
	for x := o.MinX; x <= o.MaxX; x++ {
		for z := o.MinZ; z <= o.MaxZ; z++ {
			t := g.Tile(o.Plane, x, z)
			if t == nil {
				continue
			}
			for i := 0; i < t.EntityCount; i++ {
				if t.Entities[i] != o {
					continue
				}
				t.EntityCount--
				copy(t.Entities[i:t.EntityCount], t.Entities[i+1:t.EntityCount+1])
				copy(t.EntityEdges[i:t.EntityCount], t.EntityEdges[i+1:t.EntityCount+1])
				t.Entities[t.EntityCount] = nil
				t.EntityEdges[t.EntityCount] = 0
				break
			}
			t.Edges = 0
			for i := 0; i < t.EntityCount; i++ {
				t.Edges |= t.EntityEdges[i]
			}
		}
	}
}

// ClearTemporary removes every temporary entity registered since the last
// clear.
func (g *Grid) ClearTemporary() {
	for i, o := range g.temporary {
		g.RemoveEntity(o)
		g.temporary[i] = nil
	}
	g.temporary = g.temporary[:0]
}

// TemporaryCount is the number of live temporary entities.
func (g *Grid) TemporaryCount() int { return len(g.temporary) }

// LocationAt returns the location object whose origin is (x, z).
func (g *Grid) LocationAt(plane, x, z int) *GameObject {
	t := g.Tile(plane, x, z)
	if t == nil {
		return nil
	}
	for i := 0; i < t.EntityCount; i++ {
		o := t.Entities[i]
		if o.Tag.Kind == model.KindLocation && o.MinX == x && o.MinZ == z {
			return o
		}
	}
	return nil
}

func (g *Grid) RemoveLocation(plane, x, z int) {
	if o := g.LocationAt(plane, x, z); o != nil {
		g.RemoveEntity(o)
	}
}
