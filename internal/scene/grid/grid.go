package grid

import "fmt"

// Grid is the 3D tile array of one loaded chunk. Tiles are created the first
// time content is written to a cell.
type Grid struct {
	Planes int
	Width  int
	Length int

	// MinLevel is the lowest plane the traversal starts from.
	MinLevel int

	tiles   []*Tile
	heights []int

	temporary []*GameObject
}

// New creates an empty grid. heights is indexed [plane][x][z] over corner
// points (width+1 by length+1) and may be nil for a flat chunk.
func New(planes, width, length int, heights [][][]int) (*Grid, error) {
	if planes <= 0 || width <= 0 || length <= 0 {
		return nil, fmt.Errorf("grid: invalid extents %dx%dx%d", planes, width, length)
	}
	g := &Grid{
		Planes:  planes,
		Width:   width,
		Length:  length,
		tiles:   make([]*Tile, planes*width*length),
		heights: make([]int, planes*(width+1)*(length+1)),
	}
	if heights != nil {
		if len(heights) != planes {
			return nil, fmt.Errorf("grid: heights planes mismatch: got %d want %d", len(heights), planes)
		}
		for p := range heights {
			if len(heights[p]) != width+1 {
				return nil, fmt.Errorf("grid: heights width mismatch on plane %d: got %d want %d", p, len(heights[p]), width+1)
			}
			for x := range heights[p] {
				if len(heights[p][x]) != length+1 {
					return nil, fmt.Errorf("grid: heights length mismatch at %d,%d: got %d want %d", p, x, len(heights[p][x]), length+1)
				}
				for z, h := range heights[p][x] {
					g.heights[g.cornerIndex(p, x, z)] = h
				}
			}
		}
	}
	return g, nil
}

func (g *Grid) index(plane, x, z int) int {
	return (plane*g.Width+x)*g.Length + z
}

func (g *Grid) cornerIndex(plane, x, z int) int {
	return (plane*(g.Width+1)+x)*(g.Length+1) + z
}

// InBounds reports whether (plane, x, z) names a tile cell.
func (g *Grid) InBounds(plane, x, z int) bool {
	return plane >= 0 && plane < g.Planes && x >= 0 && x < g.Width && z >= 0 && z < g.Length
}

// Tile returns the tile at a cell, or nil when empty or out of bounds.
func (g *Grid) Tile(plane, x, z int) *Tile {
	if !g.InBounds(plane, x, z) {
		return nil
	}
	return g.tiles[g.index(plane, x, z)]
}

// Height returns the corner height at (x, z) on a plane; x and z range over
// [0, Width] and [0, Length].
func (g *Grid) Height(plane, x, z int) int {
	if plane < 0 || plane >= g.Planes || x < 0 || x > g.Width || z < 0 || z > g.Length {
		return 0
	}
	return g.heights[g.cornerIndex(plane, x, z)]
}

// SetHeight overrides one corner height.
func (g *Grid) SetHeight(plane, x, z, h int) {
	if plane < 0 || plane >= g.Planes || x < 0 || x > g.Width || z < 0 || z > g.Length {
		return
	}
	g.heights[g.cornerIndex(plane, x, z)] = h
}

// MeanHeight averages the four corners of a tile.
func (g *Grid) MeanHeight(plane, x, z int) int {
	return (g.Height(plane, x, z) + g.Height(plane, x+1, z) + g.Height(plane, x, z+1) + g.Height(plane, x+1, z+1)) / 4
}

func (g *Grid) setTile(plane, x, z int, t *Tile) {
	g.tiles[g.index(plane, x, z)] = t
}

func (g *Grid) getOrCreate(plane, x, z int) *Tile {
	i := g.index(plane, x, z)
	if t := g.tiles[i]; t != nil {
		return t
	}
	t := newTile(plane, x, z)
	g.tiles[i] = t
	return t
}

// column instantiates every tile from plane down to 0 so the column can be
// bridged later, and returns the tile at plane.
func (g *Grid) column(plane, x, z int) *Tile {
	for p := plane; p >= 0; p-- {
		g.getOrCreate(p, x, z)
	}
	return g.tiles[g.index(plane, x, z)]
}

// Reset drops every tile and entity. Heights are kept.
func (g *Grid) Reset() {
	for i := range g.tiles {
		g.tiles[i] = nil
	}
	for i := range g.temporary {
		g.temporary[i] = nil
	}
	g.temporary = g.temporary[:0]
	g.MinLevel = 0
}

// Setup sets the base plane and fills it so the traversal has a floor to
// walk even where the loader wrote nothing.
func (g *Grid) Setup(minLevel int) {
	if minLevel < 0 || minLevel >= g.Planes {
		return
	}
	g.MinLevel = minLevel
	for x := 0; x < g.Width; x++ {
		for z := 0; z < g.Length; z++ {
			g.getOrCreate(minLevel, x, z)
		}
	}
}

func (g *Grid) SetPhysicalLevel(plane, x, z, level int) {
	if t := g.Tile(plane, x, z); t != nil {
		t.PhysicalLevel = level
	}
}

// Each visits every instantiated tile in plane, x, z order.
func (g *Grid) Each(fn func(t *Tile)) {
	for _, t := range g.tiles {
		if t != nil {
			fn(t)
		}
	}
}

// ClearFrameState forgets every per-frame stamp on tiles and entities, for
// when the frame counter restarts.
func (g *Grid) ClearFrameState() {
	for _, t := range g.tiles {
		if t == nil {
			continue
		}
		t.Frame = FrameState{}
		for i := 0; i < t.EntityCount; i++ {
			t.Entities[i].DrawnFrame = 0
		}
	}
}
