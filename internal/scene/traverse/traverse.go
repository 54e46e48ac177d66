// Package traverse schedules the per-frame draw of a tile grid. Tiles are
// visited from the edge of the view toward the camera so nearer content
// always overdraws farther content; a tile waits while a farther neighbour
// or the tile below it is unfinished, and multi-tile entities wait until
// every tile they cover has drawn its floor.
package traverse

import (
	"fmt"

	"tilescene.ai/internal/scene/grid"
	"tilescene.ai/internal/scene/model"
	"tilescene.ai/internal/scene/visibility"
)

// tallHeight keeps tiles this far below the camera even when the area mask
// says they are off screen.
const tallHeight = 2000

// Floor draws tile floors.
type Floor interface {
	DrawPaint(p *grid.Paint, level, x, z int)
	DrawModel(m *grid.TileModel, x, z int)
	// Picking reports whether a mouse pick is testing floors on plane, which
	// forces hidden floors through so they can still be picked.
	Picking(plane int) bool
}

// Occlusion answers the per-frame visibility tests.
type Occlusion interface {
	IsTileOccluded(level, x, z int) bool
	IsWallOccluded(level, x, z, face int) bool
	IsRaisedOccluded(level, x, z, height int) bool
	IsAreaOccluded(level, minX, maxX, minZ, maxZ, height int) bool
}

// Frame is the camera state one Run draws.
type Frame struct {
	// Stamp identifies the frame; never zero.
	Stamp  int32
	Camera model.Camera
	View   model.View
	// Level is the plane cut; tiles whose physical level is above it hide.
	Level int
	Area  *visibility.Area
}

// Stats summarizes one Run.
type Stats struct {
	Frame     int32
	Pending   int // tiles visible after initialization
	Drawn     int // tiles completed
	DrawCalls int
	Entities  int
	// Occluders is filled in by the caller that ran the occlusion update.
	Occluders int
	Failures  int
	// Err is the first renderable failure of the frame.
	Err       error
	EarlyExit bool
}

// Traversal owns the scratch state of the draw scheduler. It is not safe
// for concurrent use.
type Traversal struct {
	grid  *grid.Grid
	occ   Occlusion
	floor Floor

	deque    grid.Deque
	entities [grid.MaxEntitiesPerTile]*grid.GameObject

	f                      Frame
	cx, cz                 int
	minX, maxX, minZ, maxZ int
	pending                int
	stats                  Stats
}

func New(g *grid.Grid, occ Occlusion, floor Floor) *Traversal {
	return &Traversal{grid: g, occ: occ, floor: floor}
}

// Run draws one frame. The camera must already lie inside the grid.
func (t *Traversal) Run(f Frame) Stats {
	t.f = f
	t.stats = Stats{Frame: f.Stamp}
	t.pending = 0
	t.cx, t.cz = f.Camera.TileX(), f.Camera.TileZ()
	t.minX = max(t.cx-visibility.Radius, 0)
	t.minZ = max(t.cz-visibility.Radius, 0)
	t.maxX = min(t.cx+visibility.Radius, t.grid.Width)
	t.maxZ = min(t.cz+visibility.Radius, t.grid.Length)
	t.deque.Clear()

	t.initTiles()
	t.stats.Pending = t.pending

	for pass := 0; pass < 2; pass++ {
		if t.seed(pass == 0) {
			t.stats.EarlyExit = true
			break
		}
	}
	t.deque.Clear()
	for i := range t.entities {
		t.entities[i] = nil
	}
	return t.stats
}

func (t *Traversal) initTiles() {
	g := t.grid
	for plane := g.MinLevel; plane < g.Planes; plane++ {
		for x := t.minX; x < t.maxX; x++ {
			for z := t.minZ; z < t.maxZ; z++ {
				tile := g.Tile(plane, x, z)
				if tile == nil {
					continue
				}
				fs := &tile.Frame
				*fs = grid.FrameState{Stamp: t.f.Stamp}
				if t.culled(tile, plane, x, z) {
					continue
				}
				fs.State = grid.StatePending
				fs.DrawEntities = tile.EntityCount > 0
				t.pending++
			}
		}
	}
}

func (t *Traversal) culled(tile *grid.Tile, plane, x, z int) bool {
	if tile.PhysicalLevel > t.f.Level {
		return true
	}
	if !t.f.Area.Visible(x-t.cx, z-t.cz) && t.grid.Height(plane, x, z)-t.f.Camera.Y < tallHeight {
		return true
	}
	return !tile.HasUpright() && t.occ.IsTileOccluded(tile.RenderLevel, x, z)
}

// seed walks every plane from the window edge inward, four quadrant corners
// per ring step, and floods from each pending tile. It reports true once
// every tile is drawn.
func (t *Traversal) seed(checkDeps bool) bool {
	g := t.grid
	for plane := g.MinLevel; plane < g.Planes; plane++ {
		for dx := -visibility.Radius; dx <= 0; dx++ {
			lx, hx := t.cx+dx, t.cx-dx
			if lx < t.minX && hx >= t.maxX {
				continue
			}
			for dz := -visibility.Radius; dz <= 0; dz++ {
				lz, hz := t.cz+dz, t.cz-dz
				if lx >= t.minX {
					if lz >= t.minZ {
						t.seedTile(plane, lx, lz, checkDeps)
					}
					if hz < t.maxZ {
						t.seedTile(plane, lx, hz, checkDeps)
					}
				}
				if hx < t.maxX {
					if lz >= t.minZ {
						t.seedTile(plane, hx, lz, checkDeps)
					}
					if hz < t.maxZ {
						t.seedTile(plane, hx, hz, checkDeps)
					}
				}
				if t.pending == 0 {
					return true
				}
			}
		}
	}
	return false
}

func (t *Traversal) seedTile(plane, x, z int, checkDeps bool) {
	tile := t.grid.Tile(plane, x, z)
	if t.live(tile) && tile.Frame.State == grid.StatePending {
		t.flood(tile, checkDeps)
	}
}

func (t *Traversal) live(tile *grid.Tile) bool {
	return tile != nil && tile.Frame.Stamp == t.f.Stamp
}

func (t *Traversal) visible(tile *grid.Tile) bool {
	return t.live(tile) && tile.Frame.Visible()
}

func (t *Traversal) push(tile *grid.Tile) {
	if t.visible(tile) {
		t.deque.PushFront(tile)
	}
}

// flood drains the deque starting from one seed tile. Without checkDeps the
// first pending tile drawn skips its dependency checks.
func (t *Traversal) flood(start *grid.Tile, checkDeps bool) {
	t.deque.PushFront(start)
	for {
		tile := t.deque.PopFront()
		if tile == nil {
			return
		}
		if !t.visible(tile) {
			continue
		}
		if tile.Frame.State == grid.StatePending {
			if checkDeps {
				if t.blocked(tile) {
					continue
				}
			} else {
				checkDeps = true
			}
			t.drawBase(tile)
		}
		t.drawDeferredWall(tile)
		if tile.Frame.DrawEntities {
			t.drawEntities(tile)
			if tile.Frame.DrawEntities {
				continue
			}
		}
		if t.readyToFinish(tile) {
			t.finish(tile)
		}
	}
}

// blocked reports whether a pending tile has to wait for the tile below it
// or for a farther neighbour. A neighbour that drew its floor does not block
// when an entity spans the shared edge.
func (t *Traversal) blocked(tile *grid.Tile) bool {
	g := t.grid
	x, z, plane := tile.X, tile.Z, tile.Plane
	if plane > 0 && t.visible(g.Tile(plane-1, x, z)) {
		return true
	}
	waits := func(n *grid.Tile, edge grid.Edge) bool {
		return t.visible(n) && (n.Frame.State == grid.StatePending || tile.Edges&edge == 0)
	}
	if x <= t.cx && x > t.minX && waits(g.Tile(plane, x-1, z), grid.EdgeWest) {
		return true
	}
	if x >= t.cx && x < t.maxX-1 && waits(g.Tile(plane, x+1, z), grid.EdgeEast) {
		return true
	}
	if z <= t.cz && z > t.minZ && waits(g.Tile(plane, x, z-1), grid.EdgeSouth) {
		return true
	}
	if z >= t.cz && z < t.maxZ-1 && waits(g.Tile(plane, x, z+1), grid.EdgeNorth) {
		return true
	}
	return false
}

// readyToFinish reports whether no deferred wall and no farther neighbour
// is outstanding.
func (t *Traversal) readyToFinish(tile *grid.Tile) bool {
	g := t.grid
	x, z, plane := tile.X, tile.Z, tile.Plane
	if !t.visible(tile) || tile.Frame.WallCull != 0 {
		return false
	}
	if x <= t.cx && x > t.minX && t.visible(g.Tile(plane, x-1, z)) {
		return false
	}
	if x >= t.cx && x < t.maxX-1 && t.visible(g.Tile(plane, x+1, z)) {
		return false
	}
	if z <= t.cz && z > t.minZ && t.visible(g.Tile(plane, x, z-1)) {
		return false
	}
	if z >= t.cz && z < t.maxZ-1 && t.visible(g.Tile(plane, x, z+1)) {
		return false
	}
	return true
}

// draw submits one renderable at a world position. Errors and panics are
// counted and returned; the frame goes on.
func (t *Traversal) draw(r model.Renderable, orientation, x, y, z int, tag model.Tag) (err error) {
	if r == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("renderable panic: %v", p)
		}
		if err != nil {
			t.stats.Failures++
			if t.stats.Err == nil {
				t.stats.Err = err
			}
		}
	}()
	t.stats.DrawCalls++
	c := t.f.Camera
	return r.Draw(orientation, t.f.View, x-c.X, y-c.Y, z-c.Z, tag)
}
