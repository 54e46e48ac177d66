package traverse

import (
	"tilescene.ai/internal/scene/grid"
	"tilescene.ai/internal/scene/model"
)

// Faces drawn before the tile's entities, by camera octant.
var firstPassFaces = [9]int{19, 55, 38, 155, 255, 110, 137, 205, 76}

// Diagonal faces that may hide entities behind them, by camera octant.
var diagonalCullMask = [9]int{160, 192, 80, 96, 0, 144, 80, 48, 160}

// Faces drawn after the tile's entities, by camera octant.
var secondPassFaces = [9]int{76, 8, 137, 4, 0, 1, 38, 2, 19}

// Edges a diagonal wall stops blocking, per diagonal and camera octant.
var (
	uncullNorthWest = [9]grid.Edge{0, 0, 2, 0, 0, 2, 1, 1, 0}
	uncullNorthEast = [9]grid.Edge{2, 0, 0, 2, 0, 0, 0, 4, 4}
	uncullSouthEast = [9]grid.Edge{0, 4, 4, 8, 0, 0, 8, 0, 0}
	uncullSouthWest = [9]grid.Edge{1, 1, 0, 0, 0, 8, 0, 0, 8}
)

// octant classifies a tile against the camera tile: 0-2 west to east on the
// far (+Z) row, 3-5 on the camera row, 6-8 on the near row.
func (t *Traversal) octant(x, z int) int {
	xc, zc := 1, 1
	switch {
	case x < t.cx:
		xc = 0
	case x > t.cx:
		xc = 2
	}
	switch {
	case z > t.cz:
		zc = 0
	case z < t.cz:
		zc = 2
	}
	return xc + 3*zc
}

// drawBase draws what lies under and in front of a tile's entities: the
// bridged ground, the floor, front walls and decoration, ground objects.
// It then spreads to outward neighbours whose entities span the shared edge.
func (t *Traversal) drawBase(tile *grid.Tile) {
	fs := &tile.Frame
	fs.State = grid.StatePartial
	x, z, level := tile.X, tile.Z, tile.RenderLevel

	if b := tile.Bridge; b != nil {
		t.drawBridge(b)
	}

	underlay := false
	switch {
	case tile.Paint != nil:
		if !t.occ.IsTileOccluded(level, x, z) {
			underlay = true
			if tile.Paint.NE != model.HiddenColor || t.floor.Picking(tile.Plane) {
				t.floor.DrawPaint(tile.Paint, tile.Plane, x, z)
			}
		}
	case tile.Overlay != nil:
		if !t.occ.IsTileOccluded(level, x, z) {
			underlay = true
			t.floor.DrawModel(tile.Overlay, x, z)
		}
	}

	if tile.Wall != nil || tile.Decoration != nil {
		oct := t.octant(x, z)
		faces := firstPassFaces[oct]
		fs.WallDrawFlags = secondPassFaces[oct]

		if w := tile.Wall; w != nil {
			if w.FaceA&diagonalCullMask[oct] != 0 {
				fs.WallCull, fs.WallUncull = diagonalCull(w.FaceA, oct)
				fs.WallCullOpposite = fs.WallCull - fs.WallUncull
			} else {
				fs.WallCull = 0
			}
			if w.FaceA&faces != 0 && !t.occ.IsWallOccluded(level, x, z, w.FaceA) {
				t.draw(w.A, 0, w.X, w.Floor, w.Z, w.Tag)
			}
			if w.FaceB&faces != 0 && !t.occ.IsWallOccluded(level, x, z, w.FaceB) {
				t.draw(w.B, 0, w.X, w.Floor, w.Z, w.Tag)
			}
		}
		if d := tile.Decoration; d != nil {
			t.drawDecoration(tile, d, faces, true)
		}
	}

	if underlay {
		if g := tile.Ground; g != nil {
			t.draw(g.Renderable, 0, g.X, g.Floor, g.Z, g.Tag)
		}
		if p := tile.Items; p != nil && p.Height == 0 {
			t.drawItems(p)
		}
	}

	edges := tile.Edges
	if edges != 0 {
		g := t.grid
		if x < t.cx && edges&grid.EdgeEast != 0 {
			t.push(g.Tile(tile.Plane, x+1, z))
		}
		if z < t.cz && edges&grid.EdgeNorth != 0 {
			t.push(g.Tile(tile.Plane, x, z+1))
		}
		if x > t.cx && edges&grid.EdgeWest != 0 {
			t.push(g.Tile(tile.Plane, x-1, z))
		}
		if z > t.cz && edges&grid.EdgeSouth != 0 {
			t.push(g.Tile(tile.Plane, x, z-1))
		}
	}
}

// diagonalCull returns the edges a diagonal wall holds back and the subset
// it releases for the camera octant.
func diagonalCull(face, oct int) (cull, uncull grid.Edge) {
	switch face {
	case grid.FaceNorthWest:
		return 3, uncullNorthWest[oct]
	case grid.FaceNorthEast:
		return 6, uncullNorthEast[oct]
	case grid.FaceSouthEast:
		return 12, uncullSouthEast[oct]
	default:
		return 9, uncullSouthWest[oct]
	}
}

// drawBridge draws the ground column a bridge was lifted over, at plane 0
// heights.
func (t *Traversal) drawBridge(b *grid.Tile) {
	x, z := b.X, b.Z
	switch {
	case b.Paint != nil:
		if !t.occ.IsTileOccluded(0, x, z) {
			t.floor.DrawPaint(b.Paint, 0, x, z)
		}
	case b.Overlay != nil:
		if !t.occ.IsTileOccluded(0, x, z) {
			t.floor.DrawModel(b.Overlay, x, z)
		}
	}
	if w := b.Wall; w != nil {
		t.draw(w.A, 0, w.X, w.Floor, w.Z, w.Tag)
	}
	for i := 0; i < b.EntityCount; i++ {
		o := b.Entities[i]
		t.draw(o.Renderable, o.Orientation, o.X, o.Height, o.Z, o.Tag)
	}
}

// drawDecoration draws a wall decoration on the first or second pass. An
// inner decoration picks its model by which side of the diagonal the camera
// is on.
func (t *Traversal) drawDecoration(tile *grid.Tile, d *grid.Decoration, faces int, first bool) {
	if d.A != nil && t.occ.IsRaisedOccluded(tile.RenderLevel, tile.X, tile.Z, d.A.ModelHeight()) {
		return
	}
	if d.Face&faces != 0 {
		t.draw(d.A, d.Rotation, d.X+d.OffsetX, d.Floor, d.Z+d.OffsetZ, d.Tag)
		return
	}
	if d.Face != grid.FaceInner {
		return
	}
	qx := d.X - t.f.Camera.X
	qz := d.Z - t.f.Camera.Z
	if d.Rotation == 1 || d.Rotation == 2 {
		qx = -qx
	}
	if d.Rotation == 2 || d.Rotation == 3 {
		qz = -qz
	}
	front := qz < qx
	if !first {
		front = !front
	}
	if front {
		t.draw(d.A, d.Rotation, d.X+d.OffsetX, d.Floor, d.Z+d.OffsetZ, d.Tag)
	} else if d.B != nil {
		t.draw(d.B, d.Rotation, d.X, d.Floor, d.Z, d.Tag)
	}
}

// drawItems draws an item pile bottom layer last so upper layers sort
// behind it in the rasterizer's painter order.
func (t *Traversal) drawItems(p *grid.ItemPile) {
	y := p.Floor - p.Height
	t.draw(p.Middle, 0, p.X, y, p.Z, p.Tag)
	t.draw(p.Top, 0, p.X, y, p.Z, p.Tag)
	t.draw(p.Bottom, 0, p.X, y, p.Z, p.Tag)
}

// drawDeferredWall draws a diagonal wall once no undrawn entity on the tile
// still lies behind it.
func (t *Traversal) drawDeferredWall(tile *grid.Tile) {
	fs := &tile.Frame
	if fs.WallCull == 0 {
		return
	}
	for i := 0; i < tile.EntityCount; i++ {
		if tile.Entities[i].DrawnFrame != t.f.Stamp && tile.EntityEdges[i]&fs.WallCull == fs.WallUncull {
			return
		}
	}
	if w := tile.Wall; w != nil && !t.occ.IsWallOccluded(tile.RenderLevel, tile.X, tile.Z, w.FaceA) {
		t.draw(w.A, 0, w.X, w.Floor, w.Z, w.Tag)
	}
	fs.WallCull = 0
}

// drawEntities draws the tile's entities whose whole footprint is ready,
// farthest first. Entities still waiting on another tile keep the tile's
// DrawEntities flag set.
func (t *Traversal) drawEntities(tile *grid.Tile) {
	fs := &tile.Frame
	fs.DrawEntities = false
	n := 0
	for i := 0; i < tile.EntityCount; i++ {
		o := tile.Entities[i]
		if o.DrawnFrame == t.f.Stamp {
			continue
		}
		if t.footprintWaiting(tile, o) {
			fs.DrawEntities = true
			continue
		}
		dx := max(t.cx-o.MinX, o.MaxX-t.cx)
		dz := max(t.cz-o.MinZ, o.MaxZ-t.cz)
		o.DrawPriority = max(dx, dz)
		t.entities[n] = o
		n++
	}
	defer func() {
		for i := 0; i < n; i++ {
			t.entities[i] = nil
		}
	}()

	for {
		best := -1
		bestPriority := -50
		bestDist := 0
		for i := 0; i < n; i++ {
			o := t.entities[i]
			if o.DrawnFrame == t.f.Stamp {
				continue
			}
			dist := t.distanceSq(o)
			if o.DrawPriority > bestPriority || (o.DrawPriority == bestPriority && dist > bestDist) {
				best, bestPriority, bestDist = i, o.DrawPriority, dist
			}
		}
		if best < 0 {
			return
		}
		o := t.entities[best]
		o.DrawnFrame = t.f.Stamp
		if o.Renderable != nil && !t.occ.IsAreaOccluded(tile.RenderLevel, o.MinX, o.MaxX, o.MinZ, o.MaxZ, o.Renderable.ModelHeight()) {
			t.stats.Entities++
			// a failed draw is counted in stats; the footprint still releases
			t.draw(o.Renderable, o.Orientation, o.X, o.Height, o.Z, o.Tag)
		}
		t.pushFootprint(tile, o)
	}
}

func (t *Traversal) distanceSq(o *grid.GameObject) int {
	dx := o.X - t.f.Camera.X
	dz := o.Z - t.f.Camera.Z
	return dx*dx + dz*dz
}

// footprintWaiting reports whether some tile under o has not drawn its base
// yet, or still holds back a diagonal wall on the side o lies on. Cells
// outside the traversal window never wait.
func (t *Traversal) footprintWaiting(tile *grid.Tile, o *grid.GameObject) bool {
	for fx := o.MinX; fx <= o.MaxX; fx++ {
		for fz := o.MinZ; fz <= o.MaxZ; fz++ {
			ft := t.grid.Tile(tile.Plane, fx, fz)
			if !t.live(ft) {
				continue
			}
			if ft.Frame.State == grid.StatePending {
				return true
			}
			if ft.Frame.WallCull != 0 && o.EdgesAt(fx, fz)&ft.Frame.WallCull == tile.Frame.WallCullOpposite {
				return true
			}
		}
	}
	return false
}

func (t *Traversal) pushFootprint(tile *grid.Tile, o *grid.GameObject) {
	for fx := o.MinX; fx <= o.MaxX; fx++ {
		for fz := o.MinZ; fz <= o.MaxZ; fz++ {
			ft := t.grid.Tile(tile.Plane, fx, fz)
			if !t.live(ft) {
				continue
			}
			if ft.Frame.WallCull != 0 || ft != tile {
				t.push(ft)
			}
		}
	}
}

// finish completes a tile: raised item piles, back walls and decoration,
// then releases the tile above and the next tiles toward the camera.
func (t *Traversal) finish(tile *grid.Tile) {
	fs := &tile.Frame
	fs.State = grid.StateDrawn
	t.pending--
	t.stats.Drawn++
	x, z, level := tile.X, tile.Z, tile.RenderLevel

	if p := tile.Items; p != nil && p.Height != 0 {
		t.drawItems(p)
	}

	if flags := fs.WallDrawFlags; flags != 0 {
		if d := tile.Decoration; d != nil {
			t.drawDecoration(tile, d, flags, false)
		}
		if w := tile.Wall; w != nil {
			if w.FaceB&flags != 0 && !t.occ.IsWallOccluded(level, x, z, w.FaceB) {
				t.draw(w.B, 0, w.X, w.Floor, w.Z, w.Tag)
			}
			if w.FaceA&flags != 0 && !t.occ.IsWallOccluded(level, x, z, w.FaceA) {
				t.draw(w.A, 0, w.X, w.Floor, w.Z, w.Tag)
			}
		}
	}

	g := t.grid
	if tile.Plane < g.Planes-1 {
		t.push(g.Tile(tile.Plane+1, x, z))
	}
	if x < t.cx {
		t.push(g.Tile(tile.Plane, x+1, z))
	}
	if z < t.cz {
		t.push(g.Tile(tile.Plane, x, z+1))
	}
	if x > t.cx {
		t.push(g.Tile(tile.Plane, x-1, z))
	}
	if z > t.cz {
		t.push(g.Tile(tile.Plane, x, z-1))
	}
}
