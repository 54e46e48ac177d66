// Package floor projects tile floors (flat paint quads and shaped overlay
// models) into rasterizer triangles and resolves mouse picks against them.
package floor

import (
	"tilescene.ai/internal/scene/grid"
	"tilescene.ai/internal/scene/mathx"
	"tilescene.ai/internal/scene/model"
)

const nearPlane = 50

// Heights is the corner height field floors are projected from.
type Heights interface {
	Height(plane, x, z int) int
}

// Painter is bound to one rasterizer. Begin must be called once per frame
// before any floor is drawn.
type Painter struct {
	heights  Heights
	raster   model.Rasterizer
	viewport model.Viewport
	textures model.TextureSource

	// LowMemory fills textured floors with their averaged texture colour.
	LowMemory bool

	cam  model.Camera
	view model.View

	pick pick

	// Triangles counts primitives emitted since Begin.
	Triangles int

	// overlay scratch, grown to the largest model seen
	screenX, screenY []int
	sceneX, sceneY   []int
	sceneZ           []int
}

type pick struct {
	requested bool
	walking   bool
	level     int
	mouseX    int
	mouseY    int

	found bool
	tileX int
	tileZ int
}

// New creates a painter. textures may be nil when LowMemory stays off.
func New(heights Heights, raster model.Rasterizer, vp model.Viewport, textures model.TextureSource) *Painter {
	return &Painter{heights: heights, raster: raster, viewport: vp, textures: textures}
}

func (p *Painter) Viewport() model.Viewport { return p.viewport }

// Begin sets the camera for the coming frame.
func (p *Painter) Begin(cam model.Camera, view model.View) {
	p.cam = cam
	p.view = view
	p.Triangles = 0
}

// End closes the frame; a pending pick request is consumed.
func (p *Painter) End() {
	p.pick.requested = false
}

// RequestPick asks the next frame to find the floor tile under the mouse on
// planes up to level. A walking request keeps priority: plain requests are
// ignored while a walking pick has a result.
func (p *Painter) RequestPick(level, mouseX, mouseY int, walking bool) {
	if p.WalkPending() && !walking {
		return
	}
	p.pick = pick{requested: true, walking: walking, level: level, mouseX: mouseX, mouseY: mouseY}
}

// WalkPending reports whether a walking pick resolved to a tile.
func (p *Painter) WalkPending() bool { return p.pick.walking && p.pick.found }

// ClearPick forgets the last result.
func (p *Painter) ClearPick() {
	p.pick = pick{}
}

// Picked returns the tile found by the last pick.
func (p *Painter) Picked() (x, z int, ok bool) {
	return p.pick.tileX, p.pick.tileZ, p.pick.found
}

// Picking reports whether floors on plane take part in the current pick.
func (p *Painter) Picking(plane int) bool {
	return p.pick.requested && plane <= p.pick.level
}

func (p *Painter) hit(x, z int) {
	p.pick.found = true
	p.pick.tileX = x
	p.pick.tileZ = z
}

// rotate turns a camera-relative point into view space.
func (p *Painter) rotate(x, y, z int) (vx, vy, vz int) {
	v := p.view
	vx = (x*v.YawCos + z*v.YawSin) >> 16
	z = (z*v.YawCos - x*v.YawSin) >> 16
	vy = (y*v.PitchCos - z*v.PitchSin) >> 16
	vz = (y*v.PitchSin + z*v.PitchCos) >> 16
	return vx, vy, vz
}

func (p *Painter) screen(vx, vy, vz int) (sx, sy int) {
	return vx*p.viewport.Focal/vz + p.viewport.CenterX, vy*p.viewport.Focal/vz + p.viewport.CenterY
}

func (p *Painter) clip(x1, x2, x3 int) {
	c := p.viewport.ClipX
	p.raster.SetClip(x1 < 0 || x2 < 0 || x3 < 0 || x1 > c || x2 > c || x3 > c)
}

func (p *Painter) shade(texture, hsl int) int {
	rgb := 0
	if p.textures != nil {
		rgb = p.textures.AverageRGB(texture)
	}
	return mathx.ShadeHSL(rgb, hsl)
}

func (p *Painter) gouraud(y1, y2, y3, x1, x2, x3, c1, c2, c3 int) {
	p.raster.Gouraud(y1, y2, y3, x1, x2, x3, c1, c2, c3)
	p.Triangles++
}

func (p *Painter) textured(y1, y2, y3, x1, x2, x3, c1, c2, c3 int, tx1, tx2, tx3, ty1, ty2, ty3, tz1, tz2, tz3 int, texture int) {
	p.raster.Textured(y1, y2, y3, x1, x2, x3, c1, c2, c3, tx1, tx2, tx3, ty1, ty2, ty3, tz1, tz2, tz3, texture)
	p.Triangles++
}

// DrawPaint emits the two triangles of a flat floor quad, using the corner
// heights of level. The quad is dropped when any corner is behind the near
// plane.
func (p *Painter) DrawPaint(paint *grid.Paint, level, x, z int) {
	relX := x<<7 - p.cam.X
	relZ := z<<7 - p.cam.Z
	h := p.heights

	swX, swY, swZ := p.rotate(relX, h.Height(level, x, z)-p.cam.Y, relZ)
	if swZ < nearPlane {
		return
	}
	seX, seY, seZ := p.rotate(relX+128, h.Height(level, x+1, z)-p.cam.Y, relZ)
	if seZ < nearPlane {
		return
	}
	neX, neY, neZ := p.rotate(relX+128, h.Height(level, x+1, z+1)-p.cam.Y, relZ+128)
	if neZ < nearPlane {
		return
	}
	nwX, nwY, nwZ := p.rotate(relX, h.Height(level, x, z+1)-p.cam.Y, relZ+128)
	if nwZ < nearPlane {
		return
	}

	swSX, swSY := p.screen(swX, swY, swZ)
	seSX, seSY := p.screen(seX, seY, seZ)
	neSX, neSY := p.screen(neX, neY, neZ)
	nwSX, nwSY := p.screen(nwX, nwY, nwZ)

	p.raster.SetAlpha(0)

	if (neSX-nwSX)*(seSY-nwSY)-(neSY-nwSY)*(seSX-nwSX) > 0 {
		p.clip(neSX, nwSX, seSX)
		if p.pick.requested && withinTriangle(p.pick.mouseX, p.pick.mouseY, neSY, nwSY, seSY, neSX, nwSX, seSX) {
			p.hit(x, z)
		}
		switch {
		case paint.Texture == -1:
			if paint.NE != model.HiddenColor {
				p.gouraud(neSY, nwSY, seSY, neSX, nwSX, seSX, paint.NE, paint.NW, paint.SE)
			}
		case p.LowMemory:
			p.gouraud(neSY, nwSY, seSY, neSX, nwSX, seSX,
				p.shade(paint.Texture, paint.NE), p.shade(paint.Texture, paint.NW), p.shade(paint.Texture, paint.SE))
		case paint.FlatShade:
			p.textured(neSY, nwSY, seSY, neSX, nwSX, seSX, paint.NE, paint.NW, paint.SE,
				swX, seX, nwX, swY, seY, nwY, swZ, seZ, nwZ, paint.Texture)
		default:
			p.textured(neSY, nwSY, seSY, neSX, nwSX, seSX, paint.NE, paint.NW, paint.SE,
				neX, nwX, seX, neY, nwY, seY, neZ, nwZ, seZ, paint.Texture)
		}
	}

	if (swSX-seSX)*(nwSY-seSY)-(swSY-seSY)*(nwSX-seSX) > 0 {
		p.clip(swSX, seSX, nwSX)
		if p.pick.requested && withinTriangle(p.pick.mouseX, p.pick.mouseY, swSY, seSY, nwSY, swSX, seSX, nwSX) {
			p.hit(x, z)
		}
		switch {
		case paint.Texture == -1:
			if paint.SW != model.HiddenColor {
				p.gouraud(swSY, seSY, nwSY, swSX, seSX, nwSX, paint.SW, paint.SE, paint.NW)
			}
		case p.LowMemory:
			p.gouraud(swSY, seSY, nwSY, swSX, seSX, nwSX,
				p.shade(paint.Texture, paint.SW), p.shade(paint.Texture, paint.SE), p.shade(paint.Texture, paint.NW))
		default:
			p.textured(swSY, seSY, nwSY, swSX, seSX, nwSX, paint.SW, paint.SE, paint.NW,
				swX, seX, nwX, swY, seY, nwY, swZ, seZ, nwZ, paint.Texture)
		}
	}
}

func (p *Painter) grow(n int) {
	if len(p.screenX) >= n {
		return
	}
	p.screenX = make([]int, n)
	p.screenY = make([]int, n)
	p.sceneX = make([]int, n)
	p.sceneY = make([]int, n)
	p.sceneZ = make([]int, n)
}

// DrawModel emits the triangles of a shaped floor overlay. Vertices are in
// world space. The model is dropped when any vertex is behind the near
// plane.
func (p *Painter) DrawModel(m *grid.TileModel, x, z int) {
	n := len(m.VertexX)
	p.grow(n)
	for i := 0; i < n; i++ {
		vx, vy, vz := p.rotate(m.VertexX[i]-p.cam.X, m.VertexY[i]-p.cam.Y, m.VertexZ[i]-p.cam.Z)
		if vz < nearPlane {
			return
		}
		p.sceneX[i], p.sceneY[i], p.sceneZ[i] = vx, vy, vz
		p.screenX[i], p.screenY[i] = p.screen(vx, vy, vz)
	}

	p.raster.SetAlpha(0)
	for i := range m.TriA {
		a, b, c := m.TriA[i], m.TriB[i], m.TriC[i]
		x1, x2, x3 := p.screenX[a], p.screenX[b], p.screenX[c]
		y1, y2, y3 := p.screenY[a], p.screenY[b], p.screenY[c]
		if (x1-x2)*(y3-y2)-(y1-y2)*(x3-x2) <= 0 {
			continue
		}
		p.clip(x1, x2, x3)
		if p.pick.requested && withinTriangle(p.pick.mouseX, p.pick.mouseY, y1, y2, y3, x1, x2, x3) {
			p.hit(x, z)
		}
		ca, cb, cc := m.ColorA[i], m.ColorB[i], m.ColorC[i]
		if m.Textures != nil && m.Textures[i] != -1 {
			texture := m.Textures[i]
			switch {
			case p.LowMemory:
				p.gouraud(y1, y2, y3, x1, x2, x3, p.shade(texture, ca), p.shade(texture, cb), p.shade(texture, cc))
			case m.FlatShade && n > 3:
				p.textured(y1, y2, y3, x1, x2, x3, ca, cb, cc,
					p.sceneX[0], p.sceneX[1], p.sceneX[3],
					p.sceneY[0], p.sceneY[1], p.sceneY[3],
					p.sceneZ[0], p.sceneZ[1], p.sceneZ[3], texture)
			default:
				p.textured(y1, y2, y3, x1, x2, x3, ca, cb, cc,
					p.sceneX[a], p.sceneX[b], p.sceneX[c],
					p.sceneY[a], p.sceneY[b], p.sceneY[c],
					p.sceneZ[a], p.sceneZ[b], p.sceneZ[c], texture)
			}
			continue
		}
		if ca != model.HiddenColor {
			p.gouraud(y1, y2, y3, x1, x2, x3, ca, cb, cc)
		}
	}
}

// withinTriangle tests the mouse point against a screen triangle given as
// its three y then three x coordinates.
func withinTriangle(mx, my, y1, y2, y3, x1, x2, x3 int) bool {
	if my < y1 && my < y2 && my < y3 {
		return false
	}
	if my > y1 && my > y2 && my > y3 {
		return false
	}
	if mx < x1 && mx < x2 && mx < x3 {
		return false
	}
	if mx > x1 && mx > x2 && mx > x3 {
		return false
	}
	a := (my-y1)*(x2-x1) - (mx-x1)*(y2-y1)
	b := (x1-x3)*(my-y3) - (mx-x3)*(y1-y3)
	c := (x3-x2)*(my-y2) - (mx-x2)*(y3-y2)
	return a*c > 0 && c*b > 0
}
