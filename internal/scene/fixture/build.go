package fixture

import (
	"fmt"

	"tilescene.ai/internal/scene"
	"tilescene.ai/internal/scene/grid"
	"tilescene.ai/internal/scene/lighting"
	"tilescene.ai/internal/scene/model"
	"tilescene.ai/internal/scene/occlusion"
)

// Sink receives every draw of a fixture renderable.
type Sink interface {
	Record(name string, orientation, x, y, z int, tag model.Tag, faces int)
}

// Prop is a named renderable with no geometry.
type Prop struct {
	Name   string
	Height int
	Sink   Sink
}

func (p *Prop) ModelHeight() int { return p.Height }

func (p *Prop) Draw(orientation int, _ model.View, x, y, z int, tag model.Tag) error {
	if p.Sink != nil {
		p.Sink.Record(p.Name, orientation, x, y, z, tag, 0)
	}
	return nil
}

// meshRenderer forwards box meshes to the sink with their face count.
type meshRenderer struct {
	name string
	sink Sink
}

func (r *meshRenderer) DrawMesh(m *lighting.Mesh, _ []int, orientation int, _ model.View, x, y, z int, tag model.Tag) error {
	if r.sink != nil {
		r.sink.Record(r.name, orientation, x, y, z, tag, len(m.A))
	}
	return nil
}

// Report counts what Build could not place.
type Report struct {
	Entities          int
	RejectedEntities  int
	Occluders         int
	RejectedOccluders int
}

const (
	defaultWallHeight = 256
	meshColor         = 0x1f40
)

type builder struct {
	g    *grid.Grid
	sink Sink
}

func (b *builder) renderable(name, mesh string, height int) model.Renderable {
	if name == "" {
		return nil
	}
	if mesh == "box" {
		if height <= 0 {
			height = grid.TileUnit
		}
		return lighting.Box(grid.TileUnit, height, grid.TileUnit, meshColor, &meshRenderer{name: name, sink: b.sink})
	}
	return &Prop{Name: name, Height: height, Sink: b.sink}
}

// Build writes f into s through the grid and occluder mutation API, after
// clearing s. Entities that do not fit and occluders over capacity are
// counted in the report, not treated as errors.
func (f *Fixture) Build(s *scene.Scene, sink Sink) (Report, error) {
	var rep Report
	g := s.Grid
	if g.Planes != f.Grid.Planes || g.Width != f.Grid.Width || g.Length != f.Grid.Length {
		return rep, fmt.Errorf("fixture %q: grid %dx%dx%d does not match scene %dx%dx%d",
			f.Name, f.Grid.Planes, f.Grid.Width, f.Grid.Length, g.Planes, g.Width, g.Length)
	}
	s.Reset()
	g.Setup(0)
	b := &builder{g: g, sink: sink}

	for _, p := range f.Paints {
		toX, toZ := p.X, p.Z
		if p.ToX != nil {
			toX = *p.ToX
		}
		if p.ToZ != nil {
			toZ = *p.ToZ
		}
		texture := -1
		if p.Texture != nil {
			texture = *p.Texture
		}
		for x := p.X; x <= toX; x++ {
			for z := p.Z; z <= toZ; z++ {
				g.AddPaint(p.Plane, x, z, &grid.Paint{SW: p.Color, SE: p.Color, NE: p.Color, NW: p.Color, Texture: texture, RGB: p.RGB})
			}
		}
	}
	for _, w := range f.Walls {
		h := w.Height
		if h == 0 {
			h = defaultWallHeight
		}
		tag := model.NewTag(model.KindLocation, 0, w.X, w.Z)
		g.AddWall(w.Plane, w.X, w.Z, g.MeanHeight(w.Plane, w.X, w.Z),
			b.renderable(w.A, w.Mesh, h), b.renderable(w.B, w.Mesh, h), w.FaceA, w.FaceB, tag)
	}
	for _, d := range f.Decorations {
		tag := model.NewTag(model.KindLocation, 0, d.X, d.Z)
		g.AddDecoration(d.Plane, d.X, d.Z, g.MeanHeight(d.Plane, d.X, d.Z),
			b.renderable(d.Name, "", d.Height), b.renderable(d.Inner, "", d.Height),
			d.Face, d.Rotation, d.OffsetX, d.OffsetZ, tag)
	}
	for _, o := range f.Ground {
		tag := model.NewTag(model.KindLocation, 0, o.X, o.Z)
		g.AddGroundObject(o.Plane, o.X, o.Z, g.MeanHeight(o.Plane, o.X, o.Z), b.renderable(o.Name, o.Mesh, o.Height), tag)
	}
	for _, it := range f.Items {
		tag := model.NewTag(model.KindItem, 0, it.X, it.Z)
		g.AddItemPile(it.Plane, it.X, it.Z, g.MeanHeight(it.Plane, it.X, it.Z),
			b.renderable(it.Bottom, "", 0), b.renderable(it.Middle, "", 0), b.renderable(it.Top, "", 0), tag)
	}
	for _, e := range f.Entities {
		rep.Entities++
		if !b.entity(e) {
			rep.RejectedEntities++
		}
	}
	for _, o := range f.Occluders {
		rep.Occluders++
		if !s.Occluders.Add(o.Level, facingOf(o.Facing), o.MinX, o.MaxX, o.MinZ, o.MaxZ, o.MinY, o.MaxY) {
			rep.RejectedOccluders++
		}
	}
	// bridges last so the lifted columns carry their content down
	for _, c := range f.Bridges {
		g.SetBridge(c.X, c.Z)
	}
	return rep, nil
}

func (b *builder) entity(e Entity) bool {
	kind := kindOf(e.Kind)
	r := b.renderable(e.Name, e.Mesh, e.Height)
	height := b.g.MeanHeight(e.Plane, e.X, e.Z)
	if e.Raised {
		height -= e.Height
	}
	if e.Radius > 0 {
		tag := model.NewTag(kind, e.ID, 0, 0)
		wx := e.X*grid.TileUnit + grid.TileUnit/2
		wz := e.Z*grid.TileUnit + grid.TileUnit/2
		_, ok := b.g.AddMobile(e.Plane, wx, wz, height, e.Radius, r, e.Orientation, tag, false)
		return ok
	}
	sx, sz := e.SizeX, e.SizeZ
	if sx == 0 {
		sx = 1
	}
	if sz == 0 {
		sz = 1
	}
	tag := model.NewTag(kind, e.ID, e.X, e.Z)
	_, ok := b.g.AddLocation(e.Plane, e.X, e.Z, height, sx, sz, r, e.Orientation, tag)
	return ok
}

func facingOf(s string) occlusion.Facing {
	switch s {
	case "x":
		return occlusion.FacingX
	case "z":
		return occlusion.FacingZ
	}
	return occlusion.FacingCeiling
}
