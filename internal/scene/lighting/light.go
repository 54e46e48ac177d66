package lighting

import (
	"gonum.org/v1/gonum/spatial/r3"

	"tilescene.ai/internal/scene/grid"
	"tilescene.ai/internal/scene/mathx"
	"tilescene.ai/internal/scene/model"
)

// Light is the direction toward the light source, in world axes.
type Light struct {
	X, Y, Z int
}

// DefaultLight shines from above the -X -Z corner.
var DefaultLight = Light{X: -50, Y: -10, Z: -50}

// faceNormalLength is the length every face normal is scaled to before it
// is added to its vertices.
const faceNormalLength = 256

type Stats struct {
	Meshes int // meshes lit
	// Shared counts coincident vertex pairs whose normals were blended.
	Shared int
}

// vertexNormals is the normal accumulator of one mesh for a pass.
type vertexNormals struct {
	sum   []r3.Vec
	count []int
}

type pass struct {
	g      *grid.Grid
	light  Light
	normal map[*Mesh]*vertexNormals
	stats  Stats
}

// Apply lights every mesh found in wall, entity and ground object slots,
// replacing each with a LitMesh. Meshes lit by an earlier Apply are relit
// from their template.
func Apply(g *grid.Grid, light Light) Stats {
	p := &pass{g: g, light: light, normal: make(map[*Mesh]*vertexNormals)}
	seen := make(map[*grid.GameObject]bool)

	g.Each(func(t *grid.Tile) {
		if w := t.Wall; w != nil {
			a, b := template(w.A), template(w.B)
			if a != nil {
				p.blendRing(a, t.Plane, t.X, t.Z, 1, 1)
				if b != nil {
					p.blendRing(b, t.Plane, t.X, t.Z, 1, 1)
					p.share(a, b, 0, 0, 0)
					w.B = p.lit(b)
				}
				w.A = p.lit(a)
			}
		}
		for i := 0; i < t.EntityCount; i++ {
			o := t.Entities[i]
			m := template(o.Renderable)
			if m == nil || seen[o] {
				continue
			}
			seen[o] = true
			p.blendRing(m, t.Plane, o.MinX, o.MinZ, o.MaxX-o.MinX+1, o.MaxZ-o.MinZ+1)
			o.Renderable = p.lit(m)
		}
		if gr := t.Ground; gr != nil {
			if m := template(gr.Renderable); m != nil {
				p.blendGround(m, t.Plane, t.X, t.Z)
				gr.Renderable = p.lit(m)
			}
		}
	})
	return p.stats
}

func (p *pass) normals(m *Mesh) *vertexNormals {
	if n, ok := p.normal[m]; ok {
		return n
	}
	n := &vertexNormals{sum: make([]r3.Vec, len(m.X)), count: make([]int, len(m.X))}
	for f := range m.A {
		a, b, c := m.A[f], m.B[f], m.C[f]
		va := vertex(m, a)
		cross := r3.Cross(r3.Sub(vertex(m, b), va), r3.Sub(vertex(m, c), va))
		l := r3.Norm(cross)
		if l == 0 {
			continue
		}
		fn := r3.Scale(faceNormalLength/l, cross)
		for _, v := range [3]int{a, b, c} {
			n.sum[v] = r3.Add(n.sum[v], fn)
			n.count[v]++
		}
	}
	p.normal[m] = n
	return n
}

func vertex(m *Mesh, i int) r3.Vec {
	return r3.Vec{X: float64(m.X[i]), Y: float64(m.Y[i]), Z: float64(m.Z[i])}
}

// share blends the normals of vertices of a and b that coincide once b is
// moved by (dx, dy, dz) into a's model space.
func (p *pass) share(a, b *Mesh, dx, dy, dz int) {
	if a == b {
		return
	}
	na, nb := p.normals(a), p.normals(b)
	for i := range a.X {
		for j := range b.X {
			if a.X[i] != b.X[j]+dx || a.Y[i] != b.Y[j]+dy || a.Z[i] != b.Z[j]+dz {
				continue
			}
			if na.count[i] == 0 || nb.count[j] == 0 {
				continue
			}
			sum := r3.Add(na.sum[i], nb.sum[j])
			count := na.count[i] + nb.count[j]
			na.sum[i], nb.sum[j] = sum, sum
			na.count[i], nb.count[j] = count, count
			p.stats.Shared++
		}
	}
}

// blendRing shares normals between a mesh on the (sizeX by sizeZ) footprint
// at (x, z) and the meshes around it on the same plane and the one above.
// On the own plane only the east, north and south-west side are visited so
// each pair is blended once across the whole pass.
func (p *pass) blendRing(m *Mesh, plane, x, z, sizeX, sizeZ int) {
	g := p.g
	base := g.MeanHeight(plane, x, z)
	lowX := x
	first := true
	for pl := plane; pl <= plane+1 && pl < g.Planes; pl++ {
		for nx := lowX; nx <= x+sizeX; nx++ {
			for nz := z - 1; nz <= z+sizeZ; nz++ {
				if first && nx < x+sizeX && nz < z+sizeZ && !(nz < z && nx != x) {
					continue
				}
				t := g.Tile(pl, nx, nz)
				if t == nil {
					continue
				}
				dy := g.MeanHeight(pl, nx, nz) - base
				if w := t.Wall; w != nil {
					ox := (1-sizeX)*64 + (nx-x)*grid.TileUnit
					oz := (nz-z)*grid.TileUnit + (1-sizeZ)*64
					if o := template(w.A); o != nil {
						p.share(m, o, ox, dy, oz)
					}
					if o := template(w.B); o != nil {
						p.share(m, o, ox, dy, oz)
					}
				}
				for i := 0; i < t.EntityCount; i++ {
					e := t.Entities[i]
					o := template(e.Renderable)
					if o == nil {
						continue
					}
					w, l := e.MaxX-e.MinX+1, e.MaxZ-e.MinZ+1
					ox := (w-sizeX)*64 + (e.MinX-x)*grid.TileUnit
					oz := (e.MinZ-z)*grid.TileUnit + (l-sizeZ)*64
					p.share(m, o, ox, dy, oz)
				}
			}
		}
		lowX--
		first = false
	}
}

// blendGround shares normals between ground objects at (x, z) and its +X,
// +Z and +X+Z neighbours.
func (p *pass) blendGround(m *Mesh, plane, x, z int) {
	for _, d := range [3][2]int{{1, 0}, {0, 1}, {1, 1}} {
		gr := p.g.GroundAt(plane, x+d[0], z+d[1])
		if gr == nil {
			continue
		}
		if o := template(gr.Renderable); o != nil {
			p.share(m, o, d[0]*grid.TileUnit, 0, d[1]*grid.TileUnit)
		}
	}
}

// lit bakes the shades of m from its accumulated normals.
func (p *pass) lit(m *Mesh) *LitMesh {
	n := p.normals(m)
	l := r3.Vec{X: float64(p.light.X), Y: float64(p.light.Y), Z: float64(p.light.Z)}
	contrast := m.Contrast
	if contrast <= 0 {
		contrast = DefaultContrast
	}
	divisor := float64(contrast) * r3.Norm(l) / 256
	out := &LitMesh{Template: m, Shades: make([]int, 3*len(m.A))}
	for f := range m.A {
		color := m.Colors[f]
		for k, v := range [3]int{m.A[f], m.B[f], m.C[f]} {
			if color == model.HiddenColor {
				out.Shades[3*f+k] = color
				continue
			}
			lightness := m.Ambient
			if n.count[v] > 0 && divisor > 0 {
				lightness += int(r3.Dot(l, n.sum[v]) / (divisor * float64(n.count[v])))
			}
			out.Shades[3*f+k] = mathx.ShadeHSL(color, lightness)
		}
	}
	p.stats.Meshes++
	return out
}
