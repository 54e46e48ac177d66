// Package lighting bakes per-vertex brightness into static meshes placed on
// a grid, blending vertex normals with touching neighbour meshes so shared
// edges shade smoothly.
package lighting

import (
	"tilescene.ai/internal/scene/model"
)

// MeshRenderer submits a mesh to the frame. shades holds three HSL colours
// per face, or is nil for an unlit mesh drawn with its face colours.
type MeshRenderer interface {
	DrawMesh(m *Mesh, shades []int, orientation int, v model.View, x, y, z int, tag model.Tag) error
}

// Mesh is an unlit template. Vertices are in model space around the centre
// of the mesh footprint with Y growing downward. A Mesh is never modified
// by lighting.
type Mesh struct {
	X, Y, Z []int
	A, B, C []int
	// Colors is the HSL colour of each face.
	Colors []int

	Ambient  int
	Contrast int

	Renderer MeshRenderer
}

func (m *Mesh) ModelHeight() int {
	h := 0
	for _, y := range m.Y {
		if -y > h {
			h = -y
		}
	}
	return h
}

func (m *Mesh) Draw(orientation int, v model.View, x, y, z int, tag model.Tag) error {
	if m.Renderer == nil {
		return nil
	}
	return m.Renderer.DrawMesh(m, nil, orientation, v, x, y, z, tag)
}

// LitMesh is a lit copy of a template.
type LitMesh struct {
	Template *Mesh
	// Shades holds three HSL colours per template face.
	Shades []int
}

func (m *LitMesh) ModelHeight() int { return m.Template.ModelHeight() }

func (m *LitMesh) Draw(orientation int, v model.View, x, y, z int, tag model.Tag) error {
	if m.Template.Renderer == nil {
		return nil
	}
	return m.Template.Renderer.DrawMesh(m.Template, m.Shades, orientation, v, x, y, z, tag)
}

// template returns the unlit mesh behind r, or nil when r is not a mesh.
func template(r model.Renderable) *Mesh {
	switch m := r.(type) {
	case *Mesh:
		return m
	case *LitMesh:
		return m.Template
	}
	return nil
}

const (
	DefaultAmbient  = 64
	DefaultContrast = 768
)

// Box builds a w by d footprint box h units tall standing on y = 0, one
// colour on every face.
func Box(w, h, d int, color int, r MeshRenderer) *Mesh {
	hw, hd := w/2, d/2
	m := &Mesh{
		X:        []int{-hw, hw, hw, -hw, -hw, hw, hw, -hw},
		Y:        []int{0, 0, 0, 0, -h, -h, -h, -h},
		Z:        []int{-hd, -hd, hd, hd, -hd, -hd, hd, hd},
		A:        []int{4, 4, 0, 0, 0, 0, 3, 3, 0, 0, 1, 1},
		B:        []int{5, 6, 2, 3, 5, 1, 7, 6, 7, 4, 2, 6},
		C:        []int{6, 7, 1, 2, 4, 5, 6, 2, 3, 7, 6, 5},
		Ambient:  DefaultAmbient,
		Contrast: DefaultContrast,
		Renderer: r,
	}
	m.Colors = make([]int, len(m.A))
	for i := range m.Colors {
		m.Colors[i] = color
	}
	return m
}

// Face indices of a Box, two triangles each.
const (
	BoxTop    = 0
	BoxBottom = 2
	BoxSouth  = 4
	BoxNorth  = 6
	BoxWest   = 8
	BoxEast   = 10
)
