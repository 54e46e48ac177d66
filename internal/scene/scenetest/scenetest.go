// Package scenetest provides recording fakes for scene tests: renderables
// that log every draw in order, and a rasterizer that counts primitives.
package scenetest

import (
	"errors"
	"fmt"

	"tilescene.ai/internal/scene/model"
)

// ErrProp is returned by a Prop configured to fail.
var ErrProp = errors.New("scenetest: prop failed")

// Draw is one recorded Renderable.Draw call.
type Draw struct {
	Name        string
	Orientation int
	X, Y, Z     int
	Tag         model.Tag
}

// Log collects draws across every Prop sharing it.
type Log struct {
	Draws []Draw
}

func (l *Log) Names() []string {
	out := make([]string, 0, len(l.Draws))
	for _, d := range l.Draws {
		out = append(out, d.Name)
	}
	return out
}

// Count returns how many times name was drawn.
func (l *Log) Count(name string) int {
	n := 0
	for _, d := range l.Draws {
		if d.Name == name {
			n++
		}
	}
	return n
}

// Index returns the position of the first draw of name, or -1.
func (l *Log) Index(name string) int {
	for i, d := range l.Draws {
		if d.Name == name {
			return i
		}
	}
	return -1
}

func (l *Log) Reset() { l.Draws = l.Draws[:0] }

// Prop is a named renderable. Fail makes Draw return ErrProp after
// recording; Panic makes it panic instead.
type Prop struct {
	Name   string
	Height int
	Log    *Log
	Fail   bool
	Panic  bool
}

func NewProp(l *Log, name string) *Prop {
	return &Prop{Name: name, Log: l}
}

func (p *Prop) ModelHeight() int { return p.Height }

func (p *Prop) Draw(orientation int, _ model.View, x, y, z int, tag model.Tag) error {
	if p.Log != nil {
		p.Log.Draws = append(p.Log.Draws, Draw{Name: p.Name, Orientation: orientation, X: x, Y: y, Z: z, Tag: tag})
	}
	if p.Panic {
		panic(fmt.Sprintf("scenetest: prop %s panicked", p.Name))
	}
	if p.Fail {
		return ErrProp
	}
	return nil
}

// Raster counts the primitives it receives.
type Raster struct {
	GouraudCount  int
	TexturedCount int
	Clip          bool
	Alpha         int
	// Colors records the first colour of every Gouraud triangle.
	Colors []int
}

func (r *Raster) Gouraud(y1, y2, y3, x1, x2, x3, c1, c2, c3 int) {
	r.GouraudCount++
	r.Colors = append(r.Colors, c1)
}

func (r *Raster) Textured(y1, y2, y3, x1, x2, x3, c1, c2, c3 int,
	tx1, tx2, tx3, ty1, ty2, ty3, tz1, tz2, tz3 int, texture int) {
	r.TexturedCount++
}

func (r *Raster) SetClip(enabled bool) { r.Clip = enabled }
func (r *Raster) SetAlpha(alpha int)   { r.Alpha = alpha }

// Triangles is the total primitive count.
func (r *Raster) Triangles() int { return r.GouraudCount + r.TexturedCount }

// Textures maps texture ids to a fixed averaged colour.
type Textures map[int]int

func (t Textures) AverageRGB(texture int) int { return t[texture] }
