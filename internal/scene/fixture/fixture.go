// Package fixture loads YAML scene fixtures: a small stand-in for a map
// loader that writes tiles, entities and occluders through the same
// mutation API a real loader uses.
package fixture

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"tilescene.ai/internal/scene"
	"tilescene.ai/internal/scene/model"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://tilescene.ai/schemas/fixture.schema.json"

var schema = jsonschema.MustCompileString(schemaURL, schemaJSON)

type Fixture struct {
	Name        string       `yaml:"name"`
	Grid        GridSpec     `yaml:"grid"`
	Heights     []Height     `yaml:"heights"`
	Paints      []Paint      `yaml:"paints"`
	Walls       []Wall       `yaml:"walls"`
	Decorations []Decoration `yaml:"decorations"`
	Ground      []Ground     `yaml:"ground"`
	Items       []Items      `yaml:"items"`
	Entities    []Entity     `yaml:"entities"`
	Occluders   []Occluder   `yaml:"occluders"`
	Bridges     []Cell       `yaml:"bridges"`
	Camera      Camera       `yaml:"camera"`
}

type GridSpec struct {
	Planes int `yaml:"planes"`
	Width  int `yaml:"width"`
	Length int `yaml:"length"`
	// Height is the base corner height of every plane.
	Height int `yaml:"height"`
}

type Cell struct {
	Plane int `yaml:"plane"`
	X     int `yaml:"x"`
	Z     int `yaml:"z"`
}

type Height struct {
	Cell   `yaml:",inline"`
	Height int `yaml:"height"`
}

// Paint fills one tile, or the rectangle up to (ToX, ToZ) inclusive.
type Paint struct {
	Cell    `yaml:",inline"`
	ToX     *int `yaml:"to_x"`
	ToZ     *int `yaml:"to_z"`
	Color   int  `yaml:"color"`
	Texture *int `yaml:"texture"`
	RGB     int  `yaml:"rgb"`
}

type Wall struct {
	Cell   `yaml:",inline"`
	A      string `yaml:"a"`
	B      string `yaml:"b"`
	FaceA  int    `yaml:"face_a"`
	FaceB  int    `yaml:"face_b"`
	Height int    `yaml:"height"`
	Mesh   string `yaml:"mesh"`
}

// Decoration is a wall decoration. Inner is the model drawn on the far side
// of an inner diagonal.
type Decoration struct {
	Cell     `yaml:",inline"`
	Name     string `yaml:"name"`
	Inner    string `yaml:"inner"`
	Face     int    `yaml:"face"`
	Rotation int    `yaml:"rotation"`
	OffsetX  int    `yaml:"offset_x"`
	OffsetZ  int    `yaml:"offset_z"`
	Height   int    `yaml:"height"`
}

type Ground struct {
	Cell   `yaml:",inline"`
	Name   string `yaml:"name"`
	Height int    `yaml:"height"`
	Mesh   string `yaml:"mesh"`
}

type Items struct {
	Cell   `yaml:",inline"`
	Bottom string `yaml:"bottom"`
	Middle string `yaml:"middle"`
	Top    string `yaml:"top"`
}

// Entity places a renderable. SizeX and SizeZ give a static footprint;
// Radius > 0 places a mobile entity centred on the tile instead.
type Entity struct {
	Cell        `yaml:",inline"`
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	ID          int    `yaml:"id"`
	SizeX       int    `yaml:"size_x"`
	SizeZ       int    `yaml:"size_z"`
	Radius      int    `yaml:"radius"`
	Height      int    `yaml:"height"`
	Raised      bool   `yaml:"raised"`
	Orientation int    `yaml:"orientation"`
	Mesh        string `yaml:"mesh"`
}

type Occluder struct {
	Level  int    `yaml:"level"`
	Facing string `yaml:"facing"`
	MinX   int    `yaml:"min_x"`
	MaxX   int    `yaml:"max_x"`
	MinZ   int    `yaml:"min_z"`
	MaxZ   int    `yaml:"max_z"`
	MinY   int    `yaml:"min_y"`
	MaxY   int    `yaml:"max_y"`
}

type Camera struct {
	X     int  `yaml:"x"`
	Y     int  `yaml:"y"`
	Z     int  `yaml:"z"`
	Pitch int  `yaml:"pitch"`
	Yaw   int  `yaml:"yaw"`
	Level *int `yaml:"level"`
}

// Load reads and validates a fixture file.
func Load(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse validates a YAML document against the fixture schema and decodes
// it.
func Parse(raw []byte) (*Fixture, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	// the validator wants JSON shaped values
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	return &f, nil
}

// Config overlays the fixture's grid extents and heights on base.
func (f *Fixture) Config(base scene.Config) scene.Config {
	g := f.Grid
	base.Planes, base.Width, base.Length = g.Planes, g.Width, g.Length
	heights := make([][][]int, g.Planes)
	for p := range heights {
		heights[p] = make([][]int, g.Width+1)
		for x := range heights[p] {
			heights[p][x] = make([]int, g.Length+1)
			for z := range heights[p][x] {
				heights[p][x][z] = g.Height
			}
		}
	}
	for _, h := range f.Heights {
		if h.Plane < g.Planes && h.X <= g.Width && h.Z <= g.Length {
			heights[h.Plane][h.X][h.Z] = h.Height
		}
	}
	base.Heights = heights
	return base
}

// CameraAt is the fixture camera, or a camera over the grid centre when
// the fixture has none.
func (f *Fixture) CameraAt() (model.Camera, int) {
	c := f.Camera
	level := f.Grid.Planes - 1
	if c.Level != nil {
		level = *c.Level
	}
	if c.X == 0 && c.Y == 0 && c.Z == 0 {
		return model.Camera{
			X:     f.Grid.Width * 64,
			Y:     f.Grid.Height - 600,
			Z:     f.Grid.Length * 64,
			Pitch: 256,
		}, level
	}
	pitch := c.Pitch
	if pitch == 0 {
		pitch = 256
	}
	return model.Camera{X: c.X, Y: c.Y, Z: c.Z, Pitch: pitch, Yaw: c.Yaw}, level
}

func kindOf(s string) model.Kind {
	switch strings.ToLower(s) {
	case "player":
		return model.KindPlayer
	case "npc":
		return model.KindNPC
	case "item":
		return model.KindItem
	}
	return model.KindLocation
}
