// Package tuning loads render.yaml, the rendering knobs of a scene.
package tuning

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tilescene.ai/internal/scene"
	"tilescene.ai/internal/scene/model"
	"tilescene.ai/internal/scene/occlusion"
	"tilescene.ai/internal/scene/visibility"
)

type Tuning struct {
	Grid      GridSpec     `yaml:"grid"`
	Viewport  ViewportSpec `yaml:"viewport"`
	Camera    CameraSpec   `yaml:"camera"`
	Occluders OccluderSpec `yaml:"occluders"`
	LowMemory bool         `yaml:"low_memory"`
	Trace     TraceSpec    `yaml:"trace"`
}

type GridSpec struct {
	Planes int `yaml:"planes"`
	Width  int `yaml:"width"`
	Length int `yaml:"length"`
}

type ViewportSpec struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Focal  int `yaml:"focal"`
}

// CameraSpec feeds the visibility table: the camera height above ground at
// each sampled pitch and the terrain relief around it.
type CameraSpec struct {
	PitchHeights []int `yaml:"pitch_heights"`
	MinHeight    int   `yaml:"min_height"`
	MaxHeight    int   `yaml:"max_height"`
}

type OccluderSpec struct {
	CapacityPerLevel int `yaml:"capacity_per_level"`
}

type TraceSpec struct {
	Dir     string `yaml:"dir"`
	IndexDB string `yaml:"index_db"`
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		t.Normalize()
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("render.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("render.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	t := Tuning{
		Grid:      GridSpec{Planes: 4, Width: 104, Length: 104},
		Viewport:  ViewportSpec{Width: 512, Height: 334, Focal: 390},
		Camera:    CameraSpec{MinHeight: 256, MaxHeight: 256},
		Occluders: OccluderSpec{CapacityPerLevel: occlusion.DefaultCapacity},
		Trace:     TraceSpec{Dir: "data/traces"},
	}
	for i := 0; i < visibility.PitchSamples; i++ {
		t.Camera.PitchHeights = append(t.Camera.PitchHeights, 480+40*i)
	}
	return t
}

// Normalize fills zero values from the defaults. A short pitch_heights list
// repeats its last entry.
func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	d := Defaults()
	if t.Viewport.Focal <= 0 {
		t.Viewport.Focal = d.Viewport.Focal
	}
	if t.Occluders.CapacityPerLevel <= 0 {
		t.Occluders.CapacityPerLevel = d.Occluders.CapacityPerLevel
	}
	if len(t.Camera.PitchHeights) == 0 {
		t.Camera.PitchHeights = d.Camera.PitchHeights
	}
	for len(t.Camera.PitchHeights) < visibility.PitchSamples {
		t.Camera.PitchHeights = append(t.Camera.PitchHeights, t.Camera.PitchHeights[len(t.Camera.PitchHeights)-1])
	}
	if strings.TrimSpace(t.Trace.IndexDB) == "" && strings.TrimSpace(t.Trace.Dir) != "" {
		t.Trace.IndexDB = strings.TrimRight(t.Trace.Dir, "/") + "/index.sqlite"
	}
}

func (t Tuning) Validate() error {
	if t.Grid.Planes <= 0 || t.Grid.Width <= 0 || t.Grid.Length <= 0 {
		return fmt.Errorf("grid extents must be > 0")
	}
	if t.Viewport.Width <= 0 || t.Viewport.Height <= 0 {
		return fmt.Errorf("viewport width and height must be > 0")
	}
	if len(t.Camera.PitchHeights) != visibility.PitchSamples {
		return fmt.Errorf("camera.pitch_heights must have %d entries, got %d", visibility.PitchSamples, len(t.Camera.PitchHeights))
	}
	if t.Camera.MinHeight < 0 || t.Camera.MaxHeight < 0 {
		return fmt.Errorf("camera min_height and max_height must be >= 0")
	}
	return nil
}

// Visibility is the table input for this tuning.
func (t Tuning) Visibility() visibility.Params {
	p := visibility.Params{
		MinHeight: t.Camera.MinHeight,
		MaxHeight: t.Camera.MaxHeight,
		Width:     t.Viewport.Width,
		Height:    t.Viewport.Height,
		Focal:     t.Viewport.Focal,
	}
	copy(p.PitchHeights[:], t.Camera.PitchHeights)
	return p
}

// Scene builds the render context configuration for a flat chunk.
func (t Tuning) Scene(logger *log.Logger) scene.Config {
	return scene.Config{
		Planes:           t.Grid.Planes,
		Width:            t.Grid.Width,
		Length:           t.Grid.Length,
		OccluderCapacity: t.Occluders.CapacityPerLevel,
		Viewport: model.Viewport{
			Focal:   t.Viewport.Focal,
			CenterX: t.Viewport.Width / 2,
			CenterY: t.Viewport.Height / 2,
			ClipX:   t.Viewport.Width,
		},
		Visibility: t.Visibility(),
		LowMemory:  t.LowMemory,
		Logger:     logger,
	}
}
