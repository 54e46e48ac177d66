// Package scene is the render context of one loaded chunk. It owns the tile
// grid, the occluders, the visibility table and the traversal scratch, and
// draws one frame per Draw call.
package scene

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"tilescene.ai/internal/scene/floor"
	"tilescene.ai/internal/scene/grid"
	"tilescene.ai/internal/scene/lighting"
	"tilescene.ai/internal/scene/mathx"
	"tilescene.ai/internal/scene/model"
	"tilescene.ai/internal/scene/occlusion"
	"tilescene.ai/internal/scene/traverse"
	"tilescene.ai/internal/scene/trig"
	"tilescene.ai/internal/scene/visibility"
)

// ErrReentrantDraw is returned by Draw when called while a frame is being
// drawn, typically from inside a renderable.
var ErrReentrantDraw = errors.New("scene: draw called while drawing")

type Config struct {
	Planes, Width, Length int
	// Heights is [plane][x][z] over tile corners; nil for flat ground.
	Heights [][][]int

	// OccluderCapacity bounds the occluders of each level; 0 selects the
	// default.
	OccluderCapacity int

	Viewport   model.Viewport
	Visibility visibility.Params
	// LowMemory fills textured floors with their averaged colour.
	LowMemory bool

	// Trig defaults to trig.Build().
	Trig   *trig.Table
	Logger *log.Logger
}

// FrameObserver is told about every drawn frame.
type FrameObserver interface {
	ObserveFrame(st traverse.Stats, elapsed time.Duration)
}

type Scene struct {
	Grid      *grid.Grid
	Occluders *occlusion.System
	Floor     *floor.Painter

	trig  *trig.Table
	table *visibility.Table
	trav  *traverse.Traversal

	stamp     int32
	drawing   bool
	observers []FrameObserver

	logger *log.Logger
}

func New(cfg Config, raster model.Rasterizer, textures model.TextureSource) (*Scene, error) {
	g, err := grid.New(cfg.Planes, cfg.Width, cfg.Length, cfg.Heights)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	tab := cfg.Trig
	if tab == nil {
		tab = trig.Build()
	}
	s := &Scene{
		Grid:      g,
		Occluders: occlusion.New(cfg.Planes, cfg.Width, cfg.Length, cfg.OccluderCapacity, g, logger),
		Floor:     floor.New(g, raster, cfg.Viewport, textures),
		trig:      tab,
		logger:    logger,
	}
	s.Floor.LowMemory = cfg.LowMemory
	s.trav = traverse.New(g, s.Occluders, s.Floor)
	s.SetVisibility(cfg.Visibility)
	return s, nil
}

// SetVisibility rebuilds the visibility table when params changed.
func (s *Scene) SetVisibility(params visibility.Params) {
	if s.table != nil && s.table.Matches(params) {
		return
	}
	start := time.Now()
	s.table = visibility.Build(params, s.trig)
	s.logger.Printf("visibility table built for %dx%d viewport in %s", params.Width, params.Height, time.Since(start).Round(time.Millisecond))
}

// Observe registers a frame observer.
func (s *Scene) Observe(o FrameObserver) {
	s.observers = append(s.observers, o)
}

// Reset empties the grid and the occluders for the next chunk. The frame
// counter keeps running.
func (s *Scene) Reset() {
	s.Grid.Reset()
	s.Occluders.Reset()
}

// Stamp is the stamp of the last drawn frame.
func (s *Scene) Stamp() int32 { return s.stamp }

func (s *Scene) nextStamp() {
	if s.stamp == math.MaxInt32 {
		s.stamp = 0
		s.Occluders.ClearMemo()
		s.Grid.ClearFrameState()
	}
	s.stamp++
}

// Draw renders one frame from cam with planes above level cut away. The
// camera is clamped into the grid.
func (s *Scene) Draw(cam model.Camera, level int) (traverse.Stats, error) {
	if s.drawing {
		return traverse.Stats{}, ErrReentrantDraw
	}
	s.drawing = true
	defer func() { s.drawing = false }()

	g := s.Grid
	cam.X = mathx.Clamp(cam.X, 0, g.Width*grid.TileUnit-1)
	cam.Z = mathx.Clamp(cam.Z, 0, g.Length*grid.TileUnit-1)
	s.nextStamp()

	start := time.Now()
	view := model.View{
		PitchSin: s.trig.Sin(cam.Pitch),
		PitchCos: s.trig.Cos(cam.Pitch),
		YawSin:   s.trig.Sin(cam.Yaw),
		YawCos:   s.trig.Cos(cam.Yaw),
	}
	area := s.table.Area(cam.Pitch, cam.Yaw)
	s.Occluders.Update(level, cam, area, s.stamp)
	s.Floor.Begin(cam, view)
	st := s.trav.Run(traverse.Frame{
		Stamp:  s.stamp,
		Camera: cam,
		View:   view,
		Level:  level,
		Area:   area,
	})
	s.Floor.End()
	st.Occluders = s.Occluders.Active()
	elapsed := time.Since(start)

	for _, o := range s.observers {
		o.ObserveFrame(st, elapsed)
	}
	return st, nil
}

// RequestPick asks the next frame to resolve the floor tile under the
// mouse.
func (s *Scene) RequestPick(level, mouseX, mouseY int, walking bool) {
	s.Floor.RequestPick(level, mouseX, mouseY, walking)
}

// ApplyLighting bakes light into every mesh on the grid.
func (s *Scene) ApplyLighting(light lighting.Light) lighting.Stats {
	st := lighting.Apply(s.Grid, light)
	s.logger.Printf("lighting: %d meshes lit, %d shared vertices", st.Meshes, st.Shared)
	return st
}
