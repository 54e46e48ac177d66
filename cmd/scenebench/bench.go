package main

import (
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"tilescene.ai/internal/scene/grid"
	"tilescene.ai/internal/scene/model"
	"tilescene.ai/internal/scene/traverse"
)

// countRaster stands in for a real rasterizer and only counts triangles.
type countRaster struct {
	triangles int
}

func (r *countRaster) Gouraud(y1, y2, y3, x1, x2, x3, c1, c2, c3 int) { r.triangles++ }

func (r *countRaster) Textured(y1, y2, y3, x1, x2, x3, c1, c2, c3 int,
	tx1, tx2, tx3, ty1, ty2, ty3, tz1, tz2, tz3 int, texture int) {
	r.triangles++
}

func (r *countRaster) SetClip(bool) {}
func (r *countRaster) SetAlpha(int) {}

type greyTextures struct{}

func (greyTextures) AverageRGB(int) int { return 0x808080 }

// orbit circles the camera around the grid centre facing inward.
type orbit struct {
	base   model.Camera
	cx, cz int
	radius int
}

func newOrbit(base model.Camera, width, length, radiusTiles int) orbit {
	return orbit{
		base:   base,
		cx:     width * grid.TileUnit / 2,
		cz:     length * grid.TileUnit / 2,
		radius: radiusTiles * grid.TileUnit,
	}
}

func (o orbit) at(i, n int) model.Camera {
	if o.radius == 0 || n <= 0 {
		return o.base
	}
	yaw := (i * 2048 / n) & 2047
	a := float64(yaw) * 2 * math.Pi / 2048
	c := o.base
	c.Yaw = yaw
	c.X = o.cx - int(math.Round(math.Sin(a)*float64(o.radius)))
	c.Z = o.cz - int(math.Round(math.Cos(a)*float64(o.radius)))
	return c
}

type timings struct {
	mu        sync.Mutex
	seconds   []float64
	drawCalls int
	failures  int
}

func (t *timings) ObserveFrame(st traverse.Stats, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seconds = append(t.seconds, elapsed.Seconds())
	t.drawCalls += st.DrawCalls
	t.failures += st.Failures
}

type summary struct {
	Frames              int
	Mean, StdDev        time.Duration
	P50, P95, Max       time.Duration
	DrawCalls, Failures int
}

func (t *timings) summary() summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := summary{Frames: len(t.seconds), DrawCalls: t.drawCalls, Failures: t.failures}
	if len(t.seconds) == 0 {
		return s
	}
	sorted := append([]float64(nil), t.seconds...)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}
	s.Mean = seconds(mean)
	s.StdDev = seconds(std)
	s.P50 = seconds(stat.Quantile(0.5, stat.Empirical, sorted, nil))
	s.P95 = seconds(stat.Quantile(0.95, stat.Empirical, sorted, nil))
	s.Max = seconds(sorted[len(sorted)-1])
	return s
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second)).Round(time.Microsecond)
}
