// Package visibility precomputes which tile offsets around the camera can
// appear on screen for each sampled camera pitch and yaw.
package visibility

import "tilescene.ai/internal/scene/trig"

const (
	// Radius is the tile distance covered on each side of the camera.
	Radius = 25
	// Size is the edge length of one area mask.
	Size = 2*Radius + 1

	PitchMin  = 128
	PitchMax  = 384
	PitchStep = 32
	YawStep   = 64

	// PitchSamples counts sampled pitches; buckets interpolate between
	// neighbouring samples so there is one fewer bucket.
	PitchSamples = (PitchMax-PitchMin)/PitchStep + 1
	PitchBuckets = PitchSamples - 1
	YawBuckets   = trig.Units / YawStep

	// DefaultFocal is the projection scale used when Params.Focal is unset.
	DefaultFocal = 390

	near = 50
	far  = 3500
	// sample window is one tile wider than Radius so neighbours can be ORed.
	sampleRadius = Radius + 1
	sampleSize   = 2*sampleRadius + 1
)

// Params are the inputs the table is built from. Rebuild when they change.
type Params struct {
	// PitchHeights is the camera height above ground for each sampled pitch.
	PitchHeights [PitchSamples]int
	// MinHeight and MaxHeight bound the terrain relief below and above the
	// camera baseline.
	MinHeight int
	MaxHeight int
	Width     int
	Height    int
	// Focal must match the viewport the scene projects with.
	Focal int
}

func (p Params) withDefaults() Params {
	if p.Focal <= 0 {
		p.Focal = DefaultFocal
	}
	return p
}

// Area is the mask for one camera angle, indexed [dx+Radius][dz+Radius].
type Area [Size][Size]bool

// Visible reports whether the tile at offset (dx, dz) from the camera tile
// can be on screen.
func (a *Area) Visible(dx, dz int) bool {
	dx += Radius
	dz += Radius
	if dx < 0 || dx >= Size || dz < 0 || dz >= Size {
		return false
	}
	return a[dx][dz]
}

// Table is immutable once built.
type Table struct {
	params Params
	areas  [PitchBuckets][YawBuckets]Area
}

type sampleGrid [PitchSamples][YawBuckets][sampleSize][sampleSize]bool

type projector struct {
	pitchSin, pitchCos int
	yawSin, yawCos     int
	centerX, centerY   int
	width, height      int
	focal              int
}

// onScreen projects a camera-relative point and tests it against the
// viewport within the near and far planes.
func (p *projector) onScreen(x, y, z int) bool {
	rx := (x*p.yawCos + z*p.yawSin) >> 16
	rz := (z*p.yawCos - x*p.yawSin) >> 16
	depth := (rz*p.pitchCos + p.pitchSin*y) >> 16
	ry := (p.pitchCos*y - rz*p.pitchSin) >> 16
	if depth < near || depth > far {
		return false
	}
	sx := rx*p.focal/depth + p.centerX
	sy := ry*p.focal/depth + p.centerY
	return sx >= 0 && sx <= p.width && sy >= 0 && sy <= p.height
}

// Build samples every pitch and yaw, then widens each bucket by its 3x3
// tile neighbourhood and the next pitch and yaw sample so a camera between
// samples never loses a tile.
func Build(params Params, tab *trig.Table) *Table {
	params = params.withDefaults()
	samples := new(sampleGrid)
	proj := projector{
		centerX: params.Width / 2,
		centerY: params.Height / 2,
		width:   params.Width,
		height:  params.Height,
		focal:   params.Focal,
	}
	for pi := 0; pi < PitchSamples; pi++ {
		pitch := PitchMin + pi*PitchStep
		proj.pitchSin, proj.pitchCos = tab.Sin(pitch), tab.Cos(pitch)
		for yi := 0; yi < YawBuckets; yi++ {
			yaw := yi * YawStep
			proj.yawSin, proj.yawCos = tab.Sin(yaw), tab.Cos(yaw)
			s := &samples[pi][yi]
			for dx := -sampleRadius; dx <= sampleRadius; dx++ {
				for dz := -sampleRadius; dz <= sampleRadius; dz++ {
					x, z := dx*128, dz*128
					for h := -params.MinHeight; h <= params.MaxHeight; h += 128 {
						if proj.onScreen(x, params.PitchHeights[pi]+h, z) {
							s[dx+sampleRadius][dz+sampleRadius] = true
							break
						}
					}
				}
			}
		}
	}

	t := &Table{params: params}
	for pi := 0; pi < PitchBuckets; pi++ {
		for yi := 0; yi < YawBuckets; yi++ {
			next := (yi + 1) % YawBuckets
			a := &t.areas[pi][yi]
			for dx := -Radius; dx <= Radius; dx++ {
				for dz := -Radius; dz <= Radius; dz++ {
					a[dx+Radius][dz+Radius] = widened(samples, pi, yi, next, dx, dz)
				}
			}
			a[Radius][Radius] = true
		}
	}
	return t
}

func widened(s *sampleGrid, pi, yi, next, dx, dz int) bool {
	for ox := -1; ox <= 1; ox++ {
		for oz := -1; oz <= 1; oz++ {
			i := dx + ox + sampleRadius
			j := dz + oz + sampleRadius
			if s[pi][yi][i][j] || s[pi][next][i][j] || s[pi+1][yi][i][j] || s[pi+1][next][i][j] {
				return true
			}
		}
	}
	return false
}

// Area returns the mask for a camera angle. Pitch is clamped to the
// sampled range.
func (t *Table) Area(pitch, yaw int) *Area {
	pi := (pitch - PitchMin) / PitchStep
	if pi < 0 {
		pi = 0
	} else if pi >= PitchBuckets {
		pi = PitchBuckets - 1
	}
	return &t.areas[pi][(yaw&trig.Mask)/YawStep]
}

// Bucket is the raw mask at bucket indices, mainly for inspection.
func (t *Table) Bucket(pitchBucket, yawBucket int) *Area {
	return &t.areas[pitchBucket][yawBucket]
}

// Matches reports whether t was built from params.
func (t *Table) Matches(params Params) bool { return t.params == params.withDefaults() }

func (t *Table) Params() Params { return t.params }
