// Package occlusion culls scene content hidden behind large opaque
// volumes (walls and roofs) registered by the map loader.
package occlusion

import (
	"io"
	"log"

	"tilescene.ai/internal/scene/mathx"
	"tilescene.ai/internal/scene/model"
	"tilescene.ai/internal/scene/visibility"
)

// Facing is the plane an occluder lies in.
type Facing uint8

const (
	// FacingX is a vertical plane at constant X.
	FacingX Facing = 1
	// FacingZ is a vertical plane at constant Z.
	FacingZ Facing = 2
	// FacingCeiling is a horizontal plane, such as a roof, seen from above.
	FacingCeiling Facing = 4
)

// DefaultCapacity is the occluder budget per level.
const DefaultCapacity = 500

const (
	deadZone      = 32
	ceilingMargin = 128
)

type direction uint8

const (
	// hidden points lie past the plane on the side away from the camera
	towardMinusX direction = iota + 1
	towardPlusX
	towardMinusZ
	towardPlusZ
	towardPlusY
)

// Occluder is a registered opaque rectangle.
type Occluder struct {
	Facing                 Facing
	MinX, MaxX, MinZ, MaxZ int
	MinY, MaxY             int

	minTileX, maxTileX int
	minTileZ, maxTileZ int

	dir direction
	// slopes, ((bound - camera) << 8) / distance
	minSlopeX, maxSlopeX int
	minSlopeZ, maxSlopeZ int
	minSlopeY, maxSlopeY int
}

// Heights is the corner height field the tile tests sample.
type Heights interface {
	Height(plane, x, z int) int
}

// System holds the occluders of every level and the per-frame active set.
type System struct {
	heights  Heights
	levels   int
	width    int
	length   int
	capacity int

	occluders [][]Occluder
	exhausted []bool
	active    []*Occluder

	cam   model.Camera
	frame int32
	// memo is the signed frame stamp per (level, x, z) corner cell.
	memo []int32

	logger *log.Logger
}

// New creates a system for a grid of levels x (width x length) tiles.
// capacity <= 0 selects DefaultCapacity; a nil logger discards.
func New(levels, width, length, capacity int, heights Heights, logger *log.Logger) *System {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &System{
		heights:   heights,
		levels:    levels,
		width:     width,
		length:    length,
		capacity:  capacity,
		occluders: make([][]Occluder, levels),
		exhausted: make([]bool, levels),
		active:    make([]*Occluder, 0, capacity),
		memo:      make([]int32, levels*(width+1)*(length+1)),
		logger:    logger,
	}
	for i := range s.occluders {
		s.occluders[i] = make([]Occluder, 0, capacity)
	}
	return s
}

// Add registers an occluder on a level. It returns false when the level is
// full or out of range.
func (s *System) Add(level int, facing Facing, minX, maxX, minZ, maxZ, minY, maxY int) bool {
	if level < 0 || level >= s.levels {
		return false
	}
	if len(s.occluders[level]) >= s.capacity {
		if !s.exhausted[level] {
			s.exhausted[level] = true
			s.logger.Printf("occluder capacity %d exhausted on level %d", s.capacity, level)
		}
		return false
	}
	s.occluders[level] = append(s.occluders[level], Occluder{
		Facing:   facing,
		MinX:     minX,
		MaxX:     maxX,
		MinZ:     minZ,
		MaxZ:     maxZ,
		MinY:     minY,
		MaxY:     maxY,
		minTileX: minX / 128,
		maxTileX: maxX / 128,
		minTileZ: minZ / 128,
		maxTileZ: maxZ / 128,
	})
	return true
}

// Count is the number of occluders registered on a level.
func (s *System) Count(level int) int {
	if level < 0 || level >= s.levels {
		return 0
	}
	return len(s.occluders[level])
}

// Active is the number of occluders selected by the last Update.
func (s *System) Active() int { return len(s.active) }

// Reset drops every occluder and the memo.
func (s *System) Reset() {
	for i := range s.occluders {
		s.occluders[i] = s.occluders[i][:0]
		s.exhausted[i] = false
	}
	s.active = s.active[:0]
	s.ClearMemo()
}

// ClearMemo forgets every memoized tile result.
func (s *System) ClearMemo() {
	for i := range s.memo {
		s.memo[i] = 0
	}
}

// Update selects the occluders of level that face the camera and touch the
// visible area, and derives their projection slopes. frame must differ from
// every earlier frame passed since the last ClearMemo.
func (s *System) Update(level int, cam model.Camera, area *visibility.Area, frame int32) {
	s.cam = cam
	s.frame = frame
	s.active = s.active[:0]
	if level < 0 || level >= s.levels {
		return
	}
	cx, cz := cam.TileX(), cam.TileZ()
	for i := range s.occluders[level] {
		o := &s.occluders[level][i]
		switch o.Facing {
		case FacingX:
			if !columnVisible(area, o.minTileX-cx, o.minTileZ-cz, o.maxTileZ-cz) {
				continue
			}
			d := cam.X - o.MinX
			if d > deadZone {
				o.dir = towardMinusX
			} else if d < -deadZone {
				o.dir = towardPlusX
				d = -d
			} else {
				continue
			}
			o.minSlopeZ = ((o.MinZ - cam.Z) << 8) / d
			o.maxSlopeZ = ((o.MaxZ - cam.Z) << 8) / d
			o.minSlopeY = ((o.MinY - cam.Y) << 8) / d
			o.maxSlopeY = ((o.MaxY - cam.Y) << 8) / d
		case FacingZ:
			if !rowVisible(area, o.minTileZ-cz, o.minTileX-cx, o.maxTileX-cx) {
				continue
			}
			d := cam.Z - o.MinZ
			if d > deadZone {
				o.dir = towardMinusZ
			} else if d < -deadZone {
				o.dir = towardPlusZ
				d = -d
			} else {
				continue
			}
			o.minSlopeX = ((o.MinX - cam.X) << 8) / d
			o.maxSlopeX = ((o.MaxX - cam.X) << 8) / d
			o.minSlopeY = ((o.MinY - cam.Y) << 8) / d
			o.maxSlopeY = ((o.MaxY - cam.Y) << 8) / d
		case FacingCeiling:
			d := o.MinY - cam.Y
			if d <= ceilingMargin {
				continue
			}
			if !rectVisible(area, o.minTileX-cx, o.maxTileX-cx, o.minTileZ-cz, o.maxTileZ-cz) {
				continue
			}
			o.dir = towardPlusY
			o.minSlopeX = ((o.MinX - cam.X) << 8) / d
			o.maxSlopeX = ((o.MaxX - cam.X) << 8) / d
			o.minSlopeZ = ((o.MinZ - cam.Z) << 8) / d
			o.maxSlopeZ = ((o.MaxZ - cam.Z) << 8) / d
		default:
			continue
		}
		s.active = append(s.active, o)
	}
}

func clampRange(lo, hi int) (int, int) {
	return mathx.MaxInt(lo, -visibility.Radius), mathx.MinInt(hi, visibility.Radius)
}

func columnVisible(area *visibility.Area, dx, minDz, maxDz int) bool {
	if dx < -visibility.Radius || dx > visibility.Radius {
		return false
	}
	minDz, maxDz = clampRange(minDz, maxDz)
	for dz := minDz; dz <= maxDz; dz++ {
		if area.Visible(dx, dz) {
			return true
		}
	}
	return false
}

func rowVisible(area *visibility.Area, dz, minDx, maxDx int) bool {
	if dz < -visibility.Radius || dz > visibility.Radius {
		return false
	}
	minDx, maxDx = clampRange(minDx, maxDx)
	for dx := minDx; dx <= maxDx; dx++ {
		if area.Visible(dx, dz) {
			return true
		}
	}
	return false
}

func rectVisible(area *visibility.Area, minDx, maxDx, minDz, maxDz int) bool {
	minDx, maxDx = clampRange(minDx, maxDx)
	minDz, maxDz = clampRange(minDz, maxDz)
	for dx := minDx; dx <= maxDx; dx++ {
		for dz := minDz; dz <= maxDz; dz++ {
			if area.Visible(dx, dz) {
				return true
			}
		}
	}
	return false
}
