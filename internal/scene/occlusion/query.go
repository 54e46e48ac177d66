package occlusion

const (
	wallTop   = 120 // upper wall sample above the floor
	wallFull  = 230
	wallInner = 238
)

// IsOccluded tests one world point against the active occluders.
func (s *System) IsOccluded(x, y, z int) bool {
	for _, o := range s.active {
		var d, lo, hi, ylo, yhi, u, v int
		switch o.dir {
		case towardMinusX:
			d = o.MinX - x
		case towardPlusX:
			d = x - o.MinX
		case towardMinusZ:
			d = o.MinZ - z
		case towardPlusZ:
			d = z - o.MinZ
		case towardPlusY:
			d = y - o.MinY
		default:
			continue
		}
		if d <= 0 {
			continue
		}
		switch o.dir {
		case towardMinusX, towardPlusX:
			lo = (d*o.minSlopeZ)>>8 + o.MinZ
			hi = (d*o.maxSlopeZ)>>8 + o.MaxZ
			ylo = (d*o.minSlopeY)>>8 + o.MinY
			yhi = (d*o.maxSlopeY)>>8 + o.MaxY
			u, v = z, y
		case towardMinusZ, towardPlusZ:
			lo = (d*o.minSlopeX)>>8 + o.MinX
			hi = (d*o.maxSlopeX)>>8 + o.MaxX
			ylo = (d*o.minSlopeY)>>8 + o.MinY
			yhi = (d*o.maxSlopeY)>>8 + o.MaxY
			u, v = x, y
		case towardPlusY:
			lo = (d*o.minSlopeX)>>8 + o.MinX
			hi = (d*o.maxSlopeX)>>8 + o.MaxX
			ylo = (d*o.minSlopeZ)>>8 + o.MinZ
			yhi = (d*o.maxSlopeZ)>>8 + o.MaxZ
			u, v = x, z
		}
		if u >= lo && u <= hi && v >= ylo && v <= yhi {
			return true
		}
	}
	return false
}

func (s *System) memoIndex(level, x, z int) int {
	return (level*(s.width+1)+x)*(s.length+1) + z
}

func (s *System) inTiles(level, x, z int) bool {
	return level >= 0 && level < s.levels && x >= 0 && x < s.width && z >= 0 && z < s.length
}

// IsTileOccluded reports whether all four floor corners of a tile are
// hidden. Results are memoized for the current frame.
func (s *System) IsTileOccluded(level, x, z int) bool {
	if len(s.active) == 0 || !s.inTiles(level, x, z) {
		return false
	}
	i := s.memoIndex(level, x, z)
	switch s.memo[i] {
	case s.frame:
		return true
	case -s.frame:
		return false
	}
	if s.cornersOccluded(level, x, z, 0) {
		s.memo[i] = s.frame
		return true
	}
	s.memo[i] = -s.frame
	return false
}

// cornersOccluded samples the four corners inset by one unit, raised by
// height above the floor.
func (s *System) cornersOccluded(level, x, z, height int) bool {
	wx, wz := x<<7, z<<7
	h := s.heights
	return s.IsOccluded(wx+1, h.Height(level, x, z)-height, wz+1) &&
		s.IsOccluded(wx+127, h.Height(level, x+1, z)-height, wz+1) &&
		s.IsOccluded(wx+127, h.Height(level, x+1, z+1)-height, wz+127) &&
		s.IsOccluded(wx+1, h.Height(level, x, z+1)-height, wz+127)
}

// IsRaisedOccluded tests a tile with content reaching height above its floor.
func (s *System) IsRaisedOccluded(level, x, z, height int) bool {
	if !s.IsTileOccluded(level, x, z) {
		return false
	}
	return s.cornersOccluded(level, x, z, height)
}

// IsWallOccluded tests the samples of one wall face.
func (s *System) IsWallOccluded(level, x, z, face int) bool {
	if !s.IsTileOccluded(level, x, z) {
		return false
	}
	wx, wz := x<<7, z<<7
	floor := s.heights.Height(level, x, z) - 1
	top := floor - wallTop
	full := floor - wallFull
	inner := floor - wallInner

	// pair tests two points of a straight face at one height.
	pair := func(x1, z1, x2, z2, y int) bool {
		return s.IsOccluded(x1, y, z1) && s.IsOccluded(x2, y, z2)
	}
	straight := func(x1, z1, x2, z2 int, facingCamera bool) bool {
		if facingCamera && !pair(x1, z1, x2, z2, floor) {
			return false
		}
		if level > 0 && !pair(x1, z1, x2, z2, top) {
			return false
		}
		return pair(x1, z1, x2, z2, full)
	}

	switch face {
	case 1:
		return straight(wx, wz, wx, wz+128, wx > s.cam.X)
	case 2:
		return straight(wx, wz+128, wx+128, wz+128, wz < s.cam.Z)
	case 4:
		return straight(wx+128, wz, wx+128, wz+128, wx < s.cam.X)
	case 8:
		return straight(wx, wz, wx+128, wz, wz > s.cam.Z)
	}
	if !s.IsOccluded(wx+64, inner, wz+64) {
		return false
	}
	switch face {
	case 16:
		return s.IsOccluded(wx, full, wz+128)
	case 32:
		return s.IsOccluded(wx+128, full, wz+128)
	case 64:
		return s.IsOccluded(wx+128, full, wz)
	case 128:
		return s.IsOccluded(wx, full, wz)
	}
	return true
}

// IsAreaOccluded tests an entity footprint of tiles [minX,maxX]x[minZ,maxZ]
// with content reaching height above the floor.
func (s *System) IsAreaOccluded(level, minX, maxX, minZ, maxZ, height int) bool {
	if minX == maxX && minZ == maxZ {
		return s.IsRaisedOccluded(level, minX, minZ, height)
	}
	if len(s.active) == 0 {
		return false
	}
	for x := minX; x <= maxX; x++ {
		for z := minZ; z <= maxZ; z++ {
			if s.inTiles(level, x, z) && s.memo[s.memoIndex(level, x, z)] == -s.frame {
				return false
			}
		}
	}
	y := s.heights.Height(level, minX, minZ) - height
	x1, z1 := minX<<7+1, minZ<<7+1
	x2, z2 := (maxX+1)<<7-1, (maxZ+1)<<7-1
	return s.IsOccluded(x1, y, z1) &&
		s.IsOccluded(x2, y, z1) &&
		s.IsOccluded(x1, y, z2) &&
		s.IsOccluded(x2, y, z2)
}
