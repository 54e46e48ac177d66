package floor

import "tilescene.ai/internal/scene/grid"

// shapeMasks marks, per overlay shape, which of the 16 minimap pixels of a
// tile show the overlay colour.
var shapeMasks = [13][16]uint8{
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	{1, 0, 0, 0, 1, 1, 0, 0, 1, 1, 1, 0, 1, 1, 1, 1},
	{1, 1, 0, 0, 1, 1, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
	{0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 0, 1, 0, 0, 0, 1},
	{0, 1, 1, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	{1, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1},
	{1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 1, 0, 0},
	{1, 1, 1, 1, 1, 1, 1, 1, 0, 1, 1, 1, 0, 0, 1, 1},
	{1, 1, 1, 1, 1, 1, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1},
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 0, 1, 1, 1, 1},
}

// shapeRotations maps pixel order for each quarter turn.
var shapeRotations = [4][16]uint8{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	{12, 8, 4, 0, 13, 9, 5, 1, 14, 10, 6, 2, 15, 11, 7, 3},
	{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
	{3, 7, 11, 15, 2, 6, 10, 14, 1, 5, 9, 13, 0, 4, 8, 12},
}

// DrawMinimapTile writes the 4x4 minimap block of one tile into pixels at
// offset, with stride pixels per row. Transparent overlay pixels keep what
// is already there when the tile has no underlay colour.
func DrawMinimapTile(g *grid.Grid, pixels []int, offset, stride, plane, x, z int) {
	t := g.Tile(plane, x, z)
	if t == nil {
		return
	}
	if t.Paint != nil {
		rgb := t.Paint.RGB
		if rgb == 0 {
			return
		}
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				pixels[offset+col] = rgb
			}
			offset += stride
		}
		return
	}
	m := t.Overlay
	if m == nil || m.Shape < 0 || m.Shape >= len(shapeMasks) {
		return
	}
	mask := &shapeMasks[m.Shape]
	rot := &shapeRotations[m.Rotation&3]
	i := 0
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			on := mask[rot[i]] != 0
			i++
			switch {
			case on:
				pixels[offset+col] = m.Overlay
			case m.Underlay != 0:
				pixels[offset+col] = m.Underlay
			}
		}
		offset += stride
	}
}
