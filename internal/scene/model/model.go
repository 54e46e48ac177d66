package model

// View is the camera rotation handed to every draw call, in 16.16 fixed point.
type View struct {
	PitchSin int
	PitchCos int
	YawSin   int
	YawCos   int
}

// Renderable is anything the traversal can submit: static models, animated
// entities, sprites. The traversal never rasterizes geometry itself.
type Renderable interface {
	// ModelHeight is the upward extent used for raised occlusion tests and
	// item piles stacked on top.
	ModelHeight() int
	// Draw renders at the camera-relative position (relX, relY, relZ).
	Draw(orientation int, v View, relX, relY, relZ int, tag Tag) error
}

// Viewport describes the projection the rasterizer was configured with.
type Viewport struct {
	Focal   int
	CenterX int
	CenterY int
	ClipX   int
}

// Rasterizer is the triangle fill surface floor geometry is emitted to.
// Coordinates are screen space; the y arguments precede the x arguments.
type Rasterizer interface {
	Gouraud(y1, y2, y3, x1, x2, x3, c1, c2, c3 int)
	Textured(y1, y2, y3, x1, x2, x3, c1, c2, c3 int,
		tx1, tx2, tx3, ty1, ty2, ty3, tz1, tz2, tz3 int, texture int)
	SetClip(enabled bool)
	SetAlpha(alpha int)
}

// TextureSource resolves the averaged colour of a texture, used when
// textures are disabled in low memory mode.
type TextureSource interface {
	AverageRGB(texture int) int
}

// HiddenColor marks a floor colour that must not be filled.
const HiddenColor = 12345678

// Camera is the eye position in world units with its pitch and yaw in
// trig angle units.
type Camera struct {
	X, Y, Z int
	Pitch   int
	Yaw     int
}

// TileX is the tile column the camera stands on.
func (c Camera) TileX() int { return c.X >> 7 }

// TileZ is the tile row the camera stands on.
func (c Camera) TileZ() int { return c.Z >> 7 }
