package grid

import "tilescene.ai/internal/scene/model"

// TileUnit is the world-space size of one tile.
const TileUnit = 128

// MaxEntitiesPerTile bounds the entity list of every tile.
const MaxEntitiesPerTile = 5

// Edge is a boundary bitmask: which sides of a tile an entity footprint
// continues across.
type Edge uint8

const (
	EdgeWest  Edge = 1 // footprint continues toward -X
	EdgeNorth Edge = 2 // toward +Z
	EdgeEast  Edge = 4 // toward +X
	EdgeSouth Edge = 8 // toward -Z
)

// Wall faces. Straight faces sit on a tile side, diagonal faces cut a corner.
const (
	FaceWest      = 1
	FaceNorth     = 2
	FaceEast      = 4
	FaceSouth     = 8
	FaceNorthWest = 16
	FaceNorthEast = 32
	FaceSouthEast = 64
	FaceSouthWest = 128
	// FaceInner marks a decoration drawn inside a diagonal wall.
	FaceInner = 256
)

// Paint is a flat coloured or textured floor quad.
type Paint struct {
	SW, SE, NE, NW int // HSL corner colours
	Texture        int // -1 for none
	RGB            int // minimap colour
	FlatShade      bool
}

// TileModel is shaped floor geometry supplied by the map loader.
type TileModel struct {
	VertexX, VertexY, VertexZ []int
	TriA, TriB, TriC          []int
	ColorA, ColorB, ColorC    []int
	// Textures is nil for an untextured model; -1 entries are untextured faces.
	Textures  []int
	FlatShade bool

	Shape, Rotation   int
	Underlay, Overlay int // minimap colours
}

type Wall struct {
	X, Z  int // world centre
	Floor int
	A, B  model.Renderable
	FaceA int
	FaceB int
	Tag   model.Tag
}

type Decoration struct {
	X, Z             int
	Floor            int
	A, B             model.Renderable
	Face             int
	Rotation         int
	OffsetX, OffsetZ int
	Tag              model.Tag
}

type GroundObject struct {
	X, Z       int
	Floor      int
	Renderable model.Renderable
	Tag        model.Tag
}

type ItemPile struct {
	X, Z                int
	Floor               int
	Bottom, Middle, Top model.Renderable
	// Height is the raise applied when a Raised entity shares the tile.
	Height int
	Tag    model.Tag
}

// GameObject is a dynamic or multi-tile entity.
type GameObject struct {
	Tag         model.Tag
	Plane       int
	X, Z        int // world centre
	Height      int
	Renderable  model.Renderable
	Orientation int
	Temporary   bool

	MinX, MinZ int
	MaxX, MaxZ int

	// DrawnFrame is the frame stamp of the last draw.
	DrawnFrame int32
	// DrawPriority is recomputed by the traversal each frame.
	DrawPriority int
}

// EdgesAt derives the boundary mask of the footprint cell (x, z).
func (o *GameObject) EdgesAt(x, z int) Edge {
	var e Edge
	if x > o.MinX {
		e |= EdgeWest
	}
	if x < o.MaxX {
		e |= EdgeEast
	}
	if z > o.MinZ {
		e |= EdgeSouth
	}
	if z < o.MaxZ {
		e |= EdgeNorth
	}
	return e
}

// State is the per-frame traversal state of a tile.
type State uint8

const (
	// StateHidden tiles are outside the view or culled for this frame.
	StateHidden State = iota
	// StatePending tiles have not drawn their base yet.
	StatePending
	// StatePartial tiles drew their base; entities or deferred walls remain.
	StatePartial
	// StateDrawn tiles are complete for this frame.
	StateDrawn
)

// FrameState is transient traversal bookkeeping reset every frame.
type FrameState struct {
	// Stamp is the frame the rest of the state belongs to. Tiles outside the
	// traversal window keep an older stamp and count as hidden.
	Stamp int32
	State State
	// DrawEntities is set while undrawn entities remain on the tile.
	DrawEntities bool

	WallCull         Edge
	WallUncull       Edge
	WallCullOpposite Edge
	// WallDrawFlags are the faces drawn when the tile completes.
	WallDrawFlags int
}

// Visible reports whether the tile still takes part in this frame.
func (f *FrameState) Visible() bool {
	return f.State == StatePending || f.State == StatePartial
}

type Tile struct {
	Plane, X, Z int
	// RenderLevel is the height plane the tile draws at; bridging keeps it.
	RenderLevel   int
	PhysicalLevel int

	Paint      *Paint
	Overlay    *TileModel
	Wall       *Wall
	Decoration *Decoration
	Ground     *GroundObject
	Items      *ItemPile

	Entities    [MaxEntitiesPerTile]*GameObject
	EntityEdges [MaxEntitiesPerTile]Edge
	EntityCount int
	// Edges is the OR of EntityEdges.
	Edges Edge

	// Bridge is the ground tile this column was lifted over.
	Bridge *Tile

	Frame FrameState

	prev, next *Tile
	queued     bool
}

func newTile(plane, x, z int) *Tile {
	return &Tile{Plane: plane, X: x, Z: z, RenderLevel: plane}
}

// HasUpright reports whether the tile carries content drawn above its floor.
func (t *Tile) HasUpright() bool {
	return t.Wall != nil || t.Decoration != nil || t.EntityCount > 0 || t.Items != nil || t.Bridge != nil
}
