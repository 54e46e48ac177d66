package traverse

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"tilescene.ai/internal/scene/grid"
	"tilescene.ai/internal/scene/model"
	"tilescene.ai/internal/scene/scenetest"
	"tilescene.ai/internal/scene/visibility"
)

type floorLog struct{ log *scenetest.Log }

func (f floorLog) DrawPaint(_ *grid.Paint, _, x, z int) {
	f.log.Draws = append(f.log.Draws, scenetest.Draw{Name: floorName(x, z)})
}

func (f floorLog) DrawModel(_ *grid.TileModel, x, z int) {
	f.log.Draws = append(f.log.Draws, scenetest.Draw{Name: floorName(x, z)})
}

func (floorLog) Picking(int) bool { return false }

func floorName(x, z int) string { return fmt.Sprintf("floor %d,%d", x, z) }

// hiddenTiles reports the listed tiles as occluded and nothing else.
type hiddenTiles map[[2]int]bool

func (h hiddenTiles) IsTileOccluded(_, x, z int) bool        { return h[[2]int{x, z}] }
func (hiddenTiles) IsWallOccluded(_, _, _, _ int) bool       { return false }
func (hiddenTiles) IsRaisedOccluded(_, _, _, _ int) bool     { return false }
func (hiddenTiles) IsAreaOccluded(_, _, _, _, _, _ int) bool { return false }

func openArea() *visibility.Area {
	var a visibility.Area
	for i := range a {
		for j := range a[i] {
			a[i][j] = true
		}
	}
	return &a
}

// camera over the centre of tile (4, 4) of an 8x8 single plane grid.
var cam = model.Camera{X: 4*128 + 64, Y: -500, Z: 4*128 + 64}

type fixture struct {
	grid *grid.Grid
	log  *scenetest.Log
	occ  hiddenTiles
	tr   *Traversal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g, err := grid.New(1, 8, 8, nil)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	for x := 0; x < 8; x++ {
		for z := 0; z < 8; z++ {
			g.AddPaint(0, x, z, &grid.Paint{SW: 1, SE: 1, NE: 1, NW: 1, Texture: -1})
		}
	}
	f := &fixture{grid: g, log: &scenetest.Log{}, occ: hiddenTiles{}}
	f.tr = New(g, f.occ, floorLog{f.log})
	return f
}

func (f *fixture) run(stamp int32) Stats {
	return f.tr.Run(Frame{Stamp: stamp, Camera: cam, Area: openArea()})
}

func (f *fixture) prop(name string) *scenetest.Prop {
	return scenetest.NewProp(f.log, name)
}

func TestRun_DrawsEveryTileOnce(t *testing.T) {
	f := newFixture(t)
	st := f.run(1)
	if got, want := st.Pending, 64; got != want {
		t.Fatalf("pending: got %d want %d", got, want)
	}
	if got, want := st.Drawn, 64; got != want {
		t.Fatalf("drawn: got %d want %d", got, want)
	}
	if !st.EarlyExit {
		t.Fatalf("frame did not end on the pending count")
	}
	for x := 0; x < 8; x++ {
		for z := 0; z < 8; z++ {
			if got := f.log.Count(floorName(x, z)); got != 1 {
				t.Fatalf("floor %d,%d drawn %d times", x, z, got)
			}
		}
	}

	// a second frame starts from fresh state
	f.log.Reset()
	if st := f.run(2); st.Drawn != 64 || len(f.log.Draws) != 64 {
		t.Fatalf("second frame: drawn %d, %d floor draws", st.Drawn, len(f.log.Draws))
	}
}

func TestRun_FarBeforeNear(t *testing.T) {
	f := newFixture(t)
	f.run(1)
	before := func(far, near [2]int) {
		t.Helper()
		i, j := f.log.Index(floorName(far[0], far[1])), f.log.Index(floorName(near[0], near[1]))
		if i < 0 || j < 0 || i > j {
			t.Fatalf("floor %v drawn at %d, after nearer %v at %d", far, i, near, j)
		}
	}
	before([2]int{0, 4}, [2]int{3, 4})
	before([2]int{7, 4}, [2]int{5, 4})
	before([2]int{4, 0}, [2]int{4, 3})
	before([2]int{4, 7}, [2]int{4, 5})
	before([2]int{0, 0}, [2]int{3, 3})
	before([2]int{7, 7}, [2]int{5, 5})
	if got, want := f.log.Names()[len(f.log.Draws)-1], floorName(4, 4); got != want {
		t.Fatalf("last floor: got %s want %s", got, want)
	}
}

func TestRun_MultiTileEntityOnce(t *testing.T) {
	f := newFixture(t)
	if _, ok := f.grid.AddLocation(0, 1, 1, 0, 2, 2, f.prop("boulder"), 0, model.NewTag(model.KindLocation, 9, 1, 1)); !ok {
		t.Fatalf("AddLocation rejected")
	}
	st := f.run(1)
	if got, want := f.log.Count("boulder"), 1; got != want {
		t.Fatalf("boulder draws: got %d want %d", got, want)
	}
	if got, want := st.Entities, 1; got != want {
		t.Fatalf("entities stat: got %d want %d", got, want)
	}
	b := f.log.Index("boulder")
	for _, c := range [][2]int{{1, 1}, {2, 1}, {1, 2}, {2, 2}} {
		if i := f.log.Index(floorName(c[0], c[1])); i > b {
			t.Fatalf("floor %v drawn after the boulder on it", c)
		}
	}
	// relative position of the centre (2, 2) corner
	d := f.log.Draws[b]
	if d.X != 2*128-cam.X || d.Z != 2*128-cam.Z || d.Y != -cam.Y {
		t.Fatalf("boulder drawn at %d,%d,%d", d.X, d.Y, d.Z)
	}
	if st.Drawn != 64 {
		t.Fatalf("drawn: got %d", st.Drawn)
	}
}

func TestRun_SpanningEntityHoldsNearerTiles(t *testing.T) {
	f := newFixture(t)
	if _, ok := f.grid.AddLocation(0, 1, 1, 0, 2, 2, f.prop("boulder"), 0, model.NewTag(model.KindLocation, 9, 1, 1)); !ok {
		t.Fatalf("AddLocation rejected")
	}
	f.run(1)
	b := f.log.Index("boulder")
	for _, c := range [][2]int{{1, 1}, {2, 1}, {1, 2}, {2, 2}} {
		if i := f.log.Index(floorName(c[0], c[1])); i < 0 || i > b {
			t.Fatalf("footprint floor %v drawn at %d, boulder at %d", c, i, b)
		}
	}
	// tiles just past the footprint toward the camera wait for the boulder
	for _, c := range [][2]int{{3, 1}, {3, 2}, {1, 3}, {2, 3}, {3, 3}} {
		if i := f.log.Index(floorName(c[0], c[1])); i < b {
			t.Fatalf("nearer floor %v drawn at %d before the boulder at %d", c, i, b)
		}
	}
}

func TestRun_DiagonalWallDrawnOnce(t *testing.T) {
	for _, face := range []int{grid.FaceSouthWest, grid.FaceNorthWest, grid.FaceSouthEast, grid.FaceNorthEast} {
		t.Run(fmt.Sprint(face), func(t *testing.T) {
			f := newFixture(t)
			// south west of the camera; a diagonal only ever draws its A face
			f.grid.AddWall(0, 2, 2, 0, f.prop("wall"), f.prop("back"), face, 0, model.NewTag(model.KindLocation, 1, 2, 2))
			f.run(1)
			if got, want := f.log.Count("wall"), 1; got != want {
				t.Fatalf("wall draws: got %d want %d", got, want)
			}
			if got := f.log.Count("back"); got != 0 {
				t.Fatalf("back face draws: got %d want 0", got)
			}
			if f.log.Index("wall") < f.log.Index(floorName(2, 2)) {
				t.Fatalf("wall drawn before its floor")
			}
		})
	}
}

func TestRun_DiagonalWallWaitsForEntityBehindIt(t *testing.T) {
	f := newFixture(t)
	// the fence spans (1,2)-(2,2) and lies on the west side of the wall
	f.grid.AddWall(0, 2, 2, 0, f.prop("wall"), nil, grid.FaceNorthWest, 0, model.NewTag(model.KindLocation, 1, 2, 2))
	if _, ok := f.grid.AddLocation(0, 1, 2, 0, 2, 1, f.prop("fence"), 0, model.NewTag(model.KindLocation, 2, 1, 2)); !ok {
		t.Fatalf("AddLocation rejected")
	}
	st := f.run(1)
	if f.log.Count("wall") != 1 || f.log.Count("fence") != 1 {
		t.Fatalf("draws: wall %d fence %d", f.log.Count("wall"), f.log.Count("fence"))
	}
	if w, e := f.log.Index("wall"), f.log.Index("fence"); w < e {
		t.Fatalf("wall drawn at %d before the fence behind it at %d", w, e)
	}
	if st.Drawn != st.Pending {
		t.Fatalf("drawn %d of %d", st.Drawn, st.Pending)
	}
}

func TestRun_InnerDecorationBothSides(t *testing.T) {
	for _, tc := range []struct {
		rotation    int
		first, last string
	}{
		{1, "outer", "inner"},
		{0, "inner", "outer"},
	} {
		t.Run(fmt.Sprint(tc.rotation), func(t *testing.T) {
			f := newFixture(t)
			f.grid.AddDecoration(0, 2, 2, 0, f.prop("outer"), f.prop("inner"), grid.FaceInner, tc.rotation, 16, 0, model.NewTag(model.KindLocation, 1, 2, 2))
			f.run(1)
			if f.log.Count("outer") != 1 || f.log.Count("inner") != 1 {
				t.Fatalf("draws: outer %d inner %d", f.log.Count("outer"), f.log.Count("inner"))
			}
			if i, j := f.log.Index(tc.first), f.log.Index(tc.last); i > j {
				t.Fatalf("%s drawn at %d after %s at %d", tc.first, i, tc.last, j)
			}
			// only the outer model carries the wall offset
			out, in := f.log.Draws[f.log.Index("outer")], f.log.Draws[f.log.Index("inner")]
			if got, want := out.X, 2*128+64+16-cam.X; got != want {
				t.Fatalf("outer x: got %d want %d", got, want)
			}
			if got, want := in.X, 2*128+64-cam.X; got != want {
				t.Fatalf("inner x: got %d want %d", got, want)
			}
		})
	}
}

func TestRun_StraightWallSplitsPasses(t *testing.T) {
	f := newFixture(t)
	// the near face of a corner wall west of the camera is drawn last
	f.grid.AddWall(0, 2, 4, 0, f.prop("west"), f.prop("east"), grid.FaceWest, grid.FaceEast, model.NewTag(model.KindLocation, 1, 2, 4))
	f.grid.AddLocation(0, 2, 4, 0, 1, 1, f.prop("crate"), 0, model.NewTag(model.KindLocation, 2, 2, 4))
	f.run(1)
	w, c, e := f.log.Index("west"), f.log.Index("crate"), f.log.Index("east")
	if w < 0 || c < 0 || e < 0 || !(w < c && c < e) {
		t.Fatalf("draw order west %d crate %d east %d", w, c, e)
	}
}

func TestRun_DistanceBreaksPriorityTie(t *testing.T) {
	f := newFixture(t)
	add := func(name string, worldX int) {
		t.Helper()
		_, ok := f.grid.AddEntityMarker(grid.Placement{
			Plane: 0, MinX: 1, MinZ: 4, SizeX: 1, SizeZ: 1,
			X: worldX, Z: 4*128 + 64,
			Renderable: f.prop(name),
		})
		if !ok {
			t.Fatalf("add %s rejected", name)
		}
	}
	add("near", 1*128+120)
	add("far", 1*128+10)
	add("first", 1*128+64)
	add("second", 1*128+64)
	f.run(1)
	if got, want := f.log.Names()[f.log.Index("far"):f.log.Index("far")+4], []string{"far", "first", "second", "near"}; strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("entity order: got %v want %v", got, want)
	}
}

func TestRun_FailingRenderableDoesNotStall(t *testing.T) {
	for _, tc := range []struct {
		mode string
		size int
	}{
		{"error", 1},
		{"panic", 1},
		{"error", 2},
		{"panic", 3},
	} {
		t.Run(fmt.Sprintf("%s/%dx%d", tc.mode, tc.size, tc.size), func(t *testing.T) {
			f := newFixture(t)
			bad := f.prop("bad")
			bad.Fail = tc.mode == "error"
			bad.Panic = tc.mode == "panic"
			if _, ok := f.grid.AddLocation(0, 1, 1, 0, tc.size, tc.size, bad, 0, model.NewTag(model.KindLocation, 1, 1, 1)); !ok {
				t.Fatalf("AddLocation rejected")
			}
			f.grid.AddLocation(0, 6, 6, 0, 1, 1, f.prop("good"), 0, model.NewTag(model.KindLocation, 2, 6, 6))
			st := f.run(1)
			if got, want := st.Failures, 1; got != want {
				t.Fatalf("failures: got %d want %d", got, want)
			}
			if st.Err == nil {
				t.Fatalf("first error not recorded")
			}
			if tc.mode == "error" && !errors.Is(st.Err, scenetest.ErrProp) {
				t.Fatalf("err: got %v", st.Err)
			}
			if tc.mode == "panic" && !strings.Contains(st.Err.Error(), "panic") {
				t.Fatalf("err: got %v", st.Err)
			}
			if st.Drawn != st.Pending || !st.EarlyExit {
				t.Fatalf("frame stalled: pending %d drawn %d early exit %v", st.Pending, st.Drawn, st.EarlyExit)
			}
			if f.log.Count("bad") != 1 || f.log.Count("good") != 1 {
				t.Fatalf("draws: bad %d good %d", f.log.Count("bad"), f.log.Count("good"))
			}
		})
	}
}

func TestRun_CulledTiles(t *testing.T) {
	f := newFixture(t)
	f.grid.SetPhysicalLevel(0, 6, 1, 1)
	f.occ[[2]int{1, 6}] = true
	st := f.run(1)
	if got, want := st.Pending, 62; got != want {
		t.Fatalf("pending: got %d want %d", got, want)
	}
	if f.log.Count(floorName(6, 1)) != 0 || f.log.Count(floorName(1, 6)) != 0 {
		t.Fatalf("culled floors drawn")
	}

	// upright content keeps an occluded tile in the frame
	f.log.Reset()
	f.grid.AddLocation(0, 1, 6, 0, 1, 1, f.prop("tree"), 0, model.NewTag(model.KindLocation, 3, 1, 6))
	st = f.run(2)
	if got, want := st.Pending, 63; got != want {
		t.Fatalf("pending with upright content: got %d want %d", got, want)
	}
	if f.log.Count("tree") != 1 || f.log.Count(floorName(1, 6)) != 0 {
		t.Fatalf("occluded tile: tree %d floor %d", f.log.Count("tree"), f.log.Count(floorName(1, 6)))
	}
}

func TestRun_HiddenAreaKeepsTallColumns(t *testing.T) {
	f := newFixture(t)
	var area visibility.Area
	area[visibility.Radius][visibility.Radius] = true
	for x := 0; x <= 8; x++ {
		for z := 0; z <= 8; z++ {
			f.grid.SetHeight(0, x, z, 1600)
		}
	}
	st := f.tr.Run(Frame{Stamp: 1, Camera: cam, Area: &area})
	if got, want := st.Pending, 64; got != want {
		t.Fatalf("deep floor: got %d pending want %d", got, want)
	}
	for x := 0; x <= 8; x++ {
		for z := 0; z <= 8; z++ {
			f.grid.SetHeight(0, x, z, 0)
		}
	}
	st = f.tr.Run(Frame{Stamp: 2, Camera: cam, Area: &area})
	if got, want := st.Pending, 1; got != want {
		t.Fatalf("off screen floor: got %d pending want %d", got, want)
	}
}

func TestRun_BridgeUnderlay(t *testing.T) {
	g, err := grid.New(2, 8, 8, nil)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	log := &scenetest.Log{}
	for x := 0; x < 8; x++ {
		for z := 0; z < 8; z++ {
			g.AddPaint(0, x, z, &grid.Paint{SW: 1, SE: 1, NE: 1, NW: 1, Texture: -1})
		}
	}
	g.AddWall(0, 3, 3, 0, scenetest.NewProp(log, "pier"), nil, grid.FaceWest, 0, model.NewTag(model.KindLocation, 1, 3, 3))
	g.AddPaint(1, 3, 3, &grid.Paint{SW: 2, SE: 2, NE: 2, NW: 2, Texture: -1})
	g.SetBridge(3, 3)

	st := New(g, hiddenTiles{}, floorLog{log}).Run(Frame{Stamp: 1, Camera: cam, Area: openArea()})
	if st.Drawn != 64 || st.Pending != 64 {
		t.Fatalf("pending %d drawn %d", st.Pending, st.Drawn)
	}
	var floors []int
	for i, d := range log.Draws {
		if d.Name == floorName(3, 3) {
			floors = append(floors, i)
		}
	}
	if len(floors) != 2 {
		t.Fatalf("bridged tile floors: got %d want 2", len(floors))
	}
	if p := log.Index("pier"); p < floors[0] || p > floors[1] {
		t.Fatalf("pier at %d not between ground %d and deck %d", p, floors[0], floors[1])
	}
}

func TestRun_ItemPileHeight(t *testing.T) {
	f := newFixture(t)
	f.grid.AddLocation(0, 2, 3, 0, 1, 1, f.prop("stool"), 0, model.NewTag(model.KindLocation, 1, 2, 3))
	f.grid.AddItemPile(0, 2, 3, 0, f.prop("coin"), nil, nil, model.NewTag(model.KindItem, 2, 2, 3))

	table := f.prop("table")
	table.Height = 80
	tag := model.NewTag(model.KindLocation, 3, 2, 5)
	tag.Raised = true
	f.grid.AddLocation(0, 2, 5, 0, 1, 1, table, 0, tag)
	f.grid.AddItemPile(0, 2, 5, 0, f.prop("cup"), nil, nil, model.NewTag(model.KindItem, 4, 2, 5))

	f.run(1)
	for _, tc := range []struct {
		item, under string
		before      bool
		y           int
	}{
		{"coin", "stool", true, -cam.Y},
		{"cup", "table", false, -80 - cam.Y},
	} {
		i, u := f.log.Index(tc.item), f.log.Index(tc.under)
		if i < 0 || u < 0 || (i < u) != tc.before {
			t.Fatalf("%s at %d, %s at %d", tc.item, i, tc.under, u)
		}
		if got := f.log.Draws[i].Y; got != tc.y {
			t.Fatalf("%s y: got %d want %d", tc.item, got, tc.y)
		}
	}
}

func TestRun_GroundNeedsUnderlay(t *testing.T) {
	for _, tc := range []struct {
		name  string
		setup func(f *fixture)
		drawn int
	}{
		{"floor", func(*fixture) {}, 1},
		{"occluded", func(f *fixture) { f.occ[[2]int{2, 3}] = true }, 0},
		{"missing", func(f *fixture) { f.grid.Tile(0, 2, 3).Paint = nil }, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.grid.AddGroundObject(0, 2, 3, 0, f.prop("rug"), model.NewTag(model.KindLocation, 1, 2, 3))
			f.grid.AddItemPile(0, 2, 3, 0, f.prop("coin"), nil, nil, model.NewTag(model.KindItem, 2, 2, 3))
			tc.setup(f)
			st := f.run(1)
			if got := f.log.Count("rug"); got != tc.drawn {
				t.Fatalf("rug draws: got %d want %d", got, tc.drawn)
			}
			if got := f.log.Count("coin"); got != tc.drawn {
				t.Fatalf("coin draws: got %d want %d", got, tc.drawn)
			}
			if st.Drawn != st.Pending || st.Pending != 64 {
				t.Fatalf("pending %d drawn %d", st.Pending, st.Drawn)
			}
		})
	}
}
