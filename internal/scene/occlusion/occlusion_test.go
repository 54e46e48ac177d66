package occlusion

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"tilescene.ai/internal/scene/model"
	"tilescene.ai/internal/scene/visibility"
)

type flat struct{}

func (flat) Height(plane, x, z int) int { return 0 }

func openArea() *visibility.Area {
	var a visibility.Area
	for i := range a {
		for j := range a[i] {
			a[i][j] = true
		}
	}
	return &a
}

// camera above tile (10, 5).
var cam = model.Camera{X: 10*128 + 64, Y: -600, Z: 5*128 + 64}

func TestSystem_NoActiveOccluders(t *testing.T) {
	s := New(4, 16, 16, 0, flat{}, nil)
	s.Update(0, cam, openArea(), 1)
	for level := 0; level < 4; level++ {
		for x := 0; x < 16; x++ {
			for z := 0; z < 16; z++ {
				if s.IsTileOccluded(level, x, z) {
					t.Fatalf("tile %d,%d,%d occluded without occluders", level, x, z)
				}
			}
		}
	}
	if s.IsAreaOccluded(0, 1, 3, 1, 3, 100) {
		t.Fatalf("area occluded without occluders")
	}
}

func TestSystem_XPlaneHidesFarSide(t *testing.T) {
	s := New(1, 16, 16, 0, flat{}, nil)
	if !s.Add(0, FacingX, 8*128, 8*128, 0, 10*128, -2000, 100) {
		t.Fatalf("add rejected")
	}
	s.Update(0, cam, openArea(), 1)
	if got, want := s.Active(), 1; got != want {
		t.Fatalf("active: got %d want %d", got, want)
	}
	if !s.IsTileOccluded(0, 5, 5) {
		t.Fatalf("tile behind the wall not occluded")
	}
	// memoized answer holds for the frame
	if !s.IsTileOccluded(0, 5, 5) {
		t.Fatalf("memoized answer changed")
	}
	if s.IsTileOccluded(0, 9, 5) {
		t.Fatalf("tile on the camera side occluded")
	}
	if !s.IsWallOccluded(0, 5, 5, 1) {
		t.Fatalf("west wall behind the occluder visible")
	}
	if !s.IsRaisedOccluded(0, 5, 5, 100) {
		t.Fatalf("raised content behind the occluder visible")
	}
	if !s.IsAreaOccluded(0, 4, 5, 5, 5, 50) {
		t.Fatalf("two tile footprint behind the occluder visible")
	}
	if s.IsAreaOccluded(0, 8, 9, 5, 5, 50) {
		t.Fatalf("footprint straddling the occluder hidden")
	}
}

func TestSystem_DeadZone(t *testing.T) {
	s := New(1, 16, 16, 0, flat{}, nil)
	s.Add(0, FacingX, cam.X-20, cam.X-20, 0, 10*128, -2000, 100)
	s.Add(0, FacingZ, 0, 10*128, cam.Z+30, cam.Z+30, -2000, 100)
	s.Update(0, cam, openArea(), 1)
	if s.Active() != 0 {
		t.Fatalf("occluders inside the dead zone activated: %d", s.Active())
	}
}

func TestSystem_CeilingBelowCamera(t *testing.T) {
	s := New(1, 16, 16, 0, flat{}, nil)
	s.Add(0, FacingCeiling, 0, 10*128, 0, 10*128, -100, -100)
	s.Update(0, cam, openArea(), 1)
	if !s.IsTileOccluded(0, 5, 5) {
		t.Fatalf("floor under the roof not occluded")
	}

	// a roof less than 128 units below the camera is ignored
	s.Reset()
	s.Add(0, FacingCeiling, 0, 10*128, 0, 10*128, -500, -500)
	s.Update(0, cam, openArea(), 2)
	if s.Active() != 0 {
		t.Fatalf("roof close to the camera activated")
	}
}

func TestSystem_HiddenAreaSkipsOccluder(t *testing.T) {
	s := New(1, 16, 16, 0, flat{}, nil)
	s.Add(0, FacingX, 8*128, 8*128, 0, 10*128, -2000, 100)
	var none visibility.Area
	s.Update(0, cam, &none, 1)
	if s.Active() != 0 {
		t.Fatalf("occluder outside the visible area activated")
	}
}

func TestSystem_CapacityLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	s := New(2, 4, 4, 2, flat{}, log.New(&buf, "", 0))
	for i := 0; i < 2; i++ {
		if !s.Add(1, FacingX, 0, 0, 0, 128, 0, 0) {
			t.Fatalf("add %d rejected", i)
		}
	}
	if s.Add(1, FacingX, 0, 0, 0, 128, 0, 0) || s.Add(1, FacingX, 0, 0, 0, 128, 0, 0) {
		t.Fatalf("add past capacity accepted")
	}
	if s.Add(5, FacingX, 0, 0, 0, 128, 0, 0) {
		t.Fatalf("add on missing level accepted")
	}
	if got, want := strings.Count(buf.String(), "exhausted"), 1; got != want {
		t.Fatalf("capacity log lines: got %d want %d", got, want)
	}
	if got, want := s.Count(1), 2; got != want {
		t.Fatalf("count: got %d want %d", got, want)
	}
	s.Reset()
	if s.Count(1) != 0 {
		t.Fatalf("Reset kept occluders")
	}
}
