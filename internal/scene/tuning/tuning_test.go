package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_RenderYAML(t *testing.T) {
	cfg, err := Load("../../../configs/render.yaml")
	if err != nil {
		t.Fatalf("load render.yaml: %v", err)
	}
	if cfg.Grid.Width != 104 || cfg.Grid.Planes != 4 {
		t.Fatalf("grid: got %+v", cfg.Grid)
	}
	if got, want := cfg.Visibility().PitchHeights[8], 800; got != want {
		t.Fatalf("last pitch height: got %d want %d", got, want)
	}
	sc := cfg.Scene(nil)
	if sc.Viewport.CenterX != 256 || sc.Viewport.ClipX != 512 || sc.OccluderCapacity != 500 {
		t.Fatalf("scene config: got %+v", sc.Viewport)
	}
}

func TestLoad_EmptyPathDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if got, want := cfg.Trace.IndexDB, "data/traces/index.sqlite"; got != want {
		t.Fatalf("index db: got %q want %q", got, want)
	}
}

func TestLoad_NormalizesShortPitchList(t *testing.T) {
	p := filepath.Join(t.TempDir(), "render.yaml")
	if err := os.WriteFile(p, []byte("camera:\n  pitch_heights: [300, 400]\noccluders:\n  capacity_per_level: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Camera.PitchHeights; len(got) != 9 || got[1] != 400 || got[8] != 400 {
		t.Fatalf("pitch heights: got %v", got)
	}
	if cfg.Occluders.CapacityPerLevel != 500 {
		t.Fatalf("capacity not defaulted: %d", cfg.Occluders.CapacityPerLevel)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"extents":  "grid:\n  width: -1\n",
		"viewport": "viewport:\n  height: 0\n",
		"pitches":  "camera:\n  pitch_heights: [1,2,3,4,5,6,7,8,9,10]\n",
		"syntax":   "grid: [\n",
	} {
		p := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		_, err := Load(p)
		if err == nil || !strings.HasPrefix(err.Error(), "render.yaml: ") {
			t.Fatalf("%s: got %v", name, err)
		}
	}
}

func TestVisibility_UsesViewportFocal(t *testing.T) {
	p := filepath.Join(t.TempDir(), "render.yaml")
	if err := os.WriteFile(p, []byte("viewport:\n  focal: 512\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sc := cfg.Scene(nil)
	if got, want := sc.Visibility.Focal, 512; got != want {
		t.Fatalf("visibility focal: got %d want %d", got, want)
	}
	if sc.Visibility.Focal != sc.Viewport.Focal {
		t.Fatalf("visibility focal %d disagrees with viewport focal %d", sc.Visibility.Focal, sc.Viewport.Focal)
	}
}
