package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"tilescene.ai/internal/trace"
	"tilescene.ai/internal/trace/index"
)

func writeTrace(t *testing.T, dir string, idx trace.FrameIndex) *trace.Writer {
	t.Helper()
	w, err := trace.Create(dir, "village")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	frames := []trace.Frame{
		{Frame: 1, Drawn: 20, DrawCalls: 3, Nanos: 100, Draws: []trace.Draw{{Name: "hut"}, {Name: "tree"}, {Name: "hut"}}},
		{Frame: 2, Drawn: 22, DrawCalls: 2, Failures: 1, Nanos: 300, Err: "boom", Draws: []trace.Draw{{Name: "hut"}}},
	}
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
		if idx != nil {
			idx.RecordFrame(w.Header().Run, f)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return w
}

func TestSummarize_CountsFrames(t *testing.T) {
	w := writeTrace(t, t.TempDir(), nil)
	s, err := summarize(w.Path())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Frames != 2 || s.Drawn != 42 || s.DrawCalls != 5 || s.Failures != 1 {
		t.Fatalf("summary: %+v", s)
	}
	var buf bytes.Buffer
	s.print(&buf, 1)
	out := buf.String()
	if !strings.Contains(out, "mean_ns=200") || !strings.Contains(out, "frame 2: boom") {
		t.Fatalf("output:\n%s", out)
	}
	if !strings.Contains(out, "hut") || strings.Contains(out, "tree") {
		t.Fatalf("top list:\n%s", out)
	}
}

func TestCrossCheck_Index(t *testing.T) {
	dir := t.TempDir()
	idx, err := index.OpenSQLite(filepath.Join(dir, "index.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()
	w := writeTrace(t, dir, idx)
	ctx := context.Background()
	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	s, err := summarize(w.Path())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if err := crossCheck(ctx, idx, s); err != nil {
		t.Fatalf("crossCheck: %v", err)
	}
	s.Frames++
	if err := crossCheck(ctx, idx, s); err == nil {
		t.Fatalf("expected frame count mismatch")
	}
}
