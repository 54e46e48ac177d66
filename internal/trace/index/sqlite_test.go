package index

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"tilescene.ai/internal/trace"
)

func TestSQLiteIndex_FrameTotals(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	for i := int32(1); i <= 3; i++ {
		s.RecordFrame("run-a", trace.Frame{Frame: i, Drawn: 10, DrawCalls: 4, Entities: 2, Nanos: 1000})
	}
	s.RecordFrame("run-b", trace.Frame{Frame: 1, Drawn: 7, Failures: 1, Err: "boom"})

	ctx := context.Background()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	n, err := s.FrameCount(ctx, "run-a")
	if err != nil {
		t.Fatalf("FrameCount: %v", err)
	}
	if n != 3 {
		t.Fatalf("FrameCount=%d want=3", n)
	}
	tot, err := s.Totals(ctx, "run-a")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	want := Totals{Frames: 3, Drawn: 30, DrawCalls: 12, Entities: 6, Nanos: 3000}
	if tot != want {
		t.Fatalf("Totals=%+v want=%+v", tot, want)
	}
	b, err := s.Totals(ctx, "run-b")
	if err != nil || b.Failures != 1 {
		t.Fatalf("run-b totals=%+v err=%v", b, err)
	}
	runs, err := s.Runs(ctx)
	if err != nil || len(runs) != 2 || runs[0] != "run-a" {
		t.Fatalf("Runs=%v err=%v", runs, err)
	}
}

func TestSQLiteIndex_ReplacesFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "index.sqlite")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	s.RecordFrame("r", trace.Frame{Frame: 1, Drawn: 1})
	s.RecordFrame("r", trace.Frame{Frame: 1, Drawn: 5})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// recording after close is a no-op
	s.RecordFrame("r", trace.Frame{Frame: 2})

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	tot, err := s.Totals(context.Background(), "r")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if tot.Frames != 1 || tot.Drawn != 5 {
		t.Fatalf("Totals=%+v", tot)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan row, 1)}
	s.RecordFrame("r", trace.Frame{Frame: 1})
	s.RecordFrame("r", trace.Frame{Frame: 2})
	s.RecordFrame("r", trace.Frame{Frame: 3})

	st := s.Stats()
	if st.DropTotal != 2 {
		t.Fatalf("DropTotal=%d want=2", st.DropTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_RecordDuringClose(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := int32(1); i <= 200; i++ {
				s.RecordFrame(fmt.Sprintf("run-%d", w), trace.Frame{Frame: i})
			}
		}(w)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	wg.Wait()

	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush after Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
