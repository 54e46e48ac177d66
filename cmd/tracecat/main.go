package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"tilescene.ai/internal/trace"
	"tilescene.ai/internal/trace/index"
)

func main() {
	var (
		tracePath = flag.String("trace", "", "path to trace-*.jsonl.zst")
		traceDir  = flag.String("dir", "", "summarize every trace in dir instead")
		indexDB   = flag.String("index", "", "frame index to cross-check against (optional)")
		top       = flag.Int("top", 5, "most drawn renderables to list")
	)
	flag.Parse()

	var files []string
	switch {
	case *tracePath != "":
		files = []string{*tracePath}
	case *traceDir != "":
		fs, err := trace.List(*traceDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list traces:", err)
			os.Exit(1)
		}
		files = fs
	default:
		fmt.Fprintln(os.Stderr, "missing -trace or -dir")
		os.Exit(2)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no trace files found in", *traceDir)
		os.Exit(1)
	}

	var idx *index.SQLiteIndex
	if p := strings.TrimSpace(*indexDB); p != "" {
		var err error
		idx, err = index.OpenSQLite(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open index:", err)
			os.Exit(1)
		}
		defer idx.Close()
	}

	failed := false
	for _, path := range files {
		sum, err := summarize(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read trace:", err)
			os.Exit(1)
		}
		sum.print(os.Stdout, *top)
		if idx == nil {
			continue
		}
		if err := crossCheck(context.Background(), idx, sum); err != nil {
			fmt.Fprintln(os.Stderr, "index:", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

type traceSummary struct {
	Header    trace.Header
	Frames    int
	Drawn     int
	DrawCalls int
	Entities  int
	Failures  int
	Nanos     int64
	Errors    []string
	Names     map[string]int
}

func summarize(path string) (traceSummary, error) {
	s := traceSummary{Names: map[string]int{}}
	h, err := trace.Read(path, func(f trace.Frame) error {
		s.Frames++
		s.Drawn += f.Drawn
		s.DrawCalls += f.DrawCalls
		s.Entities += f.Entities
		s.Failures += f.Failures
		s.Nanos += f.Nanos
		if f.Err != "" {
			s.Errors = append(s.Errors, fmt.Sprintf("frame %d: %s", f.Frame, f.Err))
		}
		for _, d := range f.Draws {
			s.Names[d.Name]++
		}
		return nil
	})
	s.Header = h
	return s, err
}

func (s traceSummary) print(w io.Writer, top int) {
	fmt.Fprintf(w, "trace v%d run=%s fixture=%s started=%s\n",
		s.Header.Version, s.Header.Run, s.Header.Fixture, s.Header.Started.Format("2006-01-02T15:04:05Z07:00"))
	var mean int64
	if s.Frames > 0 {
		mean = s.Nanos / int64(s.Frames)
	}
	fmt.Fprintf(w, "frames=%d drawn=%d draw_calls=%d entities=%d failures=%d mean_ns=%d\n",
		s.Frames, s.Drawn, s.DrawCalls, s.Entities, s.Failures, mean)
	for _, e := range s.Errors {
		fmt.Fprintln(w, "  error", e)
	}
	names := make([]string, 0, len(s.Names))
	for n := range s.Names {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.Names[names[i]] != s.Names[names[j]] {
			return s.Names[names[i]] > s.Names[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > top {
		names = names[:top]
	}
	for _, n := range names {
		fmt.Fprintf(w, "  %-16s %d\n", n, s.Names[n])
	}
}

func crossCheck(ctx context.Context, idx *index.SQLiteIndex, s traceSummary) error {
	t, err := idx.Totals(ctx, s.Header.Run)
	if err != nil {
		return err
	}
	if t.Frames != s.Frames {
		return fmt.Errorf("run %s: index has %d frames, trace has %d", s.Header.Run, t.Frames, s.Frames)
	}
	if t.Drawn != s.Drawn || t.DrawCalls != s.DrawCalls || t.Failures != s.Failures {
		return fmt.Errorf("run %s: totals mismatch: index drawn=%d calls=%d failures=%d, trace drawn=%d calls=%d failures=%d",
			s.Header.Run, t.Drawn, t.DrawCalls, t.Failures, s.Drawn, s.DrawCalls, s.Failures)
	}
	return nil
}
