// Package trace records drawn frames as zstd compressed JSON lines, one
// header line followed by one line per frame.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int       `json:"version"`
	Run     string    `json:"run"`
	Started time.Time `json:"started"`
	Fixture string    `json:"fixture,omitempty"`
}

// Draw is one renderable submission.
type Draw struct {
	Name        string `json:"name"`
	Orientation int    `json:"orientation,omitempty"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Z           int    `json:"z"`
	Kind        string `json:"kind"`
	ID          int    `json:"id"`
	Faces       int    `json:"faces,omitempty"`
}

type Frame struct {
	Frame     int32  `json:"frame"`
	Pending   int    `json:"pending"`
	Drawn     int    `json:"drawn"`
	DrawCalls int    `json:"draw_calls"`
	Entities  int    `json:"entities"`
	Occluders int    `json:"occluders"`
	Failures  int    `json:"failures"`
	EarlyExit bool   `json:"early_exit"`
	Nanos     int64  `json:"nanos"`
	Err       string `json:"err,omitempty"`
	Draws     []Draw `json:"draws,omitempty"`
}

// Writer appends frames to dir/trace-<run>.jsonl.zst.
type Writer struct {
	header Header
	path   string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Create starts a new run with a fresh id and writes its header.
func Create(dir, fixture string) (*Writer, error) {
	h := Header{Version: Version, Run: uuid.NewString(), Started: time.Now().UTC(), Fixture: fixture}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("trace-%s.jsonl.zst", h.Run))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w := &Writer{header: h, path: path, f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}
	if err := w.write(h); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) Header() Header { return w.header }
func (w *Writer) Path() string   { return w.path }

func (w *Writer) WriteFrame(f Frame) error { return w.write(f) }

func (w *Writer) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return fmt.Errorf("trace: write after close")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err error
	if w.w != nil {
		err = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	return err
}
