package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrStop ends Read early without an error.
var ErrStop = errors.New("trace: stop")

// Read streams the frames of a trace file to fn and returns its header.
func Read(path string, fn func(Frame) error) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return h, err
		}
		return h, fmt.Errorf("%s: empty trace", filepath.Base(path))
	}
	if err := json.Unmarshal(sc.Bytes(), &h); err != nil {
		return h, fmt.Errorf("%s: header: %w", filepath.Base(path), err)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%s: unsupported trace version %d", filepath.Base(path), h.Version)
	}
	line := 1
	for sc.Scan() {
		line++
		var fr Frame
		if err := json.Unmarshal(sc.Bytes(), &fr); err != nil {
			return h, fmt.Errorf("%s:%d: unmarshal: %w", filepath.Base(path), line, err)
		}
		if err := fn(fr); err != nil {
			if errors.Is(err, ErrStop) {
				return h, nil
			}
			return h, err
		}
	}
	return h, sc.Err()
}

// List returns the trace files in dir sorted by name.
func List(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "trace-") && strings.HasSuffix(name, ".jsonl.zst") {
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}
