package trace

import (
	"sync"
	"time"

	"tilescene.ai/internal/scene/model"
	"tilescene.ai/internal/scene/traverse"
)

type FrameWriter interface {
	WriteFrame(Frame) error
}

// FrameIndex stores per-frame statistics for a run.
type FrameIndex interface {
	RecordFrame(run string, f Frame)
}

// Recorder collects draws between frames and emits them with the frame
// statistics when the scene reports the frame done. It serves as the
// draw sink of fixture renderables and as a scene frame observer.
type Recorder struct {
	run   string
	out   FrameWriter
	index FrameIndex
	// Draws controls whether draw records are kept in each frame line.
	Draws bool

	mu      sync.Mutex
	pending []Draw
	frames  int
	err     error
}

func NewRecorder(run string, out FrameWriter, index FrameIndex) *Recorder {
	return &Recorder{run: run, out: out, index: index, Draws: true}
}

func (r *Recorder) Record(name string, orientation, x, y, z int, tag model.Tag, faces int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.Draws {
		return
	}
	r.pending = append(r.pending, Draw{
		Name:        name,
		Orientation: orientation,
		X:           x,
		Y:           y,
		Z:           z,
		Kind:        tag.Kind.String(),
		ID:          tag.ID,
		Faces:       faces,
	})
}

func (r *Recorder) ObserveFrame(st traverse.Stats, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := Frame{
		Frame:     st.Frame,
		Pending:   st.Pending,
		Drawn:     st.Drawn,
		DrawCalls: st.DrawCalls,
		Entities:  st.Entities,
		Occluders: st.Occluders,
		Failures:  st.Failures,
		EarlyExit: st.EarlyExit,
		Nanos:     elapsed.Nanoseconds(),
		Draws:     r.pending,
	}
	if st.Err != nil {
		f.Err = st.Err.Error()
	}
	r.pending = nil
	r.frames++
	if r.out != nil {
		if err := r.out.WriteFrame(f); err != nil && r.err == nil {
			r.err = err
		}
	}
	if r.index != nil {
		r.index.RecordFrame(r.run, f)
	}
}

// Frames is the number of frames observed.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Err is the first write error.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
