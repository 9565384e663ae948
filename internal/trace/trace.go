// Package trace records the cell updates of a run as zstd-compressed JSON
// lines, one entry per presented tick, and reads them back.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"mad-sand/internal/render"
)

// Change is one cell update: grid index and packed 0xRRGGBBAA color.
type Change [2]uint32

// Entry is one presented tick.
type Entry struct {
	Tick    uint64        `json:"tick"`
	Cells   int           `json:"cells"`
	Regions []render.Rect `json:"regions,omitempty"`
	Changes []Change      `json:"changes,omitempty"`
}

// Recorder is an engine.Presenter that appends an Entry to a compressed
// JSONL file on every Present.
type Recorder struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer

	width, height int
	dirty         *render.Coalescer
	entry         Entry
	tick          uint64
	err           error
}

// Create opens path for writing, replacing any existing file. Regions are
// coalesced on a width x height canvas with the given tile size.
func Create(path string, width, height, tile int) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Recorder{
		f:      f,
		enc:    enc,
		w:      bufio.NewWriterSize(enc, 128*1024),
		width:  width,
		height: height,
		dirty:  render.NewCoalescer(width, height, tile),
	}, nil
}

func (r *Recorder) Queue(batch []render.Pixel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range batch {
		c := p.Color
		r.entry.Changes = append(r.entry.Changes, Change{
			uint32(p.Index),
			uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A),
		})
		x, y := p.Index%r.width, r.height-1-p.Index/r.width
		r.dirty.AddPixel(x, y)
	}
}

// Present writes the pending entry. Ticks with no changes are still recorded
// so entry numbers line up with engine ticks.
func (r *Recorder) Present() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.tick++
	r.entry.Tick = r.tick
	r.entry.Cells = len(r.entry.Changes)
	r.entry.Regions = r.dirty.Flush(r.entry.Regions[:0])

	b, err := json.Marshal(r.entry)
	r.entry.Changes = r.entry.Changes[:0]
	if err != nil {
		r.err = fmt.Errorf("trace: %w", err)
		return r.err
	}
	if _, err := r.w.Write(b); err != nil {
		r.err = fmt.Errorf("trace: %w", err)
		return r.err
	}
	if err := r.w.WriteByte('\n'); err != nil {
		r.err = fmt.Errorf("trace: %w", err)
	}
	return r.err
}

// Close flushes and closes the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.w != nil {
		err = r.w.Flush()
		r.w = nil
	}
	if r.enc != nil {
		if cerr := r.enc.Close(); err == nil {
			err = cerr
		}
		r.enc = nil
	}
	if r.f != nil {
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
		r.f = nil
	}
	return err
}

// Read decodes entries from a compressed stream and calls fn for each.
func Read(rd io.Reader, fn func(Entry) error) error {
	dec, err := zstd.NewReader(rd)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("trace line %d: %w", line, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadFile decodes every entry of a trace file.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []Entry
	err = Read(f, func(e Entry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}
