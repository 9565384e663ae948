package engine

import (
	"errors"

	"mad-sand/internal/render"
)

// Presenter receives changed cells after each tick and shows them.
type Presenter interface {
	// Queue records a batch of changed cells. The slice is reused after the
	// call returns.
	Queue(batch []render.Pixel)
	// Present flushes everything queued since the last call.
	Present() error
}

// Tee fans out to several presenters. Nil entries are skipped.
func Tee(ps ...Presenter) Presenter {
	out := make(tee, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

type tee []Presenter

func (t tee) Queue(batch []render.Pixel) {
	for _, p := range t {
		p.Queue(batch)
	}
}

func (t tee) Present() error {
	var errs []error
	for _, p := range t {
		if err := p.Present(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FramePresenter writes queued cells into a render.Frame and hands the
// coalesced regions to a callback on Present.
type FramePresenter struct {
	Frame *render.Frame
	// Upload is called with the regions that changed since the last Present.
	Upload func(f *render.Frame, regions []render.Rect) error

	regions []render.Rect
	last    []render.Rect
}

// NewFramePresenter wraps f. upload may be nil.
func NewFramePresenter(f *render.Frame, upload func(*render.Frame, []render.Rect) error) *FramePresenter {
	return &FramePresenter{Frame: f, Upload: upload}
}

func (p *FramePresenter) Queue(batch []render.Pixel) { p.Frame.Apply(batch) }

func (p *FramePresenter) Present() error {
	p.regions = p.Frame.Flush(p.regions[:0])
	p.last = append(p.last[:0], p.regions...)
	if p.Upload == nil || len(p.regions) == 0 {
		return nil
	}
	return p.Upload(p.Frame, p.regions)
}

// LastRegions returns the regions reported by the most recent Present.
func (p *FramePresenter) LastRegions() []render.Rect { return p.last }
