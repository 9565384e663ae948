package app

import (
	"context"
	"errors"
	"log"

	"mad-sand/internal/engine"
	"mad-sand/internal/observer"
	"mad-sand/internal/trace"
)

// Sinks are the optional presenters every frontend can attach next to its
// own display: the websocket observer and the trace recorder.
type Sinks struct {
	Hub      *observer.Hub
	Recorder *trace.Recorder
}

// OpenSinks starts the sinks enabled in c. The observer stops when ctx is
// cancelled.
func (c Config) OpenSinks(ctx context.Context, logger *log.Logger) (*Sinks, error) {
	s := &Sinks{}
	if c.Trace != "" {
		rec, err := trace.Create(c.Trace, c.Width, c.Height, c.Tile)
		if err != nil {
			return nil, err
		}
		s.Recorder = rec
		if logger != nil {
			logger.Printf("recording trace to %s", c.Trace)
		}
	}
	if c.Observe != "" {
		s.Hub = observer.NewHub(c.Width, c.Height, c.Tile, logger)
		go func() {
			if err := s.Hub.Serve(ctx, c.Observe); err != nil && logger != nil {
				logger.Printf("%v", err)
			}
		}()
	}
	return s, nil
}

// Presenter returns the enabled sinks as one presenter, or nil.
func (s *Sinks) Presenter() engine.Presenter {
	var ps []engine.Presenter
	if s.Hub != nil {
		ps = append(ps, s.Hub)
	}
	if s.Recorder != nil {
		ps = append(ps, s.Recorder)
	}
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	}
	return engine.Tee(ps...)
}

// Close flushes the trace. The observer is stopped by the context passed to
// OpenSinks.
func (s *Sinks) Close() error {
	var errs []error
	if s.Recorder != nil {
		errs = append(errs, s.Recorder.Close())
	}
	return errors.Join(errs...)
}
