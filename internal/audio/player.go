package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"mad-sand/internal/engine"
)

const sampleRate = beep.SampleRate(44100)

// Player plays the activity hiss on the default output device.
type Player struct {
	mu       sync.Mutex
	mixer    *beep.Mixer
	ctrl     *beep.Ctrl
	activity *Activity
	scale    float64
	started  bool
}

// NewPlayer prepares a player. scale is the number of moved grains that
// reaches about two thirds of full loudness.
func NewPlayer(volume, scale float64) *Player {
	act := NewActivity(sampleRate, 1)
	return &Player{
		mixer:    &beep.Mixer{},
		ctrl:     &beep.Ctrl{Streamer: newVolume(act, volume)},
		activity: act,
		scale:    scale,
	}
}

// Start opens the speaker and begins playback.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	p.mixer.Add(p.ctrl)
	speaker.Play(p.mixer)
	p.started = true
	return nil
}

// Observe updates the loudness from one tick's stats.
func (p *Player) Observe(s engine.Stats) {
	p.activity.Set(LevelFor(s.Moved, p.scale))
}

// SetPaused mutes or resumes the hiss.
func (p *Player) SetPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		p.ctrl.Paused = paused
		return
	}
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
}

// Close stops playback and releases the device.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	speaker.Clear()
	speaker.Close()
	p.started = false
}

// math.Log2(0) is -Inf, so zero volume is handled as silence.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
