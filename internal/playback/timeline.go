// Package playback schedules decoded assistant speech back to back on a
// shared output clock and cancels it on interruption.
package playback

import (
	"errors"
	"sync"

	"github.com/faiface/beep"
)

// ErrOutputClosed is returned when scheduling on a closed output.
var ErrOutputClosed = errors.New("playback output closed")

// Clock reports the output's current time in seconds.
type Clock interface {
	Now() float64
}

// Voice is one scheduled buffer on an Output.
type Voice interface {
	// Stop silences the voice. Its onEnded callback does not fire.
	Stop() error
}

// Output renders scheduled buffers against its own clock.
type Output interface {
	Clock
	SampleRate() int
	Schedule(samples []float32, at float64, onEnded func()) (Voice, error)
	Close() error
}

// Speaker opens an Output on a playback device.
type Speaker interface {
	Open(sampleRate int) (Output, error)
}

// Timeline is an Output whose clock advances as a device pulls samples
// through its beep.Streamer. Voices scheduled on it are mixed at their start
// time and removed once fully rendered.
type Timeline struct {
	mu     sync.Mutex
	rate   int
	pos    int64
	voices []*timelineVoice
	closed bool
}

var (
	_ Output        = (*Timeline)(nil)
	_ beep.Streamer = (*Timeline)(nil)
)

type timelineVoice struct {
	tl      *Timeline
	samples []float32
	start   int64
	onEnded func()
}

// NewTimeline returns an empty timeline at the given sample rate.
func NewTimeline(sampleRate int) *Timeline {
	return &Timeline{rate: sampleRate}
}

// SampleRate returns the rate the timeline renders at.
func (t *Timeline) SampleRate() int {
	return t.rate
}

// Now returns the number of rendered seconds.
func (t *Timeline) Now() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return float64(t.pos) / float64(t.rate)
}

// Schedule places samples at time at. A start in the past begins on the next
// rendered frame.
func (t *Timeline) Schedule(samples []float32, at float64, onEnded func()) (Voice, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrOutputClosed
	}

	start := int64(at*float64(t.rate) + 0.5)
	if start < t.pos {
		start = t.pos
	}

	v := &timelineVoice{tl: t, samples: samples, start: start, onEnded: onEnded}
	t.voices = append(t.voices, v)

	return v, nil
}

// Stream implements beep.Streamer. It always fills samples, rendering
// silence where nothing is scheduled.
func (t *Timeline) Stream(samples [][2]float64) (int, bool) {
	var ended []func()

	t.mu.Lock()
	from := t.pos
	to := from + int64(len(samples))
	for i := range samples {
		samples[i] = [2]float64{}
	}

	kept := t.voices[:0]
	for _, v := range t.voices {
		end := v.start + int64(len(v.samples))
		lo, hi := max(v.start, from), min(end, to)
		for p := lo; p < hi; p++ {
			s := float64(v.samples[p-v.start])
			samples[p-from][0] += s
			samples[p-from][1] += s
		}
		if end <= to {
			if v.onEnded != nil {
				ended = append(ended, v.onEnded)
			}
			continue
		}
		kept = append(kept, v)
	}
	clear(t.voices[len(kept):])
	t.voices = kept
	t.pos = to
	t.mu.Unlock()

	for _, fn := range ended {
		fn()
	}

	return len(samples), true
}

// Err implements beep.Streamer.
func (t *Timeline) Err() error {
	return nil
}

// Pending returns the number of voices not yet fully rendered.
func (t *Timeline) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.voices)
}

// Close drops every voice without firing callbacks and rejects new ones.
func (t *Timeline) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	clear(t.voices)
	t.voices = nil

	return nil
}

func (v *timelineVoice) Stop() error {
	t := v.tl
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, other := range t.voices {
		if other == v {
			t.voices = append(t.voices[:i], t.voices[i+1:]...)
			return nil
		}
	}

	return nil
}
