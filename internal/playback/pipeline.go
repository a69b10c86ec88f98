package playback

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/pkg/audio"
)

// ErrPipelineClosed is returned when scheduling after Close.
var ErrPipelineClosed = errors.New("playback pipeline closed")

// Pipeline schedules chunks gaplessly on an Output. Each chunk starts at the
// later of the output clock and the end of the previous chunk.
type Pipeline struct {
	logger   *zap.Logger
	out      Output
	recorder audio.Recorder

	mu         sync.Mutex
	cursor     float64
	active     map[*chunk]struct{}
	onFinished func()
	closed     bool
}

type chunk struct {
	voice Voice
}

// NewPipeline wraps out. onFinished runs whenever the last active chunk ends
// naturally; it is called without any pipeline lock held.
func NewPipeline(logger *zap.Logger, out Output, recorder audio.Recorder, onFinished func()) *Pipeline {
	if recorder == nil {
		recorder = audio.NopRecorder()
	}

	return &Pipeline{
		logger:     logger.Named("playback"),
		out:        out,
		recorder:   recorder,
		active:     make(map[*chunk]struct{}),
		onFinished: onFinished,
	}
}

// ScheduleChunk queues buf right after everything already scheduled and
// returns its start time.
func (p *Pipeline) ScheduleChunk(buf *audio.Buffer) (float64, error) {
	if buf == nil {
		return 0, errors.New("nil buffer")
	}
	if buf.SampleRate != p.out.SampleRate() {
		return 0, fmt.Errorf("chunk rate %d does not match output rate %d", buf.SampleRate, p.out.SampleRate())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPipelineClosed
	}

	start := max(p.out.Now(), p.cursor)
	c := &chunk{}
	voice, err := p.out.Schedule(buf.Samples, start, func() { p.chunkEnded(c) })
	if err != nil {
		return 0, fmt.Errorf("schedule chunk: %w", err)
	}
	c.voice = voice
	p.active[c] = struct{}{}
	p.cursor = start + buf.Duration()

	if err := p.recorder.Write(buf.Samples); err != nil {
		p.logger.Warn("Failed to record playback chunk", zap.Error(err))
	}

	p.logger.Debug("Scheduled chunk",
		zap.Float64("start", start),
		zap.Float64("duration", buf.Duration()),
		zap.Int("active", len(p.active)))

	return start, nil
}

func (p *Pipeline) chunkEnded(c *chunk) {
	p.mu.Lock()
	if _, ok := p.active[c]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.active, c)
	finished := len(p.active) == 0
	cb := p.onFinished
	p.mu.Unlock()

	if finished && cb != nil {
		cb()
	}
}

// CancelAll stops every active chunk and resets the cursor to zero.
func (p *Pipeline) CancelAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cancelLocked()
}

func (p *Pipeline) cancelLocked() {
	for c := range p.active {
		if err := c.voice.Stop(); err != nil {
			p.logger.Debug("Stopping chunk failed", zap.Error(err))
		}
	}
	if n := len(p.active); n > 0 {
		p.logger.Debug("Cancelled active chunks", zap.Int("count", n))
	}
	clear(p.active)
	p.cursor = 0
}

// ActiveCount returns the number of chunks scheduled or playing.
func (p *Pipeline) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.active)
}

// Cursor returns the time the next chunk would start at, before clamping to
// the output clock.
func (p *Pipeline) Cursor() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cursor
}

// Close cancels all chunks and releases the output. Safe to call more than once.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.cancelLocked()
	p.mu.Unlock()

	// The output device may be mid-pull and waiting on chunkEnded.
	return errors.Join(p.out.Close(), p.recorder.Close())
}
