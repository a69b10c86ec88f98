// Package capture turns microphone audio into fixed-size PCM16 frames ready
// for the live transport.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/pkg/audio"
)

var (
	// ErrMicrophoneUnavailable wraps any failure to acquire the input device.
	ErrMicrophoneUnavailable = errors.New("microphone unavailable")
	// ErrNotAcquired is returned by Start before a successful Acquire.
	ErrNotAcquired = errors.New("microphone not acquired")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("capture pipeline closed")
)

// Microphone opens an input device.
type Microphone interface {
	Open(ctx context.Context, sampleRate, frameSize int) (InputStream, error)
}

// InputStream delivers device buffers of arbitrary length once started.
type InputStream interface {
	Start(onSamples func([]float32)) error
	// Close stops the device and releases it.
	Close() error
}

// Frame is one encoded capture frame.
type Frame struct {
	MimeType string
	Data     string
	Seq      uint64
}

// Pipeline owns the microphone for one session.
type Pipeline struct {
	logger    *zap.Logger
	mic       Microphone
	frameSize int
	recorder  audio.Recorder

	mu      sync.Mutex
	stream  InputStream
	sink    func(Frame)
	pending []float32
	seq     uint64
	started bool
	closed  bool
}

// NewPipeline returns a pipeline producing frames of frameSize samples at
// 16 kHz. frameSize must be a power of two.
func NewPipeline(logger *zap.Logger, mic Microphone, frameSize int, recorder audio.Recorder) (*Pipeline, error) {
	if frameSize <= 0 || frameSize&(frameSize-1) != 0 {
		return nil, fmt.Errorf("frame size %d is not a power of two", frameSize)
	}
	if recorder == nil {
		recorder = audio.NopRecorder()
	}

	return &Pipeline{
		logger:    logger.Named("capture"),
		mic:       mic,
		frameSize: frameSize,
		recorder:  recorder,
		pending:   make([]float32, 0, frameSize),
	}, nil
}

// Acquire opens the microphone. It may block on device permission.
func (p *Pipeline) Acquire(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.stream != nil {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	stream, err := p.mic.Open(ctx, audio.CaptureSampleRate, p.frameSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMicrophoneUnavailable, err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = stream.Close()
		return ErrClosed
	}
	p.stream = stream
	p.mu.Unlock()

	p.logger.Info("Microphone acquired",
		zap.Int("sample_rate", audio.CaptureSampleRate),
		zap.Int("frame_size", p.frameSize),
		zap.Duration("frame_duration", audio.FrameDuration(p.frameSize, audio.CaptureSampleRate)))

	return nil
}

// Start begins delivering frames to sink. sink is never called after Close
// returns.
func (p *Pipeline) Start(sink func(Frame)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.stream == nil {
		p.mu.Unlock()
		return ErrNotAcquired
	}
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.sink = sink
	stream := p.stream
	p.mu.Unlock()

	if err := stream.Start(p.onSamples); err != nil {
		return fmt.Errorf("start microphone: %w", err)
	}

	p.logger.Debug("Capture started")

	return nil
}

func (p *Pipeline) onSamples(in []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.sink == nil {
		return
	}

	for len(in) > 0 {
		n := min(p.frameSize-len(p.pending), len(in))
		p.pending = append(p.pending, in[:n]...)
		in = in[n:]
		if len(p.pending) < p.frameSize {
			return
		}
		p.emitLocked(p.pending)
		p.pending = p.pending[:0]
	}
}

func (p *Pipeline) emitLocked(samples []float32) {
	if err := p.recorder.Write(samples); err != nil {
		p.logger.Warn("Failed to record capture frame", zap.Error(err))
	}

	p.seq++
	p.sink(Frame{
		MimeType: audio.CaptureMimeType,
		Data:     audio.BufferToTransportText(audio.EncodePCM16(samples)),
		Seq:      p.seq,
	})
}

// Close stops frame delivery, then stops and releases the device. Safe to
// call on every path, including before Acquire.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.sink = nil
	stream := p.stream
	p.stream = nil
	p.mu.Unlock()

	var errs []error
	if stream != nil {
		if err := stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close microphone: %w", err))
		}
	}
	if err := p.recorder.Close(); err != nil {
		errs = append(errs, err)
	}

	p.logger.Debug("Capture closed")

	return errors.Join(errs...)
}
