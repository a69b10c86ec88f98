// Package device binds the capture and playback pipelines to the host's
// default audio hardware.
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/internal/capture"
	"github.com/Raikerian/vitacare-voice/pkg/audio"
)

// PortAudioMicrophone opens the default input device through PortAudio.
type PortAudioMicrophone struct {
	logger *zap.Logger
}

// NewPortAudioMicrophone returns a microphone backed by PortAudio.
func NewPortAudioMicrophone(logger *zap.Logger) *PortAudioMicrophone {
	return &PortAudioMicrophone{logger: logger.Named("microphone")}
}

// Open initializes PortAudio and opens a mono input stream in callback mode.
func (m *PortAudioMicrophone) Open(ctx context.Context, sampleRate, frameSize int) (capture.InputStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	in := &portAudioInput{logger: m.logger}
	stream, err := portaudio.OpenDefaultStream(audio.Channels, 0, float64(sampleRate), frameSize, in.process)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open default input: %w", err)
	}
	in.stream = stream

	m.logger.Info("Opened default input device",
		zap.Int("sample_rate", sampleRate),
		zap.Int("frames_per_buffer", frameSize))

	return in, nil
}

type portAudioInput struct {
	logger    *zap.Logger
	stream    *portaudio.Stream
	onSamples atomic.Pointer[func([]float32)]

	mu      sync.Mutex
	started bool
	closed  bool
}

// process runs on the PortAudio callback thread. buf is reused after it
// returns.
func (in *portAudioInput) process(buf []float32) {
	if fn := in.onSamples.Load(); fn != nil {
		(*fn)(buf)
	}
}

func (in *portAudioInput) Start(onSamples func([]float32)) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return errors.New("input stream closed")
	}
	if in.started {
		return nil
	}

	in.onSamples.Store(&onSamples)
	if err := in.stream.Start(); err != nil {
		in.onSamples.Store(nil)
		return err
	}
	in.started = true

	return nil
}

// Close stops the device before releasing the stream and PortAudio.
func (in *portAudioInput) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return nil
	}
	in.closed = true
	in.onSamples.Store(nil)

	var errs []error
	if in.started {
		if err := in.stream.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop input: %w", err))
		}
	}
	if err := in.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close input: %w", err))
	}
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, fmt.Errorf("terminate portaudio: %w", err))
	}

	in.logger.Debug("Released input device")

	return errors.Join(errs...)
}
