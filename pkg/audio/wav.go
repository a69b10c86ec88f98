package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder receives a copy of the audio flowing through a pipeline.
type Recorder interface {
	Write(samples []float32) error
	Close() error
}

type nopRecorder struct{}

func (nopRecorder) Write([]float32) error { return nil }
func (nopRecorder) Close() error          { return nil }

// NopRecorder discards everything written to it.
func NopRecorder() Recorder { return nopRecorder{} }

// WAVRecorder writes mono 16-bit PCM into a WAV file.
type WAVRecorder struct {
	mu      sync.Mutex
	file    *os.File
	encoder *wav.Encoder
	format  *goaudio.Format
	closed  bool
}

// NewWAVRecorder creates the file at path and prepares a mono 16-bit encoder.
func NewWAVRecorder(path string, sampleRate int) (*WAVRecorder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}

	return &WAVRecorder{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, 8*bytesPerSample, Channels, 1),
		format:  &goaudio.Format{NumChannels: Channels, SampleRate: sampleRate},
	}, nil
}

// OpenSessionRecorder returns a WAV recorder named after the session
// inside dir, or a no-op recorder when dir is empty.
func OpenSessionRecorder(dir, prefix string, sampleRate int, startedAt time.Time) (Recorder, error) {
	if dir == "" {
		return NopRecorder(), nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("debug dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.wav", prefix, startedAt.Format("20060102_150405"))

	return NewWAVRecorder(filepath.Join(dir, name), sampleRate)
}

// Write appends samples to the file.
func (r *WAVRecorder) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}

	data := make([]int, len(samples))
	for i, v := range FloatToInt16(samples) {
		data[i] = int(v)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("wav recorder closed")
	}

	return r.encoder.Write(&goaudio.IntBuffer{
		Format:         r.format,
		Data:           data,
		SourceBitDepth: 16,
	})
}

// Close finalizes the WAV header and closes the file. Safe to call twice.
func (r *WAVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	encErr := r.encoder.Close()
	fileErr := r.file.Close()
	if encErr != nil {
		return fmt.Errorf("finalize wav: %w", encErr)
	}

	return fileErr
}
