package capture_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/vitacare-voice/internal/capture"
	"github.com/Raikerian/vitacare-voice/pkg/audio"
)

type fakeStream struct {
	onSamples func([]float32)
	closed    int
	startErr  error
}

func (s *fakeStream) Start(fn func([]float32)) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.onSamples = fn
	return nil
}

func (s *fakeStream) Close() error {
	s.closed++
	return nil
}

func (s *fakeStream) push(samples []float32) {
	if s.onSamples != nil {
		s.onSamples(samples)
	}
}

type fakeMic struct {
	stream    *fakeStream
	err       error
	rate      int
	frameSize int
}

func (m *fakeMic) Open(_ context.Context, sampleRate, frameSize int) (capture.InputStream, error) {
	m.rate, m.frameSize = sampleRate, frameSize
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

func ramp(n int, step float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i%100) * step
	}
	return out
}

func TestNewPipeline_FrameSize(t *testing.T) {
	tests := map[string]struct {
		frameSize int
		wantErr   bool
	}{
		"default":        {frameSize: audio.DefaultFrameSize},
		"small":          {frameSize: 256},
		"not_power_of_2": {frameSize: 1000, wantErr: true},
		"zero":           {frameSize: 0, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := capture.NewPipeline(zaptest.NewLogger(t), &fakeMic{}, tt.frameSize, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPipeline_FramesDeviceBuffers(t *testing.T) {
	stream := &fakeStream{}
	mic := &fakeMic{stream: stream}
	p, err := capture.NewPipeline(zaptest.NewLogger(t), mic, 8, nil)
	require.NoError(t, err)

	require.NoError(t, p.Acquire(context.Background()))
	assert.Equal(t, audio.CaptureSampleRate, mic.rate)
	assert.Equal(t, 8, mic.frameSize)

	var frames []capture.Frame
	require.NoError(t, p.Start(func(f capture.Frame) { frames = append(frames, f) }))

	input := ramp(21, 0.01)
	stream.push(input[:5])
	assert.Empty(t, frames)
	stream.push(input[5:19])
	require.Len(t, frames, 2)
	stream.push(input[19:])
	require.Len(t, frames, 2)

	var got []float32
	for i, f := range frames {
		assert.Equal(t, "audio/pcm;rate=16000", f.MimeType)
		assert.Equal(t, uint64(i+1), f.Seq)
		buf, err := audio.DecodeTransportAudio(f.Data, audio.CaptureSampleRate)
		require.NoError(t, err)
		require.Equal(t, 8, buf.Len())
		got = append(got, buf.Samples...)
	}
	for i, s := range got {
		assert.InDelta(t, input[i], s, 2.0/32768, "sample %d", i)
	}
}

func TestPipeline_AcquireFailure(t *testing.T) {
	p, err := capture.NewPipeline(zaptest.NewLogger(t), &fakeMic{err: errors.New("permission denied")}, 8, nil)
	require.NoError(t, err)

	err = p.Acquire(context.Background())
	require.ErrorIs(t, err, capture.ErrMicrophoneUnavailable)
	assert.Contains(t, err.Error(), "permission denied")

	require.ErrorIs(t, p.Start(func(capture.Frame) {}), capture.ErrNotAcquired)
	require.NoError(t, p.Close())
}

func TestPipeline_StartFailure(t *testing.T) {
	stream := &fakeStream{startErr: errors.New("device busy")}
	p, err := capture.NewPipeline(zaptest.NewLogger(t), &fakeMic{stream: stream}, 8, nil)
	require.NoError(t, err)
	require.NoError(t, p.Acquire(context.Background()))

	require.Error(t, p.Start(func(capture.Frame) {}))
	require.NoError(t, p.Close())
	assert.Equal(t, 1, stream.closed)
}

func TestPipeline_CloseStopsDelivery(t *testing.T) {
	stream := &fakeStream{}
	p, err := capture.NewPipeline(zaptest.NewLogger(t), &fakeMic{stream: stream}, 4, nil)
	require.NoError(t, err)
	require.NoError(t, p.Acquire(context.Background()))

	delivered := 0
	require.NoError(t, p.Start(func(capture.Frame) { delivered++ }))
	stream.push(ramp(4, 0.1))
	require.Equal(t, 1, delivered)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, stream.closed)

	stream.push(ramp(8, 0.1))
	assert.Equal(t, 1, delivered)

	require.ErrorIs(t, p.Acquire(context.Background()), capture.ErrClosed)
	require.ErrorIs(t, p.Start(func(capture.Frame) {}), capture.ErrClosed)
}

func TestPipeline_CloseBeforeAcquire(t *testing.T) {
	p, err := capture.NewPipeline(zaptest.NewLogger(t), &fakeMic{}, 8, nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
