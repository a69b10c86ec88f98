package audio_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/vitacare-voice/pkg/audio"
)

const quantizationStep = 1.0 / 32768.0

func TestEncodePCM16_Scaling(t *testing.T) {
	tests := map[string]struct {
		input float32
		want  int16
	}{
		"zero":              {input: 0, want: 0},
		"full_scale_pos":    {input: 1, want: 0x7FFF},
		"full_scale_neg":    {input: -1, want: -0x8000},
		"clamped_above":     {input: 1.7, want: 0x7FFF},
		"clamped_below":     {input: -3, want: -0x8000},
		"half_negative":     {input: -0.5, want: -0x4000},
		"half_positive":     {input: 0.5, want: 16383},
		"nan_is_silence":    {input: float32(math.NaN()), want: 0},
		"tiny_positive":     {input: 1e-6, want: 0},
		"tiny_negative_neg": {input: -1e-4, want: -3},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			pcm := audio.EncodePCM16([]float32{tt.input})
			require.Len(t, pcm, 2)
			assert.Equal(t, tt.want, audio.LEToPCMInt16(pcm)[0])
		})
	}
}

func TestDecodePCM16(t *testing.T) {
	buf, err := audio.DecodePCM16(audio.PCMInt16ToLE([]int16{0, -32768, 16384, 32767}), audio.PlaybackSampleRate)
	require.NoError(t, err)

	assert.Equal(t, audio.PlaybackSampleRate, buf.SampleRate)
	assert.Equal(t, []float32{0, -1, 0.5, 32767.0 / 32768.0}, buf.Samples)
	assert.InDelta(t, 4.0/24000.0, buf.Duration(), 1e-12)
}

func TestDecodePCM16_Errors(t *testing.T) {
	_, err := audio.DecodePCM16([]byte{1, 2, 3}, audio.PlaybackSampleRate)
	require.ErrorIs(t, err, audio.ErrOddPCMLength)

	_, err = audio.DecodePCM16([]byte{1, 2}, 0)
	require.Error(t, err)

	buf, err := audio.DecodePCM16(nil, audio.PlaybackSampleRate)
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Len())
	assert.Zero(t, buf.Duration())
}

func TestPCM16_RoundTripWithinQuantization(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	samples := make([]float32, 10_000)
	for i := range samples {
		samples[i] = rng.Float32()*2 - 1
	}
	samples = append(samples, -1, 1, 0, -0.25, 0.25)

	buf, err := audio.DecodePCM16(audio.EncodePCM16(samples), audio.CaptureSampleRate)
	require.NoError(t, err)
	require.Len(t, buf.Samples, len(samples))

	for i, s := range samples {
		diff := math.Abs(float64(s) - float64(buf.Samples[i]))
		if s < 0 {
			assert.LessOrEqual(t, diff, quantizationStep, "sample %d (%f)", i, s)
			continue
		}
		// The non-negative side scales by 0x7FFF, so full-scale samples sit
		// up to one extra step below their input.
		assert.LessOrEqual(t, diff, quantizationStep*(1+float64(s)), "sample %d (%f)", i, s)
	}
}

func TestTransportText_RoundTrip(t *testing.T) {
	tests := map[string][]byte{
		"empty":  {},
		"binary": {0x00, 0xFF, 0x10, 0x80, 0x7F},
		"frame":  audio.EncodePCM16(make([]float32, audio.DefaultFrameSize)),
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			text := audio.BufferToTransportText(input)
			out, err := audio.TransportTextToBuffer(text)
			require.NoError(t, err)
			assert.Equal(t, len(input), len(out))
			assert.Equal(t, string(input), string(out))
		})
	}

	_, err := audio.TransportTextToBuffer("not base64!!")
	require.Error(t, err)
}

func TestDecodeTransportAudio(t *testing.T) {
	text := audio.BufferToTransportText(audio.PCMInt16ToLE([]int16{100, -100}))

	buf, err := audio.DecodeTransportAudio(text, audio.PlaybackSampleRate)
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Len())

	_, err = audio.DecodeTransportAudio(audio.BufferToTransportText([]byte{1}), audio.PlaybackSampleRate)
	require.ErrorIs(t, err, audio.ErrOddPCMLength)
}

func TestResamplePCM16(t *testing.T) {
	t.Run("upsample_16k_to_24k", func(t *testing.T) {
		src := make([]int16, 1600)
		for i := range src {
			src[i] = int16(i)
		}
		dst, err := audio.ResamplePCM16(src, 16000, 24000)
		require.NoError(t, err)
		assert.Len(t, dst, 2400)
		assert.Equal(t, int16(0), dst[0])
		assert.Equal(t, int16(2), dst[3])
		for i := 1; i < len(dst); i++ {
			assert.GreaterOrEqual(t, dst[i], dst[i-1])
		}
	})

	t.Run("same_rate_copies", func(t *testing.T) {
		src := []int16{1, 2, 3}
		dst, err := audio.ResamplePCM16(src, 24000, 24000)
		require.NoError(t, err)
		assert.Equal(t, src, dst)
		dst[0] = 9
		assert.Equal(t, int16(1), src[0])
	})

	t.Run("invalid_rate", func(t *testing.T) {
		_, err := audio.ResamplePCM16([]int16{1}, 0, 24000)
		require.Error(t, err)
	})

	t.Run("bytes", func(t *testing.T) {
		out, err := audio.ResampleLE(audio.PCMInt16ToLE(make([]int16, 160)), 16000, 24000)
		require.NoError(t, err)
		assert.Len(t, out, 240*2)
	})
}

func TestFrameDuration(t *testing.T) {
	assert.Equal(t, 256*time.Millisecond, audio.FrameDuration(4096, audio.CaptureSampleRate))
	assert.Equal(t, 100*time.Millisecond, audio.FrameDuration(2400, audio.PlaybackSampleRate))
	assert.Zero(t, audio.FrameDuration(10, 0))
}
