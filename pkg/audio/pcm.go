package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrOddPCMLength is returned when a PCM16 payload does not hold a whole
// number of samples.
var ErrOddPCMLength = errors.New("pcm16 payload has odd byte length")

// Buffer is a block of decoded mono samples at a known rate.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback length of the buffer in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}

	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}

	return len(b.Samples)
}

// EncodePCM16 converts float samples to 16-bit little-endian PCM.
// Samples are clamped to [-1, 1]; negative values scale by 0x8000 and
// non-negative values by 0x7FFF.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(floatToInt16(s)))
	}

	return out
}

// DecodePCM16 converts 16-bit little-endian PCM into float samples, each
// sample being int16/32768.
func DecodePCM16(pcm []byte, sampleRate int) (*Buffer, error) {
	if len(pcm)%bytesPerSample != 0 {
		return nil, fmt.Errorf("decode %d bytes: %w", len(pcm), ErrOddPCMLength)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	samples := make([]float32, len(pcm)/bytesPerSample)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:]))
		samples[i] = float32(v) / 32768.0
	}

	return &Buffer{Samples: samples, SampleRate: sampleRate}, nil
}

// BufferToTransportText encodes raw bytes for a text-only transport.
func BufferToTransportText(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// TransportTextToBuffer reverses BufferToTransportText.
func TransportTextToBuffer(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}

	return b, nil
}

// DecodeTransportAudio decodes a transport text payload straight into samples.
func DecodeTransportAudio(data string, sampleRate int) (*Buffer, error) {
	pcm, err := TransportTextToBuffer(data)
	if err != nil {
		return nil, err
	}

	return DecodePCM16(pcm, sampleRate)
}

// FrameDuration returns how long n samples last at the given rate.
func FrameDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}

	return time.Duration(n) * time.Second / time.Duration(sampleRate)
}

func floatToInt16(s float32) int16 {
	if math.IsNaN(float64(s)) {
		return 0
	}
	s = max(-1, min(1, s))
	if s < 0 {
		return int16(s * 0x8000)
	}

	return int16(s * 0x7FFF)
}
