package audio

import (
	"encoding/binary"
)

// PCMInt16ToLE converts int16 samples to raw little-endian bytes.
func PCMInt16ToLE(samples []int16) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(v))
	}

	return out
}

// LEToPCMInt16 converts raw little-endian bytes back to int16 samples.
// A trailing odd byte is ignored.
func LEToPCMInt16(b []byte) []int16 {
	out := make([]int16, len(b)/bytesPerSample)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*bytesPerSample:]))
	}

	return out
}

// FloatToInt16 quantizes float samples with the same scaling as EncodePCM16.
func FloatToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = floatToInt16(s)
	}

	return out
}
