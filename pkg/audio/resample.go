package audio

import (
	"fmt"
)

// ResamplePCM16 converts mono 16-bit samples between rates using linear
// interpolation. Arbitrary ratios are supported.
func ResamplePCM16(src []int16, srcRate, dstRate int) ([]int16, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("unsupported ratio %d:%d", srcRate, dstRate)
	}
	if len(src) == 0 || srcRate == dstRate {
		out := make([]int16, len(src))
		copy(out, src)
		return out, nil
	}

	n := int(int64(len(src)) * int64(dstRate) / int64(srcRate))
	dst := make([]int16, n)
	step := float64(srcRate) / float64(dstRate)
	last := len(src) - 1
	for i := range dst {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			dst[i] = src[last]
			continue
		}
		frac := pos - float64(idx)
		a, b := float64(src[idx]), float64(src[idx+1])
		dst[i] = int16(a + (b-a)*frac)
	}

	return dst, nil
}

// ResampleLE resamples little-endian PCM16 bytes.
func ResampleLE(pcm []byte, srcRate, dstRate int) ([]byte, error) {
	out, err := ResamplePCM16(LEToPCMInt16(pcm), srcRate, dstRate)
	if err != nil {
		return nil, err
	}

	return PCMInt16ToLE(out), nil
}
