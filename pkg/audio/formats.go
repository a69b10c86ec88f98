// Package audio holds the PCM codec and helpers shared by the capture and
// playback pipelines.
package audio

// Format constants for the remote conversational endpoint.
const (
	// Microphone input, as expected by the endpoint.
	CaptureSampleRate = 16_000 // Hz
	CaptureMimeType   = "audio/pcm;rate=16000"

	// Synthesized speech pushed by the endpoint.
	PlaybackSampleRate = 24_000 // Hz

	// Both directions are mono.
	Channels = 1

	// DefaultFrameSize is the capture frame length in samples (256 ms at 16 kHz).
	DefaultFrameSize = 4096

	bytesPerSample = 2 // 16-bit PCM
)
