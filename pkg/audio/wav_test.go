package audio_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/vitacare-voice/pkg/audio"
)

func TestWAVRecorder_WritesReadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")

	rec, err := audio.NewWAVRecorder(path, audio.CaptureSampleRate)
	require.NoError(t, err)

	require.NoError(t, rec.Write([]float32{0, 0.5, -0.5, 1}))
	require.NoError(t, rec.Write(nil))
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())
	require.Error(t, rec.Write([]float32{0.1}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)

	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, audio.CaptureSampleRate, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.NumChannels)
	assert.Equal(t, []int{0, 16383, -16384, 32767}, buf.Data)
}

func TestOpenSessionRecorder(t *testing.T) {
	rec, err := audio.OpenSessionRecorder("", "capture", audio.CaptureSampleRate, time.Now())
	require.NoError(t, err)
	require.NoError(t, rec.Write([]float32{1}))
	require.NoError(t, rec.Close())

	dir := filepath.Join(t.TempDir(), "debug_audio")
	startedAt := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	rec, err = audio.OpenSessionRecorder(dir, "playback", audio.PlaybackSampleRate, startedAt)
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	assert.FileExists(t, filepath.Join(dir, "playback_20261016_093000.wav"))
}
