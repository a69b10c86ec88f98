package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/vitacare-voice/internal/capture"
	"github.com/Raikerian/vitacare-voice/internal/config"
	"github.com/Raikerian/vitacare-voice/internal/playback"
)

func TestModule(t *testing.T) {
	cfg := &config.Config{Audio: config.AudioConfig{SpeakerBufferMs: 50}}

	var (
		mic capture.Microphone
		spk playback.Speaker
	)
	app := fxtest.New(t,
		fx.Supply(cfg, zaptest.NewLogger(t)),
		Module,
		fx.Populate(&mic, &spk),
	)

	app.RequireStart()
	defer app.RequireStop()

	assert.IsType(t, &PortAudioMicrophone{}, mic)
	bs, ok := spk.(*BeepSpeaker)
	if assert.True(t, ok) {
		assert.Equal(t, cfg.SpeakerBuffer(), bs.buffer)
	}
}
