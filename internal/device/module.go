package device

import (
	"go.uber.org/fx"

	"github.com/Raikerian/vitacare-voice/internal/capture"
	"github.com/Raikerian/vitacare-voice/internal/playback"
)

// Module provides the default microphone and speaker.
var Module = fx.Module("device",
	fx.Provide(
		fx.Annotate(NewPortAudioMicrophone, fx.As(new(capture.Microphone))),
		fx.Annotate(NewBeepSpeaker, fx.As(new(playback.Speaker))),
	),
)
