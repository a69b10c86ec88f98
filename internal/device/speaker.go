package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/internal/config"
	"github.com/Raikerian/vitacare-voice/internal/playback"
)

// BeepSpeaker plays a playback.Timeline on the default output device.
type BeepSpeaker struct {
	logger *zap.Logger
	buffer time.Duration

	mu       sync.Mutex
	initRate beep.SampleRate
}

// NewBeepSpeaker returns a speaker using the configured device buffer.
func NewBeepSpeaker(logger *zap.Logger, cfg *config.Config) *BeepSpeaker {
	return &BeepSpeaker{
		logger: logger.Named("speaker"),
		buffer: cfg.SpeakerBuffer(),
	}
}

// Open initializes the output device once and starts pulling from a fresh
// timeline.
func (s *BeepSpeaker) Open(sampleRate int) (playback.Output, error) {
	sr := beep.SampleRate(sampleRate)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.initRate == 0:
		if err := speaker.Init(sr, sr.N(s.buffer)); err != nil {
			return nil, fmt.Errorf("initialize speaker: %w", err)
		}
		s.initRate = sr
		s.logger.Info("Initialized output device",
			zap.Int("sample_rate", sampleRate),
			zap.Duration("buffer", s.buffer))
	case s.initRate != sr:
		return nil, fmt.Errorf("speaker already running at %d Hz, requested %d Hz", s.initRate, sampleRate)
	}

	tl := playback.NewTimeline(sampleRate)
	speaker.Play(tl)

	return &speakerOutput{Timeline: tl}, nil
}

type speakerOutput struct {
	*playback.Timeline
	closeOnce sync.Once
}

// Close detaches the timeline from the device, then drops its voices.
func (o *speakerOutput) Close() error {
	o.closeOnce.Do(func() {
		speaker.Clear()
	})

	return o.Timeline.Close()
}
