package session

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/internal/capture"
	"github.com/Raikerian/vitacare-voice/internal/config"
	"github.com/Raikerian/vitacare-voice/internal/live"
	"github.com/Raikerian/vitacare-voice/internal/playback"
	"github.com/Raikerian/vitacare-voice/internal/tools"
)

// Module provides the session Factory.
var Module = fx.Module("session",
	fx.Provide(NewFactory),
)

// FactoryParams holds the collaborators shared by every session.
type FactoryParams struct {
	fx.In

	Logger     *zap.Logger
	Config     *config.Config
	Backend    live.Backend
	Setup      live.Setup
	Microphone capture.Microphone
	Speaker    playback.Speaker
	Executor   tools.Executor
}

// Factory builds sessions from configuration.
type Factory struct {
	params FactoryParams
}

// NewFactory returns a Factory.
func NewFactory(params FactoryParams) *Factory {
	return &Factory{params: params}
}

// New builds a Session that reports every change to onChange.
func (f *Factory) New(onChange func(Snapshot)) (*Session, error) {
	p := f.params

	return New(p.Logger, p.Backend, p.Microphone, p.Speaker, p.Executor, Options{
		Setup:             p.Setup,
		FrameSize:         p.Config.Audio.FrameSize,
		HandshakeTimeout:  p.Config.HandshakeTimeout(),
		OutboundQueueSize: p.Config.Transport.OutboundQueueSize,
		RecordDir:         p.Config.Debug.RecordDir,
		OnChange:          onChange,
	})
}
