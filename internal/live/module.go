package live

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/internal/config"
	"github.com/Raikerian/vitacare-voice/internal/tools"
)

// Module provides the configured Backend and the session Setup.
var Module = fx.Module("live",
	fx.Provide(
		NewBackend,
		NewSetup,
	),
)

// NewBackend selects the backend named in the transport config.
func NewBackend(cfg *config.Config, logger *zap.Logger) (Backend, error) {
	switch cfg.Transport.Backend {
	case config.BackendWebSocket:
		return NewWebSocketBackend(logger, cfg.Transport.URL, cfg.Transport.APIKey), nil
	case config.BackendOpenAI:
		return NewOpenAIBackend(logger, cfg.Transport.APIKey), nil
	case config.BackendGemini:
		return NewGeminiBackend(logger, cfg.Transport.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown transport backend %q", cfg.Transport.Backend)
	}
}

// NewSetup builds the first message of every session from config.
func NewSetup(cfg *config.Config) Setup {
	return Setup{
		Model:               cfg.Assistant.Model,
		SystemInstruction:   cfg.Assistant.SystemInstruction,
		ResponseModalities:  []string{ModalityAudio},
		VoiceName:           cfg.Assistant.VoiceName,
		InputTranscription:  true,
		OutputTranscription: true,
		Tools:               tools.Declarations(),
	}
}
