package live

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Raikerian/vitacare-voice/pkg/audio"
)

// GeminiBackend speaks to the Gemini Live API through the genai SDK.
type GeminiBackend struct {
	logger *zap.Logger
	apiKey string
}

// NewGeminiBackend returns a backend authenticated with apiKey.
func NewGeminiBackend(logger *zap.Logger, apiKey string) *GeminiBackend {
	return &GeminiBackend{
		logger: logger.Named("gemini"),
		apiKey: apiKey,
	}
}

// Dial opens a live session. The SDK sends the setup itself; its
// acknowledgement arrives as the first message.
func (b *GeminiBackend) Dial(ctx context.Context, setup Setup) (Stream, error) {
	b.logger.Info("Connecting to Gemini Live API", zap.String("model", setup.Model))

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  b.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	session, err := client.Live.Connect(ctx, setup.Model, liveConnectConfig(setup))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Gemini Live: %w", err)
	}

	return &geminiStream{logger: b.logger, session: session}, nil
}

func liveConnectConfig(setup Setup) *genai.LiveConnectConfig {
	cfg := &genai.LiveConnectConfig{}
	for _, m := range setup.ResponseModalities {
		cfg.ResponseModalities = append(cfg.ResponseModalities, genai.Modality(m))
	}
	if setup.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(setup.SystemInstruction, genai.RoleUser)
	}
	if setup.VoiceName != "" {
		cfg.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: setup.VoiceName},
			},
		}
	}
	if setup.InputTranscription {
		cfg.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if setup.OutputTranscription {
		cfg.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if len(setup.Tools) > 0 {
		tool := &genai.Tool{}
		for _, decl := range setup.Tools {
			tool.FunctionDeclarations = append(tool.FunctionDeclarations, &genai.FunctionDeclaration{
				Name:                 decl.Name,
				Description:          decl.Description,
				ParametersJsonSchema: decl.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{tool}
	}

	return cfg
}

type geminiStream struct {
	logger  *zap.Logger
	session *genai.Session
}

// Read blocks until the next message; Close unblocks it.
func (s *geminiStream) Read(_ context.Context) (*ServerMessage, error) {
	for {
		msg, err := s.session.Receive()
		if err != nil {
			return nil, err
		}
		if out := translateGemini(msg); out != nil {
			return out, nil
		}
	}
}

// translateGemini maps an SDK message onto the wire contract. Messages with
// no counterpart (usage metadata, go-away notices) yield nil.
func translateGemini(msg *genai.LiveServerMessage) *ServerMessage {
	out := &ServerMessage{}
	empty := true

	if msg.SetupComplete != nil {
		out.SetupComplete = &SetupComplete{}
		empty = false
	}

	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		call := &ToolCall{}
		for _, fc := range msg.ToolCall.FunctionCalls {
			if fc == nil {
				continue
			}
			call.FunctionCalls = append(call.FunctionCalls, FunctionCall{
				ID:   fc.ID,
				Name: fc.Name,
				Args: fc.Args,
			})
		}
		out.ToolCall = call
		empty = false
	}

	if sc := msg.ServerContent; sc != nil {
		content := &ServerContent{
			TurnComplete: sc.TurnComplete,
			Interrupted:  sc.Interrupted,
		}
		if sc.InputTranscription != nil {
			content.InputTranscription = &Transcription{Text: sc.InputTranscription.Text}
		}
		if sc.OutputTranscription != nil {
			content.OutputTranscription = &Transcription{Text: sc.OutputTranscription.Text}
		}
		if sc.ModelTurn != nil {
			turn := &Content{}
			for _, part := range sc.ModelTurn.Parts {
				if part == nil {
					continue
				}
				p := Part{Text: part.Text}
				if part.InlineData != nil {
					p.InlineData = &Blob{
						MimeType: part.InlineData.MIMEType,
						Data:     audio.BufferToTransportText(part.InlineData.Data),
					}
				}
				turn.Parts = append(turn.Parts, p)
			}
			content.ModelTurn = turn
		}
		out.ServerContent = content
		empty = false
	}

	if empty {
		return nil
	}

	return out
}

func (s *geminiStream) Write(_ context.Context, msg *ClientMessage) error {
	switch {
	case msg.AudioFrame != nil:
		pcm, err := audio.TransportTextToBuffer(msg.AudioFrame.Data)
		if err != nil {
			return fmt.Errorf("decode audio frame: %w", err)
		}
		return s.session.SendRealtimeInput(genai.LiveRealtimeInput{
			Audio: &genai.Blob{MIMEType: msg.AudioFrame.MimeType, Data: pcm},
		})

	case msg.ToolResult != nil:
		return s.session.SendToolResponse(genai.LiveToolResponseInput{
			FunctionResponses: []*genai.FunctionResponse{{
				ID:       msg.ToolResult.ID,
				Name:     msg.ToolResult.Name,
				Response: msg.ToolResult.Response,
			}},
		})

	case msg.Setup != nil:
		s.logger.Debug("Ignoring setup message, configured at connect")
	}

	return nil
}

func (s *geminiStream) Close() error {
	return s.session.Close()
}
