package live

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openairt "github.com/WqyJh/go-openai-realtime"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/pkg/audio"
)

const openAIAudioMimeType = "audio/pcm;rate=24000"

// OpenAIBackend adapts the OpenAI Realtime API to the wire contract.
type OpenAIBackend struct {
	logger *zap.Logger
	client *openairt.Client
}

// NewOpenAIBackend returns a backend authenticated with apiKey.
func NewOpenAIBackend(logger *zap.Logger, apiKey string) *OpenAIBackend {
	return &OpenAIBackend{
		logger: logger.Named("openai"),
		client: openairt.NewClient(apiKey),
	}
}

// Dial connects and sends a session.update built from setup.
func (b *OpenAIBackend) Dial(ctx context.Context, setup Setup) (Stream, error) {
	b.logger.Info("Connecting to OpenAI Realtime API", zap.String("model", setup.Model))

	var opts []openairt.ConnectOption
	if setup.Model != "" {
		opts = append(opts, openairt.WithModel(setup.Model))
	}

	conn, err := b.client.Connect(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to OpenAI Realtime: %w", err)
	}

	if err := conn.SendMessage(ctx, sessionUpdate(setup)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to configure session: %w", err)
	}

	return &openAIStream{logger: b.logger, conn: conn}, nil
}

func sessionUpdate(setup Setup) *openairt.SessionUpdateEvent {
	var voice openairt.Voice
	switch strings.ToLower(setup.VoiceName) {
	case "alloy":
		voice = openairt.VoiceAlloy
	case "echo":
		voice = openairt.VoiceEcho
	default:
		voice = openairt.VoiceShimmer
	}

	session := openairt.ClientSession{
		Modalities:        []openairt.Modality{openairt.ModalityText, openairt.ModalityAudio},
		Instructions:      setup.SystemInstruction,
		Voice:             voice,
		InputAudioFormat:  openairt.AudioFormatPcm16,
		OutputAudioFormat: openairt.AudioFormatPcm16,
	}
	if setup.InputTranscription {
		session.InputAudioTranscription = &openairt.InputAudioTranscription{
			Model: openai.Whisper1,
		}
	}
	for _, decl := range setup.Tools {
		session.Tools = append(session.Tools, openairt.Tool{
			Type:        openairt.ToolTypeFunction,
			Name:        decl.Name,
			Description: decl.Description,
			Parameters:  decl.Parameters,
		})
	}

	return &openairt.SessionUpdateEvent{Session: session}
}

type openAIStream struct {
	logger     *zap.Logger
	conn       *openairt.Conn
	configured bool
}

func (s *openAIStream) Read(ctx context.Context) (*ServerMessage, error) {
	for {
		event, err := s.conn.ReadMessage(ctx)
		if err != nil {
			return nil, err
		}
		if msg := s.translate(event); msg != nil {
			return msg, nil
		}
	}
}

// translate maps a realtime server event onto the wire contract. Events
// with no counterpart yield nil.
func (s *openAIStream) translate(event openairt.ServerEvent) *ServerMessage {
	switch event.ServerEventType() {
	case openairt.ServerEventTypeSessionUpdated:
		if s.configured {
			return nil
		}
		s.configured = true
		return &ServerMessage{SetupComplete: &SetupComplete{}}

	case openairt.ServerEventTypeResponseAudioDelta:
		delta := event.(openairt.ResponseAudioDeltaEvent)
		if delta.Delta == "" {
			return nil
		}
		return &ServerMessage{ServerContent: &ServerContent{
			ModelTurn: &Content{Parts: []Part{{
				InlineData: &Blob{MimeType: openAIAudioMimeType, Data: delta.Delta},
			}}},
		}}

	case openairt.ServerEventTypeResponseAudioTranscriptDelta:
		delta := event.(openairt.ResponseAudioTranscriptDeltaEvent)
		return &ServerMessage{ServerContent: &ServerContent{
			OutputTranscription: &Transcription{Text: delta.Delta},
		}}

	case openairt.ServerEventTypeConversationItemInputAudioTranscriptionCompleted:
		transcript := event.(openairt.ConversationItemInputAudioTranscriptionCompletedEvent)
		return &ServerMessage{ServerContent: &ServerContent{
			InputTranscription: &Transcription{Text: transcript.Transcript},
		}}

	case openairt.ServerEventTypeResponseFunctionCallArgumentsDone:
		call := event.(openairt.ResponseFunctionCallArgumentsDoneEvent)
		args := map[string]any{}
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				s.logger.Warn("Malformed function call arguments",
					zap.String("call_id", call.CallID),
					zap.Error(err))
			}
		}
		return &ServerMessage{ToolCall: &ToolCall{FunctionCalls: []FunctionCall{{
			ID:   call.CallID,
			Name: call.Name,
			Args: args,
		}}}}

	case openairt.ServerEventTypeResponseDone:
		return &ServerMessage{ServerContent: &ServerContent{TurnComplete: true}}

	case openairt.ServerEventTypeInputAudioBufferSpeechStarted:
		return &ServerMessage{ServerContent: &ServerContent{Interrupted: true}}

	case openairt.ServerEventTypeError:
		errorEvent := event.(openairt.ErrorEvent)
		s.logger.Warn("OpenAI error event",
			zap.String("message", errorEvent.Error.Message))
		return nil

	default:
		return nil
	}
}

func (s *openAIStream) Write(ctx context.Context, msg *ClientMessage) error {
	switch {
	case msg.AudioFrame != nil:
		pcm, err := audio.TransportTextToBuffer(msg.AudioFrame.Data)
		if err != nil {
			return fmt.Errorf("decode audio frame: %w", err)
		}
		pcm, err = audio.ResampleLE(pcm, audio.CaptureSampleRate, audio.PlaybackSampleRate)
		if err != nil {
			return err
		}
		return s.conn.SendMessage(ctx, &openairt.InputAudioBufferAppendEvent{
			Audio: audio.BufferToTransportText(pcm),
		})

	case msg.ToolResult != nil:
		output, err := json.Marshal(msg.ToolResult.Response)
		if err != nil {
			return fmt.Errorf("encode tool result: %w", err)
		}
		err = s.conn.SendMessage(ctx, &openairt.ConversationItemCreateEvent{
			Item: openairt.MessageItem{
				Type:   openairt.MessageItemTypeFunctionCallOutput,
				CallID: msg.ToolResult.ID,
				Output: string(output),
			},
		})
		if err != nil {
			return err
		}
		return s.conn.SendMessage(ctx, &openairt.ResponseCreateEvent{})

	case msg.Setup != nil:
		return s.conn.SendMessage(ctx, sessionUpdate(*msg.Setup))
	}

	return nil
}

func (s *openAIStream) Close() error {
	return s.conn.Close()
}
