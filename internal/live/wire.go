// Package live speaks the bidirectional session protocol with the remote
// assistant: setup, streamed audio frames, tool results out; transcripts,
// audio, tool calls and turn signals in.
package live

import (
	"github.com/Raikerian/vitacare-voice/internal/tools"
)

// ModalityAudio requests spoken responses.
const ModalityAudio = "AUDIO"

// ClientMessage is one outbound message. Exactly one field is set.
type ClientMessage struct {
	Setup      *Setup      `json:"setup,omitempty"`
	AudioFrame *AudioFrame `json:"audioFrame,omitempty"`
	ToolResult *ToolResult `json:"toolResult,omitempty"`
}

// Setup configures the remote session and is always the first message.
type Setup struct {
	Model               string              `json:"model"`
	SystemInstruction   string              `json:"systemInstruction,omitempty"`
	ResponseModalities  []string            `json:"responseModalities"`
	VoiceName           string              `json:"voiceName,omitempty"`
	InputTranscription  bool                `json:"inputTranscription"`
	OutputTranscription bool                `json:"outputTranscription"`
	Tools               []tools.Declaration `json:"tools,omitempty"`
}

// AudioFrame carries base64 PCM16 microphone audio.
type AudioFrame struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ToolResult answers a FunctionCall by id.
type ToolResult struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// ServerMessage is one inbound message. Several fields may be set at once.
type ServerMessage struct {
	SetupComplete *SetupComplete `json:"setupComplete,omitempty"`
	ToolCall      *ToolCall      `json:"toolCall,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
}

// SetupComplete acknowledges Setup.
type SetupComplete struct{}

// ToolCall batches the functions the assistant wants run.
type ToolCall struct {
	FunctionCalls []FunctionCall `json:"functionCalls"`
}

// FunctionCall is a single requested invocation.
type FunctionCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ServerContent carries transcripts, audio and turn signals.
type ServerContent struct {
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	ModelTurn           *Content       `json:"modelTurn,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
}

// Transcription is a transcript fragment.
type Transcription struct {
	Text string `json:"text"`
}

// Content is a model turn made of parts.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is one piece of a model turn.
type Part struct {
	InlineData *Blob  `json:"inlineData,omitempty"`
	Text       string `json:"text,omitempty"`
}

// Blob is inline base64 media.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}
