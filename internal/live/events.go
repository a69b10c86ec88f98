package live

import (
	"github.com/Raikerian/vitacare-voice/internal/tools"
)

// Event is one decoded inbound signal. Consumers switch on the concrete type.
type Event interface {
	liveEvent()
}

// OpenedEvent reports that the remote side accepted Setup.
type OpenedEvent struct{}

// ToolCallEvent requests one tool invocation.
type ToolCallEvent struct {
	Invocation tools.Invocation
}

// OutputTranscriptEvent is a fragment of what the assistant said.
type OutputTranscriptEvent struct {
	Text string
}

// InputTranscriptEvent is a fragment of what the user said.
type InputTranscriptEvent struct {
	Text string
}

// TurnCompleteEvent marks the end of an assistant turn.
type TurnCompleteEvent struct{}

// AudioEvent carries base64 PCM16 speech for playback.
type AudioEvent struct {
	MimeType string
	Data     string
}

// InterruptedEvent reports that the user barged in.
type InterruptedEvent struct{}

// ClosedEvent reports that the stream ended without a local Close.
type ClosedEvent struct {
	Err error
}

func (OpenedEvent) liveEvent()           {}
func (ToolCallEvent) liveEvent()         {}
func (OutputTranscriptEvent) liveEvent() {}
func (InputTranscriptEvent) liveEvent()  {}
func (TurnCompleteEvent) liveEvent()     {}
func (AudioEvent) liveEvent()            {}
func (InterruptedEvent) liveEvent()      {}
func (ClosedEvent) liveEvent()           {}

// Decode splits msg into events in processing order: open ack, tool calls,
// output transcript, input transcript, turn complete, audio, interruption.
func Decode(msg *ServerMessage) []Event {
	if msg == nil {
		return nil
	}

	var events []Event
	if msg.SetupComplete != nil {
		events = append(events, OpenedEvent{})
	}
	if msg.ToolCall != nil {
		for _, fc := range msg.ToolCall.FunctionCalls {
			events = append(events, ToolCallEvent{Invocation: tools.Invocation{
				ID:   fc.ID,
				Name: fc.Name,
				Args: fc.Args,
			}})
		}
	}

	sc := msg.ServerContent
	if sc == nil {
		return events
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		events = append(events, OutputTranscriptEvent{Text: sc.OutputTranscription.Text})
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		events = append(events, InputTranscriptEvent{Text: sc.InputTranscription.Text})
	}
	if sc.TurnComplete {
		events = append(events, TurnCompleteEvent{})
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			events = append(events, AudioEvent{
				MimeType: part.InlineData.MimeType,
				Data:     part.InlineData.Data,
			})
		}
	}
	if sc.Interrupted {
		events = append(events, InterruptedEvent{})
	}

	return events
}
