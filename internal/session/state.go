package session

import (
	"slices"
)

// Status is the connection state of a Session.
type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusError
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Failure classifies why a Session entered StatusError.
type Failure int

const (
	FailureNone Failure = iota
	FailureMicrophone
	FailureAudioOutput
	FailureTransport
	FailureHandshake
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureMicrophone:
		return "microphone"
	case FailureAudioOutput:
		return "audio_output"
	case FailureTransport:
		return "transport"
	case FailureHandshake:
		return "handshake"
	default:
		return "unknown"
	}
}

// Role identifies the speaker of a transcript entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// TranscriptEntry is one finished utterance.
type TranscriptEntry struct {
	Role Role
	Text string
}

// Snapshot is a read-only copy of the observable session state.
type Snapshot struct {
	Status      Status
	Failure     Failure
	Err         error
	IsSpeaking  bool
	IsListening bool
	Transcript  []TranscriptEntry
}

func (s Snapshot) clone() Snapshot {
	s.Transcript = slices.Clone(s.Transcript)
	return s
}

// Headline is the short status line shown to the user.
func (s Snapshot) Headline() string {
	switch s.Status {
	case StatusConnecting:
		return "Connecting..."
	case StatusError:
		return "Connection Failed"
	default:
		return "VitaCare Assistant"
	}
}

// Hint is the secondary line under the headline.
func (s Snapshot) Hint() string {
	switch s.Status {
	case StatusConnecting:
		return "Establishing secure line..."
	case StatusError:
		if s.Failure == FailureMicrophone {
			return "Check microphone permissions."
		}
		if s.Failure == FailureAudioOutput {
			return "Check your speaker or headphones."
		}
		return "The connection to VitaCare was lost."
	case StatusClosed:
		return "Session ended."
	}
	if s.IsSpeaking {
		return "VitaCare is speaking..."
	}

	return `Try saying "Find Vitamin C"`
}
