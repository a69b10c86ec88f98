package session

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/internal/capture"
	"github.com/Raikerian/vitacare-voice/internal/live"
	"github.com/Raikerian/vitacare-voice/internal/tools"
	"github.com/Raikerian/vitacare-voice/pkg/audio"
)

type event interface {
	sessionEvent()
}

type (
	handshakeStartedEvent struct{}
	frameEvent            struct{ frame capture.Frame }
	serverEvent           struct{ ev live.Event }
	playbackFinishedEvent struct{}
)

type failedEvent struct {
	reason Failure
	err    error
}

func (handshakeStartedEvent) sessionEvent() {}
func (failedEvent) sessionEvent()           {}
func (frameEvent) sessionEvent()            {}
func (serverEvent) sessionEvent()           {}
func (playbackFinishedEvent) sessionEvent() {}

// post queues ev for the loop, giving up once the session is closing.
func (s *Session) post(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.closing:
		return false
	}
}

func (s *Session) onTransportEvent(ev live.Event) {
	s.post(serverEvent{ev: ev})
}

func (s *Session) onPlaybackFinished() {
	s.post(playbackFinishedEvent{})
}

// onFrame runs on the device callback and never blocks it.
func (s *Session) onFrame(f capture.Frame) {
	select {
	case s.events <- frameEvent{frame: f}:
	case <-s.closing:
	default:
		s.logger.Warn("Event queue full, dropping capture frame", zap.Uint64("seq", f.Seq))
	}
}

func (s *Session) loop() {
	defer close(s.loopDone)

	var handshake *time.Timer
	var expired <-chan time.Time
	defer func() {
		if handshake != nil {
			handshake.Stop()
		}
	}()

	for {
		select {
		case <-s.closing:
			return

		case <-expired:
			expired = nil
			if s.state.Status == StatusConnecting {
				s.fail(FailureHandshake, fmt.Errorf("%w after %s", ErrHandshakeTimeout, s.opts.HandshakeTimeout))
			}

		case ev := <-s.events:
			switch e := ev.(type) {
			case handshakeStartedEvent:
				if s.state.Status == StatusConnecting && s.opts.HandshakeTimeout > 0 {
					handshake = time.NewTimer(s.opts.HandshakeTimeout)
					expired = handshake.C
				}
			case failedEvent:
				s.fail(e.reason, e.err)
			case frameEvent:
				s.handleFrame(e.frame)
			case serverEvent:
				s.handleServerEvent(e.ev)
			case playbackFinishedEvent:
				s.handlePlaybackFinished()
			}
		}

		s.publish()
		if s.state.Status != StatusConnecting {
			expired = nil
			s.settle()
		}
	}
}

func (s *Session) handleServerEvent(ev live.Event) {
	switch e := ev.(type) {
	case live.OpenedEvent:
		s.handleOpened()
	case live.ToolCallEvent:
		s.handleToolCall(e.Invocation)
	case live.OutputTranscriptEvent:
		s.pendingModel.WriteString(e.Text)
	case live.InputTranscriptEvent:
		s.pendingUser.WriteString(e.Text)
	case live.TurnCompleteEvent:
		s.flushTurn()
	case live.AudioEvent:
		s.handleAudio(e)
	case live.InterruptedEvent:
		s.handleInterrupted()
	case live.ClosedEvent:
		s.fail(FailureTransport, e.Err)
	}
}

func (s *Session) handleOpened() {
	if s.state.Status != StatusConnecting {
		return
	}

	s.logger.Info("Session connected")
	s.state.Status = StatusConnected
	s.state.IsSpeaking = false
	s.state.IsListening = true
	s.dirty = true

	if err := s.capture.Start(s.onFrame); err != nil {
		s.fail(FailureMicrophone, err)
	}
}

func (s *Session) handleFrame(f capture.Frame) {
	if s.state.Status != StatusConnected {
		return
	}

	s.transport.SendAudioFrame(live.AudioFrame{MimeType: f.MimeType, Data: f.Data})
}

// handleToolCall answers the invocation before the loop takes its next
// event, so the result is queued ahead of any later capture frame.
func (s *Session) handleToolCall(inv tools.Invocation) {
	if inv.ID != "" && s.answered.Contains(inv.ID) {
		s.logger.Debug("Skipping already answered tool call", zap.String("call_id", inv.ID))
		return
	}

	res, ok := s.execute(inv)
	if !ok {
		return
	}
	if inv.ID != "" {
		s.answered.Add(inv.ID, struct{}{})
	}

	err := s.transport.SendToolResult(s.runCtx, live.ToolResult{
		ID:       res.ID,
		Name:     res.Name,
		Response: res.Response,
	})
	if err != nil {
		s.logger.Warn("Failed to send tool result",
			zap.String("call_id", res.ID),
			zap.Error(err))
	}
}

func (s *Session) execute(inv tools.Invocation) (res tools.Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Tool execution panicked",
				zap.String("tool", inv.Name),
				zap.Any("panic", r))
			res, ok = tools.Result{}, false
		}
	}()

	return s.executor.Execute(inv)
}

func (s *Session) flushTurn() {
	user := strings.TrimSpace(s.pendingUser.String())
	model := strings.TrimSpace(s.pendingModel.String())
	s.pendingUser.Reset()
	s.pendingModel.Reset()

	if user != "" {
		s.state.Transcript = append(s.state.Transcript, TranscriptEntry{Role: RoleUser, Text: user})
		s.dirty = true
	}
	if model != "" {
		s.state.Transcript = append(s.state.Transcript, TranscriptEntry{Role: RoleModel, Text: model})
		s.dirty = true
	}
}

func (s *Session) handleAudio(e live.AudioEvent) {
	if s.playback == nil {
		return
	}

	s.setSpeaking(true)

	buf, err := audio.DecodeTransportAudio(e.Data, audio.PlaybackSampleRate)
	if err == nil {
		_, err = s.playback.ScheduleChunk(buf)
	}
	if err != nil {
		s.logger.Warn("Dropping audio chunk", zap.Error(err))
		if s.playback.ActiveCount() == 0 {
			s.setSpeaking(false)
		}
	}
}

func (s *Session) handleInterrupted() {
	s.logger.Debug("Assistant interrupted")
	if s.playback != nil {
		s.playback.CancelAll()
	}
	s.setSpeaking(false)
}

func (s *Session) handlePlaybackFinished() {
	if s.playback != nil && s.playback.ActiveCount() > 0 {
		return
	}
	s.setSpeaking(false)
}

// setSpeaking keeps isSpeaking and isListening mutually exclusive. The
// session only listens while connected.
func (s *Session) setSpeaking(speaking bool) {
	listening := !speaking && s.state.Status == StatusConnected
	if s.state.IsSpeaking == speaking && s.state.IsListening == listening {
		return
	}
	s.state.IsSpeaking = speaking
	s.state.IsListening = listening
	s.dirty = true
}

// fail moves the session to StatusError once. Capture stops; scheduled
// playback is left to drain.
func (s *Session) fail(reason Failure, err error) {
	if s.state.Status == StatusError || s.state.Status == StatusClosed {
		return
	}

	s.logger.Error("Session failed",
		zap.Stringer("reason", reason),
		zap.Error(err))

	s.state.Status = StatusError
	s.state.Failure = reason
	s.state.Err = err
	s.state.IsListening = false
	s.dirty = true

	if cerr := s.capture.Close(); cerr != nil {
		s.logger.Warn("Failed to stop capture", zap.Error(cerr))
	}
}
