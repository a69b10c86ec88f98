// Package session runs one voice conversation: it owns the microphone,
// the speaker and the live transport, and reconciles everything the remote
// assistant sends into a single observable state.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/internal/capture"
	"github.com/Raikerian/vitacare-voice/internal/live"
	"github.com/Raikerian/vitacare-voice/internal/playback"
	"github.com/Raikerian/vitacare-voice/internal/tools"
	"github.com/Raikerian/vitacare-voice/pkg/audio"
)

const (
	eventQueueSize    = 256
	answeredCacheSize = 128
)

var (
	// ErrHandshakeTimeout is reported when the setup acknowledgement never arrives.
	ErrHandshakeTimeout = errors.New("handshake timed out")
	// ErrSessionClosed is returned by Open after Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrAlreadyOpen is returned by a second Open.
	ErrAlreadyOpen = errors.New("session already opened")
)

// Options tune one Session.
type Options struct {
	Setup             live.Setup
	FrameSize         int
	HandshakeTimeout  time.Duration
	OutboundQueueSize int
	// RecordDir, when set, receives WAV dumps of captured and played audio.
	RecordDir string
	// OnChange receives a snapshot after every observable change.
	OnChange func(Snapshot)
}

// Session is one open assistant conversation. All state mutation happens on
// a single loop goroutine fed by one event queue.
type Session struct {
	logger   *zap.Logger
	speaker  playback.Speaker
	executor tools.Executor
	opts     Options

	capture   *capture.Pipeline
	playback  *playback.Pipeline
	transport *live.Transport
	playRec   audio.Recorder

	events   chan event
	closing  chan struct{}
	loopDone chan struct{}
	openDone chan struct{}
	settled  chan struct{}

	runCtx     context.Context
	cancel     context.CancelFunc
	settleOnce sync.Once

	lifeMu  sync.Mutex
	started bool
	closed  bool

	snapMu sync.Mutex
	snap   Snapshot

	// Owned by the loop goroutine.
	state        Snapshot
	dirty        bool
	pendingUser  strings.Builder
	pendingModel strings.Builder
	answered     *lru.Cache[string, struct{}]
}

// New builds a Session. Nothing is acquired until Open.
func New(
	logger *zap.Logger,
	backend live.Backend,
	mic capture.Microphone,
	speaker playback.Speaker,
	executor tools.Executor,
	opts Options,
) (*Session, error) {
	if opts.FrameSize == 0 {
		opts.FrameSize = audio.DefaultFrameSize
	}
	logger = logger.Named("session")

	startedAt := time.Now()
	capRec, err := audio.OpenSessionRecorder(opts.RecordDir, "capture", audio.CaptureSampleRate, startedAt)
	if err != nil {
		return nil, fmt.Errorf("open capture recorder: %w", err)
	}
	playRec, err := audio.OpenSessionRecorder(opts.RecordDir, "playback", audio.PlaybackSampleRate, startedAt)
	if err != nil {
		_ = capRec.Close()
		return nil, fmt.Errorf("open playback recorder: %w", err)
	}

	capturePipeline, err := capture.NewPipeline(logger, mic, opts.FrameSize, capRec)
	if err != nil {
		_ = capRec.Close()
		_ = playRec.Close()
		return nil, err
	}

	answered, err := lru.New[string, struct{}](answeredCacheSize)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())

	return &Session{
		logger:    logger,
		speaker:   speaker,
		executor:  executor,
		opts:      opts,
		capture:   capturePipeline,
		transport: live.NewTransport(logger, backend, opts.OutboundQueueSize),
		playRec:   playRec,
		events:    make(chan event, eventQueueSize),
		closing:   make(chan struct{}),
		loopDone:  make(chan struct{}),
		openDone:  make(chan struct{}),
		settled:   make(chan struct{}),
		runCtx:    runCtx,
		cancel:    cancel,
		state:     Snapshot{Status: StatusConnecting},
		snap:      Snapshot{Status: StatusConnecting},
		answered:  answered,
	}, nil
}

// Open acquires the microphone and speaker, dials the remote assistant and
// waits until the session is connected or has failed. Audio capture starts
// only once the remote side has acknowledged setup.
func (s *Session) Open(ctx context.Context) error {
	s.lifeMu.Lock()
	if s.closed {
		s.lifeMu.Unlock()
		return ErrSessionClosed
	}
	if s.started {
		s.lifeMu.Unlock()
		return ErrAlreadyOpen
	}
	s.started = true
	s.lifeMu.Unlock()

	defer close(s.openDone)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.runCtx, cancel)
	defer stop()

	go s.loop()

	out, err := s.speaker.Open(audio.PlaybackSampleRate)
	if err != nil {
		err = fmt.Errorf("open speaker: %w", err)
		s.post(failedEvent{reason: FailureAudioOutput, err: err})
		return err
	}
	s.playback = playback.NewPipeline(s.logger, out, s.playRec, s.onPlaybackFinished)

	if err := s.capture.Acquire(ctx); err != nil {
		s.post(failedEvent{reason: FailureMicrophone, err: err})
		return err
	}

	s.post(handshakeStartedEvent{})

	if err := s.transport.Open(ctx, s.opts.Setup, s.onTransportEvent); err != nil {
		s.post(failedEvent{reason: FailureTransport, err: err})
		return err
	}

	select {
	case <-s.settled:
	case <-ctx.Done():
		return ctx.Err()
	}

	snap := s.Snapshot()
	switch snap.Status {
	case StatusConnected:
		return nil
	case StatusError:
		return snap.Err
	default:
		return ErrSessionClosed
	}
}

// Snapshot returns a copy of the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()

	return s.snap.clone()
}

// Close ends the session and releases capture, playback and the transport,
// in that order. It is safe to call on every path and more than once.
func (s *Session) Close() error {
	s.lifeMu.Lock()
	if s.closed {
		s.lifeMu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	s.lifeMu.Unlock()

	s.logger.Info("Closing session")

	s.cancel()
	close(s.closing)
	if started {
		<-s.openDone
		<-s.loopDone
	}

	if s.state.Status != StatusError {
		s.state.Status = StatusClosed
	}
	s.state.IsSpeaking = false
	s.state.IsListening = false
	s.dirty = true

	var errs []error
	if err := s.capture.Close(); err != nil {
		errs = append(errs, fmt.Errorf("release capture: %w", err))
	}
	if s.playback != nil {
		if err := s.playback.Close(); err != nil {
			errs = append(errs, fmt.Errorf("release playback: %w", err))
		}
	} else if err := s.playRec.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("release transport: %w", err))
	}

	s.publish()
	s.settle()

	return errors.Join(errs...)
}

func (s *Session) settle() {
	s.settleOnce.Do(func() { close(s.settled) })
}

// publish copies the loop-owned state for readers and notifies OnChange.
func (s *Session) publish() {
	if !s.dirty {
		return
	}
	s.dirty = false

	snap := s.state.clone()
	s.snapMu.Lock()
	s.snap = snap
	s.snapMu.Unlock()

	if s.opts.OnChange != nil {
		s.opts.OnChange(snap.clone())
	}
}
