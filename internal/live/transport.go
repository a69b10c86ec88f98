package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const defaultOutboundQueueSize = 64

var (
	// ErrTransportClosed is returned when sending on a closed transport and
	// wraps the cause of a remote close.
	ErrTransportClosed = errors.New("live transport closed")
	// ErrAlreadyOpen is returned by a second Open.
	ErrAlreadyOpen = errors.New("live transport already open")
)

// Backend dials a remote session. Dial sends setup; the acknowledgement
// arrives later as a SetupComplete message.
type Backend interface {
	Dial(ctx context.Context, setup Setup) (Stream, error)
}

// Stream is a dialed bidirectional connection. Read and Write are each
// called from a single goroutine; Close unblocks both.
type Stream interface {
	Read(ctx context.Context) (*ServerMessage, error)
	Write(ctx context.Context, msg *ClientMessage) error
	Close() error
}

// Transport owns one Stream. Inbound messages are decoded in arrival order
// on one goroutine and outbound messages leave in FIFO order from another.
type Transport struct {
	logger    *zap.Logger
	backend   Backend
	queueSize int

	mu      sync.Mutex
	stream  Stream
	handler func(Event)
	cancel  context.CancelFunc

	outbound  chan *ClientMessage
	done      chan struct{}
	closing   atomic.Bool
	stopOnce  sync.Once
	closeOnce sync.Once
	failOnce  sync.Once
	wg        sync.WaitGroup
}

// NewTransport returns a transport that dials through backend. queueSize
// bounds the outbound queue; non-positive values use a default.
func NewTransport(logger *zap.Logger, backend Backend, queueSize int) *Transport {
	if queueSize <= 0 {
		queueSize = defaultOutboundQueueSize
	}

	return &Transport{
		logger:    logger.Named("live"),
		backend:   backend,
		queueSize: queueSize,
		outbound:  make(chan *ClientMessage, queueSize),
		done:      make(chan struct{}),
	}
}

// Open dials and starts the reader and writer. handler receives every
// decoded event, plus at most one ClosedEvent if the stream fails before a
// local Close. handler must not block for long.
func (t *Transport) Open(ctx context.Context, setup Setup, handler func(Event)) error {
	t.mu.Lock()
	if t.stream != nil {
		t.mu.Unlock()
		return ErrAlreadyOpen
	}
	if t.closing.Load() {
		t.mu.Unlock()
		return ErrTransportClosed
	}
	t.mu.Unlock()

	t.logger.Info("Opening live session",
		zap.String("model", setup.Model),
		zap.Int("tools", len(setup.Tools)))

	stream, err := t.backend.Dial(ctx, setup)
	if err != nil {
		return fmt.Errorf("dial live session: %w", err)
	}

	t.mu.Lock()
	if t.closing.Load() {
		t.mu.Unlock()
		_ = stream.Close()
		return ErrTransportClosed
	}
	runCtx, cancel := context.WithCancel(context.Background())
	t.stream = stream
	t.handler = handler
	t.cancel = cancel
	t.mu.Unlock()

	t.wg.Add(2)
	go t.readLoop(runCtx, stream)
	go t.writeLoop(runCtx, stream)

	return nil
}

func (t *Transport) readLoop(ctx context.Context, stream Stream) {
	defer t.wg.Done()

	for {
		msg, err := stream.Read(ctx)
		if err != nil {
			t.fail(fmt.Errorf("read: %w", err))
			return
		}
		for _, ev := range Decode(msg) {
			if t.closing.Load() {
				return
			}
			t.handler(ev)
		}
	}
}

func (t *Transport) writeLoop(ctx context.Context, stream Stream) {
	defer t.wg.Done()

	for {
		select {
		case <-t.done:
			return
		case msg := <-t.outbound:
			if err := stream.Write(ctx, msg); err != nil {
				t.fail(fmt.Errorf("write: %w", err))
				return
			}
		}
	}
}

// fail reports a stream failure once, unless the transport is being closed
// locally, and stops both loops.
func (t *Transport) fail(err error) {
	t.failOnce.Do(func() {
		t.stop()
		if t.closing.Load() {
			return
		}
		t.logger.Warn("Live session ended", zap.Error(err))
		t.handler(ClosedEvent{Err: fmt.Errorf("%w: %w", ErrTransportClosed, err)})
	})
}

func (t *Transport) stop() {
	t.stopOnce.Do(func() {
		close(t.done)

		t.mu.Lock()
		stream, cancel := t.stream, t.cancel
		t.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if stream != nil {
			if err := stream.Close(); err != nil {
				t.logger.Debug("Closing stream failed", zap.Error(err))
			}
		}
	})
}

// SendAudioFrame queues a frame without blocking. It reports false when the
// frame was dropped because the queue is full or the transport is closed.
func (t *Transport) SendAudioFrame(frame AudioFrame) bool {
	if t.closing.Load() {
		return false
	}

	select {
	case <-t.done:
		return false
	default:
	}

	select {
	case t.outbound <- &ClientMessage{AudioFrame: &frame}:
		return true
	default:
		t.logger.Warn("Outbound queue full, dropping audio frame",
			zap.Int("queue_size", t.queueSize))
		return false
	}
}

// SendToolResult queues a tool result, waiting for room if necessary.
func (t *Transport) SendToolResult(ctx context.Context, res ToolResult) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}

	select {
	case t.outbound <- &ClientMessage{ToolResult: &res}:
		t.logger.Debug("Queued tool result",
			zap.String("call_id", res.ID),
			zap.String("tool", res.Name))
		return nil
	case <-t.done:
		return ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops both loops and closes the stream. No ClosedEvent is delivered
// afterwards. Safe to call more than once and before Open.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closing.Store(true)
		t.stop()
		t.wg.Wait()
		t.logger.Debug("Live transport closed")
	})

	return nil
}
