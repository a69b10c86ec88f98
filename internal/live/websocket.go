package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const closeWriteTimeout = 2 * time.Second

// WebSocketBackend dials an endpoint that speaks the JSON wire contract
// directly.
type WebSocketBackend struct {
	logger *zap.Logger
	url    string
	apiKey string
	dialer *websocket.Dialer
}

// NewWebSocketBackend returns a backend for url. apiKey, when set, is sent
// as a bearer token.
func NewWebSocketBackend(logger *zap.Logger, url, apiKey string) *WebSocketBackend {
	return &WebSocketBackend{
		logger: logger.Named("websocket"),
		url:    url,
		apiKey: apiKey,
		dialer: websocket.DefaultDialer,
	}
}

// Dial connects and writes the setup message.
func (b *WebSocketBackend) Dial(ctx context.Context, setup Setup) (Stream, error) {
	headers := make(http.Header)
	if b.apiKey != "" {
		headers.Set("Authorization", "Bearer "+b.apiKey)
	}

	conn, resp, err := b.dialer.DialContext(ctx, b.url, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	s := &wsStream{conn: conn}
	if err := s.Write(ctx, &ClientMessage{Setup: &setup}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send setup: %w", err)
	}

	b.logger.Debug("Connected", zap.String("url", b.url))

	return s, nil
}

type wsStream struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (s *wsStream) Read(_ context.Context) (*ServerMessage, error) {
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, fmt.Errorf("remote closed: %w", ErrTransportClosed)
			}
			return nil, err
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode server message: %w", err)
		}

		return &msg, nil
	}
}

func (s *wsStream) Write(ctx context.Context, msg *ClientMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
		defer func() { _ = s.conn.SetWriteDeadline(time.Time{}) }()
	}

	return s.conn.WriteJSON(msg)
}

func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout))
		err = s.conn.Close()
	})
	if errors.Is(err, net.ErrClosed) {
		return nil
	}

	return err
}
