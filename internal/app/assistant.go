package app

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/internal/session"
)

// Session is the part of *session.Session the Assistant drives.
type Session interface {
	Open(ctx context.Context) error
	Close() error
}

// SessionFactory builds a Session reporting changes to onChange.
type SessionFactory func(onChange func(session.Snapshot)) (Session, error)

// Assistant hosts one voice session for the lifetime of the process.
type Assistant struct {
	logger     *zap.Logger
	newSession SessionFactory
	renderer   *Renderer
	shutdowner fx.Shutdowner

	mu   sync.Mutex
	sess Session
	done chan struct{}
}

// NewAssistant wires the session factory into an Assistant.
func NewAssistant(logger *zap.Logger, factory *session.Factory, renderer *Renderer, shutdowner fx.Shutdowner) *Assistant {
	return newAssistant(logger, func(onChange func(session.Snapshot)) (Session, error) {
		return factory.New(onChange)
	}, renderer, shutdowner)
}

func newAssistant(logger *zap.Logger, newSession SessionFactory, renderer *Renderer, shutdowner fx.Shutdowner) *Assistant {
	return &Assistant{
		logger:     logger.Named("assistant"),
		newSession: newSession,
		renderer:   renderer,
		shutdowner: shutdowner,
	}
}

// Start builds the session and opens it in the background. A session that
// fails to open shuts the application down with exit code 1.
func (a *Assistant) Start() error {
	sess, err := a.newSession(a.renderer.Render)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.sess = sess
	a.done = done
	a.mu.Unlock()

	go func() {
		defer close(done)

		err := sess.Open(context.Background())
		if err == nil {
			a.logger.Info("Session connected")

			return
		}
		if errors.Is(err, session.ErrSessionClosed) {
			return
		}

		a.logger.Error("Session failed to open", zap.Error(err))
		if err := a.shutdowner.Shutdown(fx.ExitCode(1)); err != nil {
			a.logger.Warn("Shutdown request failed", zap.Error(err))
		}
	}()

	return nil
}

// Stop closes the session and waits for the pending Open to return.
func (a *Assistant) Stop(ctx context.Context) error {
	a.mu.Lock()
	sess, done := a.sess, a.done
	a.mu.Unlock()
	if sess == nil {
		return nil
	}

	err := sess.Close()

	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}

	return err
}
