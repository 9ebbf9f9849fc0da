// Package session owns the lifecycle of one vehicle link: connect,
// wait for readiness, expose the live handle, close exactly once.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"MavGate/internal/link"
)

// ErrNotReady means the vehicle never reached the ready state before
// the wait timed out. Opening is not retried; the caller decides.
var ErrNotReady = errors.New("session: vehicle never became ready")

const defaultReadyTimeout = 60 * time.Second

type Options struct {
	// ReadyTimeout bounds the whole connect-and-wait-for-health
	// phase. Defaults to 60s.
	ReadyTimeout time.Duration
}

var nextID atomic.Uint64

// Session is one ready-to-use vehicle connection. A Session only
// exists after connectivity and a position estimate were confirmed, so
// holding one is the proof of readiness every operation requires.
type Session struct {
	id        uint64
	lk        link.Link
	logger    *slog.Logger
	closeOnce sync.Once
}

// Open connects the link, waits until the vehicle reports a connection
// and then until either the global or the home position estimate is
// healthy, and returns the ready session. On any failure or
// cancellation after the connect, the link is closed before returning.
func Open(ctx context.Context, lk link.Link, logger *slog.Logger, opts Options) (*Session, error) {
	timeout := opts.ReadyTimeout
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}

	if err := lk.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	logger.Info("waiting for vehicle connection")
	if err := waitFor(ctx, lk.ConnectionState(), deadline.C, func(s link.ConnectionState) bool {
		return s.Connected
	}); err != nil {
		lk.Close()
		return nil, fmt.Errorf("wait for connection: %w", err)
	}

	logger.Info("waiting for position estimate")
	if err := waitFor(ctx, lk.Health(), deadline.C, func(h link.Health) bool {
		return h.GlobalPositionOK || h.HomePositionOK
	}); err != nil {
		lk.Close()
		return nil, fmt.Errorf("wait for health: %w", err)
	}

	s := &Session{id: nextID.Add(1), lk: lk, logger: logger}
	logger.Info("session ready", "session_id", s.id)
	return s, nil
}

func waitFor[T any](ctx context.Context, sub *link.Subscription[T], deadline <-chan time.Time, ready func(T) bool) error {
	defer sub.Stop()
	for {
		select {
		case v, ok := <-sub.Items():
			if !ok {
				return ErrNotReady
			}
			if ready(v) {
				return nil
			}
		case <-deadline:
			return ErrNotReady
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) ID() uint64 {
	return s.id
}

// Link returns the live vehicle handle. Operations hold the Session
// they were given rather than any ambient global.
func (s *Session) Link() link.Link {
	return s.lk
}

// Close releases the link. Idempotent and best-effort.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Info("closing session", "session_id", s.id)
		if err := s.lk.Close(); err != nil {
			s.logger.Warn("link close failed", "error", err)
		}
	})
}
