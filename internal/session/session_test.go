package session

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"MavGate/internal/link"
	"MavGate/internal/link/linktest"
)

func hasCall(calls []string, name string) bool {
	for _, c := range calls {
		if c == name {
			return true
		}
	}
	return false
}

func TestOpenWaitsForConnectionAndHealth(t *testing.T) {
	fake := linktest.New()
	fake.PushConnectionState(link.ConnectionState{Connected: false})
	fake.PushConnectionState(link.ConnectionState{Connected: true})
	fake.PushHealth(link.Health{})
	fake.PushHealth(link.Health{HomePositionOK: true})

	sess, err := Open(context.Background(), fake, slog.Default(), Options{ReadyTimeout: time.Second})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer sess.Close()

	if sess.Link() != link.Link(fake) {
		t.Fatal("session must expose the link it was opened with")
	}
	if hasCall(fake.Calls(), "close") {
		t.Fatal("link closed during successful open")
	}
}

func TestOpenTimesOutWhenHealthNeverReady(t *testing.T) {
	fake := linktest.New()
	fake.PushConnectionState(link.ConnectionState{Connected: true})
	// Health stays unhealthy forever.
	fake.PushHealth(link.Health{})

	_, err := Open(context.Background(), fake, slog.Default(), Options{ReadyTimeout: 50 * time.Millisecond})
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if !hasCall(fake.Calls(), "close") {
		t.Fatal("link must be closed when open fails")
	}
}

func TestOpenCancellationRunsCleanup(t *testing.T) {
	fake := linktest.New()
	fake.PushConnectionState(link.ConnectionState{Connected: true})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Open(ctx, fake, slog.Default(), Options{ReadyTimeout: 10 * time.Second})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !hasCall(fake.Calls(), "close") {
		t.Fatal("link must be closed on cancellation during the wait")
	}
}

func TestOpenConnectFailure(t *testing.T) {
	fake := linktest.New()
	fake.ConnectErr = errors.New("endpoint busy")

	_, err := Open(context.Background(), fake, slog.Default(), Options{})
	if err == nil || !errors.Is(err, fake.ConnectErr) {
		t.Fatalf("expected connect error, got %v", err)
	}
}

func TestSessionIDsMonotonic(t *testing.T) {
	open := func() *Session {
		t.Helper()
		fake := linktest.New()
		fake.PushConnectionState(link.ConnectionState{Connected: true})
		fake.PushHealth(link.Health{GlobalPositionOK: true})
		sess, err := Open(context.Background(), fake, slog.Default(), Options{ReadyTimeout: time.Second})
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		return sess
	}

	a := open()
	b := open()
	defer a.Close()
	defer b.Close()
	if b.ID() <= a.ID() {
		t.Fatalf("session IDs not monotonic: %d then %d", a.ID(), b.ID())
	}
}

func TestCloseIdempotent(t *testing.T) {
	fake := linktest.New()
	fake.PushConnectionState(link.ConnectionState{Connected: true})
	fake.PushHealth(link.Health{GlobalPositionOK: true})

	sess, err := Open(context.Background(), fake, slog.Default(), Options{ReadyTimeout: time.Second})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	sess.Close()
	sess.Close()

	closes := 0
	for _, c := range fake.Calls() {
		if c == "close" {
			closes++
		}
	}
	if closes != 1 {
		t.Fatalf("link closed %d times, want once", closes)
	}
}
