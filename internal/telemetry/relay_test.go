package telemetry

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"MavGate/internal/link"
	"MavGate/internal/link/linktest"
	"MavGate/internal/session"
)

func openSession(t *testing.T, fake *linktest.Fake) *session.Session {
	t.Helper()
	fake.PushConnectionState(link.ConnectionState{Connected: true})
	fake.PushHealth(link.Health{GlobalPositionOK: true})
	sess, err := session.Open(context.Background(), fake, slog.Default(), session.Options{ReadyTimeout: time.Second})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(sess.Close)
	return sess
}

func sample(ts uint64) link.IMUSample {
	return link.IMUSample{TimestampUS: ts, Temperature: 21.5}
}

func TestCollectIMUExactCount(t *testing.T) {
	fake := linktest.New()
	relay := New(openSession(t, fake), slog.Default(), nil, nil)

	for i := 1; i <= 5; i++ {
		fake.PushIMU(sample(uint64(i)))
	}

	samples, err := relay.CollectIMU(context.Background(), 3)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	for i, s := range samples {
		if s.TimestampUS != uint64(i+1) {
			t.Fatalf("samples out of arrival order: %+v", samples)
		}
	}
	if fake.IMURate != 200 {
		t.Fatalf("imu rate = %v, want 200", fake.IMURate)
	}
}

func TestCollectIMUStreamEndsEarly(t *testing.T) {
	fake := linktest.New()
	relay := New(openSession(t, fake), slog.Default(), nil, nil)

	fake.PushIMU(sample(1))
	fake.PushIMU(sample(2))
	fake.CloseIMU()

	samples, err := relay.CollectIMU(context.Background(), 10)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want the 2 that arrived", len(samples))
	}
}

func TestCollectIMURejectsNonPositiveCount(t *testing.T) {
	fake := linktest.New()
	relay := New(openSession(t, fake), slog.Default(), nil, nil)

	if _, err := relay.CollectIMU(context.Background(), 0); err == nil {
		t.Fatal("expected an error for n=0")
	}
}

func TestRelayStatusTextCancellationIsClean(t *testing.T) {
	fake := linktest.New()
	relay := New(openSession(t, fake), slog.Default(), nil, nil)

	fake.PushStatusText(link.StatusText{Severity: "INFO", Text: "takeoff detected"})
	fake.PushStatusText(link.StatusText{Severity: "WARNING", Text: "low battery"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var relayed int
	var err error
	go func() {
		relayed, err = relay.RelayStatusText(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if err != nil {
		t.Fatalf("cancellation must not surface an error, got %v", err)
	}
	if relayed != 2 {
		t.Fatalf("relayed %d items, want 2", relayed)
	}
}

func TestRelayMissionProgressCancellationIsClean(t *testing.T) {
	fake := linktest.New()
	relay := New(openSession(t, fake), slog.Default(), nil, nil)

	fake.PushMissionProgress(link.MissionProgress{Current: 1, Total: 4})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := relay.RelayMissionProgress(ctx); err != nil {
		t.Fatalf("cancelled relay returned %v", err)
	}
}

type capturingPublisher struct {
	kinds []string
}

func (c *capturingPublisher) Publish(kind string, payload any) {
	c.kinds = append(c.kinds, kind)
}

func TestRelayForwardsToFeed(t *testing.T) {
	fake := linktest.New()
	feed := &capturingPublisher{}
	relay := New(openSession(t, fake), slog.Default(), nil, feed)

	fake.PushStatusText(link.StatusText{Severity: "INFO", Text: "ready"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.RelayStatusText(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if len(feed.kinds) != 1 || feed.kinds[0] != "status_text" {
		t.Fatalf("feed publications = %v", feed.kinds)
	}
}
