// Package telemetry relays live vehicle data to callers: a bounded IMU
// pull and unbounded status-text and mission-progress relays.
// Cancellation of an unbounded relay is its normal stop signal, never
// an error.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"MavGate/internal/link"
	"MavGate/internal/session"
)

// imuRateHz is the fixed sample rate requested before a bounded pull.
const imuRateHz = 200.0

// Recorder mirrors relayed events into the flight log. May be nil.
type Recorder interface {
	Record(kind, detail string)
}

// Publisher pushes relayed items to the websocket telemetry feed. May
// be nil.
type Publisher interface {
	Publish(kind string, payload any)
}

type Relay struct {
	sess   *session.Session
	logger *slog.Logger
	rec    Recorder
	feed   Publisher
}

func New(sess *session.Session, logger *slog.Logger, rec Recorder, feed Publisher) *Relay {
	return &Relay{sess: sess, logger: logger, rec: rec, feed: feed}
}

func (r *Relay) record(kind, detail string) {
	if r.rec != nil {
		r.rec.Record(kind, detail)
	}
}

func (r *Relay) publish(kind string, payload any) {
	if r.feed != nil {
		r.feed.Publish(kind, payload)
	}
}

// CollectIMU sets the IMU stream rate and returns the next n samples
// in arrival order. It returns fewer than n only if the underlying
// stream ends first. Cancellation returns the samples collected so far
// along with the context error.
func (r *Relay) CollectIMU(ctx context.Context, n int) ([]link.IMUSample, error) {
	if n < 1 {
		return nil, fmt.Errorf("sample count must be at least 1, got %d", n)
	}

	lk := r.sess.Link()
	if err := lk.SetIMURate(ctx, imuRateHz); err != nil {
		return nil, fmt.Errorf("set imu rate: %w", err)
	}

	sub := lk.SubscribeIMU()
	defer sub.Stop()

	samples := make([]link.IMUSample, 0, n)
	for len(samples) < n {
		select {
		case s, ok := <-sub.Items():
			if !ok {
				// Stream ended early; hand back what arrived.
				return samples, nil
			}
			samples = append(samples, s)
		case <-ctx.Done():
			return samples, ctx.Err()
		}
	}
	return samples, nil
}

// RelayStatusText logs every status-text event until ctx is cancelled
// and reports how many were relayed. A cancelled relay terminates
// cleanly with a nil error.
func (r *Relay) RelayStatusText(ctx context.Context) (int, error) {
	sub := r.sess.Link().SubscribeStatusText()
	defer sub.Stop()

	relayed := 0
	for {
		select {
		case st, ok := <-sub.Items():
			if !ok {
				return relayed, nil
			}
			r.logger.Info("status", "severity", st.Severity, "text", st.Text)
			r.record("status_text", fmt.Sprintf("%s: %s", st.Severity, st.Text))
			r.publish("status_text", st)
			relayed++
		case <-ctx.Done():
			return relayed, nil
		}
	}
}

// RelayMissionProgress logs every mission-progress update until ctx is
// cancelled. Same cancellation contract as RelayStatusText.
func (r *Relay) RelayMissionProgress(ctx context.Context) (int, error) {
	sub := r.sess.Link().SubscribeMissionProgress()
	defer sub.Stop()

	relayed := 0
	for {
		select {
		case p, ok := <-sub.Items():
			if !ok {
				return relayed, nil
			}
			r.logger.Info("mission progress", "current", p.Current, "total", p.Total)
			r.record("mission_progress", fmt.Sprintf("%d/%d", p.Current, p.Total))
			r.publish("mission_progress", p)
			relayed++
		case <-ctx.Done():
			return relayed, nil
		}
	}
}
