// Package gateway validates and forwards discrete flight commands to
// the session's vehicle link. It adds no queuing or locking: the link
// is safe for concurrent command submission, and racing commands
// resolve as last-write-wins with the vehicle deciding the outcome.
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"MavGate/internal/link"
	"MavGate/internal/session"
)

// Recorder receives a record of every mutating command for the flight
// log. Implementations must never block the command path.
type Recorder interface {
	Record(kind, detail string)
}

type Gateway struct {
	sess   *session.Session
	logger *slog.Logger
	rec    Recorder
}

// New builds a gateway over an open session. rec may be nil.
func New(sess *session.Session, logger *slog.Logger, rec Recorder) *Gateway {
	return &Gateway{sess: sess, logger: logger, rec: rec}
}

func (g *Gateway) record(kind, detail string) {
	if g.rec != nil {
		g.rec.Record(kind, detail)
	}
}

func (g *Gateway) Arm(ctx context.Context) error {
	g.logger.Info("arming", "session_id", g.sess.ID())
	g.record("command", "arm")
	return g.sess.Link().Arm(ctx)
}

// Takeoff sets the target altitude and issues the takeoff command. The
// vehicle must already be armed; that precondition is documented, not
// enforced here, and an unarmed vehicle's rejection propagates as the
// command error.
func (g *Gateway) Takeoff(ctx context.Context, altitude float64) error {
	g.logger.Info("initiating takeoff", "altitude_m", altitude, "session_id", g.sess.ID())
	g.record("command", fmt.Sprintf("takeoff altitude=%v", altitude))
	g.sess.Link().SetTakeoffAltitude(altitude)
	return g.sess.Link().Takeoff(ctx)
}

func (g *Gateway) Land(ctx context.Context) error {
	g.logger.Info("initiating landing", "session_id", g.sess.ID())
	g.record("command", "land")
	return g.sess.Link().Land(ctx)
}

// MoveToRelative displaces the vehicle in its body frame: lr to the
// right, fb forward, altitude up (all meters, positive as named), yaw
// in degrees added to the current heading.
func (g *Gateway) MoveToRelative(ctx context.Context, lr, fb, altitude, yaw float64) error {
	g.logger.Info("moving relative",
		"lr", lr, "fb", fb, "altitude", altitude, "yaw", yaw,
		"session_id", g.sess.ID())
	g.record("command", fmt.Sprintf("move_to_relative lr=%v fb=%v altitude=%v yaw=%v", lr, fb, altitude, yaw))
	return g.sess.Link().MoveRelative(ctx, fb, lr, altitude, yaw)
}

// Position returns the current fix; relative selects altitude above
// home instead of above mean sea level.
func (g *Gateway) Position(relative bool) (link.Position, error) {
	return g.sess.Link().Position(relative)
}
