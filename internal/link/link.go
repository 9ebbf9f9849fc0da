// Package link owns the connection to the vehicle. The Link interface
// is the narrow capability surface the rest of the gateway consumes;
// MAVLink is the gomavlib-backed implementation speaking the MAVLink
// common dialect over UDP.
package link

import (
	"context"
	"errors"

	"MavGate/internal/mission"
)

var (
	ErrNotConnected = errors.New("link: not connected")
	ErrNoPosition   = errors.New("link: no position fix received yet")
	ErrAckTimeout   = errors.New("link: timed out waiting for command ack")
	ErrClosed       = errors.New("link: closed")
)

// ConnectionState reports whether a vehicle is talking to us.
type ConnectionState struct {
	Connected bool
}

// Health carries the position-estimate readiness flags. The session is
// considered ready when either flag is true.
type Health struct {
	GlobalPositionOK bool
	HomePositionOK   bool
}

// Position is a geodetic fix. Altitude is above mean sea level when
// Relative is false, above the home position when true.
type Position struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	Relative  bool
}

// Vector3 is a 3-axis sensor reading.
type Vector3 struct {
	X float64
	Y float64
	Z float64
}

// IMUSample is one inertial reading, relayed unmodified from the
// vehicle apart from unit scaling.
type IMUSample struct {
	TimestampUS     uint64
	Acceleration    Vector3
	AngularVelocity Vector3
	MagneticField   Vector3
	Temperature     float64
}

// StatusText is one STATUSTEXT event from the vehicle.
type StatusText struct {
	Severity string
	Text     string
}

// MissionProgress reports the active mission item out of the total.
type MissionProgress struct {
	Current int
	Total   int
}

// Link is the capability interface of one vehicle connection. All
// blocking calls take a context; telemetry is consumed through
// cancellable subscriptions. Implementations must be safe for
// concurrent command submission and multiplexed subscription.
type Link interface {
	Connect(ctx context.Context) error
	Close() error

	ConnectionState() *Subscription[ConnectionState]
	Health() *Subscription[Health]

	Arm(ctx context.Context) error
	SetTakeoffAltitude(meters float64)
	Takeoff(ctx context.Context) error
	Land(ctx context.Context) error
	MoveRelative(ctx context.Context, forward, right, climb, yawDeg float64) error
	Position(relative bool) (Position, error)

	SetReturnToLaunchAfterMission(bool)
	UploadMission(ctx context.Context, plan *mission.Plan) error
	StartMission(ctx context.Context) error

	SetIMURate(ctx context.Context, hz float64) error
	SubscribeIMU() *Subscription[IMUSample]
	SubscribeStatusText() *Subscription[StatusText]
	SubscribeMissionProgress() *Subscription[MissionProgress]
}
