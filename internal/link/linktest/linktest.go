// Package linktest provides an in-memory Link for tests. Telemetry is
// fed through the Push helpers; command calls are recorded in order and
// fail with whatever error the test configures.
package linktest

import (
	"context"
	"fmt"
	"sync"

	"MavGate/internal/link"
	"MavGate/internal/mission"
)

// Move records one MoveRelative call.
type Move struct {
	Forward float64
	Right   float64
	Climb   float64
	YawDeg  float64
}

type Fake struct {
	mu    sync.Mutex
	calls []string

	ConnectErr error
	ArmErr     error
	TakeoffErr error
	LandErr    error
	MoveErr    error
	UploadErr  error
	StartErr   error
	RateErr    error
	PosErr     error

	Pos link.Position

	TakeoffAltitude float64
	RTL             bool
	Plan            *mission.Plan
	IMURate         float64
	Moves           []Move

	connCh     chan link.ConnectionState
	healthCh   chan link.Health
	imuCh      chan link.IMUSample
	statusCh   chan link.StatusText
	progressCh chan link.MissionProgress
}

func New() *Fake {
	return &Fake{
		connCh:     make(chan link.ConnectionState, 64),
		healthCh:   make(chan link.Health, 64),
		imuCh:      make(chan link.IMUSample, 256),
		statusCh:   make(chan link.StatusText, 64),
		progressCh: make(chan link.MissionProgress, 64),
	}
}

func (f *Fake) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

// Calls returns the commands issued so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) Connect(ctx context.Context) error {
	f.record("connect")
	return f.ConnectErr
}

func (f *Fake) Close() error {
	f.record("close")
	return nil
}

func (f *Fake) ConnectionState() *link.Subscription[link.ConnectionState] {
	return link.NewSubscription((<-chan link.ConnectionState)(f.connCh), nil)
}

func (f *Fake) Health() *link.Subscription[link.Health] {
	return link.NewSubscription((<-chan link.Health)(f.healthCh), nil)
}

func (f *Fake) Arm(ctx context.Context) error {
	f.record("arm")
	return f.ArmErr
}

func (f *Fake) SetTakeoffAltitude(meters float64) {
	f.record(fmt.Sprintf("set_takeoff_altitude(%v)", meters))
	f.mu.Lock()
	f.TakeoffAltitude = meters
	f.mu.Unlock()
}

func (f *Fake) Takeoff(ctx context.Context) error {
	f.record("takeoff")
	return f.TakeoffErr
}

func (f *Fake) Land(ctx context.Context) error {
	f.record("land")
	return f.LandErr
}

func (f *Fake) MoveRelative(ctx context.Context, forward, right, climb, yawDeg float64) error {
	f.record("move_relative")
	f.mu.Lock()
	f.Moves = append(f.Moves, Move{Forward: forward, Right: right, Climb: climb, YawDeg: yawDeg})
	f.mu.Unlock()
	return f.MoveErr
}

func (f *Fake) Position(relative bool) (link.Position, error) {
	f.record("position")
	if f.PosErr != nil {
		return link.Position{}, f.PosErr
	}
	pos := f.Pos
	pos.Relative = relative
	return pos, nil
}

func (f *Fake) SetReturnToLaunchAfterMission(rtl bool) {
	f.record("set_rtl")
	f.mu.Lock()
	f.RTL = rtl
	f.mu.Unlock()
}

func (f *Fake) UploadMission(ctx context.Context, plan *mission.Plan) error {
	f.record("upload_mission")
	f.mu.Lock()
	f.Plan = plan
	f.mu.Unlock()
	return f.UploadErr
}

func (f *Fake) StartMission(ctx context.Context) error {
	f.record("start_mission")
	return f.StartErr
}

func (f *Fake) SetIMURate(ctx context.Context, hz float64) error {
	f.record("set_imu_rate")
	f.mu.Lock()
	f.IMURate = hz
	f.mu.Unlock()
	return f.RateErr
}

func (f *Fake) SubscribeIMU() *link.Subscription[link.IMUSample] {
	return link.NewSubscription((<-chan link.IMUSample)(f.imuCh), nil)
}

func (f *Fake) SubscribeStatusText() *link.Subscription[link.StatusText] {
	return link.NewSubscription((<-chan link.StatusText)(f.statusCh), nil)
}

func (f *Fake) SubscribeMissionProgress() *link.Subscription[link.MissionProgress] {
	return link.NewSubscription((<-chan link.MissionProgress)(f.progressCh), nil)
}

func (f *Fake) PushConnectionState(s link.ConnectionState) { f.connCh <- s }
func (f *Fake) PushHealth(h link.Health)                   { f.healthCh <- h }
func (f *Fake) PushIMU(s link.IMUSample)                   { f.imuCh <- s }
func (f *Fake) PushStatusText(s link.StatusText)           { f.statusCh <- s }
func (f *Fake) PushMissionProgress(p link.MissionProgress) { f.progressCh <- p }

// CloseIMU ends the IMU stream, simulating a vehicle that stops
// publishing.
func (f *Fake) CloseIMU() { close(f.imuCh) }

var _ link.Link = (*Fake)(nil)
