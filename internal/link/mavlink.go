package link

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	geo "MavGate/internal/common"
)

const (
	coordScale      = 1e7
	commandAttempts = 5
	ackTimeout      = 5 * time.Second

	defaultTakeoffAltitude = 10.0
)

// Config selects the UDP endpoint the vehicle talks to and the system
// ID this node reports on the wire.
type Config struct {
	Address  string
	Port     int
	SystemID byte
}

// MAVLink is the gomavlib-backed Link. One goroutine drains the node's
// event channel and fans frames out into cached state, pending command
// acks and telemetry hubs; commands are written from the caller's
// goroutine and matched against acks by command ID, so concurrent
// distinct commands do not interfere.
type MAVLink struct {
	cfg    Config
	logger *slog.Logger

	mu              sync.Mutex
	node            *gomavlib.Node
	connected       bool
	health          Health
	lastPosition    *common.MessageGlobalPositionInt
	yaw             float64
	takeoffAltitude float64
	rtlAfterMission bool
	pendingAcks     map[common.MAV_CMD]chan *common.MessageCommandAck

	connHub     *hub[ConnectionState]
	healthHub   *hub[Health]
	imuHub      *hub[IMUSample]
	statusHub   *hub[StatusText]
	progressHub *hub[MissionProgress]

	missionReqs chan uint16
	missionAcks chan common.MAV_MISSION_RESULT

	done      chan struct{}
	closeOnce sync.Once
}

func NewMAVLink(cfg Config, logger *slog.Logger) *MAVLink {
	return &MAVLink{
		cfg:             cfg,
		logger:          logger,
		takeoffAltitude: defaultTakeoffAltitude,
		pendingAcks:     make(map[common.MAV_CMD]chan *common.MessageCommandAck),
		connHub:         newHub[ConnectionState](),
		healthHub:       newHub[Health](),
		imuHub:          newHub[IMUSample](),
		statusHub:       newHub[StatusText](),
		progressHub:     newHub[MissionProgress](),
		missionReqs:     make(chan uint16, 64),
		missionAcks:     make(chan common.MAV_MISSION_RESULT, 4),
		done:            make(chan struct{}),
	}
}

// Connect opens the UDP endpoint and starts the event loop. It returns
// once the node is listening; readiness (heartbeat, health) is observed
// through the ConnectionState and Health subscriptions.
func (m *MAVLink) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s:%d", m.cfg.Address, m.cfg.Port)
	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints: []gomavlib.EndpointConf{
			gomavlib.EndpointUDPServer{Address: endpoint},
		},
		Dialect:     common.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: m.cfg.SystemID,
	})
	if err != nil {
		return fmt.Errorf("open mavlink endpoint %s: %w", endpoint, err)
	}

	m.mu.Lock()
	m.node = node
	m.mu.Unlock()

	m.logger.Info("mavlink endpoint open", "endpoint", endpoint)
	go m.run()
	return nil
}

func (m *MAVLink) run() {
	for {
		select {
		case <-m.done:
			return
		case evt, ok := <-m.node.Events():
			if !ok {
				return
			}
			if frame, ok := evt.(*gomavlib.EventFrame); ok {
				m.handleFrame(frame)
			}
		}
	}
}

func (m *MAVLink) handleFrame(evt *gomavlib.EventFrame) {
	switch msg := evt.Frame.GetMessage().(type) {
	case *common.MessageHeartbeat:
		m.mu.Lock()
		m.connected = true
		m.mu.Unlock()
		m.connHub.publish(ConnectionState{Connected: true})
	case *common.MessageGpsRawInt:
		m.mu.Lock()
		m.health.GlobalPositionOK = msg.FixType >= common.GPS_FIX_TYPE_3D_FIX
		health := m.health
		m.mu.Unlock()
		m.healthHub.publish(health)
	case *common.MessageHomePosition:
		m.mu.Lock()
		m.health.HomePositionOK = true
		health := m.health
		m.mu.Unlock()
		m.healthHub.publish(health)
	case *common.MessageGlobalPositionInt:
		m.mu.Lock()
		m.lastPosition = msg
		m.mu.Unlock()
	case *common.MessageAttitude:
		m.mu.Lock()
		m.yaw = float64(msg.Yaw)
		m.mu.Unlock()
	case *common.MessageStatustext:
		m.statusHub.publish(StatusText{
			Severity: msg.Severity.String(),
			Text:     msg.Text,
		})
	case *common.MessageMissionCurrent:
		m.progressHub.publish(MissionProgress{
			Current: int(msg.Seq),
			Total:   int(msg.Total),
		})
	case *common.MessageHighresImu:
		m.imuHub.publish(IMUSample{
			TimestampUS: msg.TimeUsec,
			Acceleration: Vector3{
				X: float64(msg.Xacc),
				Y: float64(msg.Yacc),
				Z: float64(msg.Zacc),
			},
			AngularVelocity: Vector3{
				X: float64(msg.Xgyro),
				Y: float64(msg.Ygyro),
				Z: float64(msg.Zgyro),
			},
			MagneticField: Vector3{
				X: float64(msg.Xmag),
				Y: float64(msg.Ymag),
				Z: float64(msg.Zmag),
			},
			Temperature: float64(msg.Temperature),
		})
	case *common.MessageCommandAck:
		m.mu.Lock()
		ch := m.pendingAcks[msg.Command]
		m.mu.Unlock()
		if ch != nil {
			select {
			case ch <- msg:
			default:
			}
		}
	case *common.MessageMissionRequestInt:
		select {
		case m.missionReqs <- msg.Seq:
		default:
		}
	case *common.MessageMissionRequest:
		select {
		case m.missionReqs <- msg.Seq:
		default:
		}
	case *common.MessageMissionAck:
		select {
		case m.missionAcks <- msg.Type:
		default:
		}
	}
}

// Close tears the endpoint down and closes every open subscription.
// Safe to call more than once.
func (m *MAVLink) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		node := m.node
		m.mu.Unlock()
		if node != nil {
			node.Close()
		}
		m.connHub.closeAll()
		m.healthHub.closeAll()
		m.imuHub.closeAll()
		m.statusHub.closeAll()
		m.progressHub.closeAll()
	})
	return nil
}

func (m *MAVLink) ConnectionState() *Subscription[ConnectionState] {
	m.mu.Lock()
	current := ConnectionState{Connected: m.connected}
	m.mu.Unlock()
	return m.connHub.subscribe(16, current)
}

func (m *MAVLink) Health() *Subscription[Health] {
	m.mu.Lock()
	current := m.health
	m.mu.Unlock()
	return m.healthHub.subscribe(16, current)
}

func (m *MAVLink) SubscribeIMU() *Subscription[IMUSample] {
	return m.imuHub.subscribe(256)
}

func (m *MAVLink) SubscribeStatusText() *Subscription[StatusText] {
	return m.statusHub.subscribe(64)
}

func (m *MAVLink) SubscribeMissionProgress() *Subscription[MissionProgress] {
	return m.progressHub.subscribe(64)
}

func (m *MAVLink) writeMessage(msg message.Message) error {
	m.mu.Lock()
	node := m.node
	m.mu.Unlock()
	if node == nil {
		return ErrNotConnected
	}
	return node.WriteMessageAll(msg)
}

func (m *MAVLink) registerAck(cmd common.MAV_CMD) chan *common.MessageCommandAck {
	ch := make(chan *common.MessageCommandAck, 1)
	m.mu.Lock()
	m.pendingAcks[cmd] = ch
	m.mu.Unlock()
	return ch
}

func (m *MAVLink) unregisterAck(cmd common.MAV_CMD, ch chan *common.MessageCommandAck) {
	m.mu.Lock()
	if m.pendingAcks[cmd] == ch {
		delete(m.pendingAcks, cmd)
	}
	m.mu.Unlock()
}

// sendCommand writes a COMMAND_LONG and waits for a matching ack,
// retrying the write on each ack timeout.
func (m *MAVLink) sendCommand(ctx context.Context, msg *common.MessageCommandLong) error {
	ackCh := m.registerAck(msg.Command)
	defer m.unregisterAck(msg.Command, ackCh)

	for attempt := 0; attempt < commandAttempts; attempt++ {
		if err := m.writeMessage(msg); err != nil {
			return err
		}

		select {
		case ack := <-ackCh:
			if ack.Result != common.MAV_RESULT_ACCEPTED {
				return fmt.Errorf("command %s rejected: %s", msg.Command.String(), ack.Result.String())
			}
			return nil
		case <-time.After(ackTimeout):
			m.logger.Info("no ack, resending command", "command", msg.Command.String(), "attempt", attempt+1)
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		}
	}

	return fmt.Errorf("command %s: %w", msg.Command.String(), ErrAckTimeout)
}

func (m *MAVLink) Arm(ctx context.Context) error {
	return m.sendCommand(ctx, &common.MessageCommandLong{
		TargetSystem:    1,
		TargetComponent: 1,
		Command:         common.MAV_CMD_COMPONENT_ARM_DISARM,
		Param1:          1, // 1 to arm, 0 to disarm
	})
}

func (m *MAVLink) SetTakeoffAltitude(meters float64) {
	m.mu.Lock()
	m.takeoffAltitude = meters
	m.mu.Unlock()
}

func (m *MAVLink) Takeoff(ctx context.Context) error {
	m.mu.Lock()
	altitude := m.takeoffAltitude
	m.mu.Unlock()

	nan := float32(math.NaN())
	return m.sendCommand(ctx, &common.MessageCommandLong{
		TargetSystem:    1,
		TargetComponent: 1,
		Command:         common.MAV_CMD_NAV_TAKEOFF,
		Param5:          nan, // NaN: take off from the current position
		Param6:          nan,
		Param7:          float32(altitude),
	})
}

func (m *MAVLink) Land(ctx context.Context) error {
	return m.sendCommand(ctx, &common.MessageCommandLong{
		TargetSystem:    1,
		TargetComponent: 1,
		Command:         common.MAV_CMD_NAV_LAND,
		Param2:          float32(common.PRECISION_LAND_MODE_DISABLED),
	})
}

// MoveRelative commands a displacement in the vehicle's body frame:
// forward and right in meters (positive forward/right), climb in meters
// (positive up), yawDeg added to the current heading. The body-frame
// displacement is rotated into the local NED frame using the current
// yaw.
func (m *MAVLink) MoveRelative(ctx context.Context, forward, right, climb, yawDeg float64) error {
	m.mu.Lock()
	yaw := m.yaw
	m.mu.Unlock()

	north, east := geo.BodyToNED(forward, right, yaw)
	msg := &common.MessageSetPositionTargetLocalNed{
		TargetSystem:    1,
		TargetComponent: 1,
		CoordinateFrame: common.MAV_FRAME_LOCAL_OFFSET_NED,
		TypeMask: common.POSITION_TARGET_TYPEMASK_VX_IGNORE |
			common.POSITION_TARGET_TYPEMASK_VY_IGNORE |
			common.POSITION_TARGET_TYPEMASK_VZ_IGNORE |
			common.POSITION_TARGET_TYPEMASK_AX_IGNORE |
			common.POSITION_TARGET_TYPEMASK_AY_IGNORE |
			common.POSITION_TARGET_TYPEMASK_AZ_IGNORE |
			common.POSITION_TARGET_TYPEMASK_YAW_RATE_IGNORE,
		X:   float32(north),
		Y:   float32(east),
		Z:   float32(-climb),
		Yaw: float32(yaw + geo.DegreesToRadians(yawDeg)),
	}

	// SET_POSITION_TARGET_LOCAL_NED is a setpoint, not a command: the
	// vehicle never acks it.
	return m.writeMessage(msg)
}

func (m *MAVLink) Position(relative bool) (Position, error) {
	m.mu.Lock()
	last := m.lastPosition
	m.mu.Unlock()
	if last == nil {
		return Position{}, ErrNoPosition
	}

	pos := Position{
		Latitude:  float64(last.Lat) / coordScale,
		Longitude: float64(last.Lon) / coordScale,
		Relative:  relative,
	}
	if relative {
		pos.Altitude = float64(last.RelativeAlt) / 1000
	} else {
		pos.Altitude = float64(last.Alt) / 1000
	}
	return pos, nil
}

func (m *MAVLink) SetReturnToLaunchAfterMission(rtl bool) {
	m.mu.Lock()
	m.rtlAfterMission = rtl
	m.mu.Unlock()
}

func (m *MAVLink) StartMission(ctx context.Context) error {
	return m.sendCommand(ctx, &common.MessageCommandLong{
		TargetSystem:    1,
		TargetComponent: 1,
		Command:         common.MAV_CMD_MISSION_START,
	})
}

// SetIMURate asks the vehicle to stream HIGHRES_IMU at the given
// frequency.
func (m *MAVLink) SetIMURate(ctx context.Context, hz float64) error {
	if hz <= 0 {
		return fmt.Errorf("imu rate must be positive, got %v", hz)
	}
	intervalUS := float32(1e6 / hz)
	return m.sendCommand(ctx, &common.MessageCommandLong{
		TargetSystem:    1,
		TargetComponent: 1,
		Command:         common.MAV_CMD_SET_MESSAGE_INTERVAL,
		Param1:          float32((&common.MessageHighresImu{}).GetID()),
		Param2:          intervalUS,
	})
}

var _ Link = (*MAVLink)(nil)
