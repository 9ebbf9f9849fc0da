package link

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"MavGate/internal/mission"
)

const missionUploadTimeout = 30 * time.Second

// UploadMission runs the MAVLink mission microservice handshake: send
// MISSION_COUNT, answer each MISSION_REQUEST(_INT) with the matching
// MISSION_ITEM_INT, and finish on MISSION_ACK. A failed upload is not
// rolled back; the vehicle keeps whatever it accepted.
func (m *MAVLink) UploadMission(ctx context.Context, plan *mission.Plan) error {
	m.mu.Lock()
	rtl := m.rtlAfterMission
	m.mu.Unlock()

	items := buildMissionItems(plan.Points(), rtl)
	m.drainMissionChannels()

	count := &common.MessageMissionCount{
		TargetSystem:    1,
		TargetComponent: 1,
		Count:           uint16(len(items)),
		MissionType:     common.MAV_MISSION_TYPE_MISSION,
	}
	if err := m.writeMessage(count); err != nil {
		return err
	}

	deadline := time.After(missionUploadTimeout)
	for {
		select {
		case seq := <-m.missionReqs:
			if int(seq) >= len(items) {
				continue
			}
			if err := m.writeMessage(items[seq]); err != nil {
				return err
			}
		case result := <-m.missionAcks:
			if result != common.MAV_MISSION_ACCEPTED {
				return fmt.Errorf("mission upload rejected: %s", result.String())
			}
			return nil
		case <-deadline:
			return fmt.Errorf("mission upload: %w", ErrAckTimeout)
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		}
	}
}

func (m *MAVLink) drainMissionChannels() {
	for {
		select {
		case <-m.missionReqs:
		case <-m.missionAcks:
		default:
			return
		}
	}
}

// buildMissionItems translates a validated plan into MISSION_ITEM_INT
// messages. Each point becomes a NAV_WAYPOINT, preceded by a
// DO_CHANGE_SPEED whenever the commanded speed changes and by
// gimbal/camera instructions when the point carries them. Unset numeric
// optionals travel as NaN, which the autopilot reads as "use default";
// they are never turned into zeros. When the return-to-launch flag is
// set a NAV_RETURN_TO_LAUNCH item is appended, which is how the flag is
// expressed at the protocol level.
func buildMissionItems(points []mission.Point, returnToLaunch bool) []*common.MessageMissionItemInt {
	var items []*common.MessageMissionItemInt
	add := func(item *common.MessageMissionItemInt) {
		item.TargetSystem = 1
		item.TargetComponent = 1
		item.Seq = uint16(len(items))
		item.Autocontinue = 1
		item.MissionType = common.MAV_MISSION_TYPE_MISSION
		items = append(items, item)
	}

	nan := float32(math.NaN())
	lastSpeed := math.NaN()

	for _, p := range points {
		if p.Speed != lastSpeed {
			add(&common.MessageMissionItemInt{
				Frame:   common.MAV_FRAME_MISSION,
				Command: common.MAV_CMD_DO_CHANGE_SPEED,
				Param1:  1, // ground speed
				Param2:  float32(p.Speed),
				Param3:  -1, // throttle unchanged
			})
			lastSpeed = p.Speed
		}

		if !math.IsNaN(p.GimbalPitch) || !math.IsNaN(p.GimbalYaw) {
			add(&common.MessageMissionItemInt{
				Frame:   common.MAV_FRAME_MISSION,
				Command: common.MAV_CMD_DO_MOUNT_CONTROL,
				Param1:  float32(p.GimbalPitch),
				Param3:  float32(p.GimbalYaw),
				Z:       float32(common.MAV_MOUNT_MODE_MAVLINK_TARGETING),
			})
		}

		holdTime := float32(0)
		if !p.FlyThrough && !math.IsNaN(p.LoiterTime) {
			holdTime = float32(p.LoiterTime)
		}
		acceptanceRadius := nan
		if !math.IsNaN(p.AcceptanceRadius) {
			acceptanceRadius = float32(p.AcceptanceRadius)
		}
		yaw := nan
		if !math.IsNaN(p.Yaw) {
			yaw = float32(p.Yaw)
		}
		add(&common.MessageMissionItemInt{
			Frame:   common.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT,
			Command: common.MAV_CMD_NAV_WAYPOINT,
			Param1:  holdTime,
			Param2:  acceptanceRadius,
			Param4:  yaw,
			X:       int32(p.Latitude * coordScale),
			Y:       int32(p.Longitude * coordScale),
			Z:       float32(p.RelativeAltitude),
		})

		for _, item := range cameraItems(p) {
			add(item)
		}

		switch p.VehicleAction {
		case mission.VehicleActionTakeoff:
			add(&common.MessageMissionItemInt{
				Frame:   common.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT,
				Command: common.MAV_CMD_NAV_TAKEOFF,
				X:       int32(p.Latitude * coordScale),
				Y:       int32(p.Longitude * coordScale),
				Z:       float32(p.RelativeAltitude),
			})
		case mission.VehicleActionLand:
			add(&common.MessageMissionItemInt{
				Frame:   common.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT,
				Command: common.MAV_CMD_NAV_LAND,
				X:       int32(p.Latitude * coordScale),
				Y:       int32(p.Longitude * coordScale),
			})
		case mission.VehicleActionTransitionToFixedwing:
			add(&common.MessageMissionItemInt{
				Frame:   common.MAV_FRAME_MISSION,
				Command: common.MAV_CMD_DO_VTOL_TRANSITION,
				Param1:  float32(common.MAV_VTOL_STATE_FW),
			})
		case mission.VehicleActionTransitionToMulticopter:
			add(&common.MessageMissionItemInt{
				Frame:   common.MAV_FRAME_MISSION,
				Command: common.MAV_CMD_DO_VTOL_TRANSITION,
				Param1:  float32(common.MAV_VTOL_STATE_MC),
			})
		}
	}

	if returnToLaunch {
		add(&common.MessageMissionItemInt{
			Frame:   common.MAV_FRAME_MISSION,
			Command: common.MAV_CMD_NAV_RETURN_TO_LAUNCH,
		})
	}

	if len(items) > 0 {
		items[0].Current = 1
	}
	return items
}

func cameraItems(p mission.Point) []*common.MessageMissionItemInt {
	var items []*common.MessageMissionItemInt
	switch p.CameraAction {
	case mission.CameraActionTakePhoto:
		items = append(items, &common.MessageMissionItemInt{
			Frame:   common.MAV_FRAME_MISSION,
			Command: common.MAV_CMD_IMAGE_START_CAPTURE,
			Param3:  1, // single image
		})
	case mission.CameraActionStartPhotoInterval:
		interval := float32(0)
		if !math.IsNaN(p.PhotoInterval) {
			interval = float32(p.PhotoInterval)
		}
		items = append(items, &common.MessageMissionItemInt{
			Frame:   common.MAV_FRAME_MISSION,
			Command: common.MAV_CMD_IMAGE_START_CAPTURE,
			Param2:  interval,
		})
	case mission.CameraActionStopPhotoInterval:
		items = append(items, &common.MessageMissionItemInt{
			Frame:   common.MAV_FRAME_MISSION,
			Command: common.MAV_CMD_IMAGE_STOP_CAPTURE,
		})
	case mission.CameraActionStartVideo:
		items = append(items, &common.MessageMissionItemInt{
			Frame:   common.MAV_FRAME_MISSION,
			Command: common.MAV_CMD_VIDEO_START_CAPTURE,
		})
	case mission.CameraActionStopVideo:
		items = append(items, &common.MessageMissionItemInt{
			Frame:   common.MAV_FRAME_MISSION,
			Command: common.MAV_CMD_VIDEO_STOP_CAPTURE,
		})
	case mission.CameraActionStartPhotoDistance:
		distance := float32(0)
		if !math.IsNaN(p.PhotoDistance) {
			distance = float32(p.PhotoDistance)
		}
		items = append(items, &common.MessageMissionItemInt{
			Frame:   common.MAV_FRAME_MISSION,
			Command: common.MAV_CMD_DO_SET_CAM_TRIGG_DIST,
			Param1:  distance,
			Param3:  1, // trigger immediately on reaching the distance
		})
	case mission.CameraActionStopPhotoDistance:
		items = append(items, &common.MessageMissionItemInt{
			Frame:   common.MAV_FRAME_MISSION,
			Command: common.MAV_CMD_DO_SET_CAM_TRIGG_DIST,
		})
	}
	return items
}
