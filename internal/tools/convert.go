package tools

import (
	"fmt"

	"MavGate/internal/mission"
)

// pointInput is the wire shape of one mission waypoint. Required
// fields are pointers so an omitted field is distinguishable from a
// zero value; optional fields left out stay at the plan's "unset"
// sentinel.
type pointInput struct {
	LatitudeDeg          *float64 `json:"latitude_deg" jsonschema:"latitude in degrees, -90 to 90"`
	LongitudeDeg         *float64 `json:"longitude_deg" jsonschema:"longitude in degrees, -180 to 180"`
	RelativeAltitudeM    *float64 `json:"relative_altitude_m" jsonschema:"altitude relative to the takeoff altitude in meters"`
	SpeedMS              *float64 `json:"speed_m_s" jsonschema:"speed in meters per second"`
	IsFlyThrough         *bool    `json:"is_fly_through" jsonschema:"fly through the point instead of stopping"`
	GimbalPitchDeg       *float64 `json:"gimbal_pitch_deg,omitempty"`
	GimbalYawDeg         *float64 `json:"gimbal_yaw_deg,omitempty"`
	CameraAction         string   `json:"camera_action,omitempty" jsonschema:"one of none, take_photo, start_photo_interval, stop_photo_interval, start_video, stop_video, start_photo_distance, stop_photo_distance"`
	LoiterTimeS          *float64 `json:"loiter_time_s,omitempty"`
	CameraPhotoIntervalS *float64 `json:"camera_photo_interval_s,omitempty"`
	AcceptanceRadiusM    *float64 `json:"acceptance_radius_m,omitempty"`
	YawDeg               *float64 `json:"yaw_deg,omitempty"`
	CameraPhotoDistanceM *float64 `json:"camera_photo_distance_m,omitempty"`
	VehicleAction        string   `json:"vehicle_action,omitempty" jsonschema:"one of none, takeoff, land, transition_to_fixedwing, transition_to_multicopter"`
}

func pointsFromInput(inputs []pointInput) ([]mission.Point, error) {
	points := make([]mission.Point, 0, len(inputs))
	for i, in := range inputs {
		p, err := pointFromInput(i, in)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

func pointFromInput(i int, in pointInput) (mission.Point, error) {
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"latitude_deg", in.LatitudeDeg != nil},
		{"longitude_deg", in.LongitudeDeg != nil},
		{"relative_altitude_m", in.RelativeAltitudeM != nil},
		{"speed_m_s", in.SpeedMS != nil},
		{"is_fly_through", in.IsFlyThrough != nil},
	} {
		if !f.set {
			return mission.Point{}, fmt.Errorf("mission point %d: missing required field %s", i, f.name)
		}
	}

	p := mission.NewPoint(*in.LatitudeDeg, *in.LongitudeDeg, *in.RelativeAltitudeM, *in.SpeedMS, *in.IsFlyThrough)

	if in.GimbalPitchDeg != nil {
		p.GimbalPitch = *in.GimbalPitchDeg
	}
	if in.GimbalYawDeg != nil {
		p.GimbalYaw = *in.GimbalYawDeg
	}
	if in.LoiterTimeS != nil {
		p.LoiterTime = *in.LoiterTimeS
	}
	if in.CameraPhotoIntervalS != nil {
		p.PhotoInterval = *in.CameraPhotoIntervalS
	}
	if in.AcceptanceRadiusM != nil {
		p.AcceptanceRadius = *in.AcceptanceRadiusM
	}
	if in.YawDeg != nil {
		p.Yaw = *in.YawDeg
	}
	if in.CameraPhotoDistanceM != nil {
		p.PhotoDistance = *in.CameraPhotoDistanceM
	}

	camera, err := parseCameraAction(in.CameraAction)
	if err != nil {
		return mission.Point{}, fmt.Errorf("mission point %d: %w", i, err)
	}
	p.CameraAction = camera

	vehicle, err := parseVehicleAction(in.VehicleAction)
	if err != nil {
		return mission.Point{}, fmt.Errorf("mission point %d: %w", i, err)
	}
	p.VehicleAction = vehicle

	return p, nil
}

func parseCameraAction(s string) (mission.CameraAction, error) {
	switch s {
	case "", "none":
		return mission.CameraActionNone, nil
	case "take_photo":
		return mission.CameraActionTakePhoto, nil
	case "start_photo_interval":
		return mission.CameraActionStartPhotoInterval, nil
	case "stop_photo_interval":
		return mission.CameraActionStopPhotoInterval, nil
	case "start_video":
		return mission.CameraActionStartVideo, nil
	case "stop_video":
		return mission.CameraActionStopVideo, nil
	case "start_photo_distance":
		return mission.CameraActionStartPhotoDistance, nil
	case "stop_photo_distance":
		return mission.CameraActionStopPhotoDistance, nil
	default:
		return mission.CameraActionNone, fmt.Errorf("unknown camera_action %q", s)
	}
}

func parseVehicleAction(s string) (mission.VehicleAction, error) {
	switch s {
	case "", "none":
		return mission.VehicleActionNone, nil
	case "takeoff":
		return mission.VehicleActionTakeoff, nil
	case "land":
		return mission.VehicleActionLand, nil
	case "transition_to_fixedwing":
		return mission.VehicleActionTransitionToFixedwing, nil
	case "transition_to_multicopter":
		return mission.VehicleActionTransitionToMulticopter, nil
	default:
		return mission.VehicleActionNone, fmt.Errorf("unknown vehicle_action %q", s)
	}
}
