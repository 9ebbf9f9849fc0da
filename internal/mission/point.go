package mission

import (
	"fmt"
	"math"
)

// CameraAction is an instruction executed when the vehicle reaches a
// mission point. CameraActionNone means "no instruction" and must never
// be interpreted as any of the concrete actions.
type CameraAction int

const (
	CameraActionNone CameraAction = iota
	CameraActionTakePhoto
	CameraActionStartPhotoInterval
	CameraActionStopPhotoInterval
	CameraActionStartVideo
	CameraActionStopVideo
	CameraActionStartPhotoDistance
	CameraActionStopPhotoDistance
)

// VehicleAction is a vehicle maneuver executed at a mission point.
// VehicleActionNone means "no instruction".
type VehicleAction int

const (
	VehicleActionNone VehicleAction = iota
	VehicleActionTakeoff
	VehicleActionLand
	VehicleActionTransitionToFixedwing
	VehicleActionTransitionToMulticopter
)

// Point is one waypoint of a mission. Latitude, Longitude,
// RelativeAltitude, Speed and FlyThrough are required. All numeric
// optional fields default to NaN and the action fields default to their
// None value; consumers must treat those sentinels as "unset", never as
// zero.
type Point struct {
	Latitude         float64
	Longitude        float64
	RelativeAltitude float64
	Speed            float64
	FlyThrough       bool

	GimbalPitch      float64
	GimbalYaw        float64
	LoiterTime       float64
	PhotoInterval    float64
	PhotoDistance    float64
	AcceptanceRadius float64
	Yaw              float64
	CameraAction     CameraAction
	VehicleAction    VehicleAction
}

// NewPoint builds a Point from the required fields, leaving every
// optional field at its unset sentinel.
func NewPoint(lat, lon, relativeAltitude, speed float64, flyThrough bool) Point {
	nan := math.NaN()
	return Point{
		Latitude:         lat,
		Longitude:        lon,
		RelativeAltitude: relativeAltitude,
		Speed:            speed,
		FlyThrough:       flyThrough,
		GimbalPitch:      nan,
		GimbalYaw:        nan,
		LoiterTime:       nan,
		PhotoInterval:    nan,
		PhotoDistance:    nan,
		AcceptanceRadius: nan,
		Yaw:              nan,
		CameraAction:     CameraActionNone,
		VehicleAction:    VehicleActionNone,
	}
}

// Validate checks a batch of points in input order and returns an error
// describing the first violation. It performs no I/O; a batch that fails
// validation must never reach the vehicle.
func Validate(points []Point) error {
	for i, p := range points {
		for _, f := range []struct {
			name  string
			value float64
		}{
			{"latitude_deg", p.Latitude},
			{"longitude_deg", p.Longitude},
			{"relative_altitude_m", p.RelativeAltitude},
			{"speed_m_s", p.Speed},
		} {
			if math.IsNaN(f.value) {
				return fmt.Errorf("mission point %d: missing required field %s", i, f.name)
			}
		}
		if p.Latitude < -90 || p.Latitude > 90 {
			return fmt.Errorf("mission point %d: invalid latitude_deg %v: must be between -90 and 90", i, p.Latitude)
		}
		if p.Longitude < -180 || p.Longitude > 180 {
			return fmt.Errorf("mission point %d: invalid longitude_deg %v: must be between -180 and 180", i, p.Longitude)
		}
	}
	return nil
}
