package common

import (
	"math"

	"golang.org/x/exp/constraints"
)

func DegreesToRadians[T constraints.Float](degrees T) T {
	return degrees * T(math.Pi) / 180
}

func RadiansToDegrees[T constraints.Float](radians T) T {
	return radians * 180 / T(math.Pi)
}

// BodyToNED rotates a body-frame displacement (forward, right) into the
// local NED frame given the vehicle's current yaw in radians.
func BodyToNED(forward, right, yaw float64) (north, east float64) {
	north = forward*math.Cos(yaw) - right*math.Sin(yaw)
	east = forward*math.Sin(yaw) + right*math.Cos(yaw)
	return north, east
}
