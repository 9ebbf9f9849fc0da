// Package config reads the environment once at startup. There is no
// hot reload; the link address is fixed for the session's lifetime.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Address is the local address the MAVLink UDP endpoint binds to
	// (the vehicle or SITL pushes packets here).
	Address string
	Port    int

	// FeedAddr enables the websocket telemetry feed when non-empty.
	FeedAddr string

	// FlightLogPath enables the sqlite flight event log when
	// non-empty.
	FlightLogPath string
}

func FromEnv() (Config, error) {
	address := os.Getenv("MAVLINK_ADDRESS")
	if address == "" {
		return Config{}, errors.New("MAVLINK_ADDRESS must be set (e.g. 0.0.0.0)")
	}

	port := 14540
	if v := os.Getenv("MAVLINK_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 || p > 65535 {
			return Config{}, fmt.Errorf("invalid MAVLINK_PORT %q", v)
		}
		port = p
	}

	return Config{
		Address:       address,
		Port:          port,
		FeedAddr:      os.Getenv("TELEMETRY_FEED_ADDR"),
		FlightLogPath: os.Getenv("FLIGHT_LOG_PATH"),
	}, nil
}
