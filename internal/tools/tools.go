// Package tools registers the gateway's operations as MCP tools and
// translates between tool request shapes and the internal types.
package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"MavGate/internal/gateway"
	"MavGate/internal/mission"
	"MavGate/internal/telemetry"
)

const (
	defaultTakeoffAltitude = 10.0
	defaultIMUSamples      = 1
)

type Deps struct {
	Gateway *gateway.Gateway
	Relay   *telemetry.Relay
	Planner *mission.Planner
}

type successOutput struct {
	Success bool `json:"success"`
}

type emptyInput struct{}

type positionInput struct {
	Relative bool `json:"relative" jsonschema:"whether the altitude is relative to the home position instead of mean sea level"`
}

type positionOutput struct {
	Latitude  float64 `json:"latitude_deg"`
	Longitude float64 `json:"longitude_deg"`
	Altitude  float64 `json:"altitude_m"`
}

type moveInput struct {
	LR       float64 `json:"lr" jsonschema:"distance along the left/right axis in meters, right is positive"`
	FB       float64 `json:"fb" jsonschema:"distance along the front/back axis in meters, front is positive"`
	Altitude float64 `json:"altitude" jsonschema:"altitude change in meters relative to the current point"`
	Yaw      float64 `json:"yaw" jsonschema:"yaw change in degrees"`
}

type takeoffInput struct {
	TakeoffAltitude *float64 `json:"takeoff_altitude,omitempty" jsonschema:"altitude to ascend to in meters, default 10"`
}

type imuInput struct {
	N *int `json:"n,omitempty" jsonschema:"number of IMU samples to fetch, default 1"`
}

type vectorOutput struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type imuSampleOutput struct {
	TimestampUS     uint64       `json:"timestamp_us"`
	Acceleration    vectorOutput `json:"acceleration"`
	AngularVelocity vectorOutput `json:"angular_velocity"`
	MagneticField   vectorOutput `json:"magnetic_field"`
	TemperatureDegC float64      `json:"temperature_degc"`
}

type imuOutput struct {
	Samples []imuSampleOutput `json:"samples"`
}

type relayOutput struct {
	Relayed int `json:"relayed"`
}

type missionInput struct {
	MissionPoints  []pointInput `json:"mission_points" jsonschema:"ordered list of mission waypoints"`
	ReturnToLaunch *bool        `json:"return_to_launch,omitempty" jsonschema:"return to launch after the mission, default true"`
}

// Register wires every exposed operation into the MCP server.
func Register(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "arm_drone",
		Description: "Arm the drone.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, successOutput, error) {
		if err := d.Gateway.Arm(ctx); err != nil {
			return nil, successOutput{}, err
		}
		return nil, successOutput{Success: true}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_position",
		Description: "Get the position of the drone as latitude, longitude and altitude.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in positionInput) (*mcp.CallToolResult, positionOutput, error) {
		pos, err := d.Gateway.Position(in.Relative)
		if err != nil {
			return nil, positionOutput{}, err
		}
		return nil, positionOutput{
			Latitude:  pos.Latitude,
			Longitude: pos.Longitude,
			Altitude:  pos.Altitude,
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_to_relative",
		Description: "Move the drone relative to its current position. The drone must be armed.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in moveInput) (*mcp.CallToolResult, successOutput, error) {
		if err := d.Gateway.MoveToRelative(ctx, in.LR, in.FB, in.Altitude, in.Yaw); err != nil {
			return nil, successOutput{}, err
		}
		return nil, successOutput{Success: true}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "takeoff",
		Description: "Command the drone to take off and ascend to the given altitude. The drone must be armed.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in takeoffInput) (*mcp.CallToolResult, successOutput, error) {
		altitude := defaultTakeoffAltitude
		if in.TakeoffAltitude != nil {
			altitude = *in.TakeoffAltitude
		}
		if err := d.Gateway.Takeoff(ctx, altitude); err != nil {
			return nil, successOutput{}, err
		}
		return nil, successOutput{Success: true}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "land",
		Description: "Command the drone to land at its current location.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, successOutput, error) {
		if err := d.Gateway.Land(ctx); err != nil {
			return nil, successOutput{}, err
		}
		return nil, successOutput{Success: true}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "print_status_text",
		Description: "Stream status text from the drone to the server log until cancelled.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, relayOutput, error) {
		relayed, err := d.Relay.RelayStatusText(ctx)
		if err != nil {
			return nil, relayOutput{}, err
		}
		return nil, relayOutput{Relayed: relayed}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_imu",
		Description: "Fetch the next n IMU samples from the drone.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in imuInput) (*mcp.CallToolResult, imuOutput, error) {
		n := defaultIMUSamples
		if in.N != nil {
			n = *in.N
		}
		samples, err := d.Relay.CollectIMU(ctx, n)
		if err != nil {
			return nil, imuOutput{}, err
		}
		out := imuOutput{Samples: make([]imuSampleOutput, len(samples))}
		for i, s := range samples {
			out.Samples[i] = imuSampleOutput{
				TimestampUS:     s.TimestampUS,
				Acceleration:    vectorOutput(s.Acceleration),
				AngularVelocity: vectorOutput(s.AngularVelocity),
				MagneticField:   vectorOutput(s.MagneticField),
				TemperatureDegC: s.Temperature,
			}
		}
		return nil, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "print_mission_progress",
		Description: "Stream mission progress updates to the server log until cancelled.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, relayOutput, error) {
		relayed, err := d.Relay.RelayMissionProgress(ctx)
		if err != nil {
			return nil, relayOutput{}, err
		}
		return nil, relayOutput{Relayed: relayed}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "initiate_mission",
		Description: "Validate, upload and start a mission from a list of waypoints. The drone must be armed.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in missionInput) (*mcp.CallToolResult, successOutput, error) {
		points, err := pointsFromInput(in.MissionPoints)
		if err != nil {
			return nil, successOutput{}, err
		}
		returnToLaunch := true
		if in.ReturnToLaunch != nil {
			returnToLaunch = *in.ReturnToLaunch
		}
		if err := d.Planner.Initiate(ctx, points, returnToLaunch); err != nil {
			return nil, successOutput{}, err
		}
		return nil, successOutput{Success: true}, nil
	})
}
