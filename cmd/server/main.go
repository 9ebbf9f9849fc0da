// Command server exposes a MAVLink drone's flight-control and
// telemetry operations as MCP tools over stdio. The log goes to
// stderr; stdout belongs to the MCP transport.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"MavGate/internal/config"
	"MavGate/internal/flightlog"
	"MavGate/internal/gateway"
	"MavGate/internal/link"
	"MavGate/internal/mission"
	"MavGate/internal/session"
	"MavGate/internal/stream"
	"MavGate/internal/telemetry"
	"MavGate/internal/tools"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lk := link.NewMAVLink(link.Config{
		Address:  cfg.Address,
		Port:     cfg.Port,
		SystemID: 10,
	}, logger)

	logger.Info("opening vehicle session", "address", cfg.Address, "port", cfg.Port)
	sess, err := session.Open(ctx, lk, logger, session.Options{})
	if err != nil {
		logger.Error("session open failed", "error", err)
		os.Exit(1)
	}
	defer sess.Close()

	var rec *flightlog.Store
	if cfg.FlightLogPath != "" {
		rec, err = flightlog.Open(cfg.FlightLogPath, logger)
		if err != nil {
			logger.Error("flight log open failed", "error", err)
			os.Exit(1)
		}
		defer rec.Close()
	}

	var feed *stream.Feed
	if cfg.FeedAddr != "" {
		feed = stream.NewFeed(cfg.FeedAddr, logger)
		feed.Start()
		defer feed.Close()
	}

	var gwRec gateway.Recorder
	var tlRec telemetry.Recorder
	if rec != nil {
		gwRec, tlRec = rec, rec
	}
	var publisher telemetry.Publisher
	if feed != nil {
		publisher = feed
	}

	deps := tools.Deps{
		Gateway: gateway.New(sess, logger, gwRec),
		Relay:   telemetry.New(sess, logger, tlRec, publisher),
		Planner: mission.NewPlanner(sess.Link(), logger),
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "mavgate", Version: "0.1.0"}, nil)
	tools.Register(server, deps)

	logger.Info("serving MCP tools on stdio")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
