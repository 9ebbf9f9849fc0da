package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("MAVLINK_ADDRESS", "0.0.0.0")
	t.Setenv("MAVLINK_PORT", "")
	t.Setenv("TELEMETRY_FEED_ADDR", "")
	t.Setenv("FLIGHT_LOG_PATH", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.Address != "0.0.0.0" || cfg.Port != 14540 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestFromEnvMissingAddressIsFatal(t *testing.T) {
	t.Setenv("MAVLINK_ADDRESS", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected an error for a missing address")
	}
}

func TestFromEnvInvalidPort(t *testing.T) {
	t.Setenv("MAVLINK_ADDRESS", "0.0.0.0")
	for _, bad := range []string{"abc", "0", "70000", "-1"} {
		t.Setenv("MAVLINK_PORT", bad)
		if _, err := FromEnv(); err == nil {
			t.Fatalf("port %q accepted", bad)
		}
	}
}

func TestFromEnvOptionalFeatures(t *testing.T) {
	t.Setenv("MAVLINK_ADDRESS", "0.0.0.0")
	t.Setenv("MAVLINK_PORT", "14550")
	t.Setenv("TELEMETRY_FEED_ADDR", "127.0.0.1:9100")
	t.Setenv("FLIGHT_LOG_PATH", "/tmp/flight.db")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.Port != 14550 {
		t.Fatalf("port = %d", cfg.Port)
	}
	if cfg.FeedAddr != "127.0.0.1:9100" || cfg.FlightLogPath != "/tmp/flight.db" {
		t.Fatalf("optional features not read: %+v", cfg)
	}
}
