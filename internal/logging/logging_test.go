package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
		ok   bool
	}{
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"", zerolog.InfoLevel, false},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestInitJSON(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	var buf bytes.Buffer
	Init("bfctl", Config{Level: "warn", Out: &buf})

	log.Info().Msg("hidden")
	log.Warn().Str("frame", "55-aa").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if entry["app"] != "bfctl" || entry["message"] != "shown" || entry["frame"] != "55-aa" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}

func TestInitEnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	var buf bytes.Buffer
	logger := Init("bfctl", Config{Level: "error", Out: &buf})
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("level = %v, want debug", logger.GetLevel())
	}
}
