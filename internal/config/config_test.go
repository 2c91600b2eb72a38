package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seagrayinc/bfble/internal/frame"
	"github.com/seagrayinc/bfble/pkg/bafang"
)

const sample = `
[log]
level = "debug"
console = false

[transport]
kind = "serial"
device = "/dev/ttyUSB0"
baud_rate = 9600
read_timeout = "250ms"

[protocol]
inbound_checksum = "by-command"

[[records]]
id = "battery"
size = 120

[[records]]
id = "0xA7"
size = 166

[api]
addr = ":9000"
cors_origins = ["http://localhost:3000"]

[sink]
redis_addr = "127.0.0.1:6379"
encoding = "cbor"
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bfctl.toml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Console {
		t.Fatalf("unexpected log section: %+v", cfg.Log)
	}
	if cfg.Transport.Kind != KindSerial || cfg.Transport.Device != "/dev/ttyUSB0" || cfg.Transport.BaudRate != 9600 {
		t.Fatalf("unexpected transport: %+v", cfg.Transport)
	}
	if d, _ := cfg.ReadTimeout(); d != 250*time.Millisecond {
		t.Fatalf("unexpected read timeout: %v", d)
	}
	if p, _ := cfg.Checksum(); p != frame.PolicyByCommand {
		t.Fatalf("unexpected checksum policy: %v", p)
	}
	if cfg.Protocol.EventBuffer != 64 {
		t.Fatalf("default event buffer lost: %d", cfg.Protocol.EventBuffer)
	}
	if cfg.API.Addr != ":9000" || len(cfg.API.CorsOrigins) != 1 {
		t.Fatalf("unexpected api: %+v", cfg.API)
	}
	if cfg.Sink.Encoding != EncodingCBOR || cfg.Sink.Channel != "bfble:records" {
		t.Fatalf("unexpected sink: %+v", cfg.Sink)
	}

	sizes, err := cfg.Sizes()
	if err != nil {
		t.Fatal(err)
	}
	if sizes[bafang.Battery] != 120 || sizes[bafang.Sensor] != 166 || sizes[bafang.Meter] != 198 {
		t.Fatalf("unexpected sizes: %v", sizes)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
	cfg, err := Decode("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transport.Kind != KindSim {
		t.Fatalf("default kind = %q", cfg.Transport.Kind)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", `transport.kind = "bluetooth"`},
		{"serial without device", `transport.kind = "serial"`},
		{"hid without ids", `transport.kind = "hid"`},
		{"bad timeout", `transport.read_timeout = "soon"`},
		{"bad checksum", `protocol.inbound_checksum = "crc32"`},
		{"bad record id", "[[records]]\nid = \"pedal\"\nsize = 10"},
		{"zero record size", "[[records]]\nid = \"a4\"\nsize = 0"},
		{"bad encoding", `sink.encoding = "xml"`},
		{"empty channel", "[sink]\nredis_addr = \"localhost:6379\"\nchannel = \"\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.doc)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error")
	}
}
