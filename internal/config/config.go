// Package config loads the bfctl TOML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/seagrayinc/bfble/internal/frame"
	"github.com/seagrayinc/bfble/pkg/bafang"
)

var ErrInvalid = errors.New("config: invalid")

// Transport kinds.
const (
	KindSerial = "serial"
	KindHID    = "hid"
	KindUSB    = "usb"
	KindSim    = "sim"
)

// Sink encodings.
const (
	EncodingJSON = "json"
	EncodingCBOR = "cbor"
)

type Config struct {
	Log       Log          `toml:"log"`
	Transport Transport    `toml:"transport"`
	Protocol  Protocol     `toml:"protocol"`
	Records   []RecordSize `toml:"records"`
	API       API          `toml:"api"`
	Sink      Sink         `toml:"sink"`
}

type Log struct {
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
}

type Transport struct {
	Kind        string `toml:"kind"`
	Device      string `toml:"device"`
	BaudRate    int    `toml:"baud_rate"`
	VendorID    uint16 `toml:"vendor_id"`
	ProductID   uint16 `toml:"product_id"`
	ReportID    uint8  `toml:"report_id"`
	ReportLen   int    `toml:"report_len"`
	ReadTimeout string `toml:"read_timeout"`
	// MTU and Latency shape simulator replies.
	MTU     int    `toml:"mtu"`
	Latency string `toml:"latency"`
}

type Protocol struct {
	InboundChecksum string `toml:"inbound_checksum"`
	EventBuffer     int    `toml:"event_buffer"`
	CommandBuffer   int    `toml:"command_buffer"`
}

// RecordSize overrides the full payload size of one record id.
type RecordSize struct {
	ID   string `toml:"id"`
	Size int    `toml:"size"`
}

type API struct {
	// Addr is the HTTP listen address. Empty disables the API.
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

type Sink struct {
	// RedisAddr enables the sink when set.
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	Channel   string `toml:"channel"`
	Encoding  string `toml:"encoding"`
}

func Default() Config {
	return Config{
		Log: Log{Level: "info", Console: true},
		Transport: Transport{
			Kind:        KindSim,
			BaudRate:    115200,
			ReportLen:   64,
			ReadTimeout: "500ms",
			MTU:         20,
		},
		Protocol: Protocol{
			InboundChecksum: frame.PolicySum16.String(),
			EventBuffer:     64,
			CommandBuffer:   64,
		},
		API: API{Addr: "127.0.0.1:8089"},
		Sink: Sink{
			Channel:  "bfble:records",
			Encoding: EncodingJSON,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode is Load for an in-memory document.
func Decode(doc string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(doc, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	t := c.Transport
	switch strings.TrimSpace(t.Kind) {
	case KindSerial:
		if strings.TrimSpace(t.Device) == "" {
			return fmt.Errorf("%w: transport.device is required for serial", ErrInvalid)
		}
		if t.BaudRate <= 0 {
			return fmt.Errorf("%w: transport.baud_rate must be positive", ErrInvalid)
		}
	case KindHID, KindUSB:
		if t.VendorID == 0 || t.ProductID == 0 {
			return fmt.Errorf("%w: transport.vendor_id and product_id are required for %s", ErrInvalid, t.Kind)
		}
	case KindSim:
	default:
		return fmt.Errorf("%w: unknown transport.kind %q", ErrInvalid, t.Kind)
	}
	if _, err := c.ReadTimeout(); err != nil {
		return err
	}
	if _, err := c.Latency(); err != nil {
		return err
	}

	if _, err := c.Checksum(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.Sizes(); err != nil {
		return err
	}

	switch c.Sink.Encoding {
	case EncodingJSON, EncodingCBOR:
	default:
		return fmt.Errorf("%w: unknown sink.encoding %q", ErrInvalid, c.Sink.Encoding)
	}
	if c.Sink.RedisAddr != "" && strings.TrimSpace(c.Sink.Channel) == "" {
		return fmt.Errorf("%w: sink.channel is required with redis_addr", ErrInvalid)
	}
	return nil
}

func (c Config) ReadTimeout() (time.Duration, error) {
	return parseDuration("transport.read_timeout", c.Transport.ReadTimeout)
}

func (c Config) Latency() (time.Duration, error) {
	return parseDuration("transport.latency", c.Transport.Latency)
}

func parseDuration(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: parse %s %q", ErrInvalid, key, raw)
	}
	return d, nil
}

func (c Config) Checksum() (frame.ChecksumPolicy, error) {
	return frame.ParsePolicy(c.Protocol.InboundChecksum)
}

// Sizes is the default size table with the [[records]] overrides applied.
func (c Config) Sizes() (bafang.SizeTable, error) {
	sizes := bafang.DefaultSizes()
	for i, r := range c.Records {
		t, err := bafang.ParseRecordType(r.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: records[%d]: %v", ErrInvalid, i, err)
		}
		if r.Size <= 0 {
			return nil, fmt.Errorf("%w: records[%d]: size must be positive", ErrInvalid, i)
		}
		sizes[t] = r.Size
	}
	return sizes, nil
}
