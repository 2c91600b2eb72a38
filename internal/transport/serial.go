package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialConfig selects a UART attached BLE bridge.
type SerialConfig struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
}

// OpenSerial opens the port and wraps it in a Stream. Reads time out so the reader notices
// Close promptly; a timeout yields no data rather than an error.
func OpenSerial(cfg SerialConfig, opts StreamOptions) (*Stream, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Port, err)
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("serial: set read timeout: %w", err)
	}
	return NewStream("serial:"+cfg.Port, port, opts), nil
}
