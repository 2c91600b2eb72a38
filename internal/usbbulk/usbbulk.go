// Package usbbulk opens BLE bridge dongles that expose the radio link as a raw USB
// bulk pipe.
package usbbulk

import (
	"fmt"

	"github.com/karalabe/usb"
)

// Device is an open bridge. It satisfies io.ReadWriteCloser.
type Device struct {
	dev usb.Device
	id  string
}

// Open finds and opens the first device matching vendorID and productID.
func Open(vendorID, productID uint16) (*Device, error) {
	infos, err := usb.Enumerate(vendorID, productID)
	if err != nil {
		return nil, fmt.Errorf("usb enumerate: %w", err)
	}
	if len(infos) == 0 {
		allInfos, allErr := usb.Enumerate(0, 0)
		if allErr != nil {
			return nil, fmt.Errorf("bridge not found (VID:0x%04X PID:0x%04X); enumerate all failed: %w", vendorID, productID, allErr)
		}
		return nil, fmt.Errorf("bridge not found (VID:0x%04X PID:0x%04X); found %d other USB devices", vendorID, productID, len(allInfos))
	}

	dev, err := infos[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	return &Device{dev: dev, id: fmt.Sprintf("%04x:%04x", vendorID, productID)}, nil
}

// String identifies the device as vid:pid.
func (d *Device) String() string { return d.id }

func (d *Device) Read(p []byte) (int, error) {
	n, err := d.dev.Read(p)
	if err != nil {
		return n, fmt.Errorf("usb read: %w", err)
	}
	return n, nil
}

func (d *Device) Write(p []byte) (int, error) {
	n, err := d.dev.Write(p)
	if err != nil {
		return n, fmt.Errorf("usb write: %w", err)
	}
	return n, nil
}

func (d *Device) Close() error {
	return d.dev.Close()
}
