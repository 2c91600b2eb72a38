package transport

import (
	"fmt"

	"github.com/seagrayinc/bfble/internal/hid"
	"github.com/seagrayinc/bfble/internal/usbbulk"
)

// USBConfig selects a USB attached bridge by vendor and product id.
type USBConfig struct {
	VendorID  uint16
	ProductID uint16
	// ReportID and ReportLen apply to HID bridges only.
	ReportID  byte
	ReportLen int
}

// OpenHID opens a HID bridge and wraps it in a Stream.
func OpenHID(cfg USBConfig, opts StreamOptions) (*Stream, error) {
	mgr, err := hid.NewManager()
	if err != nil {
		return nil, err
	}
	dev, err := mgr.OpenVIDPID(cfg.VendorID, cfg.ProductID)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("hid:%04x:%04x", cfg.VendorID, cfg.ProductID)
	return NewStream(name, hid.NewBridge(dev, cfg.ReportID, cfg.ReportLen), opts), nil
}

// OpenUSB opens a bulk pipe bridge and wraps it in a Stream.
func OpenUSB(cfg USBConfig, opts StreamOptions) (*Stream, error) {
	dev, err := usbbulk.Open(cfg.VendorID, cfg.ProductID)
	if err != nil {
		return nil, err
	}
	return NewStream("usb:"+dev.String(), dev, opts), nil
}
