package hid

import (
	"fmt"

	usbhid "rafaelmartins.com/p/usbhid"
)

type usbManager struct{}

func newManager() (Manager, error) { return &usbManager{}, nil }

func (m *usbManager) List() ([]Info, error) {
	devs, err := usbhid.Enumerate(nil)
	if err != nil {
		return nil, fmt.Errorf("hid: enumerate: %w", err)
	}
	out := make([]Info, 0, len(devs))
	for _, d := range devs {
		out = append(out, Info{
			Path:         d.Path(),
			VendorID:     d.VendorId(),
			ProductID:    d.ProductId(),
			Product:      d.Product(),
			Manufacturer: d.Manufacturer(),
		})
	}
	return out, nil
}

func (m *usbManager) Open(info Info) (Device, error) {
	return m.get(func(dev *usbhid.Device) bool { return dev.Path() == info.Path })
}

func (m *usbManager) OpenVIDPID(vendorID, productID uint16) (Device, error) {
	return m.get(func(dev *usbhid.Device) bool {
		return dev.VendorId() == vendorID && dev.ProductId() == productID
	})
}

func (m *usbManager) get(match func(*usbhid.Device) bool) (Device, error) {
	d, err := usbhid.Get(match, true, false)
	if err != nil {
		return nil, fmt.Errorf("hid: open: %w", err)
	}
	return &usbDevice{d}, nil
}

type usbDevice struct{ d *usbhid.Device }

func (d *usbDevice) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := d.d.SetOutputReport(p[0], p[1:]); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (d *usbDevice) Read(p []byte) (int, error) {
	_, buf, err := d.d.GetInputReport()
	if err != nil {
		return 0, err
	}
	return copy(p, buf), nil
}

func (d *usbDevice) Close() error { return d.d.Close() }
