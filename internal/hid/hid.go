// Package hid reaches BLE bridge dongles that tunnel the radio link through USB HID
// reports.
package hid

// Device represents an opened HID device capable of report I/O.
type Device interface {
	Write([]byte) (int, error) // output report, report ID at p[0]
	Read([]byte) (int, error)  // input report data, without the report ID
	Close() error
}

// Info represents a HID device descriptor.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Product      string
	Manufacturer string
}

// Manager enumerates and opens HID devices.
type Manager interface {
	List() ([]Info, error)
	Open(info Info) (Device, error)
	OpenVIDPID(vendorID, productID uint16) (Device, error)
}

// NewManager returns the OS HID manager.
func NewManager() (Manager, error) {
	return newManager()
}
