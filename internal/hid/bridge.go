package hid

import (
	"errors"
	"fmt"
)

// ErrReportTooShort is returned for input reports that cannot hold their declared length.
var ErrReportTooShort = errors.New("hid: bridge report shorter than its length byte")

// Bridge carries a byte stream over fixed size HID reports. Each report holds a length
// byte followed by up to ReportLen-1 data bytes; output reports are prefixed with the
// report ID as the Device contract requires.
type Bridge struct {
	dev       Device
	reportID  byte
	reportLen int
	buf       []byte
	pending   []byte // report data not yet returned by Read
}

// NewBridge wraps dev. reportLen is the report payload size, excluding the report ID.
func NewBridge(dev Device, reportID byte, reportLen int) *Bridge {
	if reportLen < 2 {
		reportLen = 64
	}
	return &Bridge{dev: dev, reportID: reportID, reportLen: reportLen, buf: make([]byte, reportLen)}
}

// Write splits p across as many output reports as needed.
func (b *Bridge) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n := min(len(p)-written, b.reportLen-1)
		report := make([]byte, 1+b.reportLen)
		report[0] = b.reportID
		report[1] = byte(n)
		copy(report[2:], p[written:written+n])
		if _, err := b.dev.Write(report); err != nil {
			return written, fmt.Errorf("hid: write report: %w", err)
		}
		written += n
	}
	return written, nil
}

// Read returns the data bytes of the next input report. Data that does not fit in p is
// kept and returned by the following reads before another report is read.
func (b *Bridge) Read(p []byte) (int, error) {
	if len(b.pending) > 0 {
		n := copy(p, b.pending)
		b.pending = b.pending[n:]
		return n, nil
	}
	n, err := b.dev.Read(b.buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	size := int(b.buf[0])
	if size > n-1 {
		return 0, fmt.Errorf("%w: %d > %d", ErrReportTooShort, size, n-1)
	}
	data := b.buf[1 : 1+size]
	copied := copy(p, data)
	if copied < len(data) {
		b.pending = append([]byte(nil), data[copied:]...)
	}
	return copied, nil
}

func (b *Bridge) Close() error { return b.dev.Close() }
