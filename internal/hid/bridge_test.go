package hid

import (
	"bytes"
	"errors"
	"testing"
)

func TestBridgeWriteSplitsReports(t *testing.T) {
	mock := NewMockHID()
	b := NewBridge(mock, 0x02, 8)

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	n, err := b.Write(payload)
	if err != nil || n != len(payload) {
		t.Fatalf("write = %d, %v", n, err)
	}

	reports := mock.Reports()
	want := [][]byte{
		{0x02, 7, 1, 2, 3, 4, 5, 6, 7},
		{0x02, 3, 8, 9, 10, 0, 0, 0, 0},
	}
	if len(reports) != len(want) {
		t.Fatalf("got %d reports", len(reports))
	}
	for i := range want {
		if !bytes.Equal(reports[i], want[i]) {
			t.Errorf("report %d = % x, want % x", i, reports[i], want[i])
		}
	}
}

func TestBridgeRead(t *testing.T) {
	mock := NewMockHID()
	b := NewBridge(mock, 0x01, 8)

	mock.Emit([]byte{3, 0x55, 0xAA, 0x01, 0, 0, 0, 0})
	buf := make([]byte, 16)
	n, err := b.Read(buf)
	if err != nil || !bytes.Equal(buf[:n], []byte{0x55, 0xAA, 0x01}) {
		t.Fatalf("read % x, %v", buf[:n], err)
	}

	mock.Emit([]byte{9, 1, 2})
	if _, err := b.Read(buf); !errors.Is(err, ErrReportTooShort) {
		t.Fatalf("err = %v", err)
	}

	b.Close()
	if _, err := b.Read(buf); err == nil {
		t.Fatal("read after close succeeded")
	}
}

func TestBridgeReadSmallBuffer(t *testing.T) {
	mock := NewMockHID()
	b := NewBridge(mock, 0x01, 8)

	mock.Emit([]byte{5, 1, 2, 3, 4, 5, 0, 0})
	mock.Emit([]byte{1, 6, 0, 0, 0, 0, 0, 0})

	var got []byte
	buf := make([]byte, 2)
	for len(got) < 6 {
		n, err := b.Read(buf)
		if err != nil {
			t.Fatal(err)
		}
		if n > len(buf) {
			t.Fatalf("read %d bytes into a %d byte buffer", n, len(buf))
		}
		got = append(got, buf[:n]...)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("read % x", got)
	}
}
