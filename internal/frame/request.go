package frame

import (
	"encoding/binary"
	"fmt"
)

func checkRange(name string, v int) error {
	if v < 0 || v > MaxField {
		return fmt.Errorf("%w: %s=%d", ErrInvalidRange, name, v)
	}
	return nil
}

// ReadRequest builds the fixed 10 byte read request for cmd.
func ReadRequest(cmd byte, start, length int) ([]byte, error) {
	if err := checkRange("start", start); err != nil {
		return nil, err
	}
	if err := checkRange("length", length); err != nil {
		return nil, err
	}

	f := make([]byte, 0, ReadRequestSize)
	f = append(f, StartByte1, StartByte2, 0x01, RequestTag, cmd, ReadIndicator, byte(start), byte(length))
	f = append(f, Sum8(f[lengthOffset:]))
	if start > 0 {
		f = append(f, EndMarkerContinue)
	} else {
		f = append(f, EndMarker)
	}
	return f, nil
}

// WriteRequest builds a write of payload into target at start. A single byte payload is
// sealed with Sum8 and the end marker, anything longer with a little-endian Sum16.
func WriteRequest(target byte, start int, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if err := checkRange("start", start); err != nil {
		return nil, err
	}
	if err := checkRange("payload length", len(payload)); err != nil {
		return nil, err
	}

	f := make([]byte, 0, HeaderSize+len(payload)+TrailerSize)
	f = append(f, StartByte1, StartByte2, byte(len(payload)), RequestTag, target, WriteIndicator, byte(start))
	f = append(f, payload...)
	if len(payload) == 1 {
		return append(f, Sum8(f[lengthOffset:]), EndMarker), nil
	}
	return binary.LittleEndian.AppendUint16(f, Sum16(f[lengthOffset:])), nil
}

// Request is a decoded outbound frame, as a device sees it.
type Request struct {
	Cmd     byte
	Write   bool
	Start   int
	Length  int
	Payload []byte
}

// ParseRequest decodes and checks a frame built by ReadRequest or WriteRequest.
func ParseRequest(f []byte) (Request, error) {
	if len(f) < MinSize+1 {
		return Request{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(f))
	}
	if f[0] != StartByte1 || f[1] != StartByte2 {
		return Request{}, ErrBadStart
	}
	req := Request{Cmd: f[requestCmdOffset], Start: int(f[startPosOffset])}

	switch f[statusOffset] {
	case ReadIndicator:
		if len(f) != ReadRequestSize {
			return Request{}, fmt.Errorf("%w: read request is %d bytes", ErrLengthMismatch, len(f))
		}
		if want := Sum8(f[lengthOffset:8]); f[8] != want {
			return Request{}, fmt.Errorf("%w: got %02x, want %02x", ErrChecksumMismatch, f[8], want)
		}
		req.Length = int(f[7])
		return req, nil
	case WriteIndicator:
		n := int(f[lengthOffset])
		if HeaderSize+n+TrailerSize != len(f) {
			return Request{}, fmt.Errorf("%w: declared %d, frame %d", ErrLengthMismatch, n, len(f))
		}
		body := f[lengthOffset : HeaderSize+n]
		trailer := f[HeaderSize+n:]
		if n == 1 {
			if trailer[0] != Sum8(body) || trailer[1] != EndMarker {
				return Request{}, fmt.Errorf("%w: single byte write trailer %s", ErrChecksumMismatch, Hex(trailer))
			}
		} else if got, want := binary.LittleEndian.Uint16(trailer), Sum16(body); got != want {
			return Request{}, fmt.Errorf("%w: got %#04x, want %#04x", ErrChecksumMismatch, got, want)
		}
		req.Write = true
		req.Length = n
		req.Payload = append([]byte(nil), f[HeaderSize:HeaderSize+n]...)
		return req, nil
	}
	return Request{}, fmt.Errorf("frame: unknown request indicator %#02x", f[statusOffset])
}
