package frame

import "fmt"

// Response is a validated inbound frame.
type Response struct {
	Type     byte
	Echo     byte
	Status   byte
	StartPos byte
	Payload  []byte
}

// Full reports whether the frame carries a whole record rather than a single field.
func (r Response) Full() bool { return r.StartPos == 0 }

// ParseResponse validates f with policy and splits out the header. The payload is a copy.
func ParseResponse(f []byte, policy ChecksumPolicy) (Response, error) {
	if len(f) < MinSize {
		return Response{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(f))
	}
	if f[0] != StartByte1 || f[1] != StartByte2 {
		return Response{}, ErrBadStart
	}
	declared := int(f[lengthOffset])
	if HeaderSize+declared+TrailerSize != len(f) {
		return Response{}, fmt.Errorf("%w: declared %d, frame %d", ErrLengthMismatch, declared, len(f))
	}
	if err := policy.Verify(f); err != nil {
		return Response{}, err
	}

	payload := make([]byte, declared)
	copy(payload, f[HeaderSize:HeaderSize+declared])
	return Response{
		Type:     f[typeOffset],
		Echo:     f[echoOffset],
		Status:   f[statusOffset],
		StartPos: f[startPosOffset],
		Payload:  payload,
	}, nil
}

// Response status and echo values observed from the devices.
const (
	DefaultEcho   = 0x11
	DefaultStatus = 0x04
)

// BuildResponse encodes an inbound frame as a device would send it. Payloads longer
// than 255 bytes cannot be described by the length byte and are rejected.
func BuildResponse(typ byte, startPos byte, payload []byte, policy ChecksumPolicy) ([]byte, error) {
	if err := checkRange("payload length", len(payload)); err != nil {
		return nil, err
	}
	f := make([]byte, 0, HeaderSize+len(payload)+TrailerSize)
	f = append(f, StartByte1, StartByte2, byte(len(payload)), typ, DefaultEcho, DefaultStatus, startPos)
	f = append(f, payload...)
	return policy.appendTrailer(f)
}
