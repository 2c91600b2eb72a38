package frame

import (
	"encoding/binary"
	"fmt"
)

// Sum8 is the 8-bit additive checksum: 0xFF minus the low byte of the sum.
func Sum8(b []byte) byte {
	var sum uint
	for _, c := range b {
		sum += uint(c)
	}
	return byte(0xFF - (sum & 0xFF))
}

// Sum16 is the 16-bit sum-complement checksum used by multi-byte writes and inbound frames.
func Sum16(b []byte) uint16 {
	var sum uint32
	for _, c := range b {
		sum += uint32(c)
	}
	return uint16(^sum & 0xFFFF)
}

// CRC16Kermit computes CRC-16/KERMIT (poly 0x1021 reflected, init 0, no final xor).
func CRC16Kermit(b []byte) uint16 {
	var crc uint16
	for _, c := range b {
		crc ^= uint16(c)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// checksumSpan is everything after the start marker up to the trailer.
func checksumSpan(f []byte) []byte {
	return f[lengthOffset : len(f)-TrailerSize]
}

// ChecksumPolicy selects how inbound frame trailers are verified.
type ChecksumPolicy int

const (
	// PolicySum16 verifies every inbound frame with the 16-bit sum-complement.
	PolicySum16 ChecksumPolicy = iota
	// PolicyByCommand picks the trailer format from the response command id.
	PolicyByCommand
)

func (p ChecksumPolicy) String() string {
	switch p {
	case PolicySum16:
		return "sum16"
	case PolicyByCommand:
		return "by-command"
	default:
		return fmt.Sprintf("ChecksumPolicy(%d)", int(p))
	}
}

func ParsePolicy(s string) (ChecksumPolicy, error) {
	switch s {
	case "", "sum16":
		return PolicySum16, nil
	case "by-command":
		return PolicyByCommand, nil
	}
	return 0, fmt.Errorf("frame: unknown checksum policy %q", s)
}

type trailerFormat int

const (
	formatSum16 trailerFormat = iota
	formatSum8End
	formatKermit
)

var commandFormats = map[byte]trailerFormat{
	0xA1: formatSum8End,
	0xA4: formatSum8End,
	0xA7: formatSum8End,
	0xA3: formatKermit,
	0xA5: formatKermit,
	0xA9: formatKermit,
}

func (p ChecksumPolicy) format(cmd byte) (trailerFormat, error) {
	if p != PolicyByCommand {
		return formatSum16, nil
	}
	f, ok := commandFormats[cmd]
	if !ok {
		return 0, fmt.Errorf("%w %#02x", ErrUnknownFormat, cmd)
	}
	return f, nil
}

// Verify checks the trailer of a complete frame.
func (p ChecksumPolicy) Verify(f []byte) error {
	if len(f) < MinSize {
		return ErrShortFrame
	}
	format, err := p.format(f[typeOffset])
	if err != nil {
		return err
	}
	span := checksumSpan(f)
	trailer := f[len(f)-TrailerSize:]
	switch format {
	case formatSum8End:
		if want := Sum8(span); trailer[0] != want || trailer[1] != EndMarker {
			return fmt.Errorf("%w: got %s, want %02x-fe", ErrChecksumMismatch, Hex(trailer), want)
		}
	case formatKermit:
		if got, want := binary.LittleEndian.Uint16(trailer), CRC16Kermit(span); got != want {
			return fmt.Errorf("%w: got %#04x, want %#04x", ErrChecksumMismatch, got, want)
		}
	default:
		if got, want := binary.LittleEndian.Uint16(trailer), Sum16(span); got != want {
			return fmt.Errorf("%w: got %#04x, want %#04x", ErrChecksumMismatch, got, want)
		}
	}
	return nil
}

// appendTrailer seals an inbound style frame with the trailer Verify expects.
func (p ChecksumPolicy) appendTrailer(f []byte) ([]byte, error) {
	format, err := p.format(f[typeOffset])
	if err != nil {
		return nil, err
	}
	span := f[lengthOffset:]
	switch format {
	case formatSum8End:
		return append(f, Sum8(span), EndMarker), nil
	case formatKermit:
		return binary.LittleEndian.AppendUint16(f, CRC16Kermit(span)), nil
	default:
		return binary.LittleEndian.AppendUint16(f, Sum16(span)), nil
	}
}
