// Package frame implements the wire framing used by the controller and meter: request
// encoders, inbound frame validation and the reassembler that rebuilds frames from
// arbitrarily sized transport chunks.
package frame

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	StartByte1 = 0x55
	StartByte2 = 0xAA

	// Bytes 2..6 of every frame: length, type/tag, echo, status (or indicator), start position.
	HeaderSize  = 7
	TrailerSize = 2
	MinSize     = HeaderSize + TrailerSize

	lengthOffset   = 2
	typeOffset     = 3
	echoOffset     = 4
	statusOffset   = 5
	startPosOffset = 6

	// Requests carry RequestTag at typeOffset and the target command after it.
	requestCmdOffset = 4

	RequestTag     = 0x11
	ReadIndicator  = 0x01
	WriteIndicator = 0x02

	EndMarker         = 0xFE
	EndMarkerContinue = 0xFF

	ReadRequestSize = 10
	MaxField        = 0xFF
)

var (
	ErrInvalidRange     = errors.New("frame: value out of range 0-255")
	ErrEmptyPayload     = errors.New("frame: empty payload")
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")
	ErrShortFrame       = errors.New("frame: shorter than minimum frame size")
	ErrBadStart         = errors.New("frame: missing start marker")
	ErrLengthMismatch   = errors.New("frame: declared length disagrees with frame size")
	ErrUnknownFormat    = errors.New("frame: no checksum format for command")
)

// Hex renders b as dash separated hex pairs, e.g. 55-aa-01.
func Hex(b []byte) string {
	hexDigits := hex.EncodeToString(b)
	var builder strings.Builder
	for i, r := range hexDigits {
		if i > 0 && i%2 == 0 {
			builder.WriteByte('-')
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// ParseHex accepts the Hex form as well as plain or space separated hex.
func ParseHex(s string) ([]byte, error) {
	s = strings.NewReplacer("-", "", " ", "", ":", "").Replace(strings.TrimSpace(s))
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("frame: parse hex: %w", err)
	}
	return b, nil
}
