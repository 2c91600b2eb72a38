// Package codec holds little-endian cursor primitives used to decode and encode record
// payloads. Reads never fail hard: a short buffer yields zero values and is counted as a
// shortfall so a truncated payload degrades instead of aborting a decode.
package codec

import (
	"encoding/binary"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
)

var ErrUnderflow = errors.New("codec: buffer underflow")

// Reader is a forward-only cursor over a byte slice.
type Reader struct {
	buf        []byte
	pos        int
	shortfalls int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Pos() int { return r.pos }

func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Shortfalls reports how many reads could not be fully satisfied.
func (r *Reader) Shortfalls() int { return r.shortfalls }

// Err returns ErrUnderflow if any read came up short.
func (r *Reader) Err() error {
	if r.shortfalls > 0 {
		return ErrUnderflow
	}
	return nil
}

func (r *Reader) short(op string, want int) {
	r.shortfalls++
	log.Debug().
		Str("op", op).
		Int("pos", r.pos).
		Int("want", want).
		Int("remaining", r.Remaining()).
		Msg("codec underflow")
}

func (r *Reader) U8() uint8 {
	if r.Remaining() < 1 {
		r.short("u8", 1)
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *Reader) U16() uint16 {
	if r.Remaining() < 2 {
		r.short("u16", 2)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *Reader) U32() uint32 {
	if r.Remaining() < 4 {
		r.short("u32", 4)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

// ASCII consumes n bytes (or whatever remains) and returns the printable text before the
// first NUL, trimmed of surrounding whitespace.
func (r *Reader) ASCII(n int) string {
	if n <= 0 {
		return ""
	}
	take := n
	if r.Remaining() < n {
		r.short("ascii", n)
		take = r.Remaining()
	}
	raw := r.buf[r.pos : r.pos+take]
	r.pos += take
	return CleanASCII(raw)
}

// CleanASCII truncates at the first NUL, drops bytes outside 0x20..0x7E and trims spaces.
func CleanASCII(raw []byte) string {
	var b strings.Builder
	for _, c := range raw {
		if c == 0 {
			break
		}
		if c < 0x20 || c > 0x7E {
			continue
		}
		b.WriteByte(c)
	}
	return strings.TrimSpace(b.String())
}

// Skip advances past n bytes, clamping at the end of the buffer.
func (r *Reader) Skip(n int) {
	if n <= 0 {
		return
	}
	if r.Remaining() < n {
		r.short("skip", n)
		r.pos = len(r.buf)
		return
	}
	r.pos += n
}

// Bytes returns a copy of the next n bytes. ok is false, and nothing is consumed, when
// fewer than n remain.
func (r *Reader) Bytes(n int) (b []byte, ok bool) {
	if r.Remaining() < n {
		r.short("bytes", n)
		return nil, false
	}
	b = make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+n])
	r.pos += n
	return b, true
}
