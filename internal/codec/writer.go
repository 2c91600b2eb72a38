package codec

import "encoding/binary"

// Writer appends little-endian values to a growing buffer.
type Writer struct {
	buf []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) U16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *Writer) U32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// ASCII writes s into a NUL padded field of exactly n bytes, truncating if needed.
func (w *Writer) ASCII(s string, n int) {
	field := make([]byte, n)
	copy(field, s)
	w.buf = append(w.buf, field...)
}

// PadTo zero-fills the buffer up to length n.
func (w *Writer) PadTo(n int) {
	for len(w.buf) < n {
		w.buf = append(w.buf, 0)
	}
}
