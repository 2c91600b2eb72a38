package frame

import "github.com/rs/zerolog/log"

// Reassembler rebuilds frames from transport chunks. It is not safe for concurrent use;
// the session event loop owns it.
type Reassembler struct {
	buf        []byte
	assembling bool
	expected   int
	discarded  int
}

// Feed appends chunk and returns every frame it completes, in order. Bytes after the last
// complete frame stay buffered for the next call.
func (r *Reassembler) Feed(chunk []byte) [][]byte {
	r.buf = append(r.buf, chunk...)

	var frames [][]byte
	for {
		if !r.assembling {
			if len(r.buf) < HeaderSize {
				break
			}
			if r.buf[0] != StartByte1 || r.buf[1] != StartByte2 {
				log.Debug().Str("byte", Hex(r.buf[:1])).Msg("resync: dropping stray byte")
				r.buf = r.buf[1:]
				r.discarded++
				continue
			}
			r.expected = HeaderSize + int(r.buf[lengthOffset]) + TrailerSize
			r.assembling = true
		}

		if len(r.buf) < r.expected {
			break
		}
		f := make([]byte, r.expected)
		copy(f, r.buf[:r.expected])
		frames = append(frames, f)
		r.buf = r.buf[r.expected:]
		r.assembling = false
		r.expected = 0
	}

	if len(r.buf) == 0 {
		r.buf = nil
	}
	return frames
}

// Reset drops any buffered bytes and returns to idle.
func (r *Reassembler) Reset() {
	r.buf = nil
	r.assembling = false
	r.expected = 0
}

// Buffered is the number of bytes waiting for a frame to complete.
func (r *Reassembler) Buffered() int { return len(r.buf) }

// Discarded counts bytes dropped while resynchronising, and resets the counter.
func (r *Reassembler) Discarded() int {
	n := r.discarded
	r.discarded = 0
	return n
}
