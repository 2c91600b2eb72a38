package frame

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

// parseHexString converts a dash-separated hex string to bytes
func parseHexString(s string) []byte {
	b, err := hex.DecodeString(strings.ReplaceAll(s, "-", ""))
	if err != nil {
		panic(err)
	}
	return b
}

func TestChecksums(t *testing.T) {
	check := []byte("123456789")
	if got := CRC16Kermit(check); got != 0x2189 {
		t.Errorf("CRC16Kermit = %#04x, want 0x2189", got)
	}
	if got := Sum8(check); got != 0x22 {
		t.Errorf("Sum8 = %#02x, want 0x22", got)
	}
	if got := Sum16(check); got != 0xFE22 {
		t.Errorf("Sum16 = %#04x, want 0xfe22", got)
	}
	if got := Sum8(nil); got != 0xFF {
		t.Errorf("Sum8(nil) = %#02x", got)
	}
}

func TestReadRequest(t *testing.T) {
	tests := []struct {
		name          string
		cmd           byte
		start, length int
		want          string
		err           error
	}{
		{name: "meter full read", cmd: 0xA5, start: 0, length: 198, want: "55-aa-01-11-a5-01-00-c6-81-fe"},
		{name: "segment uses continue marker", cmd: 0xA3, start: 0x10, length: 4, want: "55-aa-01-11-a3-01-10-04-35-ff"},
		{name: "start too large", cmd: 0xA3, start: 256, length: 1, err: ErrInvalidRange},
		{name: "negative length", cmd: 0xA3, start: 0, length: -1, err: ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadRequest(tt.cmd, tt.start, tt.length)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if Hex(got) != tt.want {
				t.Fatalf("got %s, want %s", Hex(got), tt.want)
			}
		})
	}
}

func TestWriteRequest(t *testing.T) {
	tests := []struct {
		name    string
		target  byte
		start   int
		payload []byte
		want    string
		err     error
	}{
		{name: "single byte light on", target: 0xA5, start: 0xA6, payload: []byte{0x01}, want: "55-aa-01-11-a5-02-a6-01-9f-fe"},
		{name: "u16 uses sum16 trailer", target: 0xA5, start: 0xA0, payload: []byte{0x05, 0x00}, want: "55-aa-02-11-a5-02-a0-05-00-a0-fe"},
		{name: "empty payload", target: 0xA5, start: 0, payload: nil, err: ErrEmptyPayload},
		{name: "offset out of range", target: 0xA5, start: 300, payload: []byte{1}, err: ErrInvalidRange},
		{name: "payload too long", target: 0xA5, start: 0, payload: make([]byte, 256), err: ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WriteRequest(tt.target, tt.start, tt.payload)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if Hex(got) != tt.want {
				t.Fatalf("got %s, want %s", Hex(got), tt.want)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	payload := []byte{0x10, 0x20, 0x30}
	for _, policy := range []ChecksumPolicy{PolicySum16, PolicyByCommand} {
		for _, typ := range []byte{0xA3, 0xA4} {
			f, err := BuildResponse(typ, 0, payload, policy)
			if err != nil {
				t.Fatal(err)
			}
			resp, err := ParseResponse(f, policy)
			if err != nil {
				t.Fatalf("%s %#x: %v", policy, typ, err)
			}
			if resp.Type != typ || !resp.Full() || !bytes.Equal(resp.Payload, payload) {
				t.Fatalf("%s: unexpected response %+v", policy, resp)
			}
		}
	}

	sum8 := parseHexString("55-aa-01-a4-11-04-00-07")
	sum8 = append(sum8, Sum8(sum8[2:]), EndMarker)
	if _, err := ParseResponse(sum8, PolicyByCommand); err != nil {
		t.Fatalf("sum8 frame: %v", err)
	}
	if _, err := ParseResponse(sum8, PolicySum16); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("sum8 frame under sum16 policy: err = %v", err)
	}
}

func TestParseResponseRejects(t *testing.T) {
	valid, _ := BuildResponse(0xA5, 0, []byte{1, 2}, PolicySum16)
	tests := []struct {
		name   string
		frame  []byte
		policy ChecksumPolicy
		err    error
	}{
		{"too short", valid[:5], PolicySum16, ErrShortFrame},
		{"bad start", append([]byte{0x00}, valid[1:]...), PolicySum16, ErrBadStart},
		{"length mismatch", append(append([]byte{}, valid...), 0x00), PolicySum16, ErrLengthMismatch},
		{"unknown command under by-command", mustBuild(t, 0xB0, PolicySum16), PolicyByCommand, ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseResponse(tt.frame, tt.policy); !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
		})
	}
}

func mustBuild(t *testing.T, typ byte, policy ChecksumPolicy) []byte {
	t.Helper()
	f, err := BuildResponse(typ, 0, []byte{1, 2, 3}, policy)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestBitFlipRejected(t *testing.T) {
	payload := []byte("meter-payload")
	for _, policy := range []ChecksumPolicy{PolicySum16, PolicyByCommand} {
		f, err := BuildResponse(0xA5, 0, payload, policy)
		if err != nil {
			t.Fatal(err)
		}
		for i := HeaderSize; i < HeaderSize+len(payload); i++ {
			for bit := 0; bit < 8; bit++ {
				corrupt := append([]byte(nil), f...)
				corrupt[i] ^= 1 << bit
				if _, err := ParseResponse(corrupt, policy); !errors.Is(err, ErrChecksumMismatch) {
					t.Fatalf("%s: flip byte %d bit %d: err = %v", policy, i, bit, err)
				}
			}
		}
	}
}

func TestReassemblerFragmentation(t *testing.T) {
	f, err := BuildResponse(0xA5, 0, bytes.Repeat([]byte{0x42}, 40), PolicySum16)
	if err != nil {
		t.Fatal(err)
	}

	for size := 1; size <= len(f); size++ {
		var r Reassembler
		var got [][]byte
		for i := 0; i < len(f); i += size {
			end := i + size
			if end > len(f) {
				end = len(f)
			}
			got = append(got, r.Feed(f[i:end])...)
		}
		if len(got) != 1 || !bytes.Equal(got[0], f) {
			t.Fatalf("chunk size %d: got %d frames", size, len(got))
		}
		if r.Buffered() != 0 {
			t.Fatalf("chunk size %d: %d bytes left buffered", size, r.Buffered())
		}
	}
}

func TestReassemblerBackToBack(t *testing.T) {
	a, _ := BuildResponse(0xA3, 0, []byte{1, 2, 3}, PolicySum16)
	b, _ := BuildResponse(0xA5, 0xA6, []byte{1}, PolicySum16)
	tail, _ := BuildResponse(0xA9, 0, []byte{9, 9}, PolicySum16)

	var r Reassembler
	chunk := append(append(append([]byte{}, a...), b...), tail[:4]...)
	got := r.Feed(chunk)
	if len(got) != 2 || !bytes.Equal(got[0], a) || !bytes.Equal(got[1], b) {
		t.Fatalf("got %d frames", len(got))
	}
	if r.Buffered() != 4 {
		t.Fatalf("buffered = %d, want 4", r.Buffered())
	}
	got = r.Feed(tail[4:])
	if len(got) != 1 || !bytes.Equal(got[0], tail) {
		t.Fatal("leftover bytes did not complete the next frame")
	}
}

func TestReassemblerResync(t *testing.T) {
	f, _ := BuildResponse(0xA3, 0, []byte{7, 8, 9}, PolicySum16)
	garbage := []byte{0x00, 0x13, 0xAA, 0x42, 0xFE, 0x55, 0x01}

	var r Reassembler
	got := r.Feed(append(append([]byte{}, garbage...), f...))
	if len(got) != 1 || !bytes.Equal(got[0], f) {
		t.Fatalf("got %d frames", len(got))
	}
	if n := r.Discarded(); n != len(garbage) {
		t.Fatalf("discarded %d bytes, want %d", n, len(garbage))
	}
}

func TestReassemblerWaitsForHeader(t *testing.T) {
	var r Reassembler
	if got := r.Feed([]byte{0x01, 0x02, 0x03}); len(got) != 0 {
		t.Fatal("frames from a short chunk")
	}
	if r.Buffered() != 3 || r.Discarded() != 0 {
		t.Fatal("short chunk must be buffered untouched")
	}
	r.Reset()
	if r.Buffered() != 0 {
		t.Fatal("reset kept bytes")
	}
}

func TestParseRequest(t *testing.T) {
	read, _ := ReadRequest(0xA5, 0x10, 8)
	req, err := ParseRequest(read)
	if err != nil {
		t.Fatal(err)
	}
	if req.Cmd != 0xA5 || req.Write || req.Start != 0x10 || req.Length != 8 {
		t.Fatalf("read request decoded to %+v", req)
	}

	for _, payload := range [][]byte{{0x01}, {0x05, 0x00, 0x07}} {
		w, _ := WriteRequest(0xA3, 0xBC, payload)
		req, err := ParseRequest(w)
		if err != nil {
			t.Fatal(err)
		}
		if req.Cmd != 0xA3 || !req.Write || req.Start != 0xBC || !bytes.Equal(req.Payload, payload) {
			t.Fatalf("write request decoded to %+v", req)
		}
		w[len(w)-3] ^= 0x01
		if _, err := ParseRequest(w); !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("corrupt write: err = %v", err)
		}
	}
}

func TestParseHex(t *testing.T) {
	for _, in := range []string{"55-aa-01", "55aa01", "55 AA 01", " 55:aa:01 "} {
		got, err := ParseHex(in)
		if err != nil || !bytes.Equal(got, []byte{0x55, 0xAA, 0x01}) {
			t.Errorf("ParseHex(%q) = % x, %v", in, got, err)
		}
	}
	if _, err := ParseHex("5g"); err == nil {
		t.Error("expected error for invalid hex")
	}
	if got := Hex([]byte{0x55, 0xAA, 0x01}); got != "55-aa-01" {
		t.Errorf("Hex = %q", got)
	}
}
