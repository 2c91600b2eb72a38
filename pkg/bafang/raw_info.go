package bafang

// RawInfo carries a full payload for record types without a decoded layout
// (battery, sensor, config, CAN).
type RawInfo struct {
	Type    RecordType `json:"type"`
	Payload []byte     `json:"payload"`
}

func newRawInfo(t RecordType, payload []byte) *RawInfo {
	return &RawInfo{Type: t, Payload: append([]byte(nil), payload...)}
}

func (r *RawInfo) RecordType() RecordType { return r.Type }

func (r *RawInfo) Clone() Record {
	return newRawInfo(r.Type, r.Payload)
}
