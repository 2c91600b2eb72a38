package record

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog/log"

	"github.com/seagrayinc/bfble/internal/codec"
)

// value is one decoded field before it is stored in a struct.
type value struct {
	str  string
	num  int64
	raw  []byte
	i16  []int16
	miss bool // shortfall on a byte array: keep the prior value
}

func decodeField(r *codec.Reader, f Field) value {
	switch f.Kind {
	case KindASCII:
		return value{str: r.ASCII(f.Size)}
	case KindU8:
		return value{num: int64(r.U8())}
	case KindU16:
		return value{num: int64(r.U16())}
	case KindU32:
		return value{num: int64(r.U32())}
	case KindTemperature:
		return value{num: int64(r.U16()) - temperatureBias}
	case KindMotorTemperature:
		raw := r.U16()
		if raw == 0xFFFF || raw == 0xFF {
			return value{num: TemperatureUnavailable}
		}
		return value{num: int64(raw) - temperatureBias}
	case KindBytes:
		b, ok := r.Bytes(f.Size)
		return value{raw: b, miss: !ok}
	case KindInt16Array:
		out := make([]int16, f.Size/2)
		for i := range out {
			out[i] = int16(r.U16())
		}
		return value{i16: out}
	}
	return value{miss: true}
}

func target(dst any) (reflect.Value, error) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("record: destination must be a non-nil struct pointer, got %T", dst)
	}
	return v.Elem(), nil
}

func structField(rv reflect.Value, f Field) (reflect.Value, error) {
	fv := rv.FieldByName(f.Name)
	if !fv.IsValid() || !fv.CanSet() {
		return reflect.Value{}, fmt.Errorf("record: %s has no settable field %s", rv.Type(), f.Name)
	}
	if err := compatible(fv.Type(), f); err != nil {
		return reflect.Value{}, fmt.Errorf("record: %s.%s: %w", rv.Type(), f.Name, err)
	}
	return fv, nil
}

func compatible(t reflect.Type, f Field) error {
	switch f.Kind {
	case KindASCII:
		if t.Kind() == reflect.String {
			return nil
		}
	case KindU8, KindU16, KindU32:
		switch t.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint, reflect.Int, reflect.Int32, reflect.Int64:
			return nil
		}
	case KindTemperature, KindMotorTemperature:
		switch t.Kind() {
		case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64:
			return nil
		}
	case KindBytes:
		if t.Kind() == reflect.Array && t.Elem().Kind() == reflect.Uint8 && t.Len() == f.Size {
			return nil
		}
	case KindInt16Array:
		if t.Kind() == reflect.Array && t.Elem().Kind() == reflect.Int16 && t.Len() == f.Size/2 {
			return nil
		}
	}
	return fmt.Errorf("type %s cannot hold %s[%d]", t, f.Kind, f.Size)
}

func store(fv reflect.Value, f Field, v value) {
	switch f.Kind {
	case KindASCII:
		fv.SetString(v.str)
	case KindU8, KindU16, KindU32:
		if fv.CanUint() {
			fv.SetUint(uint64(v.num))
		} else {
			fv.SetInt(v.num)
		}
	case KindTemperature, KindMotorTemperature:
		fv.SetInt(v.num)
	case KindBytes:
		if v.miss {
			return
		}
		for i := 0; i < fv.Len(); i++ {
			fv.Index(i).SetUint(uint64(v.raw[i]))
		}
	case KindInt16Array:
		for i := 0; i < fv.Len(); i++ {
			fv.Index(i).SetInt(int64(v.i16[i]))
		}
	}
}

// Check verifies that every field in s maps onto a compatible field of dst.
func (s *Schema) Check(dst any) error {
	rv, err := target(dst)
	if err != nil {
		return err
	}
	for _, f := range s.fields {
		if _, err := structField(rv, f); err != nil {
			return err
		}
	}
	return nil
}

// Decode fills dst from a full payload. Payloads shorter than the record are rejected;
// longer ones are decoded and the excess ignored.
func (s *Schema) Decode(payload []byte, dst any) error {
	if len(payload) < s.size {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrPayloadTooShort, s.name, s.size, len(payload))
	}
	rv, err := target(dst)
	if err != nil {
		return err
	}

	r := codec.NewReader(payload)
	for _, f := range s.fields {
		fv, err := structField(rv, f)
		if err != nil {
			return err
		}
		r.Skip(f.Offset - r.Pos())
		store(fv, f, decodeField(r, f))
	}
	if n := r.Shortfalls(); n > 0 {
		log.Warn().Str("record", s.name).Int("shortfalls", n).Msg("record decoded with short reads")
	}
	return nil
}

// Apply decodes payload as the single field starting at offset and stores it in dst.
// dst is untouched when the offset or size does not match a field.
func (s *Schema) Apply(dst any, payload []byte, offset int) error {
	f, ok := s.Lookup(offset)
	if !ok {
		return fmt.Errorf("%w %d in %s", ErrUnknownField, offset, s.name)
	}
	if len(payload) != f.Size {
		return fmt.Errorf("%w: %s.%s is %d bytes, got %d", ErrSizeMismatch, s.name, f.Name, f.Size, len(payload))
	}
	rv, err := target(dst)
	if err != nil {
		return err
	}
	fv, err := structField(rv, f)
	if err != nil {
		return err
	}
	store(fv, f, decodeField(codec.NewReader(payload), f))
	return nil
}

// Encode renders src as a full payload. Gaps are zero filled.
func (s *Schema) Encode(src any) ([]byte, error) {
	rv := reflect.ValueOf(src)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record: cannot encode %T", src)
	}

	w := codec.NewWriter(s.size)
	for _, f := range s.fields {
		fv := rv.FieldByName(f.Name)
		if !fv.IsValid() {
			return nil, fmt.Errorf("record: %s has no field %s", rv.Type(), f.Name)
		}
		if err := compatible(fv.Type(), f); err != nil {
			return nil, fmt.Errorf("record: %s.%s: %w", rv.Type(), f.Name, err)
		}
		w.PadTo(f.Offset)
		encodeValue(w, f, fv)
	}
	w.PadTo(s.size)
	return w.Bytes(), nil
}

func encodeValue(w *codec.Writer, f Field, fv reflect.Value) {
	switch f.Kind {
	case KindASCII:
		w.ASCII(fv.String(), f.Size)
	case KindU8:
		w.U8(uint8(integer(fv)))
	case KindU16:
		w.U16(uint16(integer(fv)))
	case KindU32:
		w.U32(uint32(integer(fv)))
	case KindTemperature:
		w.U16(uint16(integer(fv) + temperatureBias))
	case KindMotorTemperature:
		v := integer(fv)
		if v == TemperatureUnavailable {
			w.U16(0xFFFF)
		} else {
			w.U16(uint16(v + temperatureBias))
		}
	case KindBytes:
		b := make([]byte, fv.Len())
		for i := range b {
			b[i] = uint8(fv.Index(i).Uint())
		}
		w.Raw(b)
	case KindInt16Array:
		for i := 0; i < fv.Len(); i++ {
			w.U16(uint16(fv.Index(i).Int()))
		}
	}
}

func integer(fv reflect.Value) int64 {
	if fv.CanUint() {
		return int64(fv.Uint())
	}
	return fv.Int()
}

// EncodeScalar renders v as the wire bytes of a numeric field.
func EncodeScalar(f Field, v int64) ([]byte, error) {
	w := codec.NewWriter(f.Size)
	switch f.Kind {
	case KindU8, KindU16, KindU32:
		if v < 0 || v > int64(1)<<(8*f.Size)-1 {
			return nil, fmt.Errorf("record: %d out of range for %s %s", v, f.Kind, f.Name)
		}
	case KindTemperature, KindMotorTemperature:
	default:
		return nil, fmt.Errorf("record: %s is %s, not a scalar", f.Name, f.Kind)
	}
	encodeValue(w, f, reflect.ValueOf(v))
	return w.Bytes(), nil
}
