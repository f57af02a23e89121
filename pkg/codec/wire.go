package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// AppendString appends a length-delimited string field, eliding the proto3 default.
func AppendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// AppendBytes appends a length-delimited bytes field, eliding the proto3 default.
func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// AppendUint64 appends a varint field, eliding zero.
func AppendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// AppendMessage appends an embedded message field. Embedded messages are always
// written, even when empty, because presence is meaningful for them.
func AppendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// Field is one decoded top-level field of a protobuf message.
type Field struct {
	Num    protowire.Number
	Type   protowire.Type
	Varint uint64
	Bytes  []byte
}

// String returns the field payload as a string.
func (f Field) String() string {
	return string(f.Bytes)
}

// DecodeFields walks the top-level fields of b and hands each one to fn. Unknown wire
// types other than varint, fixed and length-delimited are rejected.
func DecodeFields(b []byte, fn func(Field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("failed to decode tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fmt.Errorf("failed to decode field %d: %w", num, protowire.ParseError(m))
			}
			f.Varint = v
			n = m
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return fmt.Errorf("failed to decode field %d: %w", num, protowire.ParseError(m))
			}
			f.Bytes = v
			n = m
		case protowire.Fixed32Type, protowire.Fixed64Type:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return fmt.Errorf("failed to decode field %d: %w", num, protowire.ParseError(m))
			}
			n = m
		default:
			return fmt.Errorf("unsupported wire type %d for field %d", typ, num)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
