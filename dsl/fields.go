package dsl

import (
	"encoding/binary"

	"github.com/reoring/hwbits"
)

// UintN declares a little-endian unsigned integer of width bytes (1..8).
func UintN(offset, width int) hwbits.Field {
	return hwbits.Field{Offset: offset, Width: width, Kind: hwbits.KindUint}
}

func Uint8(offset int) hwbits.Field  { return UintN(offset, 1) }
func Uint16(offset int) hwbits.Field { return UintN(offset, 2) }
func Uint32(offset int) hwbits.Field { return UintN(offset, 4) }
func Uint64(offset int) hwbits.Field { return UintN(offset, 8) }

// UChar is an alias of Uint8 matching datasheet naming.
func UChar(offset int) hwbits.Field { return Uint8(offset) }

// BigEndian switches an integer field to big-endian byte order.
func BigEndian(f hwbits.Field) hwbits.Field {
	f.Order = binary.BigEndian
	return f
}

// Bytes declares a raw byte window.
func Bytes(offset, width int) hwbits.Field {
	return hwbits.Field{Offset: offset, Width: width, Kind: hwbits.KindBytes}
}

// Text declares NUL-terminated text in a window of width bytes. encoding is
// an IANA name; empty means ASCII.
func Text(offset, width int, encoding ...string) hwbits.Field {
	f := hwbits.Field{Offset: offset, Width: width, Kind: hwbits.KindText}
	if len(encoding) > 0 {
		f.Encoding = encoding[0]
	}
	return f
}

// Static declares a constant byte sequence, validated at bind time.
func Static(offset int, expected string) hwbits.Field {
	return StaticBytes(offset, []byte(expected))
}

func StaticBytes(offset int, expected []byte) hwbits.Field {
	return hwbits.Field{Offset: offset, Kind: hwbits.KindStatic, Expected: append([]byte(nil), expected...)}
}

// StaticUint declares a constant integer of width bytes (4 when zero),
// validated at bind time.
func StaticUint(offset int, expected uint64, width ...int) hwbits.Field {
	f := hwbits.Field{Offset: offset, Kind: hwbits.KindStaticUint, ExpectedUint: expected}
	if len(width) > 0 {
		f.Width = width[0]
	}
	return f
}

// GUID declares a 16-byte mixed-endian identifier.
func GUID(offset int) hwbits.Field {
	return hwbits.Field{Offset: offset, Kind: hwbits.KindGUID}
}

// Nested embeds another structure at offset.
func Nested(offset int, s *hwbits.Schema) hwbits.Field {
	return hwbits.Field{Offset: offset, Kind: hwbits.KindNested, Struct: s}
}

// Reg embeds a register at offset.
func Reg(offset int, r *hwbits.Register) hwbits.Field {
	return hwbits.Field{Offset: offset, Kind: hwbits.KindRegister, Register: r}
}

// Array declares count consecutive elements starting at offset.
func Array(offset int, elem *hwbits.Schema, count int) hwbits.Field {
	return hwbits.Field{Offset: offset, Kind: hwbits.KindArray, Struct: elem, Count: count}
}

// ArrayOf declares elements whose count is held by the uint field countField.
func ArrayOf(offset int, elem *hwbits.Schema, countField string) hwbits.Field {
	return hwbits.Field{Offset: offset, Kind: hwbits.KindArray, Struct: elem, CountField: countField}
}

// Body declares bytes located by two sibling uint fields; the offset is
// relative to the start of the outermost bound record.
func Body(offsetField, lengthField string) hwbits.Field {
	return hwbits.Field{Kind: hwbits.KindBody, OffsetField: offsetField, LengthField: lengthField}
}
