package hwbits

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/text/encoding"

	"github.com/reoring/hwbits/internal/engine"
)

// Field describes one named, offset-addressed piece of a structure. Offset
// and Width are in bytes relative to the owning structure's base. Which of
// the remaining parameters apply depends on Kind.
type Field struct {
	Name   string
	Offset int
	Width  int
	Kind   Kind

	// Order overrides the little-endian default for KindUint,
	// KindStaticUint and KindRegister. Other kinds reject it.
	Order binary.ByteOrder

	Expected     []byte // KindStatic
	ExpectedUint uint64 // KindStaticUint
	Encoding     string // KindText; IANA name, "ascii" when empty

	Struct   *Schema   // KindNested, KindArray
	Register *Register // KindRegister

	Count      int    // KindArray with a fixed element count
	CountField string // KindArray whose count is another uint field

	OffsetField string // KindBody
	LengthField string // KindBody

	// Eager binds nested structures (and the elements of arrays) together
	// with the containing instance, so their constants are validated up
	// front.
	Eager bool

	Doc string

	enc encoding.Encoding
}

// Extent returns the end of the byte window (Offset+Width). Dynamic fields
// report false.
func (f Field) Extent() (int, bool) {
	switch f.Kind {
	case KindBody:
		return 0, false
	case KindArray:
		if f.CountField != "" {
			return 0, false
		}
	}
	return f.Offset + f.Width, true
}

// clone detaches the slices a descriptor shares with its caller.
func (f Field) clone() Field {
	if f.Expected != nil {
		f.Expected = append([]byte(nil), f.Expected...)
	}
	return f
}

func (f Field) order() binary.ByteOrder {
	if f.Order == nil {
		return binary.LittleEndian
	}
	return f.Order
}

// normalize fills kind defaults and reports declaration issues for f in
// isolation. Cross-field references are checked by NewSchema.
func (f *Field) normalize(schema string) Issues {
	var iss Issues
	bad := func(code string, params map[string]any) {
		iss = append(iss, fieldIssue(schema, f.Name, code, params))
	}
	if f.Offset < 0 {
		bad(CodeInvalidOffset, map[string]any{"offset": f.Offset})
	}
	if f.Width < 0 {
		bad(CodeInvalidWidth, map[string]any{"width": f.Width})
		return iss
	}
	if f.Order != nil {
		switch f.Kind {
		case KindUint, KindStaticUint, KindRegister:
		default:
			bad(CodeDeclaration, map[string]any{"order": f.Order.String(), "kind": f.Kind.String()})
		}
	}
	switch f.Kind {
	case KindUint:
		if f.Width < 1 || f.Width > 8 {
			bad(CodeInvalidWidth, map[string]any{"width": f.Width})
		}
	case KindBytes:
		if f.Width < 1 {
			bad(CodeInvalidWidth, map[string]any{"width": f.Width})
		}
	case KindText:
		if f.Width < 1 {
			bad(CodeInvalidWidth, map[string]any{"width": f.Width})
		}
		enc, err := lookupEncoding(f.Encoding)
		if err != nil {
			bad(CodeInvalidEncoding, map[string]any{"encoding": f.Encoding})
		}
		f.enc = enc
	case KindStatic:
		if len(f.Expected) == 0 {
			bad(CodeInvalidWidth, map[string]any{"width": 0})
			break
		}
		if f.Width == 0 {
			f.Width = len(f.Expected)
		}
		if f.Width != len(f.Expected) {
			bad(CodeInvalidWidth, map[string]any{"width": f.Width})
		}
	case KindStaticUint:
		if f.Width == 0 {
			f.Width = 4
		}
		if f.Width > 8 || !engine.FitsUint(f.ExpectedUint, f.Width) {
			bad(CodeInvalidWidth, map[string]any{"width": f.Width})
		}
	case KindGUID:
		if f.Width == 0 {
			f.Width = 16
		}
		if f.Width != 16 {
			bad(CodeInvalidWidth, map[string]any{"width": f.Width})
		}
	case KindNested:
		if f.Struct == nil {
			bad(CodeInvalidReference, map[string]any{"ref": "<nil struct>"})
			break
		}
		if f.Width == 0 {
			f.Width = f.Struct.Size()
		}
		if f.Width < f.Struct.Size() {
			bad(CodeInvalidWidth, map[string]any{"width": f.Width})
		}
	case KindRegister:
		if f.Register == nil {
			bad(CodeInvalidReference, map[string]any{"ref": "<nil register>"})
			break
		}
		if f.Width == 0 {
			f.Width = f.Register.Size()
		}
		if f.Width < 1 || f.Width > 8 {
			bad(CodeInvalidWidth, map[string]any{"width": f.Width})
			break
		}
		// The register is read through a Width-byte window: every bit range
		// must fit inside it.
		for _, b := range f.Register.bits {
			if b.Start+b.Width > f.Width*8 {
				it := fieldIssue(schema, f.Name, CodeBitRange, map[string]any{"start": b.Start, "width": b.Width, "bits": f.Width * 8})
				it.Path += "/" + b.Name
				iss = append(iss, it)
			}
		}
	case KindArray:
		if f.Struct == nil {
			bad(CodeInvalidReference, map[string]any{"ref": "<nil struct>"})
			break
		}
		if f.Struct.Size() < 1 {
			bad(CodeInvalidWidth, map[string]any{"width": f.Struct.Size()})
			break
		}
		if f.Count < 0 {
			bad(CodeInvalidWidth, map[string]any{"width": f.Count})
			break
		}
		if f.CountField == "" {
			f.Width = f.Count * f.Struct.Size()
		} else {
			f.Width = 0
		}
	case KindBody:
		if f.OffsetField == "" || f.LengthField == "" {
			bad(CodeInvalidReference, map[string]any{"ref": f.OffsetField + "," + f.LengthField})
		}
		f.Width = 0
	default:
		bad(CodeDeclaration, map[string]any{"kind": int(f.Kind)})
	}
	return iss
}

// checkStatic compares raw constant bytes with the declaration.
func (f Field) checkStatic(raw []byte) (any, bool, map[string]any) {
	switch f.Kind {
	case KindStatic:
		if bytes.Equal(raw, f.Expected) {
			return raw, true, nil
		}
		return nil, false, map[string]any{"expected": fmt.Sprintf("%q", f.Expected), "got": fmt.Sprintf("%q", raw)}
	default:
		v := engine.Uint(raw, f.order())
		if bytes.Equal(raw, engine.PutUint(f.ExpectedUint, f.Width, f.order())) {
			return v, true, nil
		}
		return nil, false, map[string]any{"expected": fmt.Sprintf("0x%x", f.ExpectedUint), "got": fmt.Sprintf("0x%x", v)}
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return hex.EncodeToString(t)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
