package hwbits

import (
	"fmt"

	"github.com/reoring/hwbits/internal/engine"
)

// Bits names a bit range inside a register. Start is the index of the least
// significant bit (0 = LSB); Width defaults to 1.
type Bits struct {
	Name  string
	Start int
	Width int
	Doc   string
}

// Register is the schema of a hardware register: one integer of WidthBits
// bits decomposed into named bit ranges. Registers are immutable once built
// and may be shared freely.
type Register struct {
	name      string
	widthBits int
	bits      []Bits
	index     map[string]int
}

// NewRegister assembles a register schema. Every bit range must lie within
// [0, widthBits); ranges may overlap.
func NewRegister(name string, widthBits int, bits []Bits) (*Register, error) {
	var iss Issues
	if widthBits < 1 || widthBits > 64 {
		it := IssueAt(RootPath(), CodeInvalidWidth, map[string]any{"width": widthBits})
		it.Schema = name
		return nil, Issues{it}
	}
	r := &Register{name: name, widthBits: widthBits, bits: make([]Bits, 0, len(bits)), index: make(map[string]int, len(bits))}
	for _, b := range bits {
		if b.Width == 0 {
			b.Width = 1
		}
		switch {
		case b.Name == "":
			iss = append(iss, fieldIssue(name, b.Name, CodeDeclaration, map[string]any{"field": "<empty>"}))
			continue
		case b.Width < 0:
			iss = append(iss, fieldIssue(name, b.Name, CodeInvalidWidth, map[string]any{"width": b.Width}))
			continue
		case b.Start < 0 || b.Start+b.Width > widthBits:
			iss = append(iss, fieldIssue(name, b.Name, CodeBitRange, map[string]any{"start": b.Start, "width": b.Width, "bits": widthBits}))
			continue
		}
		if _, dup := r.index[b.Name]; dup {
			iss = append(iss, fieldIssue(name, b.Name, CodeDuplicateField, map[string]any{"field": b.Name}))
			continue
		}
		r.index[b.Name] = len(r.bits)
		r.bits = append(r.bits, b)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return r, nil
}

// MustRegister is like NewRegister but panics on error.
func MustRegister(name string, widthBits int, bits []Bits) *Register {
	r, err := NewRegister(name, widthBits, bits)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Register) Name() string   { return r.name }
func (r *Register) WidthBits() int { return r.widthBits }
func (r *Register) Bits() []Bits   { return append([]Bits(nil), r.bits...) }
func (r *Register) Size() int      { return (r.widthBits + 7) / 8 }
func (r *Register) String() string { return r.name }

func (r *Register) Lookup(name string) (Bits, bool) {
	i, ok := r.index[name]
	if !ok {
		return Bits{}, false
	}
	return r.bits[i], true
}

// Value wraps a raw integer as a value of this register. Bits above the
// register width are discarded.
func (r *Register) Value(raw uint64) RegisterValue {
	return RegisterValue{reg: r, Raw: raw & engine.Mask(r.widthBits)}
}

// Decode interprets b (LSB first) as a value of this register.
func (r *Register) Decode(b []byte) RegisterValue {
	if len(b) > 8 {
		b = b[:8]
	}
	return r.Value(engine.Uint(b, nil))
}

// BindRegister reads a register of r.Size() bytes at opt.Offset.
func BindRegister(r *Register, src ByteSource, opts ...BindOpt) (RegisterValue, error) {
	var opt BindOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if r == nil || src == nil {
		return RegisterValue{}, Issues{IssueAt(RootPath(), CodeInvalidReference, map[string]any{"ref": "<nil>"})}
	}
	raw, err := readField(src, opt.Offset, r.Size(), r.name, RootPath())
	if err != nil {
		return RegisterValue{}, err
	}
	return r.Decode(raw), nil
}

// RegisterValue is a decoded register: the raw integer plus the schema that
// names its bits.
type RegisterValue struct {
	reg *Register
	Raw uint64
}

// Register returns the schema, or nil for the zero value.
func (v RegisterValue) Register() *Register { return v.reg }

// Get extracts the named bit range.
func (v RegisterValue) Get(name string) (uint64, error) {
	if v.reg == nil {
		return 0, Issues{IssueAt(RootPath().Field(name), CodeUnknownField, map[string]any{"field": name, "schema": "<nil>"})}
	}
	b, ok := v.reg.Lookup(name)
	if !ok {
		it := fieldIssue(v.reg.name, name, CodeUnknownField, map[string]any{"field": name, "schema": v.reg.name})
		return 0, Issues{it}
	}
	return engine.Extract(v.Raw, b.Start, b.Width), nil
}

// Flag reports whether the named bit range is non-zero.
func (v RegisterValue) Flag(name string) (bool, error) {
	x, err := v.Get(name)
	return x != 0, err
}

// Slice returns width bits starting at start, regardless of declared names.
func (v RegisterValue) Slice(start, width int) uint64 {
	if start < 0 || width < 1 {
		return 0
	}
	return engine.Extract(v.Raw, start, width)
}

// Bit returns bit i of the raw value.
func (v RegisterValue) Bit(i int) bool { return v.Slice(i, 1) != 0 }

func (v RegisterValue) String() string { return fmt.Sprintf("0x%x", v.Raw) }

// Equal reports whether both values share the schema and raw bits.
func (v RegisterValue) Equal(o RegisterValue) bool { return v.reg == o.reg && v.Raw == o.Raw }

// Dump lists the raw value followed by every declared bit range.
func (v RegisterValue) Dump() Entries {
	out := Entries{{Name: "value", Value: v.Raw}}
	if v.reg == nil {
		return out
	}
	for _, b := range v.reg.bits {
		out = append(out, Entry{Name: b.Name, Value: engine.Extract(v.Raw, b.Start, b.Width)})
	}
	return out
}
