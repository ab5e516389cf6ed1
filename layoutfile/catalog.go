package layoutfile

import (
	"encoding/binary"
	"encoding/hex"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/reoring/hwbits"
)

// Catalog is a named set of assembled structures and registers.
type Catalog struct {
	structs   map[string]*hwbits.Schema
	registers map[string]*hwbits.Register
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{structs: map[string]*hwbits.Schema{}, registers: map[string]*hwbits.Register{}}
}

// Add registers prebuilt schemas, replacing any with the same name.
func (c *Catalog) Add(schemas ...*hwbits.Schema) *Catalog {
	for _, s := range schemas {
		c.structs[s.Name()] = s
	}
	return c
}

// AddRegister registers prebuilt registers.
func (c *Catalog) AddRegister(regs ...*hwbits.Register) *Catalog {
	for _, r := range regs {
		c.registers[r.Name()] = r
	}
	return c
}

func (c *Catalog) Struct(name string) (*hwbits.Schema, bool) {
	s, ok := c.structs[name]
	return s, ok
}

func (c *Catalog) Register(name string) (*hwbits.Register, bool) {
	r, ok := c.registers[name]
	return r, ok
}

// Structs lists structure names, sorted.
func (c *Catalog) Structs() []string { return sortedKeys(c.structs) }

// Registers lists register names, sorted.
func (c *Catalog) Registers() []string { return sortedKeys(c.registers) }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LoadFile reads a catalog, inferring the format from the extension.
func LoadFile(path string) (*Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read layout %s", path)
	}
	c, err := Load(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "layout %s", path)
	}
	return c, nil
}

// Build assembles every definition of f. Registers are built first, then
// structures in dependency order. All failures are reported together; a
// structure that depends on a failed one is skipped silently.
func Build(f *File) (*Catalog, error) {
	c := NewCatalog()
	var result *multierror.Error

	for _, rd := range f.Registers {
		r, err := buildRegister(rd)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "register %q", rd.Name))
			continue
		}
		if _, dup := c.registers[rd.Name]; dup {
			result = multierror.Append(result, errors.Errorf("register %q declared twice", rd.Name))
			continue
		}
		c.registers[rd.Name] = r
	}

	defs := make(map[string]StructDef, len(f.Structs))
	for _, sd := range f.Structs {
		if _, dup := defs[sd.Name]; dup {
			result = multierror.Append(result, errors.Errorf("struct %q declared twice", sd.Name))
			continue
		}
		defs[sd.Name] = sd
	}
	order, err := structOrder(f.Structs, defs)
	if err != nil {
		result = multierror.Append(result, err)
	}

	failed := map[string]bool{}
	for _, name := range order {
		sd := defs[name]
		if dependsOnFailed(sd, failed) {
			failed[name] = true
			continue
		}
		s, err := c.buildStruct(sd)
		if err != nil {
			failed[name] = true
			result = multierror.Append(result, errors.Wrapf(err, "struct %q", name))
			continue
		}
		c.structs[name] = s
	}

	hwbits.Logger().WithFields(logrus.Fields{
		"structs":   len(c.structs),
		"registers": len(c.registers),
	}).Debug("layout catalog assembled")

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return c, nil
}

func structRefs(sd StructDef) []string {
	var out []string
	for _, fd := range sd.Fields {
		if fd.Struct != "" {
			out = append(out, fd.Struct)
		}
	}
	return out
}

func dependsOnFailed(sd StructDef, failed map[string]bool) bool {
	for _, ref := range structRefs(sd) {
		if failed[ref] {
			return true
		}
	}
	return false
}

// structOrder sorts structures so that every referenced structure precedes
// its users. Dangling references are left for buildStruct to report;
// cycles are reported here and their members dropped.
func structOrder(list []StructDef, defs map[string]StructDef) ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(defs))
	var order []string
	var result *multierror.Error
	var visit func(name string, stack []string) bool
	visit = func(name string, stack []string) bool {
		switch state[name] {
		case done:
			return true
		case visiting:
			result = multierror.Append(result, errors.Errorf("struct reference cycle: %s -> %s", strings.Join(stack, " -> "), name))
			return false
		}
		state[name] = visiting
		ok := true
		for _, ref := range structRefs(defs[name]) {
			if _, known := defs[ref]; !known {
				continue
			}
			if !visit(ref, append(stack, name)) {
				ok = false
			}
		}
		state[name] = done
		if ok {
			order = append(order, name)
		}
		return ok
	}
	seen := map[string]bool{}
	for _, sd := range list {
		if seen[sd.Name] {
			continue
		}
		seen[sd.Name] = true
		visit(sd.Name, nil)
	}
	return order, result.ErrorOrNil()
}

func buildRegister(rd RegisterDef) (*hwbits.Register, error) {
	width, err := cast.ToIntE(rd.Width)
	if err != nil {
		return nil, errors.Wrap(err, "width")
	}
	bits := make([]hwbits.Bits, 0, len(rd.Bits))
	for _, bd := range rd.Bits {
		start, err := cast.ToIntE(bd.Start)
		if err != nil {
			return nil, errors.Wrapf(err, "bits %q: start", bd.Name)
		}
		w, err := optInt(bd.Width)
		if err != nil {
			return nil, errors.Wrapf(err, "bits %q: width", bd.Name)
		}
		bits = append(bits, hwbits.Bits{Name: bd.Name, Start: start, Width: w, Doc: bd.Doc})
	}
	return hwbits.NewRegister(rd.Name, width, bits)
}

func (c *Catalog) buildStruct(sd StructDef) (*hwbits.Schema, error) {
	size, err := optInt(sd.Size)
	if err != nil {
		return nil, errors.Wrap(err, "size")
	}
	fields := make([]hwbits.Field, 0, len(sd.Fields))
	for _, fd := range sd.Fields {
		f, err := c.field(fd)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", fd.Name)
		}
		fields = append(fields, f)
	}
	return hwbits.NewSchema(sd.Name, fields, hwbits.SchemaOpt{FixedSize: size, NameField: sd.NameField, SizeField: sd.SizeField})
}

func (c *Catalog) field(fd FieldDef) (hwbits.Field, error) {
	kind, ok := hwbits.ParseKind(fd.Kind)
	if !ok {
		return hwbits.Field{}, errors.Errorf("unknown kind %q", fd.Kind)
	}
	f := hwbits.Field{
		Name:        fd.Name,
		Kind:        kind,
		Encoding:    fd.Encoding,
		CountField:  fd.CountField,
		OffsetField: fd.OffsetField,
		LengthField: fd.LengthField,
		Eager:       fd.Eager,
		Doc:         fd.Doc,
	}
	var err error
	if f.Offset, err = optInt(fd.Offset); err != nil {
		return f, errors.Wrap(err, "offset")
	}
	if f.Width, err = optInt(fd.Width); err != nil {
		return f, errors.Wrap(err, "width")
	}
	if f.Count, err = optInt(fd.Count); err != nil {
		return f, errors.Wrap(err, "count")
	}
	switch strings.ToLower(fd.Order) {
	case "", "little", "le":
	case "big", "be":
		f.Order = binary.BigEndian
	default:
		return f, errors.Errorf("unknown byte order %q", fd.Order)
	}

	switch kind {
	case hwbits.KindStatic:
		switch {
		case fd.ExpectedHex != "":
			if f.Expected, err = hex.DecodeString(fd.ExpectedHex); err != nil {
				return f, errors.Wrap(err, "expected_hex")
			}
		case fd.Expected != nil:
			s, err := cast.ToStringE(fd.Expected)
			if err != nil {
				return f, errors.Wrap(err, "expected")
			}
			f.Expected = []byte(s)
		}
	case hwbits.KindStaticUint:
		if f.ExpectedUint, err = cast.ToUint64E(fd.Expected); err != nil {
			return f, errors.Wrap(err, "expected")
		}
	case hwbits.KindNested, hwbits.KindArray:
		s, ok := c.structs[fd.Struct]
		if !ok {
			return f, errors.Errorf("unknown struct %q", fd.Struct)
		}
		f.Struct = s
	case hwbits.KindRegister:
		r, ok := c.registers[fd.Register]
		if !ok {
			return f, errors.Errorf("unknown register %q", fd.Register)
		}
		f.Register = r
	}
	return f, nil
}

func optInt(v any) (int, error) {
	if v == nil {
		return 0, nil
	}
	return cast.ToIntE(v)
}
