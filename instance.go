package hwbits

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/reoring/hwbits/internal/engine"
)

// Upper bounds for element counts and body lengths taken from the data
// when the source size is unknown.
const (
	maxUnsizedCount  = 1 << 16
	maxUnsizedBody   = 1 << 24
	maxUnsizedRecord = maxUnsizedBody << 8
)

// Instance is a schema bound to a source at a base offset. Field values are
// decoded on first access and cached; the source must not change while the
// instance is in use. Access is serialized per instance, so an Instance may
// be shared between goroutines.
type Instance struct {
	schema *Schema
	b      *binding
	base   int64
	path   PathRef

	mu    sync.Mutex
	cells []cell
}

type cell struct {
	set bool
	v   any
}

// Schema returns the governing schema.
func (in *Instance) Schema() *Schema { return in.schema }

// Offset returns the absolute base offset in the source.
func (in *Instance) Offset() int64 { return in.base }

// Path returns the location of this instance below the outermost bind.
func (in *Instance) Path() string { return in.path.Pointer() }

// Size returns the static size of the schema.
func (in *Instance) Size() int { return in.schema.size }

// Fields returns the field names in declaration order.
func (in *Instance) Fields() []string { return in.schema.Names() }

// Get resolves a field by name. The first access decodes and caches the
// value; later accesses return the cached value. Byte slices and arrays are
// returned as copies.
func (in *Instance) Get(name string) (any, error) {
	i, ok := in.schema.index[name]
	if !ok {
		return nil, in.unknown(in.path, name)
	}
	in.mu.Lock()
	v, err := in.resolve(i)
	in.mu.Unlock()
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []byte:
		return append([]byte(nil), t...), nil
	case []*Instance:
		return append([]*Instance(nil), t...), nil
	}
	return v, nil
}

func (in *Instance) Uint(name string) (uint64, error)  { return getAs[uint64](in, name, "uint") }
func (in *Instance) Bytes(name string) ([]byte, error) { return getAs[[]byte](in, name, "bytes") }
func (in *Instance) Text(name string) (string, error)  { return getAs[string](in, name, "text") }
func (in *Instance) GUID(name string) (GUID, error)    { return getAs[GUID](in, name, "guid") }

// Struct resolves a nested structure, binding it on first access.
func (in *Instance) Struct(name string) (*Instance, error) {
	return getAs[*Instance](in, name, "struct")
}

// Register resolves a nested register.
func (in *Instance) Register(name string) (RegisterValue, error) {
	return getAs[RegisterValue](in, name, "register")
}

// Array resolves an array of nested structures.
func (in *Instance) Array(name string) ([]*Instance, error) {
	return getAs[[]*Instance](in, name, "array")
}

// Flag reports whether bit range bit of register reg is non-zero.
func (in *Instance) Flag(reg, bit string) (bool, error) {
	rv, err := in.Register(reg)
	if err != nil {
		return false, err
	}
	if _, ok := rv.reg.Lookup(bit); !ok {
		return false, in.unknownIn(in.path.Field(reg), bit, rv.reg.name)
	}
	v, _ := rv.Get(bit)
	return v != 0, nil
}

// Lookup follows a "/"-separated path of field names through nested
// structures, arrays (numeric segments) and registers.
func (in *Instance) Lookup(path string) (any, error) {
	var cur any = in
	p := in.path
	for _, seg := range Segments(path) {
		switch c := cur.(type) {
		case *Instance:
			v, err := c.Get(seg)
			if err != nil {
				return nil, err
			}
			cur = v
		case []*Instance:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(c) {
				return nil, in.unknownIn(p, seg, "array")
			}
			cur = c[i]
		case RegisterValue:
			if _, ok := c.reg.Lookup(seg); !ok {
				return nil, in.unknownIn(p, seg, c.reg.name)
			}
			cur, _ = c.Get(seg)
		default:
			return nil, in.unknownIn(p, seg, fmt.Sprintf("%T", cur))
		}
		p = p.Field(seg)
	}
	return cur, nil
}

// DumpAt looks up path and dumps the value found there the way Dump does.
func (in *Instance) DumpAt(path string) (any, error) {
	v, err := in.Lookup(path)
	if err != nil {
		return nil, err
	}
	return dumpValue(v)
}

// Resolve decodes every field, collecting all failures.
func (in *Instance) Resolve() error {
	_, err := in.Dump()
	return err
}

// Dump resolves every field in declaration order. Nested structures and
// arrays are dumped recursively, registers as their raw value followed by
// each named bit range. Fields that fail are left out and reported
// together in the returned error.
func (in *Instance) Dump() (Entries, error) {
	out := make(Entries, 0, len(in.schema.fields))
	var iss Issues
	for _, f := range in.schema.fields {
		v, err := in.Get(f.Name)
		if err == nil {
			v, err = dumpValue(v)
		}
		if err != nil {
			iss = appendErr(iss, err)
			continue
		}
		out = append(out, Entry{Name: f.Name, Value: v})
	}
	if len(iss) > 0 {
		return out, iss
	}
	return out, nil
}

func dumpValue(v any) (any, error) {
	switch t := v.(type) {
	case *Instance:
		return t.Dump()
	case []*Instance:
		list := make([]Entries, 0, len(t))
		var iss Issues
		for _, e := range t {
			d, err := e.Dump()
			if err != nil {
				iss = appendErr(iss, err)
			}
			list = append(list, d)
		}
		if len(iss) > 0 {
			return list, iss
		}
		return list, nil
	case RegisterValue:
		return t.Dump(), nil
	}
	return v, nil
}

// String renders the name field when the schema declares one.
func (in *Instance) String() string {
	if nf := in.schema.nameField; nf != "" {
		if v, err := in.Get(nf); err == nil {
			return toString(v)
		}
	}
	return fmt.Sprintf("<%s len=%d>", in.schema.name, in.schema.size)
}

func getAs[T any](in *Instance, name, want string) (T, error) {
	var zero T
	v, err := in.Get(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		f, _ := in.schema.Lookup(name)
		it := IssueAt(in.path.Field(name), CodeInvalidType, map[string]any{"field": name, "kind": f.Kind.String(), "want": want})
		it.Schema = in.schema.name
		return zero, Issues{it}
	}
	return t, nil
}

func (in *Instance) unknown(p PathRef, name string) error {
	return in.unknownIn(p, name, in.schema.name)
}

func (in *Instance) unknownIn(p PathRef, name, schema string) error {
	it := IssueAt(p.Field(name), CodeUnknownField, map[string]any{"field": name, "schema": schema})
	it.Schema = schema
	return Issues{it}
}

// resolve decodes field i once. Callers hold in.mu, except during bindAt
// where the instance is not yet shared. Failures are not cached.
func (in *Instance) resolve(i int) (any, error) {
	c := &in.cells[i]
	if c.set {
		return c.v, nil
	}
	v, err := in.decode(&in.schema.fields[i])
	if err != nil {
		return nil, err
	}
	c.set, c.v = true, v
	return v, nil
}

func (in *Instance) decode(f *Field) (any, error) {
	path := in.path.Field(f.Name)
	abs := in.base + int64(f.Offset)
	switch f.Kind {
	case KindNested:
		log().WithFields(logrus.Fields{"schema": in.schema.name, "field": f.Name, "offset": abs}).Debug("resolving nested structure")
		return bindAt(f.Struct, in.b, abs, path)
	case KindArray:
		return in.decodeArray(f, abs, path)
	case KindBody:
		return in.decodeBody(f, path)
	}

	raw, err := readField(in.b.src, abs, f.Width, in.schema.name, path)
	if err != nil {
		return nil, err
	}
	switch f.Kind {
	case KindUint:
		return engine.Uint(raw, f.order()), nil
	case KindBytes:
		return raw, nil
	case KindText:
		s, ok := decodeText(raw, f.enc)
		if !ok {
			enc := f.Encoding
			if enc == "" {
				enc = "ascii"
			}
			it := IssueAt(path, CodeInvalidText, map[string]any{"encoding": enc})
			it.Schema, it.Offset = in.schema.name, abs
			return nil, Issues{it}
		}
		return s, nil
	case KindStatic, KindStaticUint:
		v, ok, params := f.checkStatic(raw)
		if !ok {
			params["field"] = f.Name
			it := IssueAt(path, CodeStaticMismatch, params)
			it.Schema, it.Offset = in.schema.name, abs
			return nil, Issues{it}
		}
		return v, nil
	case KindGUID:
		var g GUID
		copy(g[:], raw)
		return g, nil
	case KindRegister:
		return f.Register.Value(engine.Uint(raw, f.order())), nil
	}
	return nil, Issues{IssueAt(path, CodeInvalidType, map[string]any{"field": f.Name, "kind": f.Kind.String(), "want": "known kind"})}
}

func (in *Instance) refUint(name string) (uint64, error) {
	v, err := in.resolve(in.schema.index[name])
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}

func (in *Instance) decodeArray(f *Field, abs int64, path PathRef) (any, error) {
	count := uint64(f.Count)
	if f.CountField != "" {
		n, err := in.refUint(f.CountField)
		if err != nil {
			return nil, err
		}
		count = n
	}
	elem := int64(f.Struct.Size())
	if end, ok := in.b.end(); ok {
		avail := end - abs
		if avail < 0 {
			avail = 0
		}
		if count > uint64(avail/elem) {
			it := IssueAt(path, CodeTruncated, map[string]any{"offset": abs, "want": fmt.Sprintf("%d*%d", count, elem), "got": avail})
			it.Schema, it.Offset = in.schema.name, abs
			return nil, Issues{it}
		}
	} else if count > maxUnsizedCount {
		it := IssueAt(path, CodeInvalidCount, map[string]any{"count": count})
		it.Schema, it.Offset = in.schema.name, abs
		return nil, Issues{it}
	}
	out := make([]*Instance, 0, int(count))
	for i := 0; i < int(count); i++ {
		e, err := bindAt(f.Struct, in.b, abs+int64(i)*elem, path.Index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// decodeBody reads the bytes addressed by two sibling fields. The offset is
// relative to the outermost bound record, not to this instance, and the body
// must lie within that record.
func (in *Instance) decodeBody(f *Field, path PathRef) (any, error) {
	off, err := in.refUint(f.OffsetField)
	if err != nil {
		return nil, err
	}
	n, err := in.refUint(f.LengthField)
	if err != nil {
		return nil, err
	}
	if end, ok := in.b.end(); ok {
		avail := uint64(0)
		if end > in.b.root {
			avail = uint64(end - in.b.root)
		}
		if off > avail || n > avail-off {
			it := IssueAt(path, CodeTruncated, map[string]any{"offset": off, "want": n, "got": avail})
			it.Schema, it.Offset = in.schema.name, in.b.root
			return nil, Issues{it}
		}
	} else if n > maxUnsizedBody || off > maxUnsizedRecord {
		it := IssueAt(path, CodeInvalidCount, map[string]any{"count": n})
		it.Schema = in.schema.name
		return nil, Issues{it}
	}
	return readField(in.b.src, in.b.root+int64(off), int(n), in.schema.name, path)
}
