package hwbits

import (
	"encoding/hex"
	"fmt"

	"github.com/reoring/hwbits/internal/engine"
	js "github.com/reoring/hwbits/jsonschema"
)

// JSONSchema projects the schema into a JSON Schema describing the JSON
// form of Instance.Dump.
func (s *Schema) JSONSchema() (*js.Schema, error) {
	out := &js.Schema{
		Type:                 "object",
		Title:                s.name,
		Properties:           make(map[string]*js.Schema, len(s.fields)),
		Required:             s.Names(),
		AdditionalProperties: false,
	}
	for _, f := range s.fields {
		fs, err := fieldJSONSchema(f)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.name, f.Name, err)
		}
		out.Properties[f.Name] = fs
	}
	return out, nil
}

// JSONSchema projects the register into the JSON form of RegisterValue.Dump.
func (r *Register) JSONSchema() *js.Schema {
	out := &js.Schema{
		Type:                 "object",
		Title:                r.name,
		Properties:           make(map[string]*js.Schema, len(r.bits)+1),
		Required:             []string{"value"},
		AdditionalProperties: false,
	}
	out.Properties["value"] = &js.Schema{Type: "integer", Minimum: js.Ptr(uint64(0)), Maximum: js.Ptr(engine.Mask(r.widthBits))}
	for _, b := range r.bits {
		out.Properties[b.Name] = &js.Schema{
			Type:        "integer",
			Description: b.Doc,
			Minimum:     js.Ptr(uint64(0)),
			Maximum:     js.Ptr(engine.Mask(b.Width)),
		}
		out.Required = append(out.Required, b.Name)
	}
	return out
}

func fieldJSONSchema(f Field) (*js.Schema, error) {
	var s *js.Schema
	switch f.Kind {
	case KindUint:
		s = &js.Schema{Type: "integer", Minimum: js.Ptr(uint64(0)), Maximum: js.Ptr(engine.Mask(f.Width * 8))}
	case KindStaticUint:
		s = &js.Schema{Type: "integer", Const: f.ExpectedUint}
	case KindStatic:
		s = &js.Schema{Type: "string", Format: "hex", Const: hex.EncodeToString(f.Expected)}
	case KindBytes, KindBody:
		s = &js.Schema{Type: "string", Format: "hex"}
		if f.Kind == KindBytes {
			s.MaxLength = js.Ptr(f.Width * 2)
		}
	case KindText:
		s = &js.Schema{Type: "string", MaxLength: js.Ptr(f.Width)}
	case KindGUID:
		s = &js.Schema{Type: "string", Format: "uuid"}
	case KindNested:
		ns, err := f.Struct.JSONSchema()
		if err != nil {
			return nil, err
		}
		s = ns
	case KindRegister:
		s = f.Register.JSONSchema()
	case KindArray:
		items, err := f.Struct.JSONSchema()
		if err != nil {
			return nil, err
		}
		s = &js.Schema{Type: "array", Items: items}
		if f.CountField == "" {
			s.MinItems, s.MaxItems = js.Ptr(f.Count), js.Ptr(f.Count)
		}
	default:
		return nil, fmt.Errorf("unsupported kind %s", f.Kind)
	}
	if f.Doc != "" {
		s.Description = f.Doc
	}
	s.Offset = js.Ptr(f.Offset)
	if f.Width > 0 {
		s.Width = js.Ptr(f.Width)
	}
	return s, nil
}
