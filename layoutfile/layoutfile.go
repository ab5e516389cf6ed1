// Package layoutfile loads hwbits layouts from YAML, JSON or TOML catalogs.
//
// A catalog declares registers and structures by name; fields reference
// them with "register:" and "struct:". Definitions may appear in any
// order: structures are assembled after everything they reference.
//
//	registers:
//	  - name: flags
//	    width: 8
//	    bits:
//	      - {name: enabled, start: 0}
//	      - {name: mode, start: 1, width: 2}
//	structs:
//	  - name: header
//	    fields:
//	      - {name: magic, kind: static, offset: 0, expected: ABCD}
//	      - {name: count, kind: uint, offset: 4, width: 2}
//	      - {name: flags, kind: register, offset: 6, register: flags}
package layoutfile

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format selects the catalog syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.Errorf("cannot infer layout format from %q", path)
}

// File is the decoded form of a catalog. Numeric values (offsets, widths,
// counts, expected integers) accept numbers or strings such as "0x80".
type File struct {
	Registers []RegisterDef `yaml:"registers" json:"registers" toml:"registers"`
	Structs   []StructDef   `yaml:"structs" json:"structs" toml:"structs"`
}

type RegisterDef struct {
	Name  string    `yaml:"name" json:"name" toml:"name"`
	Width any       `yaml:"width" json:"width" toml:"width"`
	Bits  []BitsDef `yaml:"bits" json:"bits" toml:"bits"`
}

type BitsDef struct {
	Name  string `yaml:"name" json:"name" toml:"name"`
	Start any    `yaml:"start" json:"start" toml:"start"`
	Width any    `yaml:"width,omitempty" json:"width,omitempty" toml:"width,omitempty"`
	Doc   string `yaml:"doc,omitempty" json:"doc,omitempty" toml:"doc,omitempty"`
}

type StructDef struct {
	Name      string     `yaml:"name" json:"name" toml:"name"`
	Size      any        `yaml:"size,omitempty" json:"size,omitempty" toml:"size,omitempty"`
	NameField string     `yaml:"name_field,omitempty" json:"name_field,omitempty" toml:"name_field,omitempty"`
	SizeField string     `yaml:"size_field,omitempty" json:"size_field,omitempty" toml:"size_field,omitempty"`
	Fields    []FieldDef `yaml:"fields" json:"fields" toml:"fields"`
}

type FieldDef struct {
	Name        string `yaml:"name" json:"name" toml:"name"`
	Kind        string `yaml:"kind" json:"kind" toml:"kind"`
	Offset      any    `yaml:"offset,omitempty" json:"offset,omitempty" toml:"offset,omitempty"`
	Width       any    `yaml:"width,omitempty" json:"width,omitempty" toml:"width,omitempty"`
	Order       string `yaml:"order,omitempty" json:"order,omitempty" toml:"order,omitempty"`
	Expected    any    `yaml:"expected,omitempty" json:"expected,omitempty" toml:"expected,omitempty"`
	ExpectedHex string `yaml:"expected_hex,omitempty" json:"expected_hex,omitempty" toml:"expected_hex,omitempty"`
	Encoding    string `yaml:"encoding,omitempty" json:"encoding,omitempty" toml:"encoding,omitempty"`
	Struct      string `yaml:"struct,omitempty" json:"struct,omitempty" toml:"struct,omitempty"`
	Register    string `yaml:"register,omitempty" json:"register,omitempty" toml:"register,omitempty"`
	Count       any    `yaml:"count,omitempty" json:"count,omitempty" toml:"count,omitempty"`
	CountField  string `yaml:"count_field,omitempty" json:"count_field,omitempty" toml:"count_field,omitempty"`
	OffsetField string `yaml:"offset_field,omitempty" json:"offset_field,omitempty" toml:"offset_field,omitempty"`
	LengthField string `yaml:"length_field,omitempty" json:"length_field,omitempty" toml:"length_field,omitempty"`
	Eager       bool   `yaml:"eager,omitempty" json:"eager,omitempty" toml:"eager,omitempty"`
	Doc         string `yaml:"doc,omitempty" json:"doc,omitempty" toml:"doc,omitempty"`
}

// Decode parses data without assembling schemas. Unknown keys are errors.
func Decode(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(err, "decode yaml layout")
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		// keep 64-bit constants exact; cast parses json.Number
		dec.UseNumber()
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(err, "decode json layout")
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, errors.Wrap(err, "decode toml layout")
		}
		if und := md.Undecoded(); len(und) > 0 {
			return nil, errors.Errorf("decode toml layout: unknown key %s", und[0].String())
		}
	default:
		return nil, errors.Errorf("unsupported layout format %q", format)
	}
	return &f, nil
}

// Load decodes data and assembles every definition into a Catalog.
func Load(data []byte, format Format) (*Catalog, error) {
	f, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return Build(f)
}
