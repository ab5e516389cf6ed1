package dsl

import (
	"github.com/reoring/hwbits"
)

type structBuilder struct {
	name   string
	fields []hwbits.Field
	opt    hwbits.SchemaOpt
}

type fieldStep struct {
	b *structBuilder
	i int
}

// Struct creates a new structure builder. Fields keep declaration order.
func Struct(name string) *structBuilder {
	return &structBuilder{name: name}
}

// Field appends a field built by one of the field constructors.
func (b *structBuilder) Field(name string, def hwbits.Field) *fieldStep {
	def.Name = name
	b.fields = append(b.fields, def)
	return &fieldStep{b: b, i: len(b.fields) - 1}
}

// FixedSize declares the structure size explicitly.
func (b *structBuilder) FixedSize(n int) *structBuilder {
	b.opt.FixedSize = n
	return b
}

// NameField selects the field that names an instance in String().
func (b *structBuilder) NameField(name string) *structBuilder {
	b.opt.NameField = name
	return b
}

// SizeField selects the uint field holding the record's total length.
func (b *structBuilder) SizeField(name string) *structBuilder {
	b.opt.SizeField = name
	return b
}

// Build assembles the schema; it fails atomically.
func (b *structBuilder) Build() (*hwbits.Schema, error) {
	return hwbits.NewSchema(b.name, b.fields, b.opt)
}

// MustBuild is like Build but panics on error.
func (b *structBuilder) MustBuild() *hwbits.Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// Eager validates a nested structure (or array elements) at bind time.
func (f *fieldStep) Eager() *fieldStep {
	f.b.fields[f.i].Eager = true
	return f
}

// Doc attaches a description, exported to JSON Schema.
func (f *fieldStep) Doc(text string) *fieldStep {
	f.b.fields[f.i].Doc = text
	return f
}

func (f *fieldStep) Field(name string, def hwbits.Field) *fieldStep { return f.b.Field(name, def) }
func (f *fieldStep) FixedSize(n int) *structBuilder                 { return f.b.FixedSize(n) }
func (f *fieldStep) NameField(name string) *structBuilder           { return f.b.NameField(name) }
func (f *fieldStep) SizeField(name string) *structBuilder           { return f.b.SizeField(name) }
func (f *fieldStep) Build() (*hwbits.Schema, error)                 { return f.b.Build() }
func (f *fieldStep) MustBuild() *hwbits.Schema                      { return f.b.MustBuild() }
