package hwbits

// SchemaOpt configures NewSchema.
type SchemaOpt struct {
	// FixedSize declares the structure size explicitly. It must cover every
	// fixed-extent field. Zero derives the size from the fields.
	FixedSize int
	// NameField names the field whose value renders an instance in String.
	NameField string
	// SizeField names a uint field holding the record's total length in
	// bytes. Bind checks that the length covers Size() and that the source
	// holds it; at the outermost record it also bounds arrays and bodies.
	SizeField string
}

// Schema is the ordered, named field layout of one structure type. It is
// assembled once by NewSchema and is immutable afterwards; any number of
// instances, on any goroutine, may share it.
//
// Field windows may overlap: the same bytes can be declared both as a text
// field and as an integer constant, for example. No overlap check exists.
type Schema struct {
	name      string
	fields    []Field
	index     map[string]int
	size      int
	nameField string
	sizeField string
	constants []int
	eager     []int
}

// NewSchema assembles a schema from fields in declaration order. It fails
// atomically, reporting every malformed declaration as Issues.
func NewSchema(name string, fields []Field, opts ...SchemaOpt) (*Schema, error) {
	var opt SchemaOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	s := &Schema{name: name, fields: make([]Field, 0, len(fields)), index: make(map[string]int, len(fields)), nameField: opt.NameField, sizeField: opt.SizeField}
	var iss Issues
	for _, f := range fields {
		if f.Name == "" {
			iss = append(iss, fieldIssue(name, "", CodeDeclaration, map[string]any{"field": "<empty>"}))
			continue
		}
		if _, dup := s.index[f.Name]; dup {
			iss = append(iss, fieldIssue(name, f.Name, CodeDuplicateField, map[string]any{"field": f.Name}))
			continue
		}
		f = f.clone()
		if fi := f.normalize(name); len(fi) > 0 {
			iss = append(iss, fi...)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	// cross-field references
	for _, f := range s.fields {
		switch f.Kind {
		case KindArray:
			if f.CountField != "" && !s.isUint(f.CountField) {
				iss = append(iss, fieldIssue(name, f.Name, CodeInvalidReference, map[string]any{"ref": f.CountField}))
			}
		case KindBody:
			for _, ref := range []string{f.OffsetField, f.LengthField} {
				if ref != "" && !s.isUint(ref) {
					iss = append(iss, fieldIssue(name, f.Name, CodeInvalidReference, map[string]any{"ref": ref}))
				}
			}
		}
	}
	if opt.NameField != "" {
		if _, ok := s.index[opt.NameField]; !ok {
			iss = append(iss, fieldIssue(name, opt.NameField, CodeInvalidReference, map[string]any{"ref": opt.NameField}))
		}
	}
	if opt.SizeField != "" && !s.isUint(opt.SizeField) {
		iss = append(iss, fieldIssue(name, opt.SizeField, CodeInvalidReference, map[string]any{"ref": opt.SizeField}))
	}
	for i, f := range s.fields {
		if end, ok := f.Extent(); ok && end > s.size {
			s.size = end
		}
		if f.Kind.IsConstant() {
			s.constants = append(s.constants, i)
		}
		if f.Eager && (f.Kind == KindNested || f.Kind == KindArray) {
			s.eager = append(s.eager, i)
		}
	}
	if opt.FixedSize != 0 {
		if opt.FixedSize < s.size {
			it := IssueAt(RootPath(), CodeInvalidWidth, map[string]any{"width": opt.FixedSize})
			it.Schema = name
			iss = append(iss, it)
		}
		s.size = opt.FixedSize
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(name string, fields []Field, opts ...SchemaOpt) *Schema {
	s, err := NewSchema(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) isUint(name string) bool {
	i, ok := s.index[name]
	if !ok {
		return false
	}
	k := s.fields[i].Kind
	return k == KindUint || k == KindStaticUint
}

// Name returns the structure type name.
func (s *Schema) Name() string { return s.name }

// Size is the static size in bytes: the declared fixed size, or the largest
// end of any fixed-extent field.
func (s *Schema) Size() int { return s.size }

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns copies of the field descriptors in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.clone()
	}
	return out
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Lookup returns the descriptor for name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i].clone(), true
}

// NameField returns the field used by Instance.String, if any.
func (s *Schema) NameField() string { return s.nameField }

// SizeField returns the field holding the dynamic record length, if any.
func (s *Schema) SizeField() string { return s.sizeField }

func (s *Schema) String() string { return s.name }
