package jsonschema

// Schema is a minimal JSON Schema representation used for export.
// Keep this struct small and extend incrementally.
type Schema struct {
	// Core
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Const       any    `json:"const,omitempty"`

	// Numbers / strings
	Minimum   *uint64 `json:"minimum,omitempty"`
	Maximum   *uint64 `json:"maximum,omitempty"`
	MaxLength *int    `json:"maxLength,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`

	// Binary layout annotations
	Offset *int `json:"x-offset,omitempty"`
	Width  *int `json:"x-width,omitempty"`
}

// Ptr returns a pointer to v; used when filling optional keywords.
func Ptr[T any](v T) *T { return &v }
