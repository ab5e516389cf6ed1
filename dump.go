package hwbits

import (
	"bytes"
	"encoding/hex"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Entry is one decoded field in a dump.
type Entry struct {
	Name  string
	Value any
}

// Entries is an ordered dump of decoded fields. Values are uint64, string,
// []byte, GUID, Entries (nested structures and registers) or []Entries
// (arrays). JSON and YAML output keep declaration order; bytes render as
// hex strings.
type Entries []Entry

// Get returns the value of the named entry.
func (e Entries) Get(name string) (any, bool) {
	for _, it := range e {
		if it.Name == name {
			return it.Value, true
		}
	}
	return nil, false
}

// Map converts the dump into plain maps, recursively.
func (e Entries) Map() map[string]any {
	out := make(map[string]any, len(e))
	for _, it := range e {
		out[it.Name] = plainValue(it.Value)
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case Entries:
		return t.Map()
	case []Entries:
		list := make([]any, len(t))
		for i, x := range t {
			list[i] = x.Map()
		}
		return list
	}
	return v
}

func (e Entries) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, it := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(it.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(encodedValue(it.Value))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (e Entries) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, it := range e {
		vn := &yaml.Node{}
		if err := vn.Encode(encodedValue(it.Value)); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: it.Name}, vn)
	}
	return n, nil
}

func encodedValue(v any) any {
	if b, ok := v.([]byte); ok {
		return hex.EncodeToString(b)
	}
	return v
}
