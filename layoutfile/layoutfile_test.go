package layoutfile_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/hwbits"
	"github.com/reoring/hwbits/layoutfile"
)

const headerYAML = `
structs:
  - name: header
    name_field: label
    fields:
      - {name: magic, kind: static, offset: 0, expected: ABCD}
      - {name: count, kind: uint, offset: 4, width: 2}
      - {name: flags, kind: register, offset: 6, register: flags}
      - {name: tail, kind: struct, offset: 7, struct: trailer, eager: true}
      - {name: label, kind: text, offset: 9, width: 3}
  - name: trailer
    fields:
      - {name: end, kind: static_uint, offset: 0, width: 2, expected: 0xBEEF, order: big}
registers:
  - name: flags
    width: 8
    bits:
      - {name: enabled, start: 0}
      - {name: mode, start: 1, width: 2, doc: operating mode}
`

func headerRecord() []byte {
	return []byte{'A', 'B', 'C', 'D', 2, 0, 0b101, 0xBE, 0xEF, 'h', 'd', 'r'}
}

func TestLoadYAML(t *testing.T) {
	c, err := layoutfile.Load([]byte(headerYAML), layoutfile.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"header", "trailer"}, c.Structs())
	assert.Equal(t, []string{"flags"}, c.Registers())

	s, ok := c.Struct("header")
	require.True(t, ok)
	assert.Equal(t, 12, s.Size())

	in, err := hwbits.Bind(s, hwbits.Bytes(headerRecord()))
	require.NoError(t, err)
	n, err := in.Uint("count")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	mode, err := in.Lookup("/flags/mode")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), mode)
	assert.Equal(t, "hdr", in.String())

	r, _ := c.Register("flags")
	b, _ := r.Lookup("mode")
	assert.Equal(t, "operating mode", b.Doc)

	bad := headerRecord()
	bad[8] = 0
	_, err = hwbits.Bind(s, hwbits.Bytes(bad))
	assert.ErrorIs(t, err, hwbits.ErrValidation)
}

func TestLoadJSON(t *testing.T) {
	data := `{
  "registers": [{"name": "r", "width": "0x10", "bits": [{"name": "hi", "start": 8, "width": 8}]}],
  "structs": [{
    "name": "rec",
    "size": "0x10",
    "fields": [
      {"name": "sig", "kind": "static", "offset": 0, "expected_hex": "cafe"},
      {"name": "end", "kind": "static_uint", "offset": 2, "expected": "0xFFFFFFFF"},
      {"name": "reg", "kind": "register", "offset": 6, "register": "r"}
    ]
  }]
}`
	c, err := layoutfile.Load([]byte(data), layoutfile.FormatJSON)
	require.NoError(t, err)
	s, _ := c.Struct("rec")
	assert.Equal(t, 16, s.Size())

	buf := make([]byte, 16)
	copy(buf, []byte{0xca, 0xfe, 0xff, 0xff, 0xff, 0xff, 0x00, 0x7f})
	in, err := hwbits.Bind(s, hwbits.Bytes(buf))
	require.NoError(t, err)
	hi, err := in.Lookup("/reg/hi")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7f), hi)
}

func TestLoadJSON_WideConstants(t *testing.T) {
	data := `{"structs": [{
  "name": "wide",
  "fields": [
    {"name": "max", "kind": "static_uint", "offset": 0, "width": 8, "expected": 18446744073709551615},
    {"name": "odd", "kind": "static_uint", "offset": 8, "width": 8, "expected": 9007199254740993}
  ]
}]}`
	c, err := layoutfile.Load([]byte(data), layoutfile.FormatJSON)
	require.NoError(t, err)
	s, _ := c.Struct("wide")
	f, _ := s.Lookup("max")
	assert.Equal(t, ^uint64(0), f.ExpectedUint)
	f, _ = s.Lookup("odd")
	assert.Equal(t, uint64(9007199254740993), f.ExpectedUint)

	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf, ^uint64(0))
	binary.LittleEndian.PutUint64(buf[8:], 9007199254740993)
	in, err := hwbits.Bind(s, hwbits.Bytes(buf))
	require.NoError(t, err)
	odd, err := in.Uint("odd")
	require.NoError(t, err)
	assert.Equal(t, uint64(9007199254740993), odd)

	binary.LittleEndian.PutUint64(buf[8:], 9007199254740992)
	_, err = hwbits.Bind(s, hwbits.Bytes(buf))
	assert.ErrorIs(t, err, hwbits.ErrValidation)
}

func TestByteOrderAndSizeField(t *testing.T) {
	data := `
registers:
  - name: word
    width: 16
    bits: [{name: lo, start: 0, width: 8}]
structs:
  - name: rec
    size_field: len
    fields:
      - {name: len, kind: uint, offset: 0, width: 1}
      - {name: w, kind: register, offset: 1, register: word, order: big}
`
	c, err := layoutfile.Load([]byte(data), layoutfile.FormatYAML)
	require.NoError(t, err)
	s, _ := c.Struct("rec")
	assert.Equal(t, "len", s.SizeField())

	in, err := hwbits.Bind(s, hwbits.Bytes([]byte{3, 0x12, 0x34}))
	require.NoError(t, err)
	lo, err := in.Lookup("/w/lo")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x34), lo)

	_, err = hwbits.Bind(s, hwbits.Bytes([]byte{2, 0x12, 0x34}))
	assert.ErrorIs(t, err, hwbits.ErrValidation)

	_, err = layoutfile.Load([]byte(`
structs:
  - name: s
    fields: [{name: t, kind: text, width: 4, order: big}]
`), layoutfile.FormatYAML)
	assert.ErrorIs(t, err, hwbits.ErrDeclaration)
}

func TestLoadTOML(t *testing.T) {
	data := `
[[structs]]
name = "entry"
[[structs.fields]]
name = "v"
kind = "uint"
offset = 0
width = 1

[[structs]]
name = "table"
[[structs.fields]]
name = "n"
kind = "uint"
offset = 0
width = 1
[[structs.fields]]
name = "items"
kind = "array"
offset = 1
struct = "entry"
count_field = "n"
`
	c, err := layoutfile.Load([]byte(data), layoutfile.FormatTOML)
	require.NoError(t, err)
	s, _ := c.Struct("table")
	in := hwbits.MustBind(s, hwbits.Bytes([]byte{2, 7, 9}))
	v, err := in.Lookup("/items/1/v")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), v)
}

func TestUnknownKeysRejected(t *testing.T) {
	_, err := layoutfile.Decode([]byte("structs:\n  - name: a\n    feilds: []\n"), layoutfile.FormatYAML)
	assert.Error(t, err)
	_, err = layoutfile.Decode([]byte(`{"structs": [], "extra": 1}`), layoutfile.FormatJSON)
	assert.Error(t, err)
	_, err = layoutfile.Decode([]byte("extra = 1\n"), layoutfile.FormatTOML)
	assert.ErrorContains(t, err, "extra")
	_, err = layoutfile.Decode(nil, layoutfile.Format("xml"))
	assert.Error(t, err)
}

func TestCycleAndDangling(t *testing.T) {
	data := `
structs:
  - name: a
    fields: [{name: b, kind: struct, struct: b}]
  - name: b
    fields: [{name: a, kind: struct, struct: a}]
  - name: c
    fields: [{name: x, kind: struct, struct: missing}]
  - name: ok
    fields: [{name: v, kind: uint, width: 1}]
`
	_, err := layoutfile.Load([]byte(data), layoutfile.FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
	assert.Contains(t, err.Error(), `unknown struct "missing"`)
}

func TestDeclarationIssuesSurvive(t *testing.T) {
	data := `
registers:
  - name: r
    width: 8
    bits: [{name: x, start: 8}]
structs:
  - name: s
    fields:
      - {name: a, kind: uint, width: 9}
      - {name: a, kind: uint, width: 1}
  - name: user
    fields: [{name: inner, kind: struct, struct: s}]
`
	_, err := layoutfile.Load([]byte(data), layoutfile.FormatYAML)
	require.Error(t, err)
	assert.ErrorIs(t, err, hwbits.ErrDeclaration)
	iss, ok := hwbits.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, hwbits.CodeBitRange, iss[0].Code)
	assert.NotContains(t, err.Error(), `struct "user"`)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yml")
	require.NoError(t, os.WriteFile(path, []byte(headerYAML), 0o600))
	c, err := layoutfile.LoadFile(path)
	require.NoError(t, err)
	_, ok := c.Struct("trailer")
	assert.True(t, ok)

	_, err = layoutfile.LoadFile(filepath.Join(dir, "layout.ini"))
	assert.Error(t, err)
}

func TestCatalogAdd(t *testing.T) {
	s := hwbits.MustSchema("x", []hwbits.Field{{Name: "v", Width: 1, Kind: hwbits.KindUint}})
	r := hwbits.MustRegister("r", 8, nil)
	c := layoutfile.NewCatalog().Add(s).AddRegister(r)
	got, ok := c.Struct("x")
	assert.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, []string{"r"}, c.Registers())
}
