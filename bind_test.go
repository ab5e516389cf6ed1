package hwbits_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/reoring/hwbits"
)

func headerSchema(t *testing.T) *hwbits.Schema {
	t.Helper()
	s, err := hwbits.NewSchema("header", []hwbits.Field{
		{Name: "magic", Offset: 0, Kind: hwbits.KindStatic, Expected: []byte("ABCD")},
		{Name: "count", Offset: 4, Width: 2, Kind: hwbits.KindUint},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func TestBind_MagicAndCount(t *testing.T) {
	s := headerSchema(t)
	in, err := hwbits.Bind(s, hwbits.Bytes([]byte{'A', 'B', 'C', 'D', 0x02, 0x00}))
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	n, err := in.Uint("count")
	if err != nil || n != 2 {
		t.Fatalf("count = %d, %v; want 2", n, err)
	}
	magic, err := in.Bytes("magic")
	if err != nil || string(magic) != "ABCD" {
		t.Fatalf("magic = %q, %v", magic, err)
	}
}

func TestBind_MagicMismatch(t *testing.T) {
	s := headerSchema(t)
	_, err := hwbits.Bind(s, hwbits.Bytes([]byte{'X', 'B', 'C', 'D', 0x02, 0x00}))
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	if !errors.Is(err, hwbits.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	iss, _ := hwbits.AsIssues(err)
	if iss[0].Code != hwbits.CodeStaticMismatch || iss[0].Path != "/magic" {
		t.Fatalf("unexpected issue %+v", iss[0])
	}
	if iss[0].Params["field"] != "magic" || iss[0].Params["expected"] != `"ABCD"` || iss[0].Params["got"] != `"XBCD"` {
		t.Fatalf("issue must carry field, expected and got: %+v", iss[0].Params)
	}
	if iss[0].Offset != 0 {
		t.Fatalf("expected offset 0, got %d", iss[0].Offset)
	}
}

func TestBind_StaticUint(t *testing.T) {
	s := hwbits.MustSchema("s", []hwbits.Field{
		{Name: "head_end", Offset: 0, Kind: hwbits.KindStaticUint, ExpectedUint: 0xFFFFFFFF},
		{Name: "be", Offset: 4, Width: 2, Kind: hwbits.KindStaticUint, ExpectedUint: 0x1234, Order: binary.BigEndian},
	})
	if _, err := hwbits.Bind(s, hwbits.Bytes([]byte{0xff, 0xff, 0xff, 0xff, 0x12, 0x34})); err != nil {
		t.Fatalf("bind: %v", err)
	}
	_, err := hwbits.Bind(s, hwbits.Bytes([]byte{0xff, 0xff, 0xff, 0xfe, 0x34, 0x12}))
	iss, ok := hwbits.AsIssues(err)
	if !ok || len(iss) != 2 {
		t.Fatalf("expected both constants reported, got %v", err)
	}
	if iss[0].Params["got"] != "0xfeffffff" || iss[1].Params["got"] != "0x3412" {
		t.Fatalf("unexpected params %v / %v", iss[0].Params, iss[1].Params)
	}
}

func TestBind_SucceedsIffConstantsMatch(t *testing.T) {
	s := hwbits.MustSchema("s", []hwbits.Field{
		{Name: "m1", Offset: 0, Kind: hwbits.KindStatic, Expected: []byte{0xAA}},
		{Name: "m2", Offset: 3, Width: 1, Kind: hwbits.KindStaticUint, ExpectedUint: 0x55},
		{Name: "v", Offset: 1, Width: 2, Kind: hwbits.KindUint},
	})
	for a := 0; a < 256; a += 17 {
		for b := 0; b < 256; b += 17 {
			buf := []byte{byte(a), 0x01, 0x02, byte(b)}
			_, err := hwbits.Bind(s, hwbits.Bytes(buf))
			want := a == 0xAA && b == 0x55
			if (err == nil) != want {
				t.Fatalf("a=%#x b=%#x: err=%v want success=%v", a, b, err, want)
			}
		}
	}
}

func TestBind_Truncated(t *testing.T) {
	s := hwbits.MustSchema("s", []hwbits.Field{
		{Name: "head", Offset: 0, Width: 4, Kind: hwbits.KindUint},
		{Name: "tail", Offset: 16, Width: 4, Kind: hwbits.KindUint},
	})
	if s.Size() != 20 {
		t.Fatalf("expected size 20, got %d", s.Size())
	}
	_, err := hwbits.Bind(s, hwbits.Bytes(make([]byte, 10)))
	if !errors.Is(err, hwbits.ErrSourceExhausted) {
		t.Fatalf("expected source exhaustion, got %v", err)
	}

	// Without a known size the failure surfaces on first access of the
	// field that crosses the end.
	in, err := hwbits.Bind(s, hwbits.Bytes(make([]byte, 10)), hwbits.BindOpt{SkipSizeCheck: true})
	if err != nil {
		t.Fatalf("bind without size check: %v", err)
	}
	if _, err := in.Uint("head"); err != nil {
		t.Fatalf("head is inside the buffer: %v", err)
	}
	_, err = in.Uint("tail")
	iss, ok := hwbits.AsIssues(err)
	if !ok || iss[0].Code != hwbits.CodeTruncated || iss[0].Path != "/tail" {
		t.Fatalf("expected truncated at /tail, got %v", err)
	}
}

// readerOnly hides Size so Bind cannot determine the source length.
type readerOnly struct{ r io.ReaderAt }

func (r readerOnly) ReadAt(p []byte, off int64) (int, error) { return r.r.ReadAt(p, off) }

func TestBind_TruncatedConstantWithoutSize(t *testing.T) {
	s := headerSchema(t)
	_, err := hwbits.Bind(s, readerOnly{bytes.NewReader([]byte("AB"))})
	if !errors.Is(err, hwbits.ErrSourceExhausted) {
		t.Fatalf("expected source exhaustion, got %v", err)
	}
}

type failingReader struct{}

var errDevice = errors.New("device gone")

func (failingReader) ReadAt(p []byte, off int64) (int, error) { return 0, errDevice }

func TestBind_ReadFailure(t *testing.T) {
	_, err := hwbits.Bind(headerSchema(t), failingReader{})
	iss, ok := hwbits.AsIssues(err)
	if !ok || iss[0].Code != hwbits.CodeReadFailure {
		t.Fatalf("expected read_failure, got %v", err)
	}
	if !errors.Is(err, errDevice) || !errors.Is(err, hwbits.ErrSourceExhausted) {
		t.Fatalf("read failure must wrap the cause and the category: %v", err)
	}
}

func TestBind_BaseOffset(t *testing.T) {
	s := headerSchema(t)
	buf := append([]byte{0, 0, 0}, []byte{'A', 'B', 'C', 'D', 0x07, 0x01}...)
	in, err := hwbits.Bind(s, hwbits.Bytes(buf), hwbits.BindOpt{Offset: 3})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if n, _ := in.Uint("count"); n != 0x0107 {
		t.Fatalf("count = %#x", n)
	}
	if in.Offset() != 3 {
		t.Fatalf("offset = %d", in.Offset())
	}
	if _, err := hwbits.Bind(s, hwbits.Bytes(buf), hwbits.BindOpt{Offset: -1}); err == nil {
		t.Fatalf("negative offset must fail")
	}
}

// countingReader counts ReadAt calls.
type countingReader struct {
	mu    sync.Mutex
	r     *bytes.Reader
	reads int
}

func (c *countingReader) ReadAt(p []byte, off int64) (int, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.r.ReadAt(p, off)
}

func (c *countingReader) Size() int64 { return c.r.Size() }

func TestInstance_LazyAndCached(t *testing.T) {
	s := headerSchema(t)
	src := &countingReader{r: bytes.NewReader([]byte{'A', 'B', 'C', 'D', 0x02, 0x00})}
	in, err := hwbits.Bind(s, src)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if src.reads != 1 {
		t.Fatalf("bind should read only the constant, got %d reads", src.reads)
	}
	a, _ := in.Uint("count")
	b, _ := in.Uint("count")
	if a != b || src.reads != 2 {
		t.Fatalf("second access must be served from cache: a=%d b=%d reads=%d", a, b, src.reads)
	}
	if _, err := in.Bytes("magic"); err != nil || src.reads != 2 {
		t.Fatalf("constants are cached at bind time: reads=%d err=%v", src.reads, err)
	}
}

func TestInstance_ConcurrentAccess(t *testing.T) {
	s := headerSchema(t)
	in := hwbits.MustBind(s, hwbits.Bytes([]byte{'A', 'B', 'C', 'D', 0x09, 0x00}))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if n, err := in.Uint("count"); err != nil || n != 9 {
				t.Errorf("count = %d, %v", n, err)
			}
		}()
	}
	wg.Wait()
}

func TestInstance_RebindYieldsEqualValues(t *testing.T) {
	s := headerSchema(t)
	buf := []byte{'A', 'B', 'C', 'D', 0x34, 0x12}
	a := hwbits.MustBind(s, hwbits.Bytes(buf))
	b := hwbits.MustBind(s, hwbits.Bytes(append([]byte(nil), buf...)))
	da, errA := a.Dump()
	db, errB := b.Dump()
	if errA != nil || errB != nil {
		t.Fatalf("dump: %v %v", errA, errB)
	}
	if da.Map()["count"] != db.Map()["count"] {
		t.Fatalf("rebinding must yield equal values")
	}
}

func TestInstance_BytesAreCopies(t *testing.T) {
	s := hwbits.MustSchema("s", []hwbits.Field{{Name: "raw", Width: 4, Kind: hwbits.KindBytes}})
	in := hwbits.MustBind(s, hwbits.Bytes([]byte{1, 2, 3, 4}))
	b, _ := in.Bytes("raw")
	b[0] = 0xff
	again, _ := in.Bytes("raw")
	if again[0] != 1 {
		t.Fatalf("cached bytes were mutated through a returned slice")
	}
}

func TestInstance_OverlapIndependent(t *testing.T) {
	s := hwbits.MustSchema("s", []hwbits.Field{
		{Name: "text", Offset: 0, Width: 4, Kind: hwbits.KindText},
		{Name: "word", Offset: 0, Width: 4, Kind: hwbits.KindUint},
		{Name: "mid", Offset: 1, Width: 2, Kind: hwbits.KindUint, Order: binary.BigEndian},
	})
	in := hwbits.MustBind(s, hwbits.Bytes([]byte("CPER")))
	txt, _ := in.Text("text")
	word, _ := in.Uint("word")
	mid, _ := in.Uint("mid")
	if txt != "CPER" || word != 0x52455043 || mid != 0x5045 {
		t.Fatalf("text=%q word=%#x mid=%#x", txt, word, mid)
	}
}

func TestInstance_UnknownField(t *testing.T) {
	in := hwbits.MustBind(headerSchema(t), hwbits.Bytes([]byte{'A', 'B', 'C', 'D', 0, 0}))
	_, err := in.Get("nope")
	if !errors.Is(err, hwbits.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	iss, _ := hwbits.AsIssues(err)
	if iss[0].Params["field"] != "nope" || iss[0].Schema != "header" {
		t.Fatalf("lookup error must name field and schema: %+v", iss[0])
	}
	if _, err := in.Text("count"); !errors.Is(err, hwbits.ErrLookup) {
		t.Fatalf("expected invalid_type for text access to uint, got %v", err)
	}
}

func TestInstance_TextAndGUID(t *testing.T) {
	s := hwbits.MustSchema("s", []hwbits.Field{
		{Name: "id", Offset: 0, Kind: hwbits.KindGUID},
		{Name: "label", Offset: 16, Width: 8, Kind: hwbits.KindText},
		{Name: "latin", Offset: 24, Width: 2, Kind: hwbits.KindText, Encoding: "ISO-8859-1"},
	})
	g := hwbits.MustParseGUID("9876ccad-47b4-4bdb-b65e-16f193c4f3db")
	buf := append(g[:], []byte("mem\x00junk")...)
	buf = append(buf, 0xe9, 0x00)
	in := hwbits.MustBind(s, hwbits.Bytes(buf))
	id, err := in.GUID("id")
	if err != nil || id.String() != "9876ccad-47b4-4bdb-b65e-16f193c4f3db" {
		t.Fatalf("guid = %s, %v", id, err)
	}
	if buf[0] != 0xad || buf[3] != 0x98 {
		t.Fatalf("first group must be stored little-endian: % x", buf[:4])
	}
	label, _ := in.Text("label")
	if label != "mem" {
		t.Fatalf("text must stop at NUL, got %q", label)
	}
	latin, err := in.Text("latin")
	if err != nil || latin != "é" {
		t.Fatalf("latin = %q, %v", latin, err)
	}

	bad := make([]byte, len(buf))
	copy(bad, buf)
	bad[16] = 0xC3
	in2 := hwbits.MustBind(s, hwbits.Bytes(bad))
	if _, err := in2.Text("label"); !errors.Is(err, hwbits.ErrValidation) {
		t.Fatalf("non-ascii bytes must fail ascii text, got %v", err)
	}
}

func TestInstance_StrictText(t *testing.T) {
	s := hwbits.MustSchema("s", []hwbits.Field{
		{Name: "u8", Offset: 0, Width: 4, Kind: hwbits.KindText, Encoding: "utf-8"},
	})
	in := hwbits.MustBind(s, hwbits.Bytes([]byte{0xff, 'a', 0, 0}))
	_, err := in.Text("u8")
	iss, _ := hwbits.AsIssues(err)
	if !errors.Is(err, hwbits.ErrValidation) || iss[0].Code != hwbits.CodeInvalidText || iss[0].Path != "/u8" {
		t.Fatalf("malformed utf-8 must fail, got %v", err)
	}

	in = hwbits.MustBind(s, hwbits.Bytes([]byte{0xc3, 0xa9, 'a', 0}))
	if v, err := in.Text("u8"); err != nil || v != "éa" {
		t.Fatalf("u8 = %q, %v", v, err)
	}
	// an encoded U+FFFD is data, not a decoding failure
	in = hwbits.MustBind(s, hwbits.Bytes([]byte{0xef, 0xbf, 0xbd, 0}))
	if v, err := in.Text("u8"); err != nil || v != "\ufffd" {
		t.Fatalf("u8 = %q, %v", v, err)
	}
}

// recordWithLength declares a record whose first byte is its total length.
func recordWithLength(t *testing.T) *hwbits.Schema {
	t.Helper()
	item := hwbits.MustSchema("item", []hwbits.Field{{Name: "v", Width: 1, Kind: hwbits.KindUint}})
	s, err := hwbits.NewSchema("rec", []hwbits.Field{
		{Name: "len", Offset: 0, Width: 1, Kind: hwbits.KindUint},
		{Name: "n", Offset: 1, Width: 1, Kind: hwbits.KindUint},
		{Name: "off", Offset: 2, Width: 1, Kind: hwbits.KindUint},
		{Name: "blen", Offset: 3, Width: 1, Kind: hwbits.KindUint},
		{Name: "items", Offset: 4, Kind: hwbits.KindArray, Struct: item, CountField: "n"},
		{Name: "body", Kind: hwbits.KindBody, OffsetField: "off", LengthField: "blen"},
	}, hwbits.SchemaOpt{SizeField: "len"})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func TestBind_RecordLength(t *testing.T) {
	s := recordWithLength(t)
	// six-byte record followed by two bytes of the next one
	buf := []byte{6, 2, 4, 2, 7, 9, 0xAA, 0xBB}
	in, err := hwbits.Bind(s, hwbits.Bytes(buf))
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if v, err := in.Lookup("/items/1/v"); err != nil || v != uint64(9) {
		t.Fatalf("items/1/v = %v, %v", v, err)
	}
	if b, err := in.Bytes("body"); err != nil || !bytes.Equal(b, []byte{7, 9}) {
		t.Fatalf("body = % x, %v", b, err)
	}

	// the source holds the bytes, the record does not
	buf[1], buf[3] = 3, 3
	in = hwbits.MustBind(s, hwbits.Bytes(buf))
	if _, err := in.Array("items"); !errors.Is(err, hwbits.ErrSourceExhausted) {
		t.Fatalf("items past the record must fail, got %v", err)
	}
	if _, err := in.Bytes("body"); !errors.Is(err, hwbits.ErrSourceExhausted) {
		t.Fatalf("body past the record must fail, got %v", err)
	}
}

func TestBind_RecordLengthChecks(t *testing.T) {
	s := recordWithLength(t)
	short := []byte{3, 0, 0, 0, 0, 0}
	_, err := hwbits.Bind(s, hwbits.Bytes(short))
	iss, _ := hwbits.AsIssues(err)
	if !errors.Is(err, hwbits.ErrValidation) || iss[0].Code != hwbits.CodeInvalidLength || iss[0].Path != "/len" {
		t.Fatalf("length below the static size must fail, got %v", err)
	}

	long := []byte{9, 0, 0, 0, 0, 0}
	_, err = hwbits.Bind(s, hwbits.Bytes(long))
	iss, _ = hwbits.AsIssues(err)
	if !errors.Is(err, hwbits.ErrSourceExhausted) || iss[0].Path != "/len" {
		t.Fatalf("length beyond the source must fail, got %v", err)
	}
	if _, err := hwbits.Bind(s, readerOnly{bytes.NewReader(long)}); !errors.Is(err, hwbits.ErrSourceExhausted) {
		t.Fatalf("length beyond an unsized source must fail, got %v", err)
	}
	if _, err := hwbits.Bind(s, readerOnly{bytes.NewReader(long)}, hwbits.BindOpt{SkipSizeCheck: true}); err != nil {
		t.Fatalf("skipped size check must defer the failure: %v", err)
	}

	// offsets are relative to the bind offset
	at := append([]byte{0xEE}, 5, 0, 0, 0, 0)
	if _, err := hwbits.Bind(s, hwbits.Bytes(at), hwbits.BindOpt{Offset: 1}); err != nil {
		t.Fatalf("bind at 1: %v", err)
	}
}
