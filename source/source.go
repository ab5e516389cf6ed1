// Package source opens byte sources for hwbits: files, stdin and hex text.
package source

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/reoring/hwbits"
)

// File is a read-only file that reports its size, so binds against it can
// reject truncated records up front.
type File struct {
	f    *os.File
	size int64
}

// Open opens path for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if fi.IsDir() {
		f.Close()
		return nil, errors.Errorf("%s is a directory", path)
	}
	return &File{f: f, size: fi.Size()}, nil
}

func (f *File) ReadAt(p []byte, off int64) (int, error) { return f.f.ReadAt(p, off) }
func (f *File) Size() int64                             { return f.size }
func (f *File) Name() string                            { return f.f.Name() }
func (f *File) Close() error                            { return f.f.Close() }

// ReadAll buffers r (typically stdin) into an in-memory source.
func ReadAll(r io.Reader) (hwbits.ByteSource, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	return hwbits.Bytes(b), nil
}

// Hex decodes a hex dump. Whitespace, ':' and '-' separators and "0x"
// prefixes are ignored.
func Hex(s string) ([]byte, error) {
	var b strings.Builder
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ':' || r == '-' || r == ','
	}) {
		tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
		b.WriteString(tok)
	}
	out, err := hex.DecodeString(b.String())
	if err != nil {
		return nil, errors.Wrap(err, "decode hex input")
	}
	return out, nil
}

// HexSource is Hex wrapped as a ByteSource.
func HexSource(s string) (hwbits.ByteSource, error) {
	b, err := Hex(s)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// Load resolves an input argument: "-" reads stdin, anything else is opened
// as a file. The returned closer is never nil.
func Load(arg string, stdin io.Reader) (hwbits.ByteSource, io.Closer, error) {
	if arg == "-" {
		src, err := ReadAll(stdin)
		return src, nopCloser{}, err
	}
	f, err := Open(arg)
	if err != nil {
		return nil, nopCloser{}, err
	}
	return f, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
