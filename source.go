package hwbits

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/reoring/hwbits/internal/engine"
)

// ByteSource is any random-access byte provider. The engine only reads
// from it.
type ByteSource = io.ReaderAt

// Sizer is implemented by sources that know their length. Bind uses it to
// reject truncated input before any field is read.
type Sizer interface {
	Size() int64
}

// Bytes wraps a byte slice as a ByteSource.
func Bytes(b []byte) ByteSource { return bytes.NewReader(b) }

// SourceSize reports the size of src when it can be determined without
// reading: Sizer implementations (bytes.Reader, io.SectionReader) and
// files via Stat.
func SourceSize(src ByteSource) (int64, bool) {
	switch s := src.(type) {
	case Sizer:
		return s.Size(), true
	case interface{ Stat() (os.FileInfo, error) }:
		fi, err := s.Stat()
		if err != nil || !fi.Mode().IsRegular() {
			return 0, false
		}
		return fi.Size(), true
	}
	return 0, false
}

// readField reads width bytes at abs and maps failures to Issues at path.
func readField(src ByteSource, abs int64, width int, schema string, path PathRef) ([]byte, error) {
	b, err := engine.ReadFull(src, abs, width)
	if err == nil {
		return b, nil
	}
	var sr *engine.ShortRead
	if errors.As(err, &sr) {
		it := path.Issue(CodeTruncated, map[string]any{"offset": sr.Offset, "want": sr.Want, "got": sr.Got})
		it.Schema, it.Offset = schema, abs
		return nil, Issues{it}
	}
	it := path.Issue(CodeReadFailure, map[string]any{"offset": abs})
	it.Schema, it.Offset, it.Cause = schema, abs, err
	it.Message += ": " + err.Error()
	return nil, Issues{it}
}
