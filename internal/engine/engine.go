package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ShortRead reports that a source ended before Want bytes could be read at
// Offset.
type ShortRead struct {
	Offset int64
	Want   int
	Got    int
}

func (e *ShortRead) Error() string {
	return fmt.Sprintf("short read at offset %d: want %d bytes, got %d", e.Offset, e.Want, e.Got)
}

// ReadFull reads exactly n bytes at off. A source that ends early yields a
// *ShortRead; any other failure is returned as is.
func ReadFull(r io.ReaderAt, off int64, n int) ([]byte, error) {
	if off < 0 {
		return nil, &ShortRead{Offset: off, Want: n}
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	got, err := r.ReadAt(buf, off)
	if got == n {
		// io.ReaderAt may return io.EOF together with a full read.
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, &ShortRead{Offset: off, Want: n, Got: got}
	}
	return nil, err
}

// Uint decodes up to 8 bytes as an unsigned integer.
func Uint(b []byte, order binary.ByteOrder) uint64 {
	if order == nil {
		order = binary.LittleEndian
	}
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	}
	// odd widths (3, 5, 6, 7 bytes)
	var v uint64
	if order == binary.BigEndian {
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// PutUint is the inverse of Uint for widths up to 8 bytes. It is used to
// derive the byte image of integer constants.
func PutUint(v uint64, width int, order binary.ByteOrder) []byte {
	b := make([]byte, width)
	for i := 0; i < width; i++ {
		c := byte(v >> (8 * i))
		if order == binary.BigEndian {
			b[width-1-i] = c
		} else {
			b[i] = c
		}
	}
	return b
}

// Mask returns a mask of the lowest width bits.
func Mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

// Extract returns width bits of v starting at bit start (LSB = 0).
func Extract(v uint64, start, width int) uint64 {
	if start >= 64 {
		return 0
	}
	return (v >> uint(start)) & Mask(width)
}

// FitsUint reports whether v can be stored in width bytes.
func FitsUint(v uint64, width int) bool {
	if width >= 8 {
		return true
	}
	return v <= Mask(width*8)
}
