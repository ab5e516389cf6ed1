package dsl

import (
	"github.com/reoring/hwbits"
)

type registerBuilder struct {
	name  string
	width int
	bits  []hwbits.Bits
}

// Register creates a builder for a register of widthBits bits.
func Register(name string, widthBits int) *registerBuilder {
	return &registerBuilder{name: name, width: widthBits}
}

// Flag declares a single-bit range at bit (0 = LSB).
func (b *registerBuilder) Flag(name string, bit int) *registerBuilder {
	return b.Bits(name, bit, 1)
}

// Bits declares width bits starting at start.
func (b *registerBuilder) Bits(name string, start, width int) *registerBuilder {
	b.bits = append(b.bits, hwbits.Bits{Name: name, Start: start, Width: width})
	return b
}

// Doc documents the most recently declared bit range.
func (b *registerBuilder) Doc(text string) *registerBuilder {
	if n := len(b.bits); n > 0 {
		b.bits[n-1].Doc = text
	}
	return b
}

func (b *registerBuilder) Build() (*hwbits.Register, error) {
	return hwbits.NewRegister(b.name, b.width, b.bits)
}

func (b *registerBuilder) MustBuild() *hwbits.Register {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}
