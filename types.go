package hwbits

// Kind enumerates field decode rules.
type Kind int

const (
	KindUint       Kind = iota // Fixed-width unsigned integer.
	KindBytes                  // Raw byte slice.
	KindText                   // NUL-terminated text in a fixed window.
	KindStatic                 // Byte sequence that must equal Expected.
	KindStaticUint             // Integer that must equal ExpectedUint.
	KindGUID                   // 16-byte mixed-endian identifier.
	KindNested                 // Nested structure.
	KindRegister               // Nested bit register.
	KindArray                  // Consecutive nested structures.
	KindBody                   // Bytes addressed by sibling offset/length fields.
)

var kindNames = [...]string{
	KindUint:       "uint",
	KindBytes:      "bytes",
	KindText:       "text",
	KindStatic:     "static",
	KindStaticUint: "static_uint",
	KindGUID:       "guid",
	KindNested:     "struct",
	KindRegister:   "register",
	KindArray:      "array",
	KindBody:       "body",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// IsConstant reports whether fields of this kind are validated at bind time.
func (k Kind) IsConstant() bool { return k == KindStatic || k == KindStaticUint }

// BindOpt bundles binding options.
type BindOpt struct {
	// Offset is the base offset of the structure within the source.
	Offset int64
	// SkipSizeCheck disables the up-front comparison of the schema size
	// against the source size. Fields are still checked as they are read.
	SkipSizeCheck bool
}
