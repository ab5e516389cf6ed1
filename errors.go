package hwbits

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// Declaration errors (schema assembly)
	CodeDeclaration      = "declaration"
	CodeDuplicateField   = "duplicate_field"
	CodeInvalidOffset    = "invalid_offset"
	CodeInvalidWidth     = "invalid_width"
	CodeBitRange         = "bit_range"
	CodeInvalidReference = "invalid_reference"
	CodeInvalidEncoding  = "invalid_encoding"
	// Validation failures (constant fields)
	CodeStaticMismatch = "static_mismatch"
	// Source exhaustion / read failure
	CodeTruncated   = "truncated"
	CodeReadFailure = "read_failure"
	// Lookup errors
	CodeUnknownField = "unknown_field"
	CodeInvalidType  = "invalid_type"
	// Decode-time content errors
	CodeInvalidText   = "invalid_text"
	CodeInvalidCount  = "invalid_count"
	CodeInvalidLength = "invalid_length"
)

// Error categories. Issues satisfy errors.Is against the category of any of
// their entries.
var (
	ErrDeclaration     = errors.New("hwbits: declaration error")
	ErrValidation      = errors.New("hwbits: validation failure")
	ErrSourceExhausted = errors.New("hwbits: source exhausted")
	ErrLookup          = errors.New("hwbits: lookup error")
)

// Category maps an issue code to its error category. Unknown codes map to nil.
func Category(code string) error {
	switch code {
	case CodeDeclaration, CodeDuplicateField, CodeInvalidOffset, CodeInvalidWidth,
		CodeBitRange, CodeInvalidReference, CodeInvalidEncoding:
		return ErrDeclaration
	case CodeStaticMismatch, CodeInvalidText, CodeInvalidCount, CodeInvalidLength:
		return ErrValidation
	case CodeTruncated, CodeReadFailure:
		return ErrSourceExhausted
	case CodeUnknownField, CodeInvalidType:
		return ErrLookup
	}
	return nil
}

// Issue represents a single failure entry.
type Issue struct {
	Path    string // Field path (for example: /sections/2/FRU_id).
	Code    string // One of the codes listed above.
	Message string
	Schema  string // Owning schema or register name, when known.
	Cause   error  // Optional: underlying error.
	Offset  int64  // Absolute byte offset in the source (-1 when unknown).
	// Params carries structured parameters (e.g., {"expected":"CPER", "got":"XPER"})
	// for i18n and diagnostics.
	Params map[string]any
}

func (it Issue) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	if it.Schema != "" {
		fmt.Fprintf(b, " (%s)", it.Schema)
	}
	if it.Message != "" {
		b.WriteString(": ")
		b.WriteString(it.Message)
	}
	return b.String()
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].String())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Is reports whether any issue falls in the target category, or wraps target
// as its cause.
func (iss Issues) Is(target error) bool {
	for _, it := range iss {
		if c := Category(it.Code); c != nil && c == target {
			return true
		}
		if it.Cause != nil && errors.Is(it.Cause, target) {
			return true
		}
	}
	return false
}

// Unwrap exposes the underlying causes.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// Codes lists the codes in order.
func (iss Issues) Codes() []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Code
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
