package hwbits

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// lookupEncoding resolves an IANA encoding name. ASCII (the default) is
// represented by a nil encoding and decoded strictly.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "ascii", "us-ascii":
		return nil, nil
	}
	e, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("encoding %q has no decoder", name)
	}
	return e, nil
}

// decodeText decodes raw and cuts it at the first NUL. Decoders substitute
// U+FFFD for malformed input; a substitution is rejected unless raw holds an
// encoded U+FFFD itself.
func decodeText(raw []byte, enc encoding.Encoding) (string, bool) {
	if enc == nil {
		if n := bytes.IndexByte(raw, 0); n >= 0 {
			raw = raw[:n]
		}
		for _, c := range raw {
			if c >= 0x80 {
				return "", false
			}
		}
		return string(raw), true
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	s := string(out)
	if n := strings.IndexByte(s, 0); n >= 0 {
		s = s[:n]
	}
	if strings.ContainsRune(s, utf8.RuneError) && !holdsReplacement(raw, enc) {
		return "", false
	}
	return s, true
}

func holdsReplacement(raw []byte, enc encoding.Encoding) bool {
	r, err := enc.NewEncoder().String(string(utf8.RuneError))
	if err != nil {
		return false
	}
	return bytes.Contains(raw, []byte(r))
}
