package hwbits

import (
	"strconv"
	"strings"

	"github.com/reoring/hwbits/i18n"
)

// PathRef builds field paths in a chain-safe way and creates Issues.
// Paths use JSON Pointer syntax: "/timestamp/flags", "/sections/0/body".
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
	Issue(code string, params map[string]any) Issue
}

// RootPath returns the empty path ("/").
func RootPath() PathRef { return &pathRef{} }

// ParsePath splits a pointer into a PathRef, unescaping segments.
func ParsePath(path string) PathRef {
	if path == "" || path == "/" {
		return RootPath()
	}
	parts := []string{}
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return &pathRef{parts: parts}
}

// Segments returns the unescaped segments of a pointer.
func Segments(path string) []string {
	pr, _ := ParsePath(path).(*pathRef)
	out := make([]string, len(pr.parts))
	for i, p := range pr.parts {
		out[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
	}
	return out
}

type pathRef struct {
	parts []string
}

func (p *pathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return &pathRef{parts: append(append([]string{}, p.parts...), esc)}
}

func (p *pathRef) Index(i int) PathRef {
	return &pathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

func (p *pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// Issue creates an Issue at p; the message is taken from the i18n catalog.
func (p *pathRef) Issue(code string, params map[string]any) Issue {
	return Issue{Path: p.Pointer(), Code: code, Message: i18n.T(code, stringParams(params)), Params: params, Offset: -1}
}
