package hwbits

import (
	"github.com/sirupsen/logrus"
)

// binding is shared by an instance and every instance nested below it.
type binding struct {
	src     ByteSource
	size    int64
	sized   bool
	checked bool  // size checks enabled
	root    int64 // base of the outermost bound record
	limit   int64 // end of the outermost record, when its length is known
	limited bool
}

// end returns the absolute end of the data arrays and bodies may address.
func (b *binding) end() (int64, bool) {
	if b.limited {
		return b.limit, true
	}
	return b.size, b.sized
}

// Bind attaches s to src at opt.Offset (default 0). Every constant field is
// decoded and checked before Bind returns, as is every nested structure
// declared Eager; any mismatch, truncation or read failure fails the bind
// as a whole. Other fields are decoded on first access.
//
// When the size of src can be determined (see SourceSize), a source shorter
// than the schema is rejected up front. A schema with a SizeField has its
// record length checked before any constant.
func Bind(s *Schema, src ByteSource, opts ...BindOpt) (*Instance, error) {
	var opt BindOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if s == nil || src == nil {
		return nil, Issues{IssueAt(RootPath(), CodeInvalidReference, map[string]any{"ref": "<nil>"})}
	}
	if opt.Offset < 0 {
		it := IssueAt(RootPath(), CodeInvalidOffset, map[string]any{"offset": opt.Offset})
		it.Schema = s.name
		return nil, Issues{it}
	}
	b := &binding{src: src, root: opt.Offset, checked: !opt.SkipSizeCheck}
	if b.checked {
		b.size, b.sized = SourceSize(src)
	}
	return bindAt(s, b, opt.Offset, RootPath())
}

// MustBind is like Bind but panics on error.
func MustBind(s *Schema, src ByteSource, opts ...BindOpt) *Instance {
	in, err := Bind(s, src, opts...)
	if err != nil {
		panic(err)
	}
	return in
}

func bindAt(s *Schema, b *binding, base int64, path PathRef) (*Instance, error) {
	log().WithFields(logrus.Fields{
		"schema": s.name,
		"offset": base,
		"path":   path.Pointer(),
	}).Debug("binding structure")

	if b.sized && base+int64(s.size) > b.size {
		got := b.size - base
		if got < 0 {
			got = 0
		}
		it := IssueAt(path, CodeTruncated, map[string]any{"offset": base, "want": s.size, "got": got})
		it.Schema, it.Offset = s.name, base
		return nil, Issues{it}
	}

	in := &Instance{schema: s, b: b, base: base, path: path, cells: make([]cell, len(s.fields))}
	if s.sizeField != "" {
		n, err := in.recordLength()
		if err != nil {
			return nil, err
		}
		if path.Pointer() == "/" {
			b.limit, b.limited = base+n, true
		}
	}
	var iss Issues
	for _, i := range s.constants {
		if _, err := in.resolve(i); err != nil {
			iss = appendErr(iss, err)
		}
	}
	for _, i := range s.eager {
		if _, err := in.resolve(i); err != nil {
			iss = appendErr(iss, err)
		}
	}
	if len(iss) > 0 {
		log().WithFields(logrus.Fields{"schema": s.name, "offset": base}).Debugf("bind failed: %v", iss)
		return nil, iss
	}
	return in, nil
}

// recordLength reads the dynamic length of the record at in.base. It must
// cover the static size, and the source must hold all of it.
func (in *Instance) recordLength() (int64, error) {
	s := in.schema
	n, err := in.refUint(s.sizeField)
	if err != nil {
		return 0, err
	}
	path := in.path.Field(s.sizeField)
	if n < uint64(s.size) || (!in.b.sized && n > maxUnsizedRecord) {
		it := IssueAt(path, CodeInvalidLength, map[string]any{"length": n, "size": s.size})
		it.Schema, it.Offset = s.name, in.base
		return 0, Issues{it}
	}
	switch {
	case in.b.sized:
		if avail := in.b.size - in.base; n > uint64(avail) {
			it := IssueAt(path, CodeTruncated, map[string]any{"offset": in.base, "want": n, "got": avail})
			it.Schema, it.Offset = s.name, in.base
			return 0, Issues{it}
		}
	case in.b.checked && n > 0:
		if _, err := readField(in.b.src, in.base+int64(n)-1, 1, s.name, path); err != nil {
			return 0, err
		}
	}
	return int64(n), nil
}

func appendErr(dst Issues, err error) Issues {
	if iss, ok := AsIssues(err); ok {
		return AppendIssues(dst, iss...)
	}
	return AppendIssues(dst, Issue{Path: "/", Code: CodeReadFailure, Message: err.Error(), Cause: err, Offset: -1})
}
