// Package hwbits decodes fixed binary layouts: register files and
// memory/disk structures whose offsets, bit positions and widths are set by
// a datasheet or protocol document.
//
// - Schema: ordered, named field descriptors assembled once (NewSchema / dsl.Struct)
// - Register: one integer split into named bit ranges (NewRegister / dsl.Register)
// - Bind: attach a Schema to any io.ReaderAt; constants ("magic" fields) are checked eagerly
// - Instance: lazy, cached field access by name, nested structures bound on demand
// - Issues: a stable error model (path, code, message) with errors.Is categories
//
// Design policy:
// - Keep only public APIs in the root package; put byte/bit primitives under internal/.
// - Place the builder DSL under dsl/, file-based layouts under layoutfile/, and the CLI under cmd/hwbits.
// - Decoding only: there is no encode path.
//
// Typical usage:
//
//	flags := dsl.Register("flags", 8).Flag("enabled", 0).Bits("mode", 1, 2).MustBuild()
//	hdr := dsl.Struct("header").
//	    Field("magic", dsl.Static(0, "ABCD")).
//	    Field("count", dsl.Uint16(4)).
//	    Field("flags", dsl.Reg(6, flags)).
//	    MustBuild()
//
//	in, err := hwbits.Bind(hdr, hwbits.Bytes(data))
//	n, err := in.Uint("count")
//	on, err := in.Flag("flags", "enabled")
package hwbits
