// Package dsl provides a builder DSL for hwbits structure and register
// schemas.
//
// Overview
//   - Struct(name): declare a structure with Field(name, def), then Build()/MustBuild().
//   - Register(name, bits): declare a register with Flag/Bits, then Build()/MustBuild().
//   - Field constructors (Uint8..Uint64, Bytes, Text, Static, StaticUint, GUID, Nested, Reg,
//     Array, ArrayOf, Body) take the byte offset first.
//
// Entry points
//   - Struct(name).Field(...).Eager().Doc(...).FixedSize(n).NameField(f).SizeField(f).MustBuild()
//   - Register(name, 32).Flag("valid", 31).Bits("ec", 26, 6).MustBuild()
//
// File layout (roles)
//   - struct_builder.go: structBuilder/fieldStep and Build/MustBuild.
//   - register_builder.go: registerBuilder.
//   - fields.go: field constructors.
//
// Example (quickstart)
//
//	esr := dsl.Register("ESR_ELx", 32).
//	    Bits("ISS", 0, 25).
//	    Flag("IL", 25).
//	    Bits("EC", 26, 6).
//	    MustBuild()
//
//	hdr := dsl.Struct("record").
//	    Field("signature", dsl.Static(0, "CPER")).
//	    Field("revision", dsl.Uint16(4)).
//	    Field("esr", dsl.Reg(8, esr)).Doc("exception syndrome").
//	    MustBuild()
//
// Build reports every malformed declaration at once as hwbits.Issues.
package dsl
