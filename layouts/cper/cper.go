// Package cper describes the UEFI Common Platform Error Record: the record
// header, its timestamp and the section descriptors that follow it.
package cper

import (
	"fmt"
	"strings"
	"time"

	"github.com/reoring/hwbits"
	"github.com/reoring/hwbits/dsl"
)

// HeaderSize is the size of the record header; section descriptors start
// right after it.
const HeaderSize = 128

var ValidBits = dsl.Register("CPER_valid_bits", 32).
	Flag("platform_id", 0).
	Flag("timestamp", 1).
	Flag("partition_id", 2).
	MustBuild()

var Flags = dsl.Register("CPER_flags", 32).
	Flag("recovered", 0).
	Flag("preverr", 1).Doc("Qualifies an error condition as one that occurred during a previous session.").
	Flag("simulated", 2).Doc("Intentionally simulated/injected").
	MustBuild()

var TimestampBits = dsl.Register("CPER_tstamp_bits", 8).
	Flag("precise", 0).
	MustBuild()

var Timestamp = dsl.Struct("CPER_timestamp").
	Field("seconds", dsl.UChar(0)).
	Field("minutes", dsl.UChar(1)).
	Field("hours", dsl.UChar(2)).
	Field("flags", dsl.Reg(3, TimestampBits)).
	Field("day", dsl.UChar(4)).
	Field("month", dsl.UChar(5)).
	Field("year", dsl.UChar(6)).
	Field("century", dsl.UChar(7)).
	MustBuild()

var SectionDescriptor = dsl.Struct("CPER_section_descr").
	Field("offset", dsl.Uint32(0)).
	Field("length", dsl.Uint32(4)).
	Field("revision", dsl.Uint16(8)).
	Field("section_type", dsl.GUID(16)).
	Field("FRU_id", dsl.GUID(32)).
	Field("severity", dsl.Uint32(48)).
	Field("FRU_text", dsl.Text(52, 20)).
	Field("body", dsl.Body("offset", "length")).Doc("section body; offset is relative to the record start").
	NameField("section_type").
	MustBuild()

var Record = dsl.Struct("CPER").
	Field("head", dsl.Static(0, "CPER")).
	Field("revision", dsl.Uint16(4)).
	Field("head_end", dsl.StaticUint(6, 0xFFFFFFFF)).
	Field("section_count", dsl.Uint16(10)).
	Field("error_severity", dsl.Uint32(12)).
	Field("valid_bits", dsl.Reg(16, ValidBits)).
	Field("rec_length", dsl.Uint32(20)).Doc("total record length, header included").
	Field("timestamp", dsl.Nested(24, Timestamp)).
	Field("platform_id", dsl.GUID(32)).
	Field("partition_id", dsl.GUID(48)).
	Field("creator_id", dsl.GUID(64)).
	Field("notification_type", dsl.GUID(80)).
	Field("record_id", dsl.Uint64(96)).
	Field("flags", dsl.Reg(104, Flags)).
	Field("sections", dsl.ArrayOf(HeaderSize, SectionDescriptor, "section_count")).
	FixedSize(HeaderSize).
	NameField("notification_type").
	SizeField("rec_length").
	MustBuild()

// Schemas lists every structure of the layout.
func Schemas() []*hwbits.Schema {
	return []*hwbits.Schema{Record, Timestamp, SectionDescriptor}
}

// Registers lists every register of the layout.
func Registers() []*hwbits.Register {
	return []*hwbits.Register{ValidBits, Flags, TimestampBits}
}

// Bind binds a record header at opt.Offset.
func Bind(src hwbits.ByteSource, opts ...hwbits.BindOpt) (*hwbits.Instance, error) {
	return hwbits.Bind(Record, src, opts...)
}

var severities = map[uint64]string{
	0: "Recoverable",
	1: "Fatal",
	2: "Corrected",
	3: "Informational",
}

// SeverityName renders an error_severity or section severity value.
func SeverityName(v uint64) string {
	if s, ok := severities[v]; ok {
		return s
	}
	return fmt.Sprintf("Reserved(%d)", v)
}

var sectionTypes = map[hwbits.GUID]string{
	hwbits.MustParseGUID("9876ccad-47b4-4bdb-b65e-16f193c4f3db"): "Processor Generic",
	hwbits.MustParseGUID("dc3ea0b0-a144-4797-b95b-53fa242b6e1d"): "Processor Specific - IA32/X64",
	hwbits.MustParseGUID("e19e3d16-bc11-11e4-9caa-c2051d5d46b0"): "Processor Specific - ARM",
	hwbits.MustParseGUID("a5bc1114-6f64-4ede-b863-3e83ed7c83b1"): "Platform Memory",
	hwbits.MustParseGUID("d995e954-bbc1-430f-ad91-b44dcb3c6f35"): "PCI Express",
	hwbits.MustParseGUID("81212a96-09ed-4996-9471-8d729c8e69ed"): "Firmware Error Record Reference",
}

// SectionTypeName names well-known section types; unknown types render as
// the GUID.
func SectionTypeName(g hwbits.GUID) string {
	if s, ok := sectionTypes[g]; ok {
		return s
	}
	return g.String()
}

// Time holds a decoded record timestamp. Fields are binary, not BCD.
type Time struct {
	Seconds, Minutes, Hours uint8
	Day, Month, Year        uint8
	Century                 uint8
	Precise                 bool
}

// TimeOf reads a timestamp instance (the record's "timestamp" field).
func TimeOf(in *hwbits.Instance) (Time, error) {
	var t Time
	for _, f := range []struct {
		name string
		dst  *uint8
	}{
		{"seconds", &t.Seconds},
		{"minutes", &t.Minutes},
		{"hours", &t.Hours},
		{"day", &t.Day},
		{"month", &t.Month},
		{"year", &t.Year},
		{"century", &t.Century},
	} {
		v, err := in.Uint(f.name)
		if err != nil {
			return Time{}, err
		}
		*f.dst = uint8(v)
	}
	precise, err := in.Flag("flags", "precise")
	if err != nil {
		return Time{}, err
	}
	t.Precise = precise
	return t, nil
}

// FullYear combines century and year; century counts from 1, so century 21
// year 24 is 2024.
func (t Time) FullYear() int { return (int(t.Century)-1)*100 + int(t.Year) }

// Time converts to UTC. Out-of-range fields are normalized by time.Date.
func (t Time) Time() time.Time {
	return time.Date(t.FullYear(), time.Month(t.Month), int(t.Day), int(t.Hours), int(t.Minutes), int(t.Seconds), 0, time.UTC)
}

func (t Time) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", t.FullYear(), t.Month, t.Day, t.Hours, t.Minutes, t.Seconds)
}

// Summary renders a one-line description of each section, in order.
func Summary(rec *hwbits.Instance) ([]string, error) {
	sections, err := rec.Array("sections")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(sections))
	for i, s := range sections {
		typ, err := s.GUID("section_type")
		if err != nil {
			return nil, err
		}
		sev, err := s.Uint("severity")
		if err != nil {
			return nil, err
		}
		n, err := s.Uint("length")
		if err != nil {
			return nil, err
		}
		line := fmt.Sprintf("#%d %s severity=%s length=%d", i, SectionTypeName(typ), SeverityName(sev), n)
		if fru, err := s.Text("FRU_text"); err == nil && strings.TrimSpace(fru) != "" {
			line += " fru=" + fru
		}
		out = append(out, line)
	}
	return out, nil
}
