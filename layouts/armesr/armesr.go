// Package armesr decodes the ARMv8 Exception Syndrome Register (ESR_ELx).
// The ISS field is interpreted by a sub-register chosen from the exception
// class. Only a few classes are described so far.
package armesr

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/reoring/hwbits"
	"github.com/reoring/hwbits/dsl"
)

var ESR = dsl.Register("ESR_ELx", 64).
	Bits("iss", 0, 25).Doc("raw bits of ISS").
	Flag("il", 25).Doc("Instruction Length").
	Bits("ec", 26, 6).Doc("Exception class").
	Bits("iss2", 32, 5).
	MustBuild()

// ISSBase is used for classes without a dedicated ISS layout.
var ISSBase = dsl.Register("ISS", 25).
	Bits("raw", 0, 25).
	MustBuild()

var ISSUnknown = dsl.Register("ISS_unknown", 25).
	Bits("res0", 0, 25).Doc("All bits reserved").
	MustBuild()

var ISSWFInstr = dsl.Register("ISS_wf_instr", 25).
	Flag("cv", 24).Doc("cond field is valid").
	Bits("cond", 20, 4).
	Bits("ti", 0, 2).Doc("Trapped instruction").
	MustBuild()

var ISSMCRMRC = dsl.Register("ISS_mcr_mrc", 25).
	Flag("cv", 24).Doc("cond field is valid").
	Bits("cond", 20, 4).
	Bits("opc2", 17, 3).
	Bits("opc1", 14, 3).
	Bits("crn", 10, 4).
	Bits("rt", 5, 5).
	Bits("crm", 1, 4).
	Flag("direction", 0).
	MustBuild()

// Class describes one exception class value.
type Class struct {
	Code        uint64
	Description string
	ISS         *hwbits.Register
}

var classes = map[uint64]Class{
	0b000000: {0b000000, "Unknown reason", ISSUnknown},
	0b000001: {0b000001, "Trapped WF* instruction execution", ISSWFInstr},
	0b000011: {0b000011, "Trapped MCR or MRC access with (coproc==0b1111) that is not reported using EC 0b000000", ISSMCRMRC},
}

// Registers lists every register of the layout.
func Registers() []*hwbits.Register {
	return []*hwbits.Register{ESR, ISSBase, ISSUnknown, ISSWFInstr, ISSMCRMRC}
}

// Decode wraps a raw ESR_ELx value.
func Decode(raw uint64) hwbits.RegisterValue { return ESR.Value(raw) }

// ClassOf returns the exception class of an ESR value. ok is false for
// classes not described here; the returned Class still carries the code.
func ClassOf(esr hwbits.RegisterValue) (Class, bool) {
	ec, _ := esr.Get("ec")
	c, ok := classes[ec]
	if !ok {
		return Class{Code: ec, Description: fmt.Sprintf("EC 0b%06b", ec), ISS: ISSBase}, false
	}
	return c, true
}

// ISS decodes the ISS bits with the layout for the exception class.
func ISS(esr hwbits.RegisterValue) hwbits.RegisterValue {
	c, _ := ClassOf(esr)
	iss, _ := esr.Get("iss")
	return c.ISS.Value(iss)
}

var trappedWF = map[uint64]string{
	0b00: "WFI",
	0b01: "WFE",
	0b10: "WFIT",
	0b11: "WFET",
}

// TrappedInstruction names the instruction of a WF* trap.
func TrappedInstruction(iss hwbits.RegisterValue) (string, error) {
	if iss.Register() != ISSWFInstr {
		return "", errors.Errorf("%s is not a WF* syndrome", iss.Register())
	}
	ti, err := iss.Get("ti")
	if err != nil {
		return "", err
	}
	return trappedWF[ti], nil
}
