// Command hwbits decodes binary records with declarative layouts.
//
// Usage:
//
//	hwbits decode --builtin cper record.bin
//	hwbits decode --layout layout.yaml --type header --offset 0x40 --format table dump.bin
//	hwbits decode --builtin armesr --type ESR_ELx --hex "45 00 00 96 00 00 00 00"
//	hwbits describe --layout layout.yaml --type header
//	hwbits jsonschema --builtin cper --type CPER
//
// Every flag can also be set through HWBITS_<FLAG> environment variables
// (dashes become underscores) or a --config file.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Errorf("hwbits: %v", err)
		os.Exit(1)
	}
}
