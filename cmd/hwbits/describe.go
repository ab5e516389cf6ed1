package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/reoring/hwbits"
)

func newDescribeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the fields of a structure or the bits of a register",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if a.v.GetBool("list") {
				c, _, err := a.catalog()
				if err != nil {
					return err
				}
				t := tablewriter.NewWriter(out)
				t.SetHeader([]string{"name", "kind", "size"})
				for _, n := range c.Structs() {
					s, _ := c.Struct(n)
					t.Append([]string{n, "struct", strconv.Itoa(s.Size())})
				}
				for _, n := range c.Registers() {
					r, _ := c.Register(n)
					t.Append([]string{n, "register", strconv.Itoa(r.Size())})
				}
				t.Render()
				return nil
			}
			_, tg, err := a.target()
			if err != nil {
				return err
			}
			if tg.register != nil {
				describeRegister(out, tg.register)
				return nil
			}
			describeStruct(out, tg.schema)
			return nil
		},
	}
	cmd.Flags().Bool("list", false, "list the structures and registers of the layout")
	return cmd
}

func describeStruct(w io.Writer, s *hwbits.Schema) {
	fmt.Fprintf(w, "%s (%d bytes)\n", s.Name(), s.Size())
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"field", "kind", "offset", "width", "detail", "doc"})
	t.SetAutoWrapText(false)
	for _, f := range s.Fields() {
		off, width := fmt.Sprintf("0x%x", f.Offset), strconv.Itoa(f.Width)
		if _, fixed := f.Extent(); !fixed {
			width = "dyn"
		}
		if f.Kind == hwbits.KindBody {
			off = "dyn"
		}
		t.Append([]string{f.Name, f.Kind.String(), off, width, detail(f), f.Doc})
	}
	t.Render()
}

func detail(f hwbits.Field) string {
	switch f.Kind {
	case hwbits.KindUint:
		if f.Order != nil {
			return f.Order.String()
		}
	case hwbits.KindText:
		if f.Encoding != "" {
			return f.Encoding
		}
		return "ascii"
	case hwbits.KindStatic:
		return "= " + hex.EncodeToString(f.Expected)
	case hwbits.KindStaticUint:
		return fmt.Sprintf("= 0x%x", f.ExpectedUint)
	case hwbits.KindNested:
		return f.Struct.Name()
	case hwbits.KindRegister:
		return f.Register.Name()
	case hwbits.KindArray:
		if f.CountField != "" {
			return fmt.Sprintf("%s[%s]", f.Struct.Name(), f.CountField)
		}
		return fmt.Sprintf("%s[%d]", f.Struct.Name(), f.Count)
	case hwbits.KindBody:
		return fmt.Sprintf("@%s len %s", f.OffsetField, f.LengthField)
	}
	return ""
}

func describeRegister(w io.Writer, r *hwbits.Register) {
	fmt.Fprintf(w, "%s (%d bits)\n", r.Name(), r.WidthBits())
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"bits", "name", "doc"})
	t.SetAutoWrapText(false)
	for _, b := range r.Bits() {
		span := strconv.Itoa(b.Start)
		if b.Width > 1 {
			span = fmt.Sprintf("%d:%d", b.Start+b.Width-1, b.Start)
		}
		t.Append([]string{span, b.Name, b.Doc})
	}
	t.Render()
}
