package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/reoring/hwbits"
	"github.com/reoring/hwbits/source"
)

func newDecodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [INPUT]",
		Short: "Decode a record and print its fields",
		Long: `Decode binds the selected structure or register to INPUT (a file, or "-"
for stdin; stdin is the default) and prints every field in declaration order.
Constant fields are validated first; a mismatch fails the command.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.decode(cmd, args)
		},
	}
	f := cmd.Flags()
	f.String("offset", "0", "byte offset of the record in INPUT (decimal or 0x-prefixed)")
	f.String("format", "json", "output format (json, yaml, table)")
	f.String("hex", "", "decode this hex string instead of INPUT")
	f.String("path", "", "print only the value at this field path, e.g. /sections/0/body")
	f.Bool("no-size-check", false, "do not compare the record size with the input size up front")
	return cmd
}

func (a *app) decode(cmd *cobra.Command, args []string) error {
	_, t, err := a.target()
	if err != nil {
		return err
	}
	off, err := cast.ToInt64E(a.v.GetString("offset"))
	if err != nil {
		return errors.Wrap(err, "offset")
	}
	src, done, err := a.input(cmd, args)
	if err != nil {
		return err
	}
	defer done()

	opt := hwbits.BindOpt{Offset: off, SkipSizeCheck: a.v.GetBool("no-size-check")}
	format, path := a.v.GetString("format"), a.v.GetString("path")
	out := cmd.OutOrStdout()

	if t.register != nil {
		rv, err := hwbits.BindRegister(t.register, src, opt)
		if err != nil {
			return err
		}
		if path != "" {
			segs := hwbits.Segments(path)
			if len(segs) != 1 {
				return errors.Errorf("register path %q must name one bit range", path)
			}
			v, err := rv.Get(segs[0])
			if err != nil {
				return err
			}
			return render(out, format, v)
		}
		return render(out, format, rv.Dump())
	}

	in, err := hwbits.Bind(t.schema, src, opt)
	if err != nil {
		return err
	}
	a.log.WithField("schema", t.schema.Name()).Infof("bound %s at offset %d", in, off)
	if path != "" {
		v, err := in.DumpAt(path)
		if err != nil {
			return err
		}
		return render(out, format, v)
	}
	d, derr := in.Dump()
	if err := render(out, format, d); err != nil {
		return err
	}
	return derr
}

// input opens the hex string, the named file or stdin.
func (a *app) input(cmd *cobra.Command, args []string) (hwbits.ByteSource, func(), error) {
	if h := a.v.GetString("hex"); h != "" {
		if len(args) > 0 {
			return nil, nil, errors.New("--hex and INPUT are mutually exclusive")
		}
		src, err := source.HexSource(h)
		return src, func() {}, err
	}
	arg := "-"
	if len(args) == 1 {
		arg = args[0]
	}
	src, closer, err := source.Load(arg, cmd.InOrStdin())
	if err != nil {
		return nil, nil, err
	}
	return src, func() {
		if err := closer.Close(); err != nil {
			a.log.WithError(err).Warn("close input")
		}
	}, nil
}
