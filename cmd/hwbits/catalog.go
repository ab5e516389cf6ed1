package main

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/reoring/hwbits"
	"github.com/reoring/hwbits/layoutfile"
	"github.com/reoring/hwbits/layouts/armesr"
	"github.com/reoring/hwbits/layouts/cper"
)

type builtin struct {
	primary string
	catalog func() *layoutfile.Catalog
}

var builtins = map[string]builtin{
	"cper": {
		primary: cper.Record.Name(),
		catalog: func() *layoutfile.Catalog {
			return layoutfile.NewCatalog().Add(cper.Schemas()...).AddRegister(cper.Registers()...)
		},
	},
	"armesr": {
		primary: armesr.ESR.Name(),
		catalog: func() *layoutfile.Catalog {
			return layoutfile.NewCatalog().AddRegister(armesr.Registers()...)
		},
	},
}

func builtinNames() []string {
	out := make([]string, 0, len(builtins))
	for k := range builtins {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// catalog loads the layout named by --layout or --builtin.
func (a *app) catalog() (*layoutfile.Catalog, string, error) {
	path, name := a.v.GetString("layout"), a.v.GetString("builtin")
	switch {
	case path != "" && name != "":
		return nil, "", errors.New("--layout and --builtin are mutually exclusive")
	case path != "":
		c, err := layoutfile.LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		primary := ""
		if s := c.Structs(); len(s) == 1 {
			primary = s[0]
		} else if r := c.Registers(); len(s) == 0 && len(r) == 1 {
			primary = r[0]
		}
		return c, primary, nil
	case name != "":
		b, ok := builtins[name]
		if !ok {
			return nil, "", errors.Errorf("unknown builtin layout %q (have %v)", name, builtinNames())
		}
		return b.catalog(), b.primary, nil
	}
	return nil, "", errors.New("one of --layout or --builtin is required")
}

// target resolves --type to a structure or a register of the catalog.
type target struct {
	schema   *hwbits.Schema
	register *hwbits.Register
}

func (a *app) target() (*layoutfile.Catalog, target, error) {
	c, primary, err := a.catalog()
	if err != nil {
		return nil, target{}, err
	}
	name := a.v.GetString("type")
	if name == "" {
		name = primary
	}
	if name == "" {
		return c, target{}, errors.Errorf("--type is required (structs: %v, registers: %v)", c.Structs(), c.Registers())
	}
	if s, ok := c.Struct(name); ok {
		return c, target{schema: s}, nil
	}
	if r, ok := c.Register(name); ok {
		return c, target{register: r}, nil
	}
	return c, target{}, errors.Errorf("no struct or register named %q", name)
}
