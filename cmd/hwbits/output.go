package main

import (
	"encoding/hex"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/reoring/hwbits"
)

func render(w io.Writer, format string, v any) error {
	if b, ok := v.([]byte); ok {
		v = hex.EncodeToString(b)
	}
	switch format {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encode json")
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		return enc.Close()
	case "table":
		t := tablewriter.NewWriter(w)
		t.SetHeader([]string{"field", "value"})
		t.SetAutoWrapText(false)
		t.AppendBulk(flatten("", v, nil))
		t.Render()
		return nil
	}
	return errors.Errorf("unknown output format %q (json, yaml, table)", format)
}

// flatten turns a dump into (path, value) rows.
func flatten(prefix string, v any, rows [][]string) [][]string {
	switch t := v.(type) {
	case hwbits.Entries:
		for _, e := range t {
			rows = flatten(prefix+"/"+e.Name, e.Value, rows)
		}
		return rows
	case []hwbits.Entries:
		for i, e := range t {
			rows = flatten(fmt.Sprintf("%s/%d", prefix, i), e, rows)
		}
		return rows
	}
	if prefix == "" {
		prefix = "/"
	}
	return append(rows, []string{prefix, scalar(v)})
}

func scalar(v any) string {
	switch t := v.(type) {
	case uint64:
		return fmt.Sprintf("%d (0x%x)", t, t)
	case []byte:
		return hex.EncodeToString(t)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
