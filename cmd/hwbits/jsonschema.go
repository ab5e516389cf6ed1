package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newJSONSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jsonschema",
		Short: "Print the JSON Schema of decode's JSON output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, tg, err := a.target()
			if err != nil {
				return err
			}
			var v any
			if tg.register != nil {
				v = tg.register.JSONSchema()
			} else {
				s, err := tg.schema.JSONSchema()
				if err != nil {
					return err
				}
				v = s
			}
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return errors.Wrap(err, "encode json schema")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}
