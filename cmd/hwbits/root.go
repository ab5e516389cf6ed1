package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reoring/hwbits"
	"github.com/reoring/hwbits/i18n"
)

// app carries state shared by every subcommand. Each root command owns its
// own viper instance.
type app struct {
	v       *viper.Viper
	cfgFile string
	log     *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: logrus.New()}
	root := &cobra.Command{
		Use:           "hwbits",
		Short:         "Decode binary records with declarative layouts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file providing flag defaults (yaml, json or toml)")
	pf.String("layout", "", "layout catalog file (.yaml, .yml, .json, .toml)")
	pf.String("builtin", "", fmt.Sprintf("builtin layout, one of %v", builtinNames()))
	pf.String("type", "", "structure or register to use (default: the layout's primary type)")
	pf.String("lang", "en", "message language (en, ja)")
	pf.String("log-level", "warning", "log level (panic, fatal, error, warning, info, debug, trace)")
	pf.String("log-format", "text", "log format (text, json)")

	root.AddCommand(newDecodeCmd(a), newDescribeCmd(a), newJSONSchemaCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("HWBITS")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "bind flags")
	}
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", a.cfgFile)
		}
	}
	i18n.SetLanguage(a.v.GetString("lang"))
	return a.setupLogging(cmd.ErrOrStderr())
}

func (a *app) setupLogging(w io.Writer) error {
	lvl, err := logrus.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return errors.Wrap(err, "log-level")
	}
	a.log.SetOutput(w)
	a.log.SetLevel(lvl)
	switch f := a.v.GetString("log-format"); f {
	case "text":
		a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		a.log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("unknown log format %q", f)
	}
	hwbits.SetLogger(a.log)
	return nil
}
