/*
Copyright © 2020 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spatialmodel/meshqual/config"
)

// Cfg holds configuration information.
type Cfg struct {
	*viper.Viper

	Root, classifyCmd, rangeCmd, criteriaCmd *cobra.Command

	// logOut receives log messages.
	logOut io.Writer
}

// envPrefix is prepended to option names to find environment variables.
const envPrefix = "MESHQUAL"

// InitializeConfig initializes the configuration information
// and commands.
func InitializeConfig() *Cfg {
	cfg := &Cfg{
		Viper:  viper.New(),
		logOut: os.Stderr,
	}
	cfg.SetEnvPrefix(envPrefix)
	cfg.AutomaticEnv()

	cfg.Root = &cobra.Command{
		Use:   "meshqual",
		Short: "Mesh cell quality histograms.",
		Long: `meshqual sorts the cells of one or more meshes into classes according to the
value of a quality criterion, and reports how many cells fall in each class.

Options can be given as command line flags, as environment variables
prefixed with ` + envPrefix + `_ (e.g. ` + envPrefix + `_CLASSES=20), or in a TOML
configuration file given with --config, in that order of precedence.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.bindFlags(cmd)
		},
	}

	cfg.classifyCmd = &cobra.Command{
		Use:     "classify",
		Aliases: []string{"run"},
		Short:   "Classify cells and print a histogram of the criterion.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, log, err := cfg.runConfig(cmd)
			if err != nil {
				return err
			}
			series, err := c.OpenSeries()
			if err != nil {
				return err
			}
			r, err := c.Run(series, log)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), cfg.GetString("format"), r)
		},
		DisableAutoGenTag: true,
	}

	cfg.rangeCmd = &cobra.Command{
		Use:   "range",
		Short: "Print the range of values of the criterion.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, log, err := cfg.runConfig(cmd)
			if err != nil {
				return err
			}
			series, err := c.OpenSeries()
			if err != nil {
				return err
			}
			rt, err := c.Range(series, log)
			if err != nil {
				return err
			}
			return writeRange(cmd.OutOrStdout(), cfg.GetString("format"), config.RangeReport(c, rt))
		},
		DisableAutoGenTag: true,
	}

	cfg.criteriaCmd = &cobra.Command{
		Use:   "criteria",
		Short: "List the quality criteria and the cell types they apply to.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeCriteria(cmd.OutOrStdout(), cfg.GetString("format"))
		},
		DisableAutoGenTag: true,
	}

	cfg.Root.AddCommand(cfg.classifyCmd, cfg.rangeCmd, cfg.criteriaCmd)

	// Options are the configuration options available to meshqual.
	options := []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name:       "config",
			usage:      "configuration file location, in TOML format",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "format",
			usage:      "output format: text, json or yaml",
			shorthand:  "f",
			defaultVal: "text",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "log_level",
			usage:      "log level: debug, info, warn or error",
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "log_format",
			usage:      "log format: text or json",
			defaultVal: "text",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "criterion",
			usage:      "quality criterion; see the criteria command for the list",
			shorthand:  "c",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.classifyCmd.Flags(), cfg.rangeCmd.Flags()},
		},
		{
			name:       "cell_types",
			usage:      "cell types to analyse, e.g. tri,quad,hex; all types when empty",
			shorthand:  "t",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{cfg.classifyCmd.Flags(), cfg.rangeCmd.Flags()},
		},
		{
			name:       "table",
			usage:      "CSV or XLSX files of precomputed cell values, each analysed as a series",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{cfg.classifyCmd.Flags(), cfg.rangeCmd.Flags()},
		},
		{
			name:       "sequential",
			usage:      "process series one after the other",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.classifyCmd.Flags(), cfg.rangeCmd.Flags()},
		},
		{
			name:       "max_workers",
			usage:      "maximum number of series processed at once; 0 means the number of processors",
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{cfg.classifyCmd.Flags(), cfg.rangeCmd.Flags()},
		},
		{
			name:       "classes",
			usage:      "number of histogram classes",
			shorthand:  "n",
			defaultVal: config.DefaultClasses,
			flagsets:   []*pflag.FlagSet{cfg.classifyCmd.Flags()},
		},
		{
			name:       "domain",
			usage:      "computed: classify over the range of the values; user: classify over [min, max]; theoretical: classify over the range the criterion can take",
			defaultVal: config.DomainComputed,
			flagsets:   []*pflag.FlagSet{cfg.classifyCmd.Flags()},
		},
		{
			name:       "min",
			usage:      "lower bound of a user domain",
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{cfg.classifyCmd.Flags()},
		},
		{
			name:       "max",
			usage:      "upper bound of a user domain",
			defaultVal: 1.,
			flagsets:   []*pflag.FlagSet{cfg.classifyCmd.Flags()},
		},
		{
			name:       "strict",
			usage:      "leave out values outside of the domain instead of counting them in the last class",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.classifyCmd.Flags()},
		},
	}

	for _, option := range options {
		for _, set := range option.flagsets {
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
		}
	}
	return cfg
}

// bindFlags binds the flags of cmd to the configuration, so that flags
// defined with the same name on different commands do not clash.
func (cfg *Cfg) bindFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if e := cfg.BindPFlag(f.Name, f); e != nil && err == nil {
			err = e
		}
	})
	return err
}

// set reports whether option name was given as a flag or an
// environment variable.
func (cfg *Cfg) set(cmd *cobra.Command, name string) bool {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return true
	}
	_, ok := os.LookupEnv(envPrefix + "_" + strings.ToUpper(name))
	return ok
}

// logger creates the logger configured by the log_level and log_format
// options.
func (cfg *Cfg) logger() (*logrus.Logger, error) {
	log := logrus.New()
	log.Out = cfg.logOut
	level, err := logrus.ParseLevel(cfg.GetString("log_level"))
	if err != nil {
		return nil, fmt.Errorf("meshqual: %v", err)
	}
	log.SetLevel(level)
	switch f := strings.ToLower(cfg.GetString("log_format")); f {
	case "text":
		log.Formatter = &logrus.TextFormatter{}
	case "json":
		log.Formatter = &logrus.JSONFormatter{}
	default:
		return nil, fmt.Errorf("meshqual: invalid log format %q", f)
	}
	return log, nil
}

// runConfig builds the run configuration from the configuration file,
// if any, overridden by flags and environment variables.
func (cfg *Cfg) runConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	log, err := cfg.logger()
	if err != nil {
		return nil, nil, err
	}

	c := new(config.Config)
	if path := cfg.GetString("config"); path != "" {
		if c, err = config.Read(path); err != nil {
			return nil, nil, fmt.Errorf("meshqual: problem reading configuration file: %v", err)
		}
		log.WithField("config", path).Debug("read configuration file")
	}

	if cfg.set(cmd, "criterion") || c.Criterion == "" {
		c.Criterion = cfg.GetString("criterion")
	}
	if cfg.set(cmd, "cell_types") {
		c.CellTypes = splitList(cast.ToStringSlice(cfg.Get("cell_types")))
	}
	if cfg.set(cmd, "sequential") {
		c.Sequential = cast.ToBool(cfg.Get("sequential"))
	}
	if cfg.set(cmd, "max_workers") {
		c.MaxWorkers = cast.ToInt(cfg.Get("max_workers"))
	}
	if cmd == cfg.classifyCmd {
		if cfg.set(cmd, "classes") || c.Classes == 0 {
			c.Classes = cast.ToInt(cfg.Get("classes"))
		}
		if cfg.set(cmd, "domain") {
			c.Domain = cfg.GetString("domain")
		}
		if cfg.set(cmd, "min") {
			c.Min = cast.ToFloat64(cfg.Get("min"))
		}
		if cfg.set(cmd, "max") {
			c.Max = cast.ToFloat64(cfg.Get("max"))
		}
		if cfg.set(cmd, "strict") {
			c.Strict = cast.ToBool(cfg.Get("strict"))
		}
	}
	for _, path := range splitList(cast.ToStringSlice(cfg.Get("table"))) {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		c.Series = append(c.Series, config.SeriesConfig{Name: name, Kind: config.KindTable, Path: path})
	}

	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	log.WithFields(logrus.Fields{
		"criterion":  c.CriterionValue(),
		"cell_types": c.CellTypeMask(),
		"series":     len(c.Series),
	}).Debug("configuration")
	return c, log, nil
}

// splitList splits comma-separated entries, which is how list options
// arrive from environment variables.
func splitList(in []string) []string {
	var o []string
	for _, s := range in {
		for _, f := range strings.Split(s, ",") {
			if f = strings.Trim(f, "[] "); f != "" {
				o = append(o, f)
			}
		}
	}
	return o
}
