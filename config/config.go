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

// Package config holds the configuration of a mesh quality run and
// connects the configured series to their mesh sources.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/meshqual/mesh"
	"github.com/spatialmodel/meshqual/mesh/hilbert"
	"github.com/spatialmodel/meshqual/mesh/planar"
	"github.com/spatialmodel/meshqual/mesh/table"
	"github.com/spatialmodel/meshqual/qualif"
)

// DefaultClasses is the number of classes used when none is configured.
const DefaultClasses = 10

// Domain modes.
const (
	// DomainComputed finds the domain with a RangeTask before classifying.
	DomainComputed = "computed"
	// DomainUser classifies over the configured Min and Max.
	DomainUser = "user"
	// DomainTheoretical classifies over the range the criterion can take
	// for the selected cell types.
	DomainTheoretical = "theoretical"
)

// Series kinds.
const (
	KindTable   = "table"
	KindHilbert = "hilbert"
	KindPlanar  = "planar"
)

// Config is the configuration of a run.
type Config struct {
	// Criterion is the name of the quality criterion, e.g. "ScaledJacobian".
	Criterion string `toml:"criterion"`

	// CellTypes lists the cell types to analyse. Empty means all.
	CellTypes []string `toml:"cell_types"`

	// Classes is the number of histogram classes.
	Classes int `toml:"classes"`

	// Domain is "computed" (the default), "user" or "theoretical".
	Domain string `toml:"domain"`

	// Min and Max bound the domain when Domain is "user".
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`

	// Strict leaves out values outside of the domain instead of
	// putting them in the last class.
	Strict bool `toml:"strict"`

	Sequential bool `toml:"sequential"`
	MaxWorkers int  `toml:"max_workers"`

	Series []SeriesConfig `toml:"series"`

	criterion mesh.Criterion
	types     mesh.CellType
	preset    qualif.Domain
}

// SeriesConfig describes where the cells of one series come from.
type SeriesConfig struct {
	Name string `toml:"name"`

	// Kind is one of "table", "hilbert" or "planar".
	Kind string `toml:"kind"`

	// Path is the input file of "table" series and, optionally, the
	// shapefile of "planar" series. Environment variables are expanded.
	Path string `toml:"path"`

	// Threadable may be set to false for "table" series that must not
	// be read concurrently with other series. It defaults to true.
	Threadable *bool `toml:"threadable"`

	// Bounds is the area covered by a "hilbert" series, as
	// [south, west, north, east] in degrees, and Level is the S2 cell level.
	Bounds []float64 `toml:"bounds"`
	Level  int       `toml:"level"`

	// Grid describes a regular "planar" grid when Path is empty.
	Grid *GridConfig `toml:"grid"`
}

// GridConfig describes a regular grid of rectangles.
type GridConfig struct {
	Nx int     `toml:"nx"`
	Ny int     `toml:"ny"`
	Dx float64 `toml:"dx"`
	Dy float64 `toml:"dy"`
	X0 float64 `toml:"x0"`
	Y0 float64 `toml:"y0"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	c, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Read reads the configuration file at path without validating it, so
// that settings can be changed before calling Validate.
func Read(path string) (*Config, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("config: %v", err)
	}
	defer f.Close()
	return decode(f)
}

// Decode reads and validates a TOML configuration.
func Decode(r io.Reader) (*Config, error) {
	c, err := decode(r)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decode(r io.Reader) (*Config, error) {
	c := new(Config)
	if _, err := toml.DecodeReader(r, c); err != nil {
		return nil, fmt.Errorf("config: while decoding TOML: %v", err)
	}
	return c, nil
}

// Validate checks the configuration and fills in default values.
func (c *Config) Validate() error {
	var err error
	if c.criterion, err = mesh.ParseCriterion(c.Criterion); err != nil {
		return fmt.Errorf("config: %v", err)
	}
	if len(c.CellTypes) == 0 {
		c.types = mesh.AllCellTypes
	} else if c.types, err = mesh.ParseCellTypes(c.CellTypes...); err != nil {
		return fmt.Errorf("config: %v", err)
	}
	if c.Classes == 0 {
		c.Classes = DefaultClasses
	}
	if c.Classes < 0 {
		return fmt.Errorf("config: classes must be positive, got %d", c.Classes)
	}
	switch strings.ToLower(c.Domain) {
	case "", DomainComputed:
		c.Domain = DomainComputed
	case DomainUser:
		c.Domain = DomainUser
		if !(c.Min < c.Max) {
			return fmt.Errorf("config: user domain needs min < max, got [%g, %g]", c.Min, c.Max)
		}
		c.preset = qualif.Domain{Min: c.Min, Max: c.Max}
	case DomainTheoretical:
		c.Domain = DomainTheoretical
		min, max, ok := mesh.TheoreticalDomain(c.criterion, c.types)
		if !ok {
			return fmt.Errorf("config: %v has no theoretical domain for cell types %v", c.criterion, c.types)
		}
		c.preset = qualif.Domain{Min: min, Max: max}
	default:
		return fmt.Errorf("config: invalid domain %q; should be %q, %q or %q",
			c.Domain, DomainComputed, DomainUser, DomainTheoretical)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("config: max_workers must not be negative, got %d", c.MaxWorkers)
	}
	if len(c.Series) == 0 {
		return fmt.Errorf("config: no series configured")
	}
	names := make(map[string]bool)
	for i := range c.Series {
		s := &c.Series[i]
		if s.Name == "" {
			s.Name = fmt.Sprintf("series %d", i+1)
		}
		if names[s.Name] {
			return fmt.Errorf("config: duplicate series name %q", s.Name)
		}
		names[s.Name] = true
		if err := s.validate(); err != nil {
			return fmt.Errorf("config: series %q: %v", s.Name, err)
		}
	}
	return nil
}

func (s *SeriesConfig) validate() error {
	s.Kind = strings.ToLower(s.Kind)
	switch s.Kind {
	case KindTable:
		if s.Path == "" {
			return fmt.Errorf("table series need a path")
		}
	case KindHilbert:
		if len(s.Bounds) != 4 {
			return fmt.Errorf("bounds should be [south, west, north, east], got %v", s.Bounds)
		}
	case KindPlanar:
		if s.Path == "" && s.Grid == nil {
			return fmt.Errorf("planar series need a path or a grid")
		}
		if s.Grid != nil && (s.Grid.Nx <= 0 || s.Grid.Ny <= 0) {
			return fmt.Errorf("grid needs positive nx and ny")
		}
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	return nil
}

// CriterionValue returns the configured criterion. It is only valid
// after Validate.
func (c *Config) CriterionValue() mesh.Criterion { return c.criterion }

// CellTypeMask returns the configured cell types. It is only valid after
// Validate.
func (c *Config) CellTypeMask() mesh.CellType { return c.types }

// PresetDomain returns the user or theoretical domain, and false if the
// domain is to be computed from the cell values. It is only valid after
// Validate.
func (c *Config) PresetDomain() (qualif.Domain, bool) {
	return c.preset, c.Domain != DomainComputed
}

// Options returns the task options for this configuration.
func (c *Config) Options(log logrus.FieldLogger) qualif.Options {
	return qualif.Options{
		Sequential: c.Sequential,
		MaxWorkers: c.MaxWorkers,
		Log:        log,
	}
}

// Source opens the mesh source of the series.
func (s *SeriesConfig) Source() (mesh.Source, error) {
	switch s.Kind {
	case KindTable:
		threadable := s.Threadable == nil || *s.Threadable
		return table.Open(s.Path, threadable)
	case KindHilbert:
		b := s.Bounds
		return hilbert.NewMesh2D(hilbert.Bounds(b[0], b[1], b[2], b[3]), s.Level)
	case KindPlanar:
		if s.Path != "" {
			return planar.ReadShapefile(os.ExpandEnv(s.Path))
		}
		g := s.Grid
		return planar.NewGridRegular(g.Nx, g.Ny, g.Dx, g.Dy, g.X0, g.Y0), nil
	}
	return nil, fmt.Errorf("config: series %q: unknown kind %q", s.Name, s.Kind)
}

// OpenSeries opens the sources of all configured series.
func (c *Config) OpenSeries() ([]*qualif.Series, error) {
	o := make([]*qualif.Series, len(c.Series))
	for i := range c.Series {
		src, err := c.Series[i].Source()
		if err != nil {
			return nil, fmt.Errorf("config: opening series %q: %v", c.Series[i].Name, err)
		}
		o[i] = qualif.NewSeries(c.Series[i].Name, src)
	}
	return o, nil
}
