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

package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/spatialmodel/meshqual/mesh"
	"github.com/spatialmodel/meshqual/qualif"
)

// Report summarizes a run.
type Report struct {
	Criterion   string         `json:"criterion" yaml:"criterion"`
	CellTypes   string         `json:"cell_types" yaml:"cell_types"`
	Min         float64        `json:"min" yaml:"min"`
	Max         float64        `json:"max" yaml:"max"`
	Strict      bool           `json:"strict" yaml:"strict"`
	Parallel    bool           `json:"parallel" yaml:"parallel"`
	ClassValues []float64      `json:"class_values,omitempty" yaml:"class_values,omitempty"`
	Series      []SeriesReport `json:"series" yaml:"series"`
}

// SeriesReport holds the results for one series.
type SeriesReport struct {
	Name   string `json:"name" yaml:"name"`
	Counts []int  `json:"counts,omitempty" yaml:"counts,omitempty"`
	Total  int    `json:"total" yaml:"total"`
	// Mean is the average of the class values weighted by the counts.
	Mean  float64 `json:"mean" yaml:"mean"`
	Error string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// checkSupport warns about selected cell types for which the criterion
// is not defined, and about selected cell types that no series contains.
// Such cells will not be counted.
func (c *Config) checkSupport(series []*qualif.Series, log logrus.FieldLogger) {
	var present mesh.CellType
	for _, s := range series {
		present |= s.CellTypes()
	}
	if missing := c.types &^ present; missing != 0 && c.types != mesh.AllCellTypes {
		log.Warnf("no series contains cells of type %v", missing)
	}
	ok := mesh.SupportedTypes(c.types, c.criterion)
	if ok == c.types {
		return
	}
	if ok == 0 {
		log.Warnf("%v is not defined for any of the selected cell types (%v)", c.criterion, c.types)
		return
	}
	log.Warnf("%v is not defined for cell types %v", c.criterion, c.types&^ok)
}

// Range finds the domain of the configured criterion over series.
func (c *Config) Range(series []*qualif.Series, log logrus.FieldLogger) (*qualif.RangeTask, error) {
	c.checkSupport(series, log)
	rt, err := qualif.NewRangeTask(c.criterion, c.types, series, c.Options(log))
	if err != nil {
		return nil, err
	}
	if err := rt.Execute(); err != nil {
		return nil, err
	}
	return rt, nil
}

// RangeReport describes the result of a RangeTask.
func RangeReport(c *Config, rt *qualif.RangeTask) *Report {
	r := &Report{
		Criterion: c.criterion.String(),
		CellTypes: c.types.String(),
		Min:       rt.Domain().Min,
		Max:       rt.Domain().Max,
		Parallel:  rt.Parallel(),
	}
	for _, w := range rt.Workers() {
		sr := SeriesReport{Name: w.Series}
		if !w.OK() {
			sr.Error = w.Err.Error()
		}
		r.Series = append(r.Series, sr)
	}
	return r
}

// Run classifies the cells of series. If the configured domain is
// "computed", a RangeTask is run first to find it.
func (c *Config) Run(series []*qualif.Series, log logrus.FieldLogger) (*Report, error) {
	d, preset := c.PresetDomain()
	if !preset {
		rt, err := c.Range(series, log)
		if err != nil {
			return nil, fmt.Errorf("config: computing domain: %w", err)
		}
		d = rt.Domain()
		log.WithFields(logrus.Fields{"min": d.Min, "max": d.Max}).Info("computed domain")
	} else {
		c.checkSupport(series, log)
		log.WithFields(logrus.Fields{"min": d.Min, "max": d.Max, "domain": c.Domain}).Debug("preset domain")
	}

	at, err := qualif.NewAnalysisTask(c.criterion, c.types, c.Classes, d, c.Strict, series, c.Options(log))
	if err != nil {
		return nil, err
	}
	if err := at.Execute(); err != nil {
		return nil, err
	}

	res := at.Result()
	r := &Report{
		Criterion:   c.criterion.String(),
		CellTypes:   c.types.String(),
		Min:         d.Min,
		Max:         d.Max,
		Strict:      c.Strict,
		Parallel:    at.Parallel(),
		ClassValues: at.ClassValues(),
	}
	for s, w := range at.Workers() {
		sr := SeriesReport{Name: w.Series}
		if !w.OK() {
			sr.Error = w.Err.Error()
			r.Series = append(r.Series, sr)
			continue
		}
		counts := make([]float64, res.Classes())
		sr.Counts = make([]int, res.Classes())
		for cl := range counts {
			sr.Counts[cl] = res.Count(cl, s)
			counts[cl] = float64(sr.Counts[cl])
		}
		sr.Total = res.Total(s)
		if sr.Total > 0 {
			sr.Mean = floats.Dot(counts, r.ClassValues) / float64(sr.Total)
		}
		r.Series = append(r.Series, sr)
	}
	return r, nil
}
