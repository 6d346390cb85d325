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

package qualif

import (
	"math"

	"github.com/spatialmodel/meshqual/mesh"
)

// DefaultDomain is returned by RangeTask when no cell yields a value.
var DefaultDomain = Domain{Min: -1000, Max: 1000}

// Domain is a closed interval of criterion values.
type Domain struct {
	Min, Max float64
}

// RangeTask computes the range of values that a criterion takes over the
// cells of a group of series. As a side effect, it stores the criterion
// values in each series' cache.
type RangeTask struct {
	execution

	criterion mesh.Criterion
	types     mesh.CellType
	domain    Domain
}

// NewRangeTask returns a task that finds the range of criterion c over the
// cells of the given types in series.
func NewRangeTask(c mesh.Criterion, types mesh.CellType, series []*Series, opts Options) (*RangeTask, error) {
	const kind = "RangeTask"
	if err := validateSeries(kind, types, series); err != nil {
		return nil, err
	}
	return &RangeTask{
		execution: newExecution(kind, c, series, opts),
		criterion: c,
		types:     types,
	}, nil
}

// seriesBounds holds the extrema found in one series. A bound is only
// set when a finite value was found.
type seriesBounds struct {
	min, max     float64
	minOK, maxOK bool
}

// validBound reports whether v is a usable domain bound: neither NaN,
// infinite, nor one of the ±math.MaxFloat64 "nothing found" markers.
func validBound(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) != math.MaxFloat64
}

// Execute computes the range. It may only be called once.
func (t *RangeTask) Execute() error {
	if err := t.begin(); err != nil {
		return err
	}
	var global seriesBounds
	fold := func(b seriesBounds) {
		if b.minOK && (!global.minOK || b.min < global.min) {
			global.min, global.minOK = b.min, true
		}
		if b.maxOK && (!global.maxOK || b.max > global.max) {
			global.max, global.maxOK = b.max, true
		}
	}
	if t.parallel {
		partials := make([]seriesBounds, len(t.series))
		t.fork(func(i int, s *Series) error {
			b, err := t.seriesRange(s)
			partials[i] = b
			return err
		})
		for i, b := range partials {
			if t.workers[i].OK() {
				fold(b)
			}
		}
	} else {
		t.fork(func(_ int, s *Series) error {
			b, err := t.seriesRange(s)
			if err == nil {
				fold(b)
			}
			return err
		})
	}
	t.domain = fallbackDomain(global)
	return t.finish()
}

// seriesRange computes the range of values in one series. Values are first
// cached for all cells through FillRange, whose extrema do not account for
// cell types, and then scanned again keeping only cells of the selected
// types.
func (t *RangeTask) seriesRange(s *Series) (seriesBounds, error) {
	var b seriesBounds
	if _, _, err := s.fillRange(t.criterion); err != nil {
		return b, err
	}
	min, max := math.MaxFloat64, -math.MaxFloat64
	for c := 0; c < s.Len(); c++ {
		ct, err := s.CellType(c)
		if err != nil {
			if mesh.IsUnsupported(err) {
				continue
			}
			return b, err
		}
		if ct&t.types == 0 {
			continue
		}
		v, err := s.CachedValue(t.criterion, c)
		if err != nil {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	b.min, b.minOK = min, validBound(min)
	b.max, b.maxOK = max, validBound(max)
	return b, nil
}

// fallbackDomain turns the folded bounds into a usable plotting domain.
// A missing bound is derived from the other one, and DefaultDomain is used
// when neither was found.
func fallbackDomain(b seriesBounds) Domain {
	switch {
	case b.minOK && b.maxOK:
		return Domain{Min: b.min, Max: b.max}
	case b.minOK:
		return Domain{Min: b.min, Max: b.min + math.Abs(b.min)}
	case b.maxOK:
		return Domain{Min: b.max - math.Abs(b.max), Max: b.max}
	}
	return DefaultDomain
}

// Range returns the computed minimum and maximum.
func (t *RangeTask) Range() (min, max float64) {
	return t.domain.Min, t.domain.Max
}

// Domain returns the computed range.
func (t *RangeTask) Domain() Domain { return t.domain }
