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
	"errors"
	"fmt"

	"github.com/spatialmodel/meshqual/mesh"
)

// AnalysisTask sorts the cells of a group of series into classes
// according to the value of a criterion.
type AnalysisTask struct {
	execution

	criterion mesh.Criterion
	types     mesh.CellType
	classes   int
	domain    Domain
	strict    bool

	result *Result
}

// NewAnalysisTask returns a task that splits domain d into the given
// number of classes and assigns each cell of the selected types to one of
// them. If strict is true, cells whose value lies outside of d are left out;
// otherwise they are put in the last class. NaN values are never outside
// of d and always go in the last class.
//
// The task reads values cached by a previous RangeTask when available and
// evaluates the others without caching them.
func NewAnalysisTask(c mesh.Criterion, types mesh.CellType, classes int, d Domain, strict bool, series []*Series, opts Options) (*AnalysisTask, error) {
	const kind = "AnalysisTask"
	if classes <= 0 {
		return nil, configErr(kind, ErrNoClasses, "got %d", classes)
	}
	if err := validateSeries(kind, types, series); err != nil {
		return nil, err
	}
	return &AnalysisTask{
		execution: newExecution(kind, c, series, opts),
		criterion: c,
		types:     types,
		classes:   classes,
		domain:    d,
		strict:    strict,
	}, nil
}

// classPartial holds the classification of one series by one worker.
type classPartial [][]int

// Execute classifies the cells. It may only be called once.
func (t *AnalysisTask) Execute() error {
	if err := t.begin(); err != nil {
		return err
	}
	r := newResult(t.classes, t.series)
	if t.parallel {
		partials := make([]classPartial, len(t.series))
		t.fork(func(i int, s *Series) error {
			p := make(classPartial, t.classes)
			err := t.classifySeries(s, func(cl, c int) {
				p[cl] = append(p[cl], c)
			})
			partials[i] = p
			return err
		})
		// Merge after the join. Each worker owns one series column.
		for i, p := range partials {
			if !t.workers[i].OK() {
				continue
			}
			for cl, cells := range p {
				for _, c := range cells {
					r.record(cl, i, c)
				}
			}
		}
	} else {
		t.fork(func(i int, s *Series) error {
			return t.classifySeries(s, func(cl, c int) {
				r.record(cl, i, c)
			})
		})
		// A worker that failed part way, by error or panic, may have
		// recorded some of its cells already.
		for i, w := range t.workers {
			if !w.OK() {
				r.clearSeries(i)
			}
		}
	}
	t.result = r
	for i, s := range t.series {
		if errors.Is(t.workers[i].Err, ErrSeriesBusy) {
			continue
		}
		s.classes = copyClasses(r.indices[i])
	}
	return t.finish()
}

// classifySeries assigns the cells of s to classes, calling record for
// each classified cell. Cells with unsupported shapes or criterion values
// are skipped.
func (t *AnalysisTask) classifySeries(s *Series, record func(cl, c int)) error {
	min, max := t.domain.Min, t.domain.Max
	n := t.classes
	// Stays finite when min and max are close to ±math.MaxFloat64.
	ratio := max/float64(n) - min/float64(n)
	for c := 0; c < s.Len(); c++ {
		ct, err := s.CellType(c)
		if err != nil {
			if mesh.IsUnsupported(err) {
				continue
			}
			return err
		}
		if ct&t.types == 0 {
			continue
		}
		v, err := s.Evaluate(t.criterion, c)
		if err != nil {
			if mesh.IsUnsupported(err) {
				continue
			}
			return fmt.Errorf("qualif: series %q: while evaluating %v for cell %d: %w", s.Name(), t.criterion, c, err)
		}
		if t.strict && (v < min || v > max) {
			continue
		}
		record(classOf(v, min, ratio, n), c)
	}
	return nil
}

// classOf returns the class of value v. Values at or above the top of the
// domain go in the last class, and so do values below the bottom of the
// domain and NaN.
func classOf(v, min, ratio float64, n int) int {
	q := (v - min) / ratio
	if !(q >= 0) || q >= float64(n) {
		return n - 1
	}
	return int(q)
}

// Result returns the classification, or nil if the task has not been
// executed.
func (t *AnalysisTask) Result() *Result { return t.result }

// Counts returns the number of cells in each class, indexed as
// [class][series].
func (t *AnalysisTask) Counts() ([][]int, error) {
	if t.result == nil {
		return nil, &TaskError{Task: t.kind, Kind: ErrNotExecuted}
	}
	return t.result.Counts(), nil
}

// CellIndices returns the indices of the cells of series s in class cl.
func (t *AnalysisTask) CellIndices(cl, s int) ([]int, error) {
	if t.result == nil {
		return nil, &TaskError{Task: t.kind, Kind: ErrNotExecuted}
	}
	return t.result.CellIndices(cl, s)
}

// Classes returns the number of classes.
func (t *AnalysisTask) Classes() int { return t.classes }

// Domain returns the classified domain.
func (t *AnalysisTask) Domain() Domain { return t.domain }

// ClassValues returns the representative value of each class.
func (t *AnalysisTask) ClassValues() []float64 {
	return ClassValues(t.criterion, t.domain, t.classes)
}
