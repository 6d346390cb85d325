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

// Package meshtest provides an in-memory mesh.Source for testing.
package meshtest

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/spatialmodel/meshqual/mesh"
)

// Make sure Stub fulfills the interface.
var _ mesh.Source = &Stub{}

// Cell is a stub cell. A NaN entry in Values, or a missing one,
// means the criterion is not supported for the cell.
type Cell struct {
	Type   mesh.CellType // zero means an unsupported shape
	Values map[mesh.Criterion]float64
}

// Stub is a mesh.Source backed by a slice of cells. It counts
// calls to Evaluate so that caching behavior can be checked.
type Stub struct {
	Cells []Cell

	// NotThreadable makes Threadable return false.
	NotThreadable bool

	// Fail, if set, is returned by every call to Evaluate.
	Fail error

	// Panic, if set, makes Evaluate panic with this value.
	Panic interface{}

	evals int64
}

// Uniform returns a stub with one cell of type t per value in v,
// all evaluated for criterion c.
func Uniform(t mesh.CellType, c mesh.Criterion, v ...float64) *Stub {
	s := &Stub{Cells: make([]Cell, len(v))}
	for i, vi := range v {
		s.Cells[i] = Cell{Type: t, Values: map[mesh.Criterion]float64{c: vi}}
	}
	return s
}

// Add appends cells of type t with values v for criterion c.
func (s *Stub) Add(t mesh.CellType, c mesh.Criterion, v ...float64) *Stub {
	for _, vi := range v {
		s.Cells = append(s.Cells, Cell{Type: t, Values: map[mesh.Criterion]float64{c: vi}})
	}
	return s
}

// Len returns the number of cells.
func (s *Stub) Len() int { return len(s.Cells) }

// CellType returns the type of cell i.
func (s *Stub) CellType(i int) (mesh.CellType, error) {
	t := s.Cells[i].Type
	if t == 0 {
		return 0, fmt.Errorf("meshtest: cell %d: %w", i, mesh.ErrUnsupportedShape)
	}
	return t, nil
}

// Evaluate returns the stored value of c for cell i.
func (s *Stub) Evaluate(c mesh.Criterion, i int) (float64, error) {
	atomic.AddInt64(&s.evals, 1)
	if s.Panic != nil {
		panic(s.Panic)
	}
	if s.Fail != nil {
		return 0, s.Fail
	}
	v, ok := s.Cells[i].Values[c]
	if !ok || math.IsNaN(v) {
		return 0, fmt.Errorf("meshtest: %v for cell %d: %w", c, i, mesh.ErrUnsupportedCriterion)
	}
	return v, nil
}

// Threadable reports whether the stub may be read concurrently.
func (s *Stub) Threadable() bool { return !s.NotThreadable }

// Evaluations returns the number of calls to Evaluate so far.
func (s *Stub) Evaluations() int { return int(atomic.LoadInt64(&s.evals)) }

// ResetEvaluations sets the call counter back to zero.
func (s *Stub) ResetEvaluations() { atomic.StoreInt64(&s.evals, 0) }
