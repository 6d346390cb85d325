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
	"fmt"

	"github.com/spatialmodel/meshqual/mesh"
)

// Result holds the outcome of a classification: the number of cells of
// each series in each class, and which cells they are.
type Result struct {
	names   []string
	counts  [][]int   // [class][series]
	indices [][][]int // [series][class][]cell
}

func newResult(classes int, series []*Series) *Result {
	r := &Result{
		names:   make([]string, len(series)),
		counts:  make([][]int, classes),
		indices: make([][][]int, len(series)),
	}
	for i, s := range series {
		r.names[i] = s.Name()
		r.indices[i] = make([][]int, classes)
	}
	for cl := range r.counts {
		r.counts[cl] = make([]int, len(series))
	}
	return r
}

// record adds cell c of series s to class cl.
func (r *Result) record(cl, s, c int) {
	r.counts[cl][s]++
	r.indices[s][cl] = append(r.indices[s][cl], c)
}

// clearSeries removes everything recorded for series s.
func (r *Result) clearSeries(s int) {
	for cl := range r.counts {
		r.counts[cl][s] = 0
	}
	r.indices[s] = make([][]int, len(r.counts))
}

// Classes returns the number of classes.
func (r *Result) Classes() int { return len(r.counts) }

// Series returns the names of the classified series, in order.
func (r *Result) Series() []string { return r.names }

// Count returns the number of cells of series s in class cl.
func (r *Result) Count(cl, s int) int { return r.counts[cl][s] }

// Counts returns a copy of the class counts, indexed as [class][series].
func (r *Result) Counts() [][]int {
	o := make([][]int, len(r.counts))
	for cl, row := range r.counts {
		o[cl] = append([]int(nil), row...)
	}
	return o
}

// Total returns the number of classified cells in series s.
func (r *Result) Total(s int) int {
	var n int
	for _, row := range r.counts {
		n += row[s]
	}
	return n
}

// CellIndices returns the indices of the cells of series s that fell in
// class cl.
func (r *Result) CellIndices(cl, s int) ([]int, error) {
	if s < 0 || s >= len(r.indices) {
		return nil, fmt.Errorf("qualif: series %d: %w", s, ErrIndexOutOfRange)
	}
	if cl < 0 || cl >= len(r.counts) {
		return nil, fmt.Errorf("qualif: class %d: %w", cl, ErrIndexOutOfRange)
	}
	return append([]int(nil), r.indices[s][cl]...), nil
}

// ClassValues returns the value that represents each of n classes
// spanning domain d: the middle of each class interval. For the binary
// Validity criterion split in two classes, the values are exactly 0 and 1.
func ClassValues(c mesh.Criterion, d Domain, n int) []float64 {
	if n <= 0 {
		return nil
	}
	o := make([]float64, n)
	if c == mesh.Validity && n == 2 {
		o[0], o[1] = 0, 1
		return o
	}
	interval := d.Max/float64(n) - d.Min/float64(n)
	for i := range o {
		o[i] = d.Min + interval/2 + float64(i)*interval
	}
	return o
}
