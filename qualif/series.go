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
	"math"
	"sync"
	"sync/atomic"

	"github.com/spatialmodel/meshqual/mesh"
)

// Series is a named, fixed collection of cells submitted to analysis,
// together with a cache of the criterion values computed for them.
//
// A Series may be used by only one task at a time. Tasks acquire the
// series for the duration of their work on it and release it when done.
// FillRange and ReleaseCache, which write to the cache, fail with
// ErrSeriesBusy while a task holds the series. The read methods Evaluate
// and CachedValue must not be called concurrently with a task using the
// series.
type Series struct {
	name string
	src  mesh.Source
	n    int

	busy int32

	cache     map[mesh.Criterion]*cachedCriterion
	typesOnce sync.Once
	cellTypes mesh.CellType
	classes   [][]int
}

// cachedCriterion holds the values of one criterion for every cell of a
// series. Cells for which the criterion is undefined have defined[i] == false.
type cachedCriterion struct {
	values   []float64
	defined  []bool
	min, max float64
}

// NewSeries binds a mesh Source to a new Series.
func NewSeries(name string, src mesh.Source) *Series {
	return &Series{
		name:  name,
		src:   src,
		n:     src.Len(),
		cache: make(map[mesh.Criterion]*cachedCriterion),
	}
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Len returns the number of cells in the series.
func (s *Series) Len() int { return s.n }

// Threadable reports whether the underlying Source can be read
// concurrently with other series.
func (s *Series) Threadable() bool { return s.src.Threadable() }

func (s *Series) checkIndex(i int) error {
	if i < 0 || i >= s.n {
		return &IndexError{Series: s.name, Index: i, Len: s.n}
	}
	return nil
}

// CellType returns the type of cell i.
func (s *Series) CellType(i int) (mesh.CellType, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, err
	}
	return s.src.CellType(i)
}

// CellTypes returns the union of the types of all cells in the series.
// Cells with unsupported shapes are ignored. The result is computed once.
func (s *Series) CellTypes() mesh.CellType {
	s.typesOnce.Do(func() {
		for i := 0; i < s.n; i++ {
			t, err := s.src.CellType(i)
			if err != nil {
				continue
			}
			s.cellTypes |= t
		}
	})
	return s.cellTypes
}

// Evaluate returns the value of criterion c for cell i. Cached values are
// used when available. Values computed here are not added to the cache;
// only FillRange writes to it.
func (s *Series) Evaluate(c mesh.Criterion, i int) (float64, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, err
	}
	if cc, ok := s.cache[c]; ok {
		if !cc.defined[i] {
			return 0, fmt.Errorf("qualif: series %q: %v for cell %d: %w", s.name, c, i, mesh.ErrUnsupportedCriterion)
		}
		return cc.values[i], nil
	}
	return s.src.Evaluate(c, i)
}

// FillRange computes and caches the value of criterion c for every cell,
// and returns the minimum and maximum values found. Cells for which c is
// unsupported are skipped. If no cell has a value, min is math.MaxFloat64
// and max is -math.MaxFloat64. If c is already cached the cached extrema
// are returned without evaluating anything.
//
// Errors other than unsupported shape or criterion abort the computation
// and leave the cache unchanged. FillRange fails with ErrSeriesBusy if a
// task is using the series.
func (s *Series) FillRange(c mesh.Criterion) (min, max float64, err error) {
	if !s.acquire() {
		return 0, 0, fmt.Errorf("qualif: series %q: %w", s.name, ErrSeriesBusy)
	}
	defer s.release()
	return s.fillRange(c)
}

// fillRange is FillRange for callers that already hold the series.
func (s *Series) fillRange(c mesh.Criterion) (min, max float64, err error) {
	if cc, ok := s.cache[c]; ok {
		return cc.min, cc.max, nil
	}
	cc := &cachedCriterion{
		values:  make([]float64, s.n),
		defined: make([]bool, s.n),
		min:     math.MaxFloat64,
		max:     -math.MaxFloat64,
	}
	for i := 0; i < s.n; i++ {
		v, err := s.src.Evaluate(c, i)
		if err != nil {
			if mesh.IsUnsupported(err) {
				continue
			}
			return 0, 0, fmt.Errorf("qualif: series %q: while evaluating %v for cell %d: %w", s.name, c, i, err)
		}
		cc.values[i] = v
		cc.defined[i] = true
		if v < cc.min {
			cc.min = v
		}
		if v > cc.max {
			cc.max = v
		}
	}
	s.cache[c] = cc
	return cc.min, cc.max, nil
}

// IsCached reports whether values of criterion c are stored.
func (s *Series) IsCached(c mesh.Criterion) bool {
	_, ok := s.cache[c]
	return ok
}

// CachedValue returns the stored value of criterion c for cell i.
func (s *Series) CachedValue(c mesh.Criterion, i int) (float64, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, err
	}
	cc, ok := s.cache[c]
	if !ok || !cc.defined[i] {
		return 0, fmt.Errorf("qualif: series %q: %v for cell %d: %w", s.name, c, i, ErrNotCached)
	}
	return cc.values[i], nil
}

// Classes returns, for each class of the last classification performed
// on this series, the indices of the cells that fell in it.
func (s *Series) Classes() [][]int { return copyClasses(s.classes) }

// CellIndices returns the indices of the cells in class cl of the last
// classification.
func (s *Series) CellIndices(cl int) ([]int, error) {
	if cl < 0 || cl >= len(s.classes) {
		return nil, fmt.Errorf("qualif: series %q: class %d: %w", s.name, cl, ErrIndexOutOfRange)
	}
	return append([]int(nil), s.classes[cl]...), nil
}

// ReleaseCache discards all cached criterion values, extrema and
// classification results. It fails if a task is currently using the series.
func (s *Series) ReleaseCache() error {
	if !s.acquire() {
		return fmt.Errorf("qualif: series %q: %w", s.name, ErrSeriesBusy)
	}
	defer s.release()
	s.cache = make(map[mesh.Criterion]*cachedCriterion)
	s.classes = nil
	return nil
}

// acquire gives the caller exclusive use of the series. It returns false if
// the series is already held.
func (s *Series) acquire() bool {
	return atomic.CompareAndSwapInt32(&s.busy, 0, 1)
}

func (s *Series) release() {
	atomic.StoreInt32(&s.busy, 0)
}

func copyClasses(c [][]int) [][]int {
	if c == nil {
		return nil
	}
	o := make([][]int, len(c))
	for cl, cells := range c {
		o[cl] = append([]int(nil), cells...)
	}
	return o
}
