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
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"

	"github.com/spatialmodel/meshqual/mesh"
	"github.com/spatialmodel/meshqual/mesh/meshtest"
)

// failAt fails when cell i is evaluated.
type failAt struct {
	*meshtest.Stub
	i int
}

func (f failAt) Evaluate(c mesh.Criterion, i int) (float64, error) {
	if i == f.i {
		return 0, fmt.Errorf("cell %d is corrupt", i)
	}
	return f.Stub.Evaluate(c, i)
}

// panicAt panics when cell i is evaluated.
type panicAt struct {
	*meshtest.Stub
	i int
}

func (p panicAt) Evaluate(c mesh.Criterion, i int) (float64, error) {
	if i == p.i {
		panic(fmt.Sprintf("cell %d", i))
	}
	return p.Stub.Evaluate(c, i)
}

// nanAt returns NaN, without error, for cell i.
type nanAt struct {
	*meshtest.Stub
	i int
}

func (n nanAt) Evaluate(c mesh.Criterion, i int) (float64, error) {
	if i == n.i {
		return math.NaN(), nil
	}
	return n.Stub.Evaluate(c, i)
}

func classify(t *testing.T, c mesh.Criterion, types mesh.CellType, n int, d Domain, strict bool, series []*Series, opts Options) *AnalysisTask {
	t.Helper()
	at, err := NewAnalysisTask(c, types, n, d, strict, series, opts)
	require.NoError(t, err)
	require.NoError(t, at.Execute())
	require.Equal(t, Completed, at.State())
	return at
}

func TestClassOf(t *testing.T) {
	for _, test := range []struct {
		v    float64
		want int
	}{
		{v: 0, want: 0},
		{v: 24.9, want: 0},
		{v: 25, want: 1},
		{v: 50, want: 2},
		{v: 74.99, want: 2},
		{v: 99, want: 3},
		{v: 100, want: 3},
		{v: 150, want: 3},
		{v: -10, want: 3},
		{v: math.NaN(), want: 3},
		{v: math.Inf(1), want: 3},
		{v: math.Inf(-1), want: 3},
	} {
		t.Run(fmt.Sprint(test.v), func(t *testing.T) {
			if got := classOf(test.v, 0, 25, 4); got != test.want {
				t.Errorf("classOf(%g) = %d, want %d", test.v, got, test.want)
			}
		})
	}
}

func TestAnalysisBinning(t *testing.T) {
	s := NewSeries("s", meshtest.Uniform(mesh.Triangle, mesh.Oddy, 0, 25, 100, 50, 10, 99))
	at := classify(t, mesh.Oddy, mesh.Triangle, 4, Domain{0, 100}, false, []*Series{s}, quiet())

	counts, err := at.Counts()
	require.NoError(t, err)
	want := [][]int{{2}, {1}, {1}, {2}}
	if diff := pretty.Diff(counts, want); len(diff) > 0 {
		t.Errorf("counts: %v", diff)
	}
	for cl, cells := range [][]int{{0, 4}, {1}, {3}, {2, 5}} {
		got, err := at.CellIndices(cl, 0)
		require.NoError(t, err)
		require.Equal(t, cells, got, "class %d", cl)
	}
	require.Equal(t, 6, at.Result().Total(0))
	require.Equal(t, []string{"s"}, at.Result().Series())
	require.Equal(t, [][]int{{0, 4}, {1}, {3}, {2, 5}}, s.Classes())
}

func TestAnalysisCellTypeMask(t *testing.T) {
	stub := meshtest.Uniform(mesh.Triangle, mesh.Skew, 0.1, 0.2, 0.3).
		Add(mesh.Quadrangle, mesh.Skew, 0.4, 0.5)
	s := NewSeries("mixed", stub)

	at := classify(t, mesh.Skew, mesh.Triangle, 2, Domain{0, 1}, false, []*Series{s}, quiet())
	require.Equal(t, 3, at.Result().Total(0))

	at = classify(t, mesh.Skew, mesh.Triangle|mesh.Quadrangle, 2, Domain{0, 1}, false, []*Series{s}, quiet())
	require.Equal(t, 5, at.Result().Total(0))
}

func TestAnalysisStrict(t *testing.T) {
	stub := meshtest.Uniform(mesh.Hexahedron, mesh.ScaledJacobian, 10, 150, -20, 90)

	s := NewSeries("s", stub)
	at := classify(t, mesh.ScaledJacobian, mesh.Hexahedron, 4, Domain{0, 100}, true, []*Series{s}, quiet())
	require.Equal(t, [][]int{{1}, {0}, {0}, {1}}, at.Result().Counts())
	require.Equal(t, 2, at.Result().Total(0))

	at = classify(t, mesh.ScaledJacobian, mesh.Hexahedron, 4, Domain{0, 100}, false, []*Series{s}, quiet())
	require.Equal(t, [][]int{{1}, {0}, {0}, {3}}, at.Result().Counts())
	last, err := at.CellIndices(3, 0)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, last)
}

func TestAnalysisUnsupported(t *testing.T) {
	shapes := &meshtest.Stub{Cells: []meshtest.Cell{{Type: 0}, {Type: 0}}}
	values := meshtest.Uniform(mesh.Tetrahedron, mesh.VolumeSurface, math.NaN(), math.NaN())
	series := []*Series{NewSeries("shapes", shapes), NewSeries("values", values)}

	at := classify(t, mesh.VolumeSurface, mesh.AllCellTypes, 3, Domain{0, 1}, false, series, quiet())
	require.Equal(t, [][]int{{0, 0}, {0, 0}, {0, 0}}, at.Result().Counts())
	for _, w := range at.Workers() {
		require.True(t, w.OK())
	}
}

func TestAnalysisUsesCache(t *testing.T) {
	stub := meshtest.Uniform(mesh.Triangle, mesh.Oddy, 1, 2, 3, 4)
	s := NewSeries("s", stub)

	// Without a cache, every cell is evaluated each time and nothing is stored.
	classify(t, mesh.Oddy, mesh.Triangle, 2, Domain{0, 4}, false, []*Series{s}, quiet())
	require.Equal(t, 4, stub.Evaluations())
	require.False(t, s.IsCached(mesh.Oddy))

	rt, err := NewRangeTask(mesh.Oddy, mesh.Triangle, []*Series{s}, quiet())
	require.NoError(t, err)
	require.NoError(t, rt.Execute())

	stub.ResetEvaluations()
	at := classify(t, mesh.Oddy, mesh.Triangle, 2, rt.Domain(), false, []*Series{s}, quiet())
	require.Equal(t, 0, stub.Evaluations())
	require.Equal(t, [][]int{{2}, {2}}, at.Result().Counts())
}

// randomSeries builds series with a mix of cell types and unsupported
// cells.
func randomSeries(r *rand.Rand, n, cells int) []*Series {
	types := []mesh.CellType{mesh.Triangle, mesh.Quadrangle, mesh.Tetrahedron, 0}
	o := make([]*Series, n)
	for i := range o {
		stub := &meshtest.Stub{Cells: make([]meshtest.Cell, cells)}
		for j := range stub.Cells {
			v := r.Float64()*120 - 10
			if r.Intn(10) == 0 {
				v = math.NaN()
			}
			stub.Cells[j] = meshtest.Cell{
				Type:   types[r.Intn(len(types))],
				Values: map[mesh.Criterion]float64{mesh.Taper: v},
			}
		}
		o[i] = NewSeries(fmt.Sprintf("series%d", i), stub)
	}
	return o
}

func sortedIndices(r *Result) [][][]int {
	o := make([][][]int, len(r.indices))
	for s, classes := range r.indices {
		o[s] = make([][]int, len(classes))
		for cl, cells := range classes {
			c := append([]int{}, cells...)
			sort.Ints(c)
			o[s][cl] = c
		}
	}
	return o
}

func TestAnalysisDeterministic(t *testing.T) {
	series := randomSeries(rand.New(rand.NewSource(1)), 8, 500)
	d := Domain{0, 100}
	types := mesh.Triangle | mesh.Tetrahedron

	for _, strict := range []bool{false, true} {
		t.Run(fmt.Sprintf("strict=%v", strict), func(t *testing.T) {
			par := quiet()
			par.MaxWorkers = 3
			parallel := classify(t, mesh.Taper, types, 7, d, strict, series, par)
			require.True(t, parallel.Parallel())

			seq := quiet()
			seq.Sequential = true
			sequential := classify(t, mesh.Taper, types, 7, d, strict, series, seq)
			require.False(t, sequential.Parallel())

			require.Equal(t, sequential.Result().Counts(), parallel.Result().Counts())
			require.Equal(t, sortedIndices(sequential.Result()), sortedIndices(parallel.Result()))
		})
	}
}

func TestAnalysisPartialFailure(t *testing.T) {
	for _, seq := range []bool{false, true} {
		t.Run(fmt.Sprintf("sequential=%v", seq), func(t *testing.T) {
			// Cells before the failure are classified and then discarded.
			broken := failAt{Stub: meshtest.Uniform(mesh.Triangle, mesh.Oddy, 1, 2, 3, 4), i: 2}
			panicky := meshtest.Uniform(mesh.Triangle, mesh.Oddy, 1)
			panicky.Panic = "bad cell"
			good := meshtest.Uniform(mesh.Triangle, mesh.Oddy, 1, 3)

			series := []*Series{
				NewSeries("broken", broken),
				NewSeries("good", good),
				NewSeries("panicky", panicky),
			}
			opts := quiet()
			opts.Sequential = seq
			at := classify(t, mesh.Oddy, mesh.Triangle, 2, Domain{0, 4}, false, series, opts)

			require.Equal(t, [][]int{{0, 1, 0}, {0, 1, 0}}, at.Result().Counts())
			require.Equal(t, 0, at.Result().Total(0))
			require.Equal(t, 0, at.Result().Total(2))
			w := at.Workers()
			require.False(t, w[0].OK())
			require.True(t, w[1].OK())
			require.False(t, w[2].OK())
			require.Equal(t, [][]int{nil, nil}, series[0].Classes())
		})
	}
}

func TestAnalysisAllFailed(t *testing.T) {
	a := meshtest.Uniform(mesh.Triangle, mesh.Oddy, 1)
	a.Fail = errors.New("unreadable")
	at, err := NewAnalysisTask(mesh.Oddy, mesh.Triangle, 2, Domain{0, 1}, false, []*Series{NewSeries("a", a)}, quiet())
	require.NoError(t, err)
	err = at.Execute()
	require.True(t, errors.Is(err, ErrAllWorkersFailed), "got %v", err)
	require.Equal(t, Failed, at.State())
}

func TestAnalysisConfig(t *testing.T) {
	s := NewSeries("s", meshtest.Uniform(mesh.Triangle, mesh.Oddy, 1))
	for _, test := range []struct {
		name    string
		classes int
		types   mesh.CellType
		series  []*Series
		want    error
	}{
		{name: "zero classes", classes: 0, types: mesh.Triangle, series: []*Series{s}, want: ErrNoClasses},
		{name: "negative classes", classes: -3, types: mesh.Triangle, series: []*Series{s}, want: ErrNoClasses},
		{name: "no types", classes: 2, types: 0, series: []*Series{s}, want: ErrNoCellTypes},
		{name: "bad types", classes: 2, types: 1 << 10, series: []*Series{s}, want: ErrNoCellTypes},
		{name: "no series", classes: 2, types: mesh.Triangle, want: ErrNoSeries},
		{name: "nil series", classes: 2, types: mesh.Triangle, series: []*Series{s, nil}, want: ErrNilSeries},
		{name: "duplicate", classes: 2, types: mesh.Triangle, series: []*Series{s, s}, want: ErrDuplicateSeries},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewAnalysisTask(mesh.Oddy, test.types, test.classes, Domain{0, 1}, false, test.series, quiet())
			require.True(t, errors.Is(err, test.want), "got %v", err)
			var te *TaskError
			require.True(t, errors.As(err, &te))
			require.Equal(t, "AnalysisTask", te.Task)
		})
	}
}

func TestAnalysisNotExecuted(t *testing.T) {
	s := NewSeries("s", meshtest.Uniform(mesh.Triangle, mesh.Oddy, 1))
	at, err := NewAnalysisTask(mesh.Oddy, mesh.Triangle, 2, Domain{0, 1}, false, []*Series{s}, quiet())
	require.NoError(t, err)
	require.Nil(t, at.Result())
	_, err = at.Counts()
	require.True(t, errors.Is(err, ErrNotExecuted))
	_, err = at.CellIndices(0, 0)
	require.True(t, errors.Is(err, ErrNotExecuted))

	require.NoError(t, at.Execute())
	_, err = at.CellIndices(2, 0)
	require.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = at.CellIndices(0, 1)
	require.True(t, errors.Is(err, ErrIndexOutOfRange))
	require.True(t, errors.Is(at.Execute(), ErrAlreadyExecuted))
}

func TestClassValues(t *testing.T) {
	for _, test := range []struct {
		name string
		c    mesh.Criterion
		d    Domain
		n    int
		want []float64
	}{
		{name: "midpoints", c: mesh.Oddy, d: Domain{0, 100}, n: 4, want: []float64{12.5, 37.5, 62.5, 87.5}},
		{name: "negative", c: mesh.Skew, d: Domain{-2, 2}, n: 2, want: []float64{-1, 1}},
		{name: "validity", c: mesh.Validity, d: Domain{-1000, 1000}, n: 2, want: []float64{0, 1}},
		{name: "validity many", c: mesh.Validity, d: Domain{0, 1}, n: 4, want: []float64{0.125, 0.375, 0.625, 0.875}},
		{name: "none", c: mesh.Oddy, d: Domain{0, 1}, n: 0, want: nil},
	} {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, ClassValues(test.c, test.d, test.n))
		})
	}
}

func TestAnalysisPanicPartWay(t *testing.T) {
	run := func(seq bool) (*AnalysisTask, []*Series) {
		series := []*Series{
			NewSeries("bad", panicAt{Stub: meshtest.Uniform(mesh.Triangle, mesh.Oddy, 10, 20, 30, 40), i: 2}),
			NewSeries("good", meshtest.Uniform(mesh.Triangle, mesh.Oddy, 10, 60)),
		}
		opts := quiet()
		opts.Sequential = seq
		return classify(t, mesh.Oddy, mesh.Triangle, 4, Domain{0, 100}, false, series, opts), series
	}
	par, parSeries := run(false)
	seq, seqSeries := run(true)
	require.True(t, par.Parallel())
	require.False(t, seq.Parallel())

	want := [][]int{{0, 1}, {0, 0}, {0, 1}, {0, 0}}
	require.Equal(t, want, par.Result().Counts())
	require.Equal(t, want, seq.Result().Counts())
	require.Equal(t, 0, seq.Result().Total(0))
	for _, at := range []*AnalysisTask{par, seq} {
		w := at.Workers()
		require.False(t, w[0].OK())
		require.Contains(t, w[0].Err.Error(), "panic")
		require.True(t, w[1].OK())
	}
	empty := [][]int{nil, nil, nil, nil}
	require.Equal(t, empty, parSeries[0].Classes())
	require.Equal(t, empty, seqSeries[0].Classes())
}

func TestAnalysisStrictNaN(t *testing.T) {
	s := NewSeries("s", nanAt{Stub: meshtest.Uniform(mesh.Triangle, mesh.Oddy, 10, 0, 250), i: 1})
	at := classify(t, mesh.Oddy, mesh.Triangle, 4, Domain{0, 100}, true, []*Series{s}, quiet())
	require.Equal(t, [][]int{{1}, {0}, {0}, {1}}, at.Result().Counts())
	last, err := at.CellIndices(3, 0)
	require.NoError(t, err)
	require.Equal(t, []int{1}, last)
}

func TestAnalysisResultIsolated(t *testing.T) {
	s := NewSeries("s", meshtest.Uniform(mesh.Triangle, mesh.Oddy, 1, 2, 3))
	at := classify(t, mesh.Oddy, mesh.Triangle, 1, Domain{0, 4}, false, []*Series{s}, quiet())

	cells, err := at.CellIndices(0, 0)
	require.NoError(t, err)
	cells[0] = 99
	classes := s.Classes()
	classes[0][1] = 99
	own, err := s.CellIndices(0)
	require.NoError(t, err)
	own[2] = 99

	again, err := at.Result().CellIndices(0, 0)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, again)
	require.Equal(t, [][]int{{0, 1, 2}}, s.Classes())
}
