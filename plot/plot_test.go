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

package plot

import (
	"reflect"
	"testing"

	"github.com/kr/pretty"

	"github.com/spatialmodel/meshqual/mesh"
	"github.com/spatialmodel/meshqual/mesh/meshtest"
	"github.com/spatialmodel/meshqual/qualif"
)

func TestHistogram(t *testing.T) {
	series := []*qualif.Series{
		qualif.NewSeries("a", meshtest.Uniform(mesh.Hexahedron, mesh.Validity, 0, 1, 1, 1)),
		qualif.NewSeries("b", meshtest.Uniform(mesh.Hexahedron, mesh.Validity)),
	}
	at, err := qualif.NewAnalysisTask(mesh.Validity, mesh.Hexahedron, 2, qualif.Domain{Min: 0, Max: 1}, false, series, qualif.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := at.Execute(); err != nil {
		t.Fatal(err)
	}

	for _, test := range []struct {
		normalize bool
		want      []XYs
	}{
		{
			normalize: false,
			want:      []XYs{{{X: 0, Y: 1}, {X: 1, Y: 3}}, {{X: 0, Y: 0}, {X: 1, Y: 0}}},
		},
		{
			normalize: true,
			want:      []XYs{{{X: 0, Y: 0.25}, {X: 1, Y: 0.75}}, {{X: 0, Y: 0}, {X: 1, Y: 0}}},
		},
	} {
		t.Run(pretty.Sprint(test.normalize), func(t *testing.T) {
			got, err := Histogram(at.Result(), at.ClassValues(), test.normalize)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("histogram: %v", pretty.Diff(got, test.want))
			}
		})
	}

	if _, err := Histogram(at.Result(), []float64{1}, false); err == nil {
		t.Error("expected an error for mismatched class values")
	}
}
