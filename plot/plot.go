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

// Package plot turns classification results into data that can be
// drawn as histograms.
package plot

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/plotter"

	"github.com/spatialmodel/meshqual/qualif"
)

var _ plotter.XYer = XYs{}

// XYs implements the gonum.org/v1/plot/plotter.XYer interface.
type XYs []XY

// XY is an x and y value.
type XY struct{ X, Y float64 }

// Len returns the number of X,Y pairs.
func (xys XYs) Len() int {
	return len(xys)
}

// XY return the x and y values at index i, where i < Len()
func (xys XYs) XY(i int) (float64, float64) {
	return xys[i].X, xys[i].Y
}

// Histogram returns one curve per series of r, with the class value
// on the X axis and the number of cells in the class on the Y axis.
// If normalize is true, the counts of each series are divided by the
// number of classified cells in the series, so that they sum to 1.
// Series with no classified cells are left at zero.
func Histogram(r *qualif.Result, classValues []float64, normalize bool) ([]XYs, error) {
	if len(classValues) != r.Classes() {
		return nil, fmt.Errorf("plot: %d class values for %d classes", len(classValues), r.Classes())
	}
	o := make([]XYs, len(r.Series()))
	for s := range o {
		y := make([]float64, r.Classes())
		for cl := range y {
			y[cl] = float64(r.Count(cl, s))
		}
		if total := floats.Sum(y); normalize && total > 0 {
			floats.Scale(1/total, y)
		}
		xy := make(XYs, len(y))
		for cl := range xy {
			xy[cl] = XY{X: classValues[cl], Y: y[cl]}
		}
		o[s] = xy
	}
	return o, nil
}
