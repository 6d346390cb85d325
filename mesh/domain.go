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

package mesh

import "math"

// bound is the closed-form range of a criterion for one cell type.
type bound struct{ min, max float64 }

const huge = math.MaxFloat64

// Bounds shared by every cell type.
var commonBounds = map[Criterion]bound{
	VolumeSurface:    {-huge, huge},
	Paoletti:         {0, 1},
	Oddy:             {0, huge},
	Condition:        {1, huge},
	KnuppSkew:        {0, 1},
	KnuppShape:       {0, 1},
	KnuppVolume:      {-1, 1},
	KnuppVolumeShape: {-1, 1},
	JacobianMin:      {-huge, huge},
}

// Bounds that depend on the cell type. A criterion is listed here or in
// commonBounds exactly when Supported reports it for the type.
var typeBounds = map[CellType]map[Criterion]bound{
	Triangle: {
		ScaledJacobian:   {-1, 1},
		AspectRatioGamma: {-huge, huge},
		AspectRatioQ:     {-1, 1},
		AngleMin:         {-180, 60},
		AngleMax:         {60, 180},
	},
	Quadrangle: {
		ScaledJacobian:    {-1, 1},
		AngleMin:          {-180, 90},
		AngleMax:          {-90, 180},
		JacobianCenter:    {-huge, huge},
		AspectRatioCenter: {1, huge},
		Skew:              {0, 1},
		Taper:             {0, huge},
		Stretch:           {0, 1},
		Warp:              {0, 90},
	},
	Tetrahedron: {
		ScaledJacobian:   {-1, 1},
		AspectRatioGamma: {-huge, huge},
		AspectRatioBeta:  {1, huge},
		AspectRatioQ:     {-1, 1},
	},
	Pyramid: {
		WarpBase: {0, 90},
	},
	Hexahedron: {
		ScaledJacobian:    {-1, 1},
		JacobianCenter:    {-huge, huge},
		AspectRatioCenter: {1, huge},
		Skew:              {0, 1},
		Taper:             {0, huge},
		Stretch:           {0, 1},
		DiagonalRatio:     {0, 1},
		Validity:          {0, 1},
	},
	TriangularPrism: {
		ScaledJacobian: {-1, 1},
	},
}

func typeBound(t CellType, c Criterion) (bound, bool) {
	if _, ok := typeBounds[t]; !ok {
		return bound{}, false
	}
	if b, ok := commonBounds[c]; ok {
		return b, true
	}
	b, ok := typeBounds[t][c]
	return b, ok
}

// TheoreticalDomain returns the range that criterion c can take over
// cells of the types in mask, from the closed-form bounds of each type.
// Unbounded ends are ±math.MaxFloat64. ok is false if c is not defined
// for any type in mask.
func TheoreticalDomain(c Criterion, mask CellType) (min, max float64, ok bool) {
	min, max = huge, -huge
	for _, n := range cellTypeNames {
		if mask&n.t == 0 {
			continue
		}
		b, found := typeBound(n.t, c)
		if !found {
			continue
		}
		min = math.Min(min, b.min)
		max = math.Max(max, b.max)
		ok = true
	}
	return min, max, ok
}
