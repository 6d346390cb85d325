/*
Copyright © 2019 the InMAP authors.
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

import (
	"fmt"
	"strings"
)

// Criterion identifies a cell quality metric. The metric formulas
// themselves belong to the mesh backends; Criterion is only a key.
type Criterion int

// Quality criteria.
const (
	VolumeSurface Criterion = iota
	Paoletti
	Oddy
	Condition
	ScaledJacobian
	KnuppSkew
	KnuppShape
	KnuppVolume
	KnuppVolumeShape
	AspectRatioGamma
	AspectRatioBeta
	AspectRatioQ
	AngleMin
	AngleMax
	JacobianMin
	JacobianCenter
	AspectRatioCenter
	Skew
	Taper
	Stretch
	Warp
	WarpBase
	DiagonalRatio
	// Validity is a binary criterion: 1 for a valid cell, 0 otherwise.
	Validity

	numCriteria
)

var criterionNames = [numCriteria]string{
	"VolumeSurface",
	"Paoletti",
	"Oddy",
	"Condition",
	"ScaledJacobian",
	"KnuppSkew",
	"KnuppShape",
	"KnuppVolume",
	"KnuppVolumeShape",
	"AspectRatioGamma",
	"AspectRatioBeta",
	"AspectRatioQ",
	"AngleMin",
	"AngleMax",
	"JacobianMin",
	"JacobianCenter",
	"AspectRatioCenter",
	"Skew",
	"Taper",
	"Stretch",
	"Warp",
	"WarpBase",
	"DiagonalRatio",
	"Validity",
}

// Criteria returns every known criterion.
func Criteria() []Criterion {
	o := make([]Criterion, numCriteria)
	for i := range o {
		o[i] = Criterion(i)
	}
	return o
}

func (c Criterion) String() string {
	if c < 0 || c >= numCriteria {
		return fmt.Sprintf("Criterion(%d)", int(c))
	}
	return criterionNames[c]
}

// ParseCriterion returns the criterion with the given name,
// ignoring case.
func ParseCriterion(name string) (Criterion, error) {
	n := strings.TrimSpace(name)
	for i, cn := range criterionNames {
		if strings.EqualFold(cn, n) {
			return Criterion(i), nil
		}
	}
	return 0, fmt.Errorf("mesh: unknown criterion %q", name)
}

// Supported reports whether criterion c is defined for cell type t.
// t must be a single cell type.
func Supported(t CellType, c Criterion) bool {
	switch t {
	case Triangle, Quadrangle, Tetrahedron, Pyramid, Hexahedron, TriangularPrism:
	default:
		return false
	}
	switch c {
	case VolumeSurface, Paoletti, Oddy, Condition, KnuppSkew, KnuppShape,
		KnuppVolume, KnuppVolumeShape, JacobianMin:
		return true
	case ScaledJacobian:
		return t != Pyramid
	case AspectRatioGamma, AspectRatioQ:
		return t == Triangle || t == Tetrahedron
	case AspectRatioBeta:
		return t == Tetrahedron
	case AngleMin, AngleMax:
		return t == Triangle || t == Quadrangle
	case JacobianCenter, AspectRatioCenter, Skew, Taper, Stretch:
		return t == Quadrangle || t == Hexahedron
	case Warp:
		return t == Quadrangle
	case WarpBase:
		return t == Pyramid
	case DiagonalRatio, Validity:
		return t == Hexahedron
	}
	return false
}

// SupportedTypes returns the subset of mask for which c is defined.
func SupportedTypes(mask CellType, c Criterion) CellType {
	var o CellType
	for _, n := range cellTypeNames {
		if mask&n.t != 0 && Supported(n.t, c) {
			o |= n.t
		}
	}
	return o
}
