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

/*Package mesh defines the interface that mesh backends implement to
expose their cells for quality analysis.*/
package mesh

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedShape is returned when a cell cannot be mapped to
	// one of the known cell types (e.g. a pentagon).
	ErrUnsupportedShape = errors.New("mesh: unsupported cell shape")

	// ErrUnsupportedCriterion is returned when a quality criterion
	// is not defined for the shape of a cell.
	ErrUnsupportedCriterion = errors.New("mesh: criterion not supported for cell")
)

// Source describes a mesh backend viewed as an ordered, fixed sequence
// of cells.
type Source interface {
	// Len is the total number of cells in this Source.
	Len() int

	// CellType returns the type of the cell at index i (where i < Len()).
	// It returns an error wrapping ErrUnsupportedShape if the cell
	// does not match any known CellType.
	CellType(i int) (CellType, error)

	// Evaluate returns the value of criterion c for the cell at index i.
	// It returns an error wrapping ErrUnsupportedCriterion if c is not
	// defined for that cell.
	Evaluate(c Criterion, i int) (float64, error)

	// Threadable reports whether this Source may be read concurrently
	// with other Sources. Concurrent access within a single Source
	// is never performed.
	Threadable() bool
}

// IsUnsupported reports whether err marks a cell that should be skipped
// rather than treated as a failure.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedShape) || errors.Is(err, ErrUnsupportedCriterion)
}

// CellType is a bit flag identifying a cell shape. Combinations of
// CellTypes are used as filter masks.
type CellType uint

// Cell types.
const (
	Triangle CellType = 1 << iota
	Quadrangle
	Tetrahedron
	Pyramid
	Hexahedron
	TriangularPrism

	// AllCellTypes is the union of every known cell type.
	AllCellTypes = Triangle | Quadrangle | Tetrahedron | Pyramid | Hexahedron | TriangularPrism
)

var cellTypeNames = []struct {
	t    CellType
	name string
}{
	{Triangle, "Triangle"},
	{Quadrangle, "Quadrangle"},
	{Tetrahedron, "Tetrahedron"},
	{Pyramid, "Pyramid"},
	{Hexahedron, "Hexahedron"},
	{TriangularPrism, "TriangularPrism"},
}

// Valid reports whether t is non-empty and only contains known cell types.
func (t CellType) Valid() bool {
	return t != 0 && t&^AllCellTypes == 0
}

// Volumic reports whether every type in t is a polyhedron.
func (t CellType) Volumic() bool {
	return t != 0 && t&(Triangle|Quadrangle) == 0
}

func (t CellType) String() string {
	if t == 0 {
		return "None"
	}
	var names []string
	for _, n := range cellTypeNames {
		if t&n.t != 0 {
			names = append(names, n.name)
		}
	}
	if rest := t &^ AllCellTypes; rest != 0 {
		names = append(names, fmt.Sprintf("CellType(%#x)", uint(rest)))
	}
	return strings.Join(names, "|")
}

// ParseCellType returns the cell type with the given name. Short forms
// ("tri", "quad", "tet", "pyr", "hex", "prism") and "all" are accepted.
func ParseCellType(name string) (CellType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "triangle", "tri":
		return Triangle, nil
	case "quadrangle", "quad":
		return Quadrangle, nil
	case "tetrahedron", "tet", "tetra":
		return Tetrahedron, nil
	case "pyramid", "pyr":
		return Pyramid, nil
	case "hexahedron", "hex", "hexa":
		return Hexahedron, nil
	case "triangularprism", "prism":
		return TriangularPrism, nil
	case "all":
		return AllCellTypes, nil
	}
	return 0, fmt.Errorf("mesh: unknown cell type %q", name)
}

// ParseCellTypes returns the union of the named cell types.
func ParseCellTypes(names ...string) (CellType, error) {
	var t CellType
	for _, n := range names {
		nt, err := ParseCellType(n)
		if err != nil {
			return 0, err
		}
		t |= nt
	}
	return t, nil
}
