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
	"testing"
)

func TestCellTypeString(t *testing.T) {
	tests := []struct {
		t    CellType
		want string
	}{
		{0, "None"},
		{Triangle, "Triangle"},
		{Triangle | Hexahedron, "Triangle|Hexahedron"},
		{AllCellTypes, "Triangle|Quadrangle|Tetrahedron|Pyramid|Hexahedron|TriangularPrism"},
		{Quadrangle | 1<<8, "Quadrangle|CellType(0x100)"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			if got := test.t.String(); got != test.want {
				t.Errorf("%q != %q", got, test.want)
			}
		})
	}
}

func TestCellTypeValid(t *testing.T) {
	if CellType(0).Valid() {
		t.Error("empty mask should be invalid")
	}
	if (Triangle | 1<<6).Valid() {
		t.Error("unknown bit should be invalid")
	}
	if !AllCellTypes.Valid() {
		t.Error("AllCellTypes should be valid")
	}
	if !(Hexahedron | Pyramid).Volumic() {
		t.Error("hexahedra and pyramids are volumic")
	}
	if (Hexahedron | Quadrangle).Volumic() {
		t.Error("quadrangles are not volumic")
	}
}

func TestParseCellTypes(t *testing.T) {
	got, err := ParseCellTypes("tri", "Quadrangle", " hex ")
	if err != nil {
		t.Fatal(err)
	}
	if want := Triangle | Quadrangle | Hexahedron; got != want {
		t.Errorf("%v != %v", got, want)
	}
	if _, err := ParseCellTypes("pentagon"); err == nil {
		t.Error("expected an error for an unknown cell type")
	}
}

func TestParseCriterion(t *testing.T) {
	for _, c := range Criteria() {
		t.Run(c.String(), func(t *testing.T) {
			got, err := ParseCriterion(c.String())
			if err != nil {
				t.Fatal(err)
			}
			if got != c {
				t.Errorf("%v != %v", got, c)
			}
		})
	}
	if got, _ := ParseCriterion("scaledjacobian"); got != ScaledJacobian {
		t.Errorf("case insensitive parse: got %v", got)
	}
	if _, err := ParseCriterion("beauty"); err == nil {
		t.Error("expected an error for an unknown criterion")
	}
	if s := Criterion(99).String(); s != "Criterion(99)" {
		t.Errorf("unexpected name %q", s)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		t    CellType
		c    Criterion
		want bool
	}{
		{Pyramid, ScaledJacobian, false},
		{Hexahedron, ScaledJacobian, true},
		{Tetrahedron, AspectRatioBeta, true},
		{Triangle, AspectRatioBeta, false},
		{Quadrangle, Warp, true},
		{Hexahedron, Validity, true},
		{Quadrangle, Validity, false},
		{Triangle | Quadrangle, Oddy, false},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v_%v", test.t, test.c), func(t *testing.T) {
			if got := Supported(test.t, test.c); got != test.want {
				t.Errorf("%v != %v", got, test.want)
			}
		})
	}
	if got := SupportedTypes(AllCellTypes, Stretch); got != Quadrangle|Hexahedron {
		t.Errorf("SupportedTypes: %v", got)
	}
}

func TestIsUnsupported(t *testing.T) {
	if !IsUnsupported(fmt.Errorf("cell 3: %w", ErrUnsupportedShape)) {
		t.Error("wrapped shape error should be unsupported")
	}
	if !IsUnsupported(ErrUnsupportedCriterion) {
		t.Error("criterion error should be unsupported")
	}
	if IsUnsupported(fmt.Errorf("disk on fire")) {
		t.Error("other errors are not unsupported")
	}
}
