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

// Package hilbert provides a mesh of quadrangular S2 cells, which are
// ordered along a Hilbert curve.
package hilbert

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"

	"github.com/spatialmodel/meshqual/mesh"
)

// EarthRadius is the radius of the Earth at the equator.
const EarthRadius = 6.3781e6 // meters

// maxLevel is the depth of the S2 cell hierarchy.
const maxLevel = 30

// Make sure our mesh fulfills the interface.
var _ mesh.Source = &Mesh2D{}

// Mesh2D represents a 2D quasi-rectangular mesh.
type Mesh2D struct {
	cells []s2.CellID
}

// Bounds returns the rectangle spanning the given corners, in degrees.
func Bounds(south, west, north, east float64) s2.Rect {
	return s2.RectFromLatLng(s2.LatLngFromDegrees(south, west)).
		AddPoint(s2.LatLngFromDegrees(north, east))
}

// NewMesh2D returns a new 2D mesh at the specified resolution level,
// approximately covering the area specified by b.
// Information regarding resolution levels is available at
// https://s2geometry.io/resources/s2cell_statistics.html.
func NewMesh2D(b s2.Region, level int) (*Mesh2D, error) {
	if level < 0 || level > maxLevel {
		return nil, fmt.Errorf("hilbert: level %d out of range [0,%d]", level, maxLevel)
	}
	rc := &s2.RegionCoverer{
		MinLevel: level,
		MaxLevel: level,
		MaxCells: math.MaxInt32,
	}
	return &Mesh2D{cells: rc.Covering(b)}, nil
}

// FromCellIDs returns a mesh made of the given cells.
func FromCellIDs(ids []s2.CellID) *Mesh2D { return &Mesh2D{cells: ids} }

// Len returns the number of cells in this mesh.
func (m *Mesh2D) Len() int { return len(m.cells) }

// CellID returns the S2 identifier of cell i.
func (m *Mesh2D) CellID(i int) s2.CellID { return m.cells[i] }

// CellType returns mesh.Quadrangle: all S2 cells have four edges.
func (m *Mesh2D) CellType(i int) (mesh.CellType, error) {
	if !m.cells[i].IsValid() {
		return 0, fmt.Errorf("hilbert: cell %d (%v): %w", i, m.cells[i], mesh.ErrUnsupportedShape)
	}
	return mesh.Quadrangle, nil
}

// Threadable returns true. The mesh is never modified after creation.
func (m *Mesh2D) Threadable() bool { return true }

// Evaluate computes criterion c for cell i. Supported criteria are
// VolumeSurface (the cell area in square meters), Stretch, AngleMin and
// AngleMax (interior angles in degrees).
func (m *Mesh2D) Evaluate(c mesh.Criterion, i int) (float64, error) {
	cell := s2.CellFromCellID(m.cells[i])
	switch c {
	case mesh.VolumeSurface:
		return cell.ApproxArea() * EarthRadius * EarthRadius, nil
	case mesh.Stretch:
		return stretch(cell), nil
	case mesh.AngleMin:
		min, _ := angles(cell)
		return min, nil
	case mesh.AngleMax:
		_, max := angles(cell)
		return max, nil
	}
	return 0, fmt.Errorf("hilbert: %v for cell %d: %w", c, i, mesh.ErrUnsupportedCriterion)
}

// distance returns the great circle distance between two points in meters.
func distance(a, b s2.Point) float64 {
	return s2.LatLngFromPoint(a).Distance(s2.LatLngFromPoint(b)).Radians() * EarthRadius
}

// stretch returns sqrt(2) times the shortest edge divided by the longest
// diagonal. It is 1 for a square.
func stretch(c s2.Cell) float64 {
	minEdge := math.Inf(1)
	for k := 0; k < 4; k++ {
		minEdge = math.Min(minEdge, distance(c.Vertex(k), c.Vertex((k+1)%4)))
	}
	maxDiag := math.Max(distance(c.Vertex(0), c.Vertex(2)), distance(c.Vertex(1), c.Vertex(3)))
	return math.Sqrt2 * minEdge / maxDiag
}

// angles returns the smallest and largest interior angles of the cell, in
// degrees, measured between the tangents of the edges at each vertex.
func angles(c s2.Cell) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for k := 0; k < 4; k++ {
		v := c.Vertex(k).Vector
		prev := c.Vertex((k + 3) % 4).Vector
		next := c.Vertex((k + 1) % 4).Vector
		tp := prev.Sub(v.Mul(prev.Dot(v)))
		tn := next.Sub(v.Mul(next.Dot(v)))
		a := tp.Angle(tn).Degrees()
		min = math.Min(min, a)
		max = math.Max(max, a)
	}
	return min, max
}
