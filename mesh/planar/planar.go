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

// Package planar provides a mesh of 2D polygonal cells.
package planar

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"github.com/spatialmodel/meshqual/mesh"
)

// Make sure Mesh fulfills the interface.
var _ mesh.Source = &Mesh{}

// Mesh is a set of planar polygon cells. Cells with three vertices are
// triangles and cells with four are quadrangles; any other polygon,
// including one with holes, has an unsupported shape.
type Mesh struct {
	cells []geom.Polygonal
}

// New returns a mesh made of the given polygons.
func New(cells ...geom.Polygonal) *Mesh {
	return &Mesh{cells: cells}
}

// NewGridRegular creates a grid of nx by ny rectangles of size dx by dy
// whose lower left corner is at (x0, y0).
func NewGridRegular(nx, ny int, dx, dy, x0, y0 float64) *Mesh {
	m := &Mesh{cells: make([]geom.Polygonal, 0, nx*ny)}
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			x := x0 + float64(ix)*dx
			y := y0 + float64(iy)*dy
			m.cells = append(m.cells, geom.Polygon([]geom.Path{{
				{X: x, Y: y}, {X: x + dx, Y: y},
				{X: x + dx, Y: y + dy}, {X: x, Y: y + dy}, {X: x, Y: y}}}))
		}
	}
	return m
}

// ReadShapefile reads the polygons in the shapefile at path. Shapes
// that are not polygons are kept as cells with an unsupported shape.
func ReadShapefile(path string) (*Mesh, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("planar: opening shapefile: %v", err)
	}
	defer d.Close()
	m := new(Mesh)
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		p, _ := g.(geom.Polygonal)
		m.cells = append(m.cells, p)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("planar: reading shapefile %s: %v", path, err)
	}
	return m, nil
}

// Len returns the number of cells.
func (m *Mesh) Len() int { return len(m.cells) }

// Threadable returns true. Cells are never modified.
func (m *Mesh) Threadable() bool { return true }

// vertices returns the distinct vertices of cell i, in order, or nil if
// the cell is not a simple polygon.
func (m *Mesh) vertices(i int) []geom.Point {
	p, ok := m.cells[i].(geom.Polygon)
	if !ok || len(p) != 1 {
		return nil
	}
	v := p[0]
	if len(v) > 1 && v[0] == v[len(v)-1] {
		v = v[:len(v)-1]
	}
	return v
}

// CellType returns the type of cell i.
func (m *Mesh) CellType(i int) (mesh.CellType, error) {
	switch n := len(m.vertices(i)); n {
	case 3:
		return mesh.Triangle, nil
	case 4:
		return mesh.Quadrangle, nil
	default:
		return 0, fmt.Errorf("planar: cell %d with %d vertices: %w", i, n, mesh.ErrUnsupportedShape)
	}
}

// Evaluate computes criterion c for cell i. Supported criteria are
// VolumeSurface (the cell area), AngleMin and AngleMax (in degrees), and,
// for quadrangles, Stretch.
func (m *Mesh) Evaluate(c mesh.Criterion, i int) (float64, error) {
	t, err := m.CellType(i)
	if err != nil {
		return 0, err
	}
	if !mesh.Supported(t, c) {
		return 0, fmt.Errorf("planar: %v for %v cell %d: %w", c, t, i, mesh.ErrUnsupportedCriterion)
	}
	v := m.vertices(i)
	switch c {
	case mesh.VolumeSurface:
		return math.Abs(m.cells[i].Area()), nil
	case mesh.AngleMin:
		min, _ := angles(v)
		return min, nil
	case mesh.AngleMax:
		_, max := angles(v)
		return max, nil
	case mesh.Stretch:
		return stretch(v), nil
	}
	return 0, fmt.Errorf("planar: %v for cell %d: %w", c, i, mesh.ErrUnsupportedCriterion)
}

func dist(a, b geom.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// angles returns the smallest and largest interior angles, in degrees,
// of the convex polygon with vertices v.
func angles(v []geom.Point) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	n := len(v)
	for k := range v {
		a, b, c := v[(k+n-1)%n], v[k], v[(k+1)%n]
		ux, uy := a.X-b.X, a.Y-b.Y
		wx, wy := c.X-b.X, c.Y-b.Y
		ang := math.Atan2(math.Abs(ux*wy-uy*wx), ux*wx+uy*wy) * 180 / math.Pi
		min = math.Min(min, ang)
		max = math.Max(max, ang)
	}
	return min, max
}

// stretch returns sqrt(2) times the shortest edge divided by the longest
// diagonal of quadrangle v.
func stretch(v []geom.Point) float64 {
	minEdge := math.Inf(1)
	for k := range v {
		minEdge = math.Min(minEdge, dist(v[k], v[(k+1)%4]))
	}
	maxDiag := math.Max(dist(v[0], v[2]), dist(v[1], v[3]))
	return math.Sqrt2 * minEdge / maxDiag
}
