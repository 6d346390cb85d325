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

// Package table provides cells whose criterion values have been computed
// elsewhere and stored in a CSV or Excel file.
//
// The first row of the file holds the column names: "type" followed by
// one criterion name per column. Each following row is a cell. A type
// that is not a single known cell type marks a cell with an unsupported
// shape, and an empty value marks a criterion the cell does not support.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/tealeg/xlsx"

	"github.com/spatialmodel/meshqual/mesh"
)

// Make sure Table fulfills the interface.
var _ mesh.Source = &Table{}

// Table holds per-cell criterion values.
type Table struct {
	types  []mesh.CellType
	values map[mesh.Criterion][]float64

	threadable bool
}

// New returns an empty table. threadable sets the answer of Threadable.
func New(threadable bool) *Table {
	return &Table{
		values:     make(map[mesh.Criterion][]float64),
		threadable: threadable,
	}
}

// Append adds a cell of type t with the given criterion values. A zero
// type means the shape is unsupported.
func (t *Table) Append(ct mesh.CellType, values map[mesh.Criterion]float64) {
	n := len(t.types)
	t.types = append(t.types, ct)
	for c, col := range t.values {
		v, ok := values[c]
		if !ok {
			v = math.NaN()
		}
		t.values[c] = append(col, v)
	}
	for c, v := range values {
		if _, ok := t.values[c]; ok {
			continue
		}
		col := make([]float64, n+1)
		for i := 0; i < n; i++ {
			col[i] = math.NaN()
		}
		col[n] = v
		t.values[c] = col
	}
}

// Len returns the number of cells.
func (t *Table) Len() int { return len(t.types) }

// Threadable reports whether the table may be read concurrently with
// other series.
func (t *Table) Threadable() bool { return t.threadable }

// Criteria returns the criteria that have a column in the table.
func (t *Table) Criteria() []mesh.Criterion {
	var o []mesh.Criterion
	for _, c := range mesh.Criteria() {
		if _, ok := t.values[c]; ok {
			o = append(o, c)
		}
	}
	return o
}

// CellType returns the type of cell i.
func (t *Table) CellType(i int) (mesh.CellType, error) {
	if t.types[i] == 0 {
		return 0, fmt.Errorf("table: cell %d: %w", i, mesh.ErrUnsupportedShape)
	}
	return t.types[i], nil
}

// Evaluate returns the stored value of c for cell i.
func (t *Table) Evaluate(c mesh.Criterion, i int) (float64, error) {
	if t.types[i] == 0 {
		return 0, fmt.Errorf("table: cell %d: %w", i, mesh.ErrUnsupportedShape)
	}
	col, ok := t.values[c]
	if !ok || math.IsNaN(col[i]) {
		return 0, fmt.Errorf("table: %v for cell %d: %w", c, i, mesh.ErrUnsupportedCriterion)
	}
	return col[i], nil
}

// Open reads the table in the file at path, which may contain environment
// variables. Files ending in ".xlsx" are read as Excel workbooks; anything
// else is read as CSV.
func Open(path string, threadable bool) (*Table, error) {
	path = os.ExpandEnv(path)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, threadable)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: %v", err)
	}
	defer f.Close()
	t, err := ReadCSV(f, threadable)
	if err != nil {
		return nil, fmt.Errorf("table: reading %s: %v", path, err)
	}
	return t, nil
}

// ReadCSV reads a table from CSV data.
func ReadCSV(r io.Reader, threadable bool) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table: while reading CSV: %v", err)
	}
	return fromRecords(recs, threadable)
}

// ReadXLSX reads a table from the first sheet of the Excel workbook at
// path.
func ReadXLSX(path string, threadable bool) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("table: opening %s: %v", path, err)
	}
	if len(f.Sheets) == 0 {
		return nil, fmt.Errorf("table: %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	recs := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		// Skip blank rows
		if len(row.Cells) == 0 {
			continue
		}
		rec := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			rec[j] = cell.Value
		}
		recs = append(recs, rec)
	}
	t, err := fromRecords(recs, threadable)
	if err != nil {
		return nil, fmt.Errorf("table: reading %s: %v", path, err)
	}
	return t, nil
}

// fromRecords builds a table from a header row and one row per cell.
func fromRecords(recs [][]string, threadable bool) (*Table, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("table: missing header row")
	}
	header := recs[0]
	if len(header) == 0 || !strings.EqualFold(strings.TrimSpace(header[0]), "type") {
		return nil, fmt.Errorf("table: first column must be \"type\"")
	}
	cols := make([]mesh.Criterion, len(header)-1)
	for j, name := range header[1:] {
		c, err := mesh.ParseCriterion(name)
		if err != nil {
			return nil, fmt.Errorf("table: column %d: %v", j+2, err)
		}
		cols[j] = c
	}

	t := New(threadable)
	for _, c := range cols {
		if _, ok := t.values[c]; ok {
			return nil, fmt.Errorf("table: duplicate column %v", c)
		}
		t.values[c] = nil
	}
	for i, rec := range recs[1:] {
		var ct mesh.CellType
		if len(rec) > 0 {
			ct = cellType(rec[0])
		}
		t.types = append(t.types, ct)
		for j, c := range cols {
			v := math.NaN()
			if j+1 < len(rec) {
				s := strings.TrimSpace(rec[j+1])
				if s != "" {
					var err error
					v, err = cast.ToFloat64E(s)
					if err != nil {
						return nil, fmt.Errorf("table: row %d, column %v: %v", i+2, c, err)
					}
				}
			}
			t.values[c] = append(t.values[c], v)
		}
	}
	return t, nil
}

// cellType returns the single cell type named s, or zero.
func cellType(s string) mesh.CellType {
	ct, err := mesh.ParseCellType(s)
	if err != nil || ct == mesh.AllCellTypes {
		return 0
	}
	return ct
}
