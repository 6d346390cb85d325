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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/spatialmodel/meshqual/config"
	"github.com/spatialmodel/meshqual/mesh"
)

// encode writes v in a structured format. It returns false if format is
// not structured.
func encode(w io.Writer, format string, v interface{}) (bool, error) {
	switch strings.ToLower(format) {
	case "json":
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return true, e.Encode(v)
	case "yaml", "yml":
		e := yaml.NewEncoder(w)
		if err := e.Encode(v); err != nil {
			return true, err
		}
		return true, e.Close()
	case "text", "":
		return false, nil
	}
	return true, fmt.Errorf("meshqual: invalid output format %q", format)
}

// writeReport writes a classification report. In text format each
// series is a column and each class is a row.
func writeReport(w io.Writer, format string, r *config.Report) error {
	if ok, err := encode(w, format, r); ok {
		return err
	}
	fmt.Fprintf(w, "criterion: %s\ncell types: %s\ndomain: [%g, %g]\n", r.Criterion, r.CellTypes, r.Min, r.Max)
	if r.Strict {
		fmt.Fprintln(w, "values outside of the domain are not counted")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "class\tvalue\t")
	for _, s := range r.Series {
		fmt.Fprintf(tw, "%s\t", s.Name)
	}
	fmt.Fprintln(tw)
	for cl, v := range r.ClassValues {
		fmt.Fprintf(tw, "%d\t%.4g\t", cl, v)
		for _, s := range r.Series {
			if s.Error != "" {
				fmt.Fprint(tw, "-\t")
				continue
			}
			fmt.Fprintf(tw, "%d\t", s.Counts[cl])
		}
		fmt.Fprintln(tw)
	}
	fmt.Fprint(tw, "total\t\t")
	for _, s := range r.Series {
		fmt.Fprintf(tw, "%d\t", s.Total)
	}
	fmt.Fprintln(tw)
	fmt.Fprint(tw, "mean\t\t")
	for _, s := range r.Series {
		fmt.Fprintf(tw, "%.4g\t", s.Mean)
	}
	fmt.Fprintln(tw)
	if err := tw.Flush(); err != nil {
		return err
	}
	writeErrors(w, r)
	return nil
}

// writeRange writes the result of a range computation.
func writeRange(w io.Writer, format string, r *config.Report) error {
	if ok, err := encode(w, format, r); ok {
		return err
	}
	fmt.Fprintf(w, "%s over %s: [%g, %g]\n", r.Criterion, r.CellTypes, r.Min, r.Max)
	writeErrors(w, r)
	return nil
}

func writeErrors(w io.Writer, r *config.Report) {
	for _, s := range r.Series {
		if s.Error != "" {
			fmt.Fprintf(w, "series %s failed: %s\n", s.Name, s.Error)
		}
	}
}

type criterionInfo struct {
	Name      string `json:"name" yaml:"name"`
	CellTypes string `json:"cell_types" yaml:"cell_types"`
}

// writeCriteria lists every criterion with the cell types it is
// defined for.
func writeCriteria(w io.Writer, format string) error {
	var info []criterionInfo
	for _, c := range mesh.Criteria() {
		info = append(info, criterionInfo{
			Name:      c.String(),
			CellTypes: mesh.SupportedTypes(mesh.AllCellTypes, c).String(),
		})
	}
	if ok, err := encode(w, format, info); ok {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "criterion\tcell types")
	for _, ci := range info {
		fmt.Fprintf(tw, "%s\t%s\n", ci.Name, ci.CellTypes)
	}
	return tw.Flush()
}
