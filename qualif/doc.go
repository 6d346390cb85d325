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

/*
Package qualif computes histograms of cell quality criteria over groups of
mesh cells.

A Series wraps a mesh.Source and caches criterion values. Two tasks operate
on groups of series:

	RangeTask     finds the range of a criterion over the cells of the
	              selected types, caching values as it goes.
	AnalysisTask  splits a domain into classes and counts the cells of each
	              series that fall in each class.

When every series in a task is threadable, each series is processed by its
own goroutine and the per-series results are merged once all of them have
finished. Otherwise all series are processed one after the other on the
calling goroutine. Both paths give the same counts and the same cells in
each class.

Cells whose shape or criterion value is unsupported are skipped. A series
that fails contributes nothing to the result; a task only fails when all of
its series fail or when it is misconfigured.

A typical use is:

	rt, err := qualif.NewRangeTask(mesh.ScaledJacobian, mesh.Hexahedron, series, qualif.Options{})
	if err != nil {
		return err
	}
	if err := rt.Execute(); err != nil {
		return err
	}
	at, err := qualif.NewAnalysisTask(mesh.ScaledJacobian, mesh.Hexahedron, 10, rt.Domain(), false, series, qualif.Options{})
	if err != nil {
		return err
	}
	if err := at.Execute(); err != nil {
		return err
	}
	counts := at.Result().Counts()
*/
package qualif
