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

package qualif

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned for cell or class indices outside
	// of their valid range.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotCached is returned by Series.CachedValue when no value
	// has been stored for the requested criterion and cell.
	ErrNotCached = errors.New("criterion value not cached")

	// ErrSeriesBusy is returned when a series is already held by a
	// running task.
	ErrSeriesBusy = errors.New("series is in use by a running task")

	// Configuration errors, returned before any work is dispatched.
	ErrNoClasses       = errors.New("number of classes must be positive")
	ErrNoCellTypes     = errors.New("no valid cell types selected")
	ErrNoSeries        = errors.New("no series to analyse")
	ErrNilSeries       = errors.New("nil series")
	ErrDuplicateSeries = errors.New("series appears more than once in task")

	// ErrAlreadyExecuted is returned when a task is executed twice.
	ErrAlreadyExecuted = errors.New("task has already been executed")

	// ErrNotExecuted is returned when results are requested from a task
	// that has not completed.
	ErrNotExecuted = errors.New("task has not completed")

	// ErrAllWorkersFailed is returned when no series could be processed.
	ErrAllWorkersFailed = errors.New("every series failed")
)

// IndexError reports an out-of-range cell index.
type IndexError struct {
	Series string
	Index  int
	Len    int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("qualif: series %q: cell index %d out of range [0,%d)", e.Series, e.Index, e.Len)
}

// Unwrap returns ErrIndexOutOfRange.
func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// TaskError is returned by task constructors and Execute. Kind is one
// of the package's sentinel errors.
type TaskError struct {
	Task string
	Kind error
	Msg  string
	// Err holds the aggregated worker errors when Kind is
	// ErrAllWorkersFailed.
	Err error
}

func (e *TaskError) Error() string {
	s := fmt.Sprintf("qualif: %s: %v", e.Task, e.Kind)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap allows errors.Is to match both Kind and the worker errors.
func (e *TaskError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func configErr(task string, kind error, format string, args ...interface{}) error {
	return &TaskError{Task: task, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
