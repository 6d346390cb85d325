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
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/meshqual/mesh"
)

// State is the execution state of a task.
type State int

// Task states. A task moves from NotStarted to either Dispatched (one
// worker per series, run concurrently) or SequentialRunning (all series
// processed on the calling goroutine), then to Joined once every series
// has been processed, and finally to Completed or Failed.
const (
	NotStarted State = iota
	Dispatched
	SequentialRunning
	Joined
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Dispatched:
		return "Dispatched"
	case SequentialRunning:
		return "SequentialRunning"
	case Joined:
		return "Joined"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options control how a task is executed.
type Options struct {
	// Sequential forces all series to be processed on the calling
	// goroutine even when every series is threadable.
	Sequential bool

	// MaxWorkers limits the number of series processed at the same
	// time. Zero means runtime.GOMAXPROCS(0).
	MaxWorkers int

	// Log receives task progress messages. Nil means
	// logrus.StandardLogger().
	Log logrus.FieldLogger
}

// WorkerStatus reports the outcome of processing one series.
type WorkerStatus struct {
	Series string
	Err    error
}

// OK reports whether the series was processed without error.
func (w WorkerStatus) OK() bool { return w.Err == nil }

// execution runs one task over its series using the fork-join model.
type execution struct {
	kind   string
	id     uuid.UUID
	series []*Series
	opts   Options
	log    logrus.FieldLogger

	state    State
	parallel bool
	workers  []WorkerStatus
	start    time.Time
}

func newExecution(kind string, c mesh.Criterion, series []*Series, opts Options) execution {
	l := opts.Log
	if l == nil {
		l = logrus.StandardLogger()
	}
	id := uuid.New()
	return execution{
		kind:   kind,
		id:     id,
		series: series,
		opts:   opts,
		log: l.WithFields(logrus.Fields{
			"task":      id.String(),
			"kind":      kind,
			"criterion": c.String(),
		}),
	}
}

// validateSeries checks the configuration shared by all tasks.
func validateSeries(kind string, types mesh.CellType, series []*Series) error {
	if !types.Valid() {
		return configErr(kind, ErrNoCellTypes, "cell type mask %v", types)
	}
	if len(series) == 0 {
		return configErr(kind, ErrNoSeries, "")
	}
	seen := make(map[*Series]int, len(series))
	for i, s := range series {
		if s == nil {
			return configErr(kind, ErrNilSeries, "series %d", i)
		}
		if j, ok := seen[s]; ok {
			return configErr(kind, ErrDuplicateSeries, "series %q at positions %d and %d", s.Name(), j, i)
		}
		seen[s] = i
	}
	return nil
}

// begin chooses between parallel and sequential execution. A single
// series that is not threadable makes the whole task sequential.
func (x *execution) begin() error {
	if x.state != NotStarted {
		return &TaskError{Task: x.kind, Kind: ErrAlreadyExecuted, Msg: fmt.Sprintf("state %v", x.state)}
	}
	x.start = time.Now()
	x.parallel = !x.opts.Sequential
	if x.parallel {
		for _, s := range x.series {
			if !s.Threadable() {
				x.log.WithField("series", s.Name()).Debug("series is not threadable; running sequentially")
				x.parallel = false
				break
			}
		}
	}
	x.workers = make([]WorkerStatus, len(x.series))
	for i, s := range x.series {
		x.workers[i].Series = s.Name()
	}
	if x.parallel {
		x.state = Dispatched
	} else {
		x.state = SequentialRunning
	}
	return nil
}

// fork calls fn once for each series and returns when all calls have
// returned. In parallel mode each call runs in its own goroutine, so fn must
// only write to state owned by slot i. Each call holds exclusive use of its
// series.
func (x *execution) fork(fn func(i int, s *Series) error) {
	if !x.parallel {
		x.log.WithField("series", len(x.series)).Debug("running sequentially")
		for i, s := range x.series {
			x.workers[i].Err = x.work(s, func(s *Series) error { return fn(i, s) })
		}
		x.state = Joined
		return
	}

	nprocs := x.opts.MaxWorkers
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	x.log.WithFields(logrus.Fields{"series": len(x.series), "workers": nprocs}).Debug("dispatching workers")
	sem := make(chan struct{}, nprocs)
	var wg sync.WaitGroup
	wg.Add(len(x.series))
	for i, s := range x.series {
		go func(i int, s *Series) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			x.workers[i].Err = x.work(s, func(s *Series) error { return fn(i, s) })
		}(i, s)
	}
	wg.Wait()
	x.state = Joined
}

// work runs fn with exclusive use of s. Panics are converted to errors so
// that one broken series does not bring down its siblings.
func (x *execution) work(s *Series, fn func(*Series) error) (err error) {
	if !s.acquire() {
		return fmt.Errorf("qualif: series %q: %w", s.Name(), ErrSeriesBusy)
	}
	defer s.release()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("qualif: series %q: panic during analysis: %v", s.Name(), r)
		}
	}()
	return fn(s)
}

// finish sets the final state. The task fails only if every series failed.
func (x *execution) finish() error {
	var errs []error
	for _, w := range x.workers {
		if w.Err != nil {
			x.log.WithField("series", w.Series).WithError(w.Err).Warn("series analysis failed")
			errs = append(errs, w.Err)
		}
	}
	if len(errs) == len(x.workers) {
		x.state = Failed
		return &TaskError{Task: x.kind, Kind: ErrAllWorkersFailed, Err: errors.Join(errs...)}
	}
	x.state = Completed
	x.log.WithFields(logrus.Fields{
		"parallel": x.parallel,
		"failed":   len(errs),
		"elapsed":  time.Since(x.start),
	}).Info("task completed")
	return nil
}

// State returns the execution state of the task.
func (x *execution) State() State { return x.state }

// Parallel reports whether the task ran one worker per series
// concurrently. It is only meaningful once the task has started.
func (x *execution) Parallel() bool { return x.parallel }

// Workers returns the outcome for each series, in series order.
func (x *execution) Workers() []WorkerStatus { return x.workers }

// ID returns the identifier used to tag the task's log messages.
func (x *execution) ID() uuid.UUID { return x.id }
