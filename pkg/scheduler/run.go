package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/wsbuild/pkg/buildtype"
	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/observability"
)

// Callback processes one package. It receives a copy of the job's context.
type Callback func(ctx context.Context, bc *buildtype.Context) error

// DefaultProgressInterval is how often a parallel run logs what is running.
const DefaultProgressInterval = 30 * time.Second

// Options configures [Run].
type Options struct {
	Callback Callback

	// Parallel runs independent jobs concurrently, at most Workers at a
	// time. Zero Workers means GOMAXPROCS.
	Parallel bool
	Workers  int

	// ProgressInterval overrides DefaultProgressInterval.
	ProgressInterval time.Duration

	Hooks  observability.SchedulerHooks
	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	o.Hooks = observability.OrNoop(o.Hooks)
}

// State is the life cycle position of a job.
type State int

const (
	StatePending State = iota
	StateReady
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	}
	return "PENDING"
}

// Report summarizes a run.
type Report struct {
	States   map[string]State
	Done     []string
	Failed   []string
	NotRun   []string
	Duration time.Duration
}

// Run processes jobs in order, or concurrently when opts.Parallel is set.
// It returns a *Failure when any callback failed, or the context error when
// the run was cancelled; the report is returned in both cases.
func Run(ctx context.Context, jobs []Job, opts Options) (*Report, error) {
	if opts.Callback == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scheduler: no callback")
	}
	opts.setDefaults()

	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name
	}
	opts.Hooks.OnRunStart(ctx, names)

	r := &run{
		opts:   opts,
		jobs:   jobs,
		states: make(map[string]State, len(jobs)),
		errs:   make(map[string]error),
		start:  time.Now(),
	}
	for _, j := range jobs {
		r.states[j.Name] = StatePending
	}

	if opts.Parallel && opts.Workers > 1 {
		r.parallel(ctx)
	} else {
		r.sequential(ctx)
	}
	return r.finish(ctx)
}

type run struct {
	opts   Options
	jobs   []Job
	states map[string]State
	errs   map[string]error
	failed []string
	start  time.Time
}

type result struct {
	name     string
	err      error
	duration time.Duration
}

func (r *run) sequential(ctx context.Context) {
	for _, j := range r.jobs {
		if ctx.Err() != nil {
			return
		}
		r.states[j.Name] = StateRunning
		res := r.call(ctx, j)
		r.record(ctx, res)
		if res.err != nil {
			return
		}
	}
}

func (r *run) parallel(ctx context.Context) {
	sem := semaphore.NewWeighted(int64(r.opts.Workers))
	results := make(chan result)
	ticker := time.NewTicker(r.opts.ProgressInterval)
	defer ticker.Stop()

	running := 0
	done := ctx.Done()
	for {
		if len(r.failed) == 0 && ctx.Err() == nil {
			for _, j := range r.jobs {
				if r.states[j.Name] == StatePending && r.satisfied(j) {
					r.states[j.Name] = StateReady
				}
			}
			for _, j := range r.jobs {
				if r.states[j.Name] != StateReady || !sem.TryAcquire(1) {
					continue
				}
				r.states[j.Name] = StateRunning
				running++
				go func(j Job) { results <- r.call(ctx, j) }(j)
			}
		}
		if running == 0 {
			return
		}

		select {
		case res := <-results:
			sem.Release(1)
			running--
			r.record(ctx, res)
		case <-ticker.C:
			r.opts.Logger.Info("waiting for packages",
				"running", r.inState(StateRunning),
				"done", len(r.inState(StateDone)),
				"total", len(r.jobs))
		case <-done:
			// Running callbacks observe ctx themselves.
			r.opts.Logger.Warn("cancelled, waiting for running packages", "running", r.inState(StateRunning))
			done = nil
		}
	}
}

func (r *run) satisfied(j Job) bool {
	for _, w := range j.Wait {
		if s, ok := r.states[w]; ok && s != StateDone {
			return false
		}
	}
	return true
}

// call runs the callback and turns a panic into an error.
func (r *run) call(ctx context.Context, j Job) (res result) {
	res.name = j.Name
	r.opts.Hooks.OnPackageStart(ctx, j.Name)
	start := time.Now()
	defer func() {
		res.duration = time.Since(start)
		if p := recover(); p != nil {
			r.opts.Logger.Error("package callback panicked", "package", j.Name, "panic", p, "stack", string(debug.Stack()))
			res.err = errors.New(errors.ErrCodeInternal, "package %q: %v", j.Name, p)
		}
	}()
	res.err = r.opts.Callback(ctx, j.Context.Clone())
	return res
}

func (r *run) record(ctx context.Context, res result) {
	r.opts.Hooks.OnPackageDone(ctx, res.name, res.duration, res.err)
	if res.err != nil {
		r.states[res.name] = StateFailed
		r.errs[res.name] = res.err
		r.failed = append(r.failed, res.name)
		r.opts.Logger.Error("package failed", "package", res.name, "err", res.err)
		return
	}
	r.states[res.name] = StateDone
	r.opts.Logger.Info("finished package", "package", res.name, "duration", res.duration.Round(time.Millisecond))
}

func (r *run) inState(s State) []string {
	var out []string
	for _, j := range r.jobs {
		if r.states[j.Name] == s {
			out = append(out, j.Name)
		}
	}
	return out
}

func (r *run) finish(ctx context.Context) (*Report, error) {
	rep := &Report{
		States:   r.states,
		Done:     r.inState(StateDone),
		Failed:   slices.Clone(r.failed),
		Duration: time.Since(r.start),
	}
	for _, j := range r.jobs {
		if s := r.states[j.Name]; s == StatePending || s == StateReady {
			rep.NotRun = append(rep.NotRun, j.Name)
			r.opts.Hooks.OnPackageSkipped(ctx, j.Name, "not started")
		}
	}
	r.opts.Hooks.OnRunComplete(ctx, len(rep.Done), len(rep.Failed), rep.Duration)

	if len(r.failed) > 0 {
		return rep, &Failure{Packages: rep.Failed, Errs: r.errs}
	}
	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("run cancelled: %w", err)
	}
	return rep, nil
}
