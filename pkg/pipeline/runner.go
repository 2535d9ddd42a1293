package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wsbuild/pkg/buildtype"
	"github.com/matzehuels/wsbuild/pkg/cache"
	"github.com/matzehuels/wsbuild/pkg/errors"
)

// Runner executes verbs for packages.
//
// The Runner only keeps the test failures of the runs it executed, guarded
// by a mutex, so the scheduler may call it from several goroutines.
type Runner struct {
	Registry *buildtype.Registry
	Executor *buildtype.Executor
	Logger   *log.Logger

	mu           sync.Mutex
	testFailures map[string]error
}

// NewRunner creates a runner resolving plugins in reg.
// If reg is nil, the default registry is used.
// If logger is nil, log.Default() is used.
func NewRunner(reg *buildtype.Registry, logger *log.Logger) *Runner {
	if reg == nil {
		reg = buildtype.DefaultRegistry()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Registry: reg,
		Executor: &buildtype.Executor{},
		Logger:   logger,
	}
}

// Execute runs the phases of opts.Verb for the package in bc. bc is not
// modified; the plugin works on a copy.
func (r *Runner) Execute(ctx context.Context, opts Options, bc *buildtype.Context) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	if bc.Package == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "build context without a package")
	}

	start := time.Now()
	name := bc.Package.Name
	result := &Result{Package: name}

	plugin, err := r.Registry.Get(bc.Package.BuildTypeOrDefault())
	if err != nil {
		return nil, fmt.Errorf("package %q: %w", name, err)
	}

	bc = bc.Clone()
	if bc.Logger == nil {
		bc.Logger = r.Logger
	}
	if bc.Cache == nil {
		bc.Cache = cache.NewBuildSpaceCache(bc.BuildSpace)
	}
	if err := plugin.ExtendContext(opts.Plugin).Apply(bc); err != nil {
		return nil, fmt.Errorf("package %q: %w", name, err)
	}

	logger := bc.Logger.With("package", name)
	for _, phase := range Phases(opts.Verb, bc.SkipInstall) {
		phaseStart := time.Now()
		actions, err := buildtype.Actions(ctx, plugin, phase, bc)
		if errors.Is(err, errors.ErrCodeUnsupported) && phase != buildtype.PhaseBuild && phase != buildtype.PhaseInstall {
			logger.Warn(errors.UserMessage(err))
			result.Phases = append(result.Phases, PhaseResult{Phase: phase, Skipped: true})
			continue
		}
		if err != nil {
			return result, fmt.Errorf("%s of package %q: %w", phase, name, err)
		}

		err = r.executor().Run(ctx, bc, phase, actions)
		result.Phases = append(result.Phases, PhaseResult{
			Phase:    phase,
			Actions:  len(actions),
			Duration: time.Since(phaseStart),
		})
		if err != nil {
			if phase == buildtype.PhaseTest && !opts.AbortOnTestError {
				logger.Error("tests failed", "err", err)
				result.TestErr = err
				r.recordTestFailure(name, err)
				continue
			}
			return result, err
		}
	}

	result.Duration = time.Since(start)
	logger.Debug("finished", "verb", opts.Verb, "duration", result.Duration)
	return result, nil
}

// Callback adapts the runner to the scheduler's per-package callback.
func (r *Runner) Callback(opts Options) func(context.Context, *buildtype.Context) error {
	return func(ctx context.Context, bc *buildtype.Context) error {
		_, err := r.Execute(ctx, opts, bc)
		return err
	}
}

// TestFailures returns the packages whose tests failed, in ascending order.
func (r *Runner) TestFailures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.testFailures))
	for name := range r.testFailures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Runner) recordTestFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.testFailures == nil {
		r.testFailures = make(map[string]error)
	}
	r.testFailures[name] = err
}

func (r *Runner) executor() *buildtype.Executor {
	if r.Executor == nil {
		return &buildtype.Executor{}
	}
	return r.Executor
}
