// Package pipeline runs the phases of one verb for one package.
//
// The scheduler decides which packages run and when; for each of them it
// hands a prepared [buildtype.Context] to a [Runner], which resolves the
// package's build-system plugin, lets the plugin extend the context and then
// executes the phases of the verb in order:
//
//	build      build → install
//	test       build → install → test
//	uninstall  uninstall
//
// Install is left out when the context asks to skip it. A test or uninstall
// phase the plugin does not support is skipped with a warning.
//
// # Usage
//
//	runner := pipeline.NewRunner(buildtype.DefaultRegistry(), logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Verb: pipeline.VerbBuild}, bc)
//
// The scheduler takes a callback instead of a runner:
//
//	scheduler.Run(ctx, jobs, scheduler.Options{Callback: runner.Callback(opts)})
package pipeline

import (
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/wsbuild/pkg/buildtype"
)

// =============================================================================
// Verbs
// =============================================================================

// Verb selects the phases a run executes.
type Verb string

const (
	VerbBuild     Verb = "build"
	VerbTest      Verb = "test"
	VerbUninstall Verb = "uninstall"
)

// DefaultVerb is used when Options.Verb is empty.
const DefaultVerb = VerbBuild

// ValidVerbs is the set of supported verbs.
var ValidVerbs = map[Verb]bool{
	VerbBuild:     true,
	VerbTest:      true,
	VerbUninstall: true,
}

// ValidateVerb checks that v is a supported verb.
func ValidateVerb(v Verb) error {
	if !ValidVerbs[v] {
		return fmt.Errorf("invalid verb: %q (must be one of: build, test, uninstall)", v)
	}
	return nil
}

// Phases returns the phases of v in execution order.
func Phases(v Verb, skipInstall bool) []string {
	var phases []string
	switch v {
	case VerbBuild:
		phases = []string{buildtype.PhaseBuild, buildtype.PhaseInstall}
	case VerbTest:
		phases = []string{buildtype.PhaseBuild, buildtype.PhaseInstall, buildtype.PhaseTest}
	case VerbUninstall:
		return []string{buildtype.PhaseUninstall}
	}
	if skipInstall {
		phases = slices.DeleteFunc(phases, func(p string) bool { return p == buildtype.PhaseInstall })
	}
	return phases
}

// =============================================================================
// Options
// =============================================================================

// Options configures a run.
type Options struct {
	Verb Verb

	// Plugin holds the command-line settings offered to every plugin's
	// ExtendContext.
	Plugin buildtype.Options

	// AbortOnTestError makes a failing test phase fail the package. By
	// default test failures are recorded in the Result and the run goes on.
	AbortOnTestError bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Verb == "" {
		o.Verb = DefaultVerb
	}
	return ValidateVerb(o.Verb)
}

// =============================================================================
// Results
// =============================================================================

// PhaseResult describes one executed or skipped phase.
type PhaseResult struct {
	Phase    string
	Actions  int
	Skipped  bool
	Duration time.Duration
}

// Result contains the outcome of a run for one package.
type Result struct {
	Package string
	Phases  []PhaseResult

	// TestErr is the failure of the test phase when test errors do not
	// abort the run.
	TestErr error

	Duration time.Duration
}

// Ran reports whether phase was executed rather than skipped.
func (r *Result) Ran(phase string) bool {
	for _, p := range r.Phases {
		if p.Phase == phase {
			return !p.Skipped
		}
	}
	return false
}
