// Package observability defines the events a build run reports while it
// progresses.
//
// Hooks are interfaces with no-op defaults. They are passed explicitly to
// the components that emit them; there is no global registry. The CLI uses
// them to drive its live progress view, and tests use them to record what
// happened.
//
//	hooks := observability.SchedulerFuncs{
//	    PackageDone: func(ctx context.Context, name string, d time.Duration, err error) { ... },
//	}
//	scheduler.Run(ctx, jobs, scheduler.Options{Hooks: hooks})
package observability

import (
	"context"
	"time"
)

// =============================================================================
// Scheduler Hooks
// =============================================================================

// SchedulerHooks receives per-package events from the scheduling driver.
// Implementations must be safe for concurrent use: in parallel mode events
// arrive from several goroutines.
type SchedulerHooks interface {
	// OnRunStart is called once with the names that will be processed.
	OnRunStart(ctx context.Context, names []string)

	OnPackageStart(ctx context.Context, name string)
	OnPackageDone(ctx context.Context, name string, duration time.Duration, err error)

	// OnPackageSkipped reports a package excluded by the selection, or one
	// that was never started because the run aborted.
	OnPackageSkipped(ctx context.Context, name string, reason string)

	OnRunComplete(ctx context.Context, done, failed int, duration time.Duration)
}

// =============================================================================
// Plugin Hooks
// =============================================================================

// PluginHooks receives events for the individual actions a build-system
// plugin yields.
type PluginHooks interface {
	OnActionStart(ctx context.Context, pkg, phase, title string)
	OnActionDone(ctx context.Context, pkg, phase, title string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSchedulerHooks is a no-op implementation of SchedulerHooks.
type NoopSchedulerHooks struct{}

func (NoopSchedulerHooks) OnRunStart(context.Context, []string)                        {}
func (NoopSchedulerHooks) OnPackageStart(context.Context, string)                      {}
func (NoopSchedulerHooks) OnPackageDone(context.Context, string, time.Duration, error) {}
func (NoopSchedulerHooks) OnPackageSkipped(context.Context, string, string)            {}
func (NoopSchedulerHooks) OnRunComplete(context.Context, int, int, time.Duration)      {}

// NoopPluginHooks is a no-op implementation of PluginHooks.
type NoopPluginHooks struct{}

func (NoopPluginHooks) OnActionStart(context.Context, string, string, string) {}
func (NoopPluginHooks) OnActionDone(context.Context, string, string, string, time.Duration, error) {
}

// =============================================================================
// Function adapters
// =============================================================================

// SchedulerFuncs implements SchedulerHooks with optional callbacks. Nil
// fields are skipped.
type SchedulerFuncs struct {
	RunStart       func(ctx context.Context, names []string)
	PackageStart   func(ctx context.Context, name string)
	PackageDone    func(ctx context.Context, name string, duration time.Duration, err error)
	PackageSkipped func(ctx context.Context, name, reason string)
	RunComplete    func(ctx context.Context, done, failed int, duration time.Duration)
}

func (f SchedulerFuncs) OnRunStart(ctx context.Context, names []string) {
	if f.RunStart != nil {
		f.RunStart(ctx, names)
	}
}

func (f SchedulerFuncs) OnPackageStart(ctx context.Context, name string) {
	if f.PackageStart != nil {
		f.PackageStart(ctx, name)
	}
}

func (f SchedulerFuncs) OnPackageDone(ctx context.Context, name string, d time.Duration, err error) {
	if f.PackageDone != nil {
		f.PackageDone(ctx, name, d, err)
	}
}

func (f SchedulerFuncs) OnPackageSkipped(ctx context.Context, name, reason string) {
	if f.PackageSkipped != nil {
		f.PackageSkipped(ctx, name, reason)
	}
}

func (f SchedulerFuncs) OnRunComplete(ctx context.Context, done, failed int, d time.Duration) {
	if f.RunComplete != nil {
		f.RunComplete(ctx, done, failed, d)
	}
}

// OrNoop returns h, or NoopSchedulerHooks when h is nil.
func OrNoop(h SchedulerHooks) SchedulerHooks {
	if h == nil {
		return NoopSchedulerHooks{}
	}
	return h
}

// PluginOrNoop returns h, or NoopPluginHooks when h is nil.
func PluginOrNoop(h PluginHooks) PluginHooks {
	if h == nil {
		return NoopPluginHooks{}
	}
	return h
}
