package buildtype

import (
	"context"
	"fmt"
	"strings"
)

// ActionFunc is an in-process action.
type ActionFunc func(ctx context.Context, bc *Context) error

// Action is one step of a phase: either an external command or a function.
type Action struct {
	// Title is used when logging the action. Commands default to their
	// command line.
	Title string

	// Cmd is the argv of a command action.
	Cmd []string

	// DryRunCmd replaces Cmd in dry-run mode. Without it a command is only
	// logged during a dry run.
	DryRunCmd []string

	// Dir is the working directory of a command. Empty means the build
	// space.
	Dir string

	// Env holds KEY=VALUE pairs added to the context environment.
	Env []string

	Func ActionFunc
}

// Command returns a command action.
func Command(argv ...string) Action { return Action{Cmd: argv} }

// Function returns a function action.
func Function(title string, fn ActionFunc) Action { return Action{Title: title, Func: fn} }

// InDir returns a copy of a that runs in dir.
func (a Action) InDir(dir string) Action {
	a.Dir = dir
	return a
}

// IsFunc reports whether a is a function action.
func (a Action) IsFunc() bool { return a.Func != nil }

// Validate checks that a is exactly one of a command or a function.
func (a Action) Validate() error {
	switch {
	case a.Func != nil && len(a.Cmd) > 0:
		return fmt.Errorf("action %q has both a command and a function", a.Name())
	case a.Func == nil && len(a.Cmd) == 0:
		return fmt.Errorf("action %q has neither a command nor a function", a.Name())
	case a.Func != nil && len(a.DryRunCmd) > 0:
		return fmt.Errorf("function action %q cannot have a dry-run command", a.Name())
	}
	return nil
}

// Name returns the title, or the command line for untitled commands.
func (a Action) Name() string {
	if a.Title != "" {
		return a.Title
	}
	return strings.Join(a.Cmd, " ")
}
