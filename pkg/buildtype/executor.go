package buildtype

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/observability"
)

// CommandError reports a command that exited unsuccessfully.
type CommandError struct {
	Cmd      []string
	Dir      string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("'%s' in '%s' exited with code %d", strings.Join(e.Cmd, " "), e.Dir, e.ExitCode)
	}
	return fmt.Sprintf("'%s' in '%s': %v", strings.Join(e.Cmd, " "), e.Dir, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Executor runs the actions of a phase in order and stops at the first
// failure.
type Executor struct {
	// Stdout and Stderr receive command output. Nil means os.Stdout and
	// os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	Hooks observability.PluginHooks
}

// Run executes actions for the package in bc. A failing action is returned as
// a PACKAGE_FAILED error wrapping the cause.
func (e *Executor) Run(ctx context.Context, bc *Context, phase string, actions []Action) error {
	hooks := observability.PluginOrNoop(e.Hooks)
	name := bc.Package.Name
	logger := bc.Log().With("package", name, "phase", phase)

	for _, a := range actions {
		if err := a.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "%s %s", phase, name)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		title := a.Name()
		hooks.OnActionStart(ctx, name, phase, title)
		start := time.Now()
		err := e.run(ctx, bc, a, logger)
		hooks.OnActionDone(ctx, name, phase, title, time.Since(start), err)
		if err != nil {
			return errors.Wrap(errors.ErrCodePackageFailed, err, "%s of package %q failed", phase, name)
		}
	}
	return nil
}

func (e *Executor) run(ctx context.Context, bc *Context, a Action, logger *log.Logger) error {
	if a.IsFunc() {
		if bc.DryRun {
			logger.Info("==> skipping in dry run", "action", a.Name())
			return nil
		}
		logger.Debug("==> calling", "action", a.Name())
		return a.Func(WithContext(ctx, bc), bc)
	}

	dir := a.Dir
	if dir == "" {
		dir = bc.BuildSpace
	}
	argv := a.Cmd
	if bc.DryRun {
		if len(a.DryRunCmd) == 0 {
			logger.Info(fmt.Sprintf("==> '%s' in '%s' (dry run)", strings.Join(argv, " "), dir))
			return nil
		}
		argv = a.DryRunCmd
	}
	logger.Info(fmt.Sprintf("==> '%s' in '%s'", strings.Join(argv, " "), dir))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(bc.Environ(), a.Env...)
	cmd.Stdout = writerOr(e.Stdout, os.Stdout)
	cmd.Stderr = writerOr(e.Stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &CommandError{Cmd: argv, Dir: dir, ExitCode: code, Err: err}
	}
	return nil
}

func writerOr(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
