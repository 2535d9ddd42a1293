package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/wsbuild/pkg/buildtype"
	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/pipeline"
	"github.com/matzehuels/wsbuild/pkg/scheduler"
)

// logFileName is where a run with --tui sends its log and command output,
// inside the build space.
const logFileName = "wsbuild.log"

// selectionFlags take package names.
var selectionFlags = []string{"start-with", "end-with", "only", "skip"}

// runFlags are the options of the build, test and uninstall verbs.
type runFlags struct {
	startWith string
	endWith   string
	only      []string
	skip      []string

	parallel bool
	workers  int

	isolated       bool
	symlinkInstall bool
	buildTests     bool
	forceConfigure bool
	dryRun         bool
	tui            bool

	cmakeArgs      []string
	amentCMakeArgs []string
	ctestArgs      []string
	bazelArgs      []string
	pythonExe      string
	makeFlags      []string

	abortOnTestError bool
}

func (f *runFlags) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.StringVar(&f.startWith, "start-with", "", "start with this package, skipping the ones before it")
	fs.StringVar(&f.endWith, "end-with", "", "stop after this package")
	fs.StringSliceVar(&f.only, "only", nil, "process only these packages")
	fs.StringSliceVar(&f.skip, "skip", nil, "do not process these packages")

	fs.BoolVar(&f.parallel, "parallel", false, "process independent packages concurrently")
	fs.IntVar(&f.workers, "workers", 0, "maximum concurrent packages with --parallel (default: CPU count)")

	fs.BoolVar(&f.isolated, "isolated", false, "install every package into its own prefix")
	fs.BoolVar(&f.symlinkInstall, "symlink-install", false, "install symbolic links instead of copies where supported")
	fs.BoolVar(&f.buildTests, "build-tests", false, "build the tests of every package")
	fs.BoolVar(&f.forceConfigure, "force-configure", false, "reconfigure even when the configuration is unchanged")
	fs.BoolVar(&f.dryRun, "dry-run", false, "print the commands instead of running them")
	fs.BoolVar(&f.tui, "tui", false, "show a live progress view; output goes to "+logFileName+" in the build space")

	fs.StringSliceVar(&f.cmakeArgs, "cmake-args", nil, "arguments passed to cmake")
	fs.StringSliceVar(&f.amentCMakeArgs, "ament-cmake-args", nil, "arguments passed to cmake for ament_cmake packages")
	fs.StringSliceVar(&f.ctestArgs, "ctest-args", nil, "arguments passed to ctest")
	fs.StringSliceVar(&f.bazelArgs, "bazel-args", nil, "arguments passed to bazel")
	fs.StringVar(&f.pythonExe, "python-executable", "", "python interpreter for ament_python packages (default python3)")
	fs.StringSliceVar(&f.makeFlags, "make-flags", nil, "flags passed to make (default: -jN -lN)")
	return fs
}

func (c *CLI) buildCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and install the workspace packages in dependency order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVerb(cmd, pipeline.VerbBuild, &f)
		},
	}
	cmd.Flags().AddFlagSet(f.flagSet())
	c.registerPackageCompletion(cmd, selectionFlags...)
	return cmd
}

func (c *CLI) testCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Build, install and test the workspace packages",
		Long: `Build, install and test the workspace packages in dependency order.

Test failures do not stop the run unless --abort-on-test-error is given;
they are listed at the end and make the command fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.buildTests = true
			return c.runVerb(cmd, pipeline.VerbTest, &f)
		},
	}
	cmd.Flags().AddFlagSet(f.flagSet())
	cmd.Flags().BoolVar(&f.abortOnTestError, "abort-on-test-error", false, "stop at the first package whose tests fail")
	c.registerPackageCompletion(cmd, selectionFlags...)
	return cmd
}

func (c *CLI) uninstallCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Uninstall the workspace packages in reverse dependency order",
		Long: `Uninstall the workspace packages in reverse dependency order.

--start-with and --end-with name packages as they appear in the build order:
uninstalling begins at --end-with and stops after --start-with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVerb(cmd, pipeline.VerbUninstall, &f)
		},
	}
	cmd.Flags().AddFlagSet(f.flagSet())
	c.registerPackageCompletion(cmd, selectionFlags...)
	return cmd
}

func (c *CLI) runVerb(cmd *cobra.Command, verb pipeline.Verb, f *runFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	runID := uuid.NewString()
	logger := loggerFromContext(ctx).With("run", runID[:8])

	ws, err := c.ws.resolved()
	if err != nil {
		return err
	}
	entries, err := c.order(ctx, ws, nil, nil)
	if err != nil {
		return err
	}
	plan, err := scheduler.Select(entries, scheduler.Selection{
		StartWith: f.startWith,
		EndWith:   f.endWith,
		Only:      f.only,
		Skip:      f.skip,
		Reverse:   verb == pipeline.VerbUninstall,
	})
	if err != nil {
		return err
	}
	printPlan(out, plan)

	layout := scheduler.Layout{
		BasePath:     ws.basePath,
		BuildSpace:   ws.buildSpace,
		InstallSpace: ws.installSpace,
		Isolated:     f.isolated,
	}
	template := &buildtype.Context{
		SymlinkInstall: f.symlinkInstall,
		BuildTests:     f.buildTests,
		DryRun:         f.dryRun,
		MakeFlags:      buildtype.EnsureMakeJobFlags(f.makeFlags),
	}
	jobs, err := scheduler.Prepare(plan, layout, template, verb == pipeline.VerbUninstall)
	if err != nil {
		return err
	}

	var logOut io.Writer
	if f.tui && c.Interactive {
		file, err := openRunLog(ws.buildSpace)
		if err != nil {
			return err
		}
		defer file.Close()
		logOut = file
		logger = newLogger(file, c.Logger.GetLevel()).With("run", runID[:8])
	}
	for i := range jobs {
		jobs[i].Context.Logger = logger
	}

	for _, name := range plan.Skipped() {
		logger.Info("Skipping", "package", name)
	}

	runner := pipeline.NewRunner(c.registry(), logger)
	runOpts := pipeline.Options{
		Verb: verb,
		Plugin: buildtype.Options{
			CMakeArgs:      f.cmakeArgs,
			AmentCMakeArgs: f.amentCMakeArgs,
			CTestArgs:      f.ctestArgs,
			ForceConfigure: f.forceConfigure,
			BazelArgs:      f.bazelArgs,
			Python:         f.pythonExe,
		},
		AbortOnTestError: f.abortOnTestError,
	}
	schedOpts := scheduler.Options{
		Callback: runner.Callback(runOpts),
		Parallel: f.parallel,
		Workers:  f.workers,
		Logger:   logger,
	}

	logger.Info("Starting run", "verb", verb, "packages", len(jobs), "parallel", f.parallel)
	var rep *scheduler.Report
	if logOut != nil {
		runner.Executor.Stdout = logOut
		runner.Executor.Stderr = logOut
		err = runWithTUI(ctx, string(verb), []tea.ProgramOption{tea.WithOutput(os.Stderr)}, func(ctx context.Context, h tuiHooks) error {
			schedOpts.Hooks = h
			runner.Executor.Hooks = h
			var runErr error
			rep, runErr = scheduler.Run(ctx, jobs, schedOpts)
			return runErr
		})
	} else {
		rep, err = scheduler.Run(ctx, jobs, schedOpts)
	}
	if rep == nil {
		return err
	}

	if plan.StopAfter != "" && rep.States[plan.StopAfter] == scheduler.StateDone {
		logger.Info("Stopped after package", "package", plan.StopAfter)
	}
	c.recordRun(ctx, ws.basePath, runRecord{
		ID:       runID,
		Verb:     string(verb),
		Done:     rep.Done,
		Failed:   rep.Failed,
		NotRun:   rep.NotRun,
		Duration: rep.Duration.String(),
	})

	failures := runner.TestFailures()
	printSummary(out, string(verb), rep, failures)
	if logOut != nil {
		printDetail(out, "output: %s", filepath.Join(ws.buildSpace, logFileName))
	}
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		return errors.New(errors.ErrCodePackageFailed, "tests failed in packages [%s]", strings.Join(failures, ", "))
	}
	return nil
}

func openRunLog(buildSpace string) (*os.File, error) {
	if err := os.MkdirAll(buildSpace, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create build space")
	}
	f, err := os.Create(filepath.Join(buildSpace, logFileName))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create run log")
	}
	return f, nil
}
