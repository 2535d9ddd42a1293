package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/pflag"

	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/topo"
	"github.com/matzehuels/wsbuild/pkg/workspace"
)

// workspaceFlags locate the workspace and its spaces. They are shared by
// every command.
type workspaceFlags struct {
	basePath     string
	buildSpace   string
	installSpace string
	underlays    []string
}

func (w *workspaceFlags) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("workspace", pflag.ContinueOnError)
	fs.StringVar(&w.basePath, "basepath", ".", "directory searched for packages")
	fs.StringVar(&w.buildSpace, "build-space", "build", "directory holding the per-package build directories")
	fs.StringVar(&w.installSpace, "install-space", "install", "install prefix")
	fs.StringSliceVar(&w.underlays, "underlay", nil, "workspace providing dependencies but not built (repeatable, closest first)")
	return fs
}

// resolved returns the flags with every path made absolute.
func (w workspaceFlags) resolved() (workspaceFlags, error) {
	out := workspaceFlags{underlays: make([]string, len(w.underlays))}
	for _, p := range []struct {
		dst *string
		src string
	}{
		{&out.basePath, w.basePath},
		{&out.buildSpace, w.buildSpace},
		{&out.installSpace, w.installSpace},
	} {
		abs, err := filepath.Abs(p.src)
		if err != nil {
			return out, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", p.src)
		}
		*p.dst = abs
	}
	for i, u := range w.underlays {
		abs, err := filepath.Abs(u)
		if err != nil {
			return out, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", u)
		}
		out.underlays[i] = abs
	}
	return out, nil
}

// order discovers the workspace and returns its topological order. The
// build and install spaces are never searched for packages.
func (c *CLI) order(ctx context.Context, ws workspaceFlags, whitelist, blacklist []string) ([]topo.Entry, error) {
	prog := newProgress(c.Logger)
	var spinner *Spinner
	if c.showProgress() {
		spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Discovering packages in %s", ws.basePath))
		spinner.Start()
	}

	manifests := workspace.NewManifestCache()
	entries, err := workspace.TopologicalOrder(ctx, ws.basePath, workspace.OrderOptions{
		Whitelist: whitelist,
		Blacklist: blacklist,
		Underlays: ws.underlays,
		Env:       c.conditionEnv(),
		Discover: workspace.DiscoverOptions{
			Cache:   manifests,
			Exclude: []string{ws.buildSpace, ws.installSpace},
		},
	})
	if err != nil {
		switch {
		case spinner == nil:
		case spinner.Cancelled():
			spinner.Stop()
		default:
			spinner.StopWithError("Discovery failed")
		}
		return nil, err
	}
	if spinner != nil {
		spinner.StopWithSuccess(fmt.Sprintf("Found %s", english.Plural(len(entries), "package", "")))
	}
	hits, misses := manifests.Stats()
	c.Logger.Debug("Parsed manifests", "parsed", misses, "reused", hits)
	for _, e := range entries {
		if !e.IsCycle() && !errors.IsConventionalPackageName(e.Package.Name) {
			c.Logger.Debug("Unconventional package name", "package", e.Package.Name, "path", e.Path)
		}
	}
	prog.done("Ordered workspace", "packages", len(entries), "root", ws.basePath)
	return entries, nil
}

// conditionEnv is the process environment with the [env] table of the
// config file on top.
func (c *CLI) conditionEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	for k, v := range c.config.Env {
		env[k] = v
	}
	return env
}
