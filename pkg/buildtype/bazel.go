package buildtype

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// KeyBazelArgs holds extra arguments for every bazel invocation.
const KeyBazelArgs = "bazel_args"

// Bazel builds Bazel workspaces. Commands run in the source space.
type Bazel struct {
	hasTarget TargetProbe
}

// NewBazel returns the bazel plugin.
func NewBazel() *Bazel { return &Bazel{hasTarget: BazelHasTarget} }

func (*Bazel) Name() string        { return "bazel" }
func (*Bazel) Description() string { return "bazel project" }

func (*Bazel) ExtendContext(opts Options) *Extender {
	return NewExtender().Add(KeyBazelArgs, nonNil(opts.BazelArgs))
}

func (b *Bazel) command(bc *Context, verb string, tail ...string) Action {
	argv := append([]string{"bazel", verb}, bc.Strings(KeyBazelArgs)...)
	return Command(append(argv, tail...)...).InDir(bc.SourceSpace)
}

func (b *Bazel) Build(ctx context.Context, bc *Context) ([]Action, error) {
	return []Action{b.command(bc, "build", "//...")}, nil
}

func (b *Bazel) Test(ctx context.Context, bc *Context) ([]Action, error) {
	return []Action{b.command(bc, "test", "//...")}, nil
}

func (b *Bazel) Install(ctx context.Context, bc *Context) ([]Action, error) {
	return b.runTarget(ctx, bc, "install")
}

func (b *Bazel) Uninstall(ctx context.Context, bc *Context) ([]Action, error) {
	return b.runTarget(ctx, bc, "uninstall")
}

func (b *Bazel) runTarget(ctx context.Context, bc *Context, target string) ([]Action, error) {
	if !bc.DryRun && !b.hasTarget(ctx, bc.SourceSpace, target) {
		bc.Log().Warnf("Could not run %s for 'bazel' package because it has no '%s' target", target, target)
		return nil, nil
	}
	return []Action{b.command(bc, "run", "//:"+target, bc.InstallSpace)}, nil
}

// BazelHasTarget looks for a rule named target in the top-level BUILD file
// of dir.
func BazelHasTarget(_ context.Context, dir, target string) bool {
	re := regexp.MustCompile(fmt.Sprintf(`\bname\s*=\s*"%s"`, regexp.QuoteMeta(target)))
	for _, name := range []string{"BUILD.bazel", "BUILD"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		return re.Match(data)
	}
	return false
}

var (
	_ Tester      = (*Bazel)(nil)
	_ Uninstaller = (*Bazel)(nil)
)
