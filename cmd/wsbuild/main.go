package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/matzehuels/wsbuild/internal/cli"
	"github.com/matzehuels/wsbuild/pkg/buildtype"
	wserrors "github.com/matzehuels/wsbuild/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	code := exitCode(ctx, err)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context) error {
	c := cli.New(os.Stderr, cli.LogInfo)
	c.Registry = buildtype.DefaultRegistry()
	return c.RootCommand().ExecuteContext(ctx)
}

// exitCode maps err to the process exit status: 130 after an interrupt,
// the exit status of a failed build command, 2 for graph-level errors
// raised before any package ran, and 1 otherwise.
func exitCode(ctx context.Context, err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return 130 // Standard shell convention for SIGINT
	}
	var cmdErr *buildtype.CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}
	if wserrors.Fatal(err) {
		return 2
	}
	return 1
}
