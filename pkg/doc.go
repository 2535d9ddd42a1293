// Package pkg provides the libraries behind wsbuild, a builder for
// workspaces of interdependent packages.
//
// # Overview
//
// A workspace is a directory tree holding packages. Each package declares
// its dependencies in a manifest; wsbuild orders the packages so every
// package comes after the packages it needs and then hands them, one by one
// or several at a time, to the build system each package uses.
//
// The typical data flow:
//
//	manifests on disk
//	         ↓
//	    [workspace] discover, resolve conditions and groups
//	         ↓
//	    [topo] reduce dependencies, sort with cycle detection
//	         ↓
//	    [scheduler] apply the selection, prepare jobs, run them
//	         ↓
//	    [pipeline] build → install → test per package
//	         ↓
//	    [buildtype] cmake, bazel and script actions
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/wsbuild/pkg/pipeline"
//	    "github.com/matzehuels/wsbuild/pkg/scheduler"
//	    "github.com/matzehuels/wsbuild/pkg/workspace"
//	)
//
//	entries, _ := workspace.TopologicalOrder(ctx, "src", workspace.OrderOptions{})
//	plan, _ := scheduler.Select(entries, scheduler.Selection{})
//	jobs, _ := scheduler.Prepare(plan, scheduler.Layout{
//	    BasePath: "src", BuildSpace: "build", InstallSpace: "install",
//	}, nil, false)
//
//	runner := pipeline.NewRunner(nil, nil)
//	report, err := scheduler.Run(ctx, jobs, scheduler.Options{
//	    Callback: runner.Callback(pipeline.Options{Verb: pipeline.VerbBuild}),
//	    Parallel: true,
//	})
//
// # Packages
//
// [manifest] - Package descriptors and the manifest formats that produce
// them (package.toml, package.yaml, package.xml, CMakeLists.txt), with
// dependency conditions.
//
// [workspace] - Discovery of the packages below a root, underlay merging,
// and the queries built on an ordering.
//
// [topo] - The dependency reducer and the cycle-aware topological sort.
//
// [scheduler] - Selection rules (start with, end with, only, skip), job
// preparation and sequential or parallel execution.
//
// [pipeline] - The phases a verb runs for one package.
//
// [buildtype] - The build-system plugins, their context and the executor
// for the actions they yield.
//
// [dag], [render/nodelink], [io] - The dependency graph of an ordering and
// its DOT, SVG and JSON renderings.
//
// [cache], [observability], [errors], [buildinfo] - Supporting packages.
//
// [manifest]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/manifest
// [workspace]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/workspace
// [topo]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/topo
// [scheduler]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/scheduler
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/pipeline
// [buildtype]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/buildtype
// [dag]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/dag
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/render/nodelink
// [io]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/wsbuild/pkg/buildinfo
package pkg
