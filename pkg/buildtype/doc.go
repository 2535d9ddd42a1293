// Package buildtype defines how a package is built, installed, tested and
// uninstalled by the build tool it uses.
//
// A [Plugin] turns a [Context] into a list of [Action] values per phase;
// the [Executor] runs them. Build and Install are mandatory. Plugins that
// can test or uninstall also implement [Tester] or [Uninstaller]; a phase a
// plugin cannot serve is reported as an UNSUPPORTED error, which callers
// treat as a warning.
//
// Plugins are looked up by the package's build type in a [Registry] that the
// program builds once at start-up:
//
//	reg := buildtype.DefaultRegistry()
//	plugin, err := reg.Get(pkg.BuildTypeOrDefault())
//
// Before a plugin sees a Context it may extend it with its own settings
// through an [Extender], for example the cmake plugin adds its cmake_args.
package buildtype
