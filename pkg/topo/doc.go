// Package topo computes the build order of a set of packages.
//
// Ordering happens in two steps. [Reduce] collapses a package's typed
// dependency lists into the single set of names that must be built before
// it: its direct build, buildtool and test dependencies plus, recursively,
// the build_export, buildtool_export and exec dependencies of those. Names
// outside the universe are external and already satisfied.
//
// [Sort] then emits packages one at a time, always choosing the
// alphabetically first package whose remaining set is empty, so the same
// input produces the same order regardless of map iteration. When no package
// is ready a single cycle [Entry] closes the result.
//
// The cycle entry names the packages left after repeatedly discarding those
// no other remaining package depends on. That set contains every package on
// the cycle but may also contain packages that only sit between two cycles,
// so it is an over-approximation rather than the minimal cycle.
package topo
