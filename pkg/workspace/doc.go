// Package workspace finds the packages of a workspace and orders them.
//
// Discovery walks a directory tree depth first. A directory holding one of
// the [IgnoreMarkers] is pruned together with its subtree, hidden
// directories are skipped, and the first directory with a manifest becomes a
// package whose subdirectories are not searched further. Manifests are parsed
// concurrently through a [ManifestCache] that callers may share between the
// passes of one invocation.
//
// [TopologicalOrder] orders a workspace on disk, merging in underlay
// workspaces that supply dependency information without being part of the
// result. [TopologicalOrderPackages] does the same for packages already in
// memory, which is how a single package's dependencies are ordered.
package workspace
