// Package scheduler drives a verb across the packages of a workspace.
//
// A run has three steps:
//
//  1. [Select] applies the start/end/only/skip options to an ordering and
//     returns a [Plan] naming the packages that are processed. Invalid
//     selections fail here, before anything is touched.
//  2. [Prepare] turns every selected package into a [Job]: its source,
//     build and install spaces and the share directories of its
//     dependencies in build order.
//  3. [Run] calls the per-package callback for each job, one at a time or
//     in parallel.
//
// In parallel mode a job starts once every job it depends on is done; a
// failure stops new jobs from starting while running ones finish.
package scheduler
