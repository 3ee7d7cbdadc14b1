// Package tasks compares the saved-track libraries of two participants with real-time progress reporting.
//
// # Core Operations
//
//  1. [CompareEngine.Run] : fetch and compare
//     - Fetches both libraries concurrently through a [LibraryFetcher]
//     - Fails the whole run if either fetch fails
//     - Reconciles and scores the two track lists
//
//  2. [Compare] : pure reconciliation of two track lists
//     - [ExactPass] partitions by upstream track id
//     - [FuzzyPass] promotes remaining pairs whose normalized title and primary artist agree
//     - [CompatibilityScore] is 2*common/(|A|+|B|) as a percentage, rounded to one decimal
//
// Duplicate ids within one library count once. Output lists keep library order.
//
// # Progress Reporting
//
// Updates go out on an optional channel using select with default, so a slow or absent
// reader never blocks a comparison. The [ProgressUpdate] struct contains phase, step
// counters, a message and optional data.
package tasks
