// Package models defines the core domain models for post-build action processing.
package models

// Result represents the terminal state the host orchestrator recorded for a
// build. An empty Result means the build has no recorded result yet.
type Result string

const (
	ResultSuccess  Result = "SUCCESS"
	ResultUnstable Result = "UNSTABLE"
	ResultFailure  Result = "FAILURE"
	ResultNotBuilt Result = "NOT_BUILT"
	ResultAborted  Result = "ABORTED"
)

// KnownResults lists every result name the host orchestrator can record, in
// the order it reports them.
func KnownResults() []Result {
	return []Result{ResultSuccess, ResultUnstable, ResultFailure, ResultNotBuilt, ResultAborted}
}
