package models

import (
	"maps"
	"slices"
)

// BuildResultVar is the environment variable exposing the build result to
// launched processes and script bindings.
const BuildResultVar = "BUILD_RESULT"

// BuildContext is the read-only snapshot of a finished build. It gates and
// parameterizes every post-build action; the run accumulates no state in it.
type BuildContext struct {
	JobName     string            `json:"job_name"`
	BuildNumber int               `json:"build_number"`
	Result      Result            `json:"result,omitempty"`   // empty until the host records a result
	BuiltOn     string            `json:"built_on,omitempty"` // node name; empty when the build ran on the controller
	Workspace   string            `json:"workspace"`
	Env         map[string]string `json:"env,omitempty"`
}

// IsController reports whether the build executed on the controller itself
// rather than on a delegated worker node.
func (b *BuildContext) IsController() bool {
	return b.BuiltOn == ""
}

// HasResult reports whether the host has recorded a result for the build.
func (b *BuildContext) HasResult() bool {
	return b.Result != ""
}

// Vars returns the macro-resolution variables for the build: the build
// environment plus the BUILD_RESULT decoration when a result exists.
func (b *BuildContext) Vars() map[string]string {
	vars := make(map[string]string, len(b.Env)+1)
	maps.Copy(vars, b.Env)

	if b.HasResult() {
		vars[BuildResultVar] = string(b.Result)
	}

	return vars
}

// Environ renders Vars in the KEY=VALUE form expected by process launchers,
// sorted for determinism.
func (b *BuildContext) Environ() []string {
	vars := b.Vars()
	environ := make([]string, 0, len(vars))

	for _, key := range slices.Sorted(maps.Keys(vars)) {
		environ = append(environ, key+"="+vars[key])
	}

	return environ
}
