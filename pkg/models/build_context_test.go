package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildContextIsController(t *testing.T) {
	controller := BuildContext{JobName: "job", BuildNumber: 1}
	assert.True(t, controller.IsController())

	delegated := BuildContext{JobName: "job", BuildNumber: 1, BuiltOn: "agent-7"}
	assert.False(t, delegated.IsController())
}

func TestBuildContextVarsDecoratesResult(t *testing.T) {
	build := BuildContext{
		JobName: "job",
		Result:  ResultUnstable,
		Env:     map[string]string{"WORKSPACE": "/ws"},
	}

	vars := build.Vars()

	assert.Equal(t, "UNSTABLE", vars[BuildResultVar])
	assert.Equal(t, "/ws", vars["WORKSPACE"])

	// The snapshot stays untouched.
	_, decorated := build.Env[BuildResultVar]
	assert.False(t, decorated)
}

func TestBuildContextVarsWithoutResult(t *testing.T) {
	build := BuildContext{JobName: "job", Env: map[string]string{"WORKSPACE": "/ws"}}

	_, ok := build.Vars()[BuildResultVar]

	assert.False(t, ok)
}

func TestBuildContextEnviron(t *testing.T) {
	build := BuildContext{
		Result: ResultSuccess,
		Env: map[string]string{
			"ZEBRA":        "z",
			"ALPHA":        "a",
			BuildResultVar: "stale",
			"JOB_NAME":     "job",
		},
	}

	environ := build.Environ()

	assert.Equal(t, []string{
		"ALPHA=a",
		"BUILD_RESULT=SUCCESS",
		"JOB_NAME=job",
		"ZEBRA=z",
	}, environ)
}
