package processor

import (
	"fmt"
)

// Phase names one of the three ordered action categories of a run.
type Phase string

const (
	PhaseScriptFiles Phase = "script_files"
	PhaseScripts     Phase = "scripts"
	PhaseStepGroups  Phase = "step_groups"
)

// Error wraps an infrastructure failure that aborts the whole run: macro
// resolution, script loading, process launch or step construction problems.
// Delegated actions that merely report failure are ordinary control flow and
// never produce an Error.
type Error struct {
	Phase Phase // phase being processed when the run aborted
	Group int   // index of the group within the phase
	Err   error // underlying cause
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s group %d aborted the run: %v", e.Phase, e.Group, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps an infrastructure failure with its phase and group context.
func NewError(phase Phase, group int, err error) *Error {
	return &Error{
		Phase: phase,
		Group: group,
		Err:   err,
	}
}
