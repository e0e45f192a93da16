package models

// Configuration is the full set of post-build actions for one job, resolved
// once per run and immutable for its duration. Groups execute in three fixed
// phases (script files, inline scripts, step groups) in the order configured
// here.
type Configuration struct {
	ScriptFiles           []ScriptFile `json:"script_files,omitempty"             yaml:"script_files,omitempty"             validate:"dive"`
	Scripts               []Script     `json:"scripts,omitempty"                  yaml:"scripts,omitempty"                  validate:"dive"`
	StepGroups            []StepGroup  `json:"step_groups,omitempty"              yaml:"step_groups,omitempty"              validate:"dive"`
	MarkUnstableOnFailure bool         `json:"mark_unstable_on_failure,omitempty" yaml:"mark_unstable_on_failure,omitempty"`
}
