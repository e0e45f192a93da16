package models

// StepConfig names a registered build step and carries its configuration.
// The step implementation is created by the step registry at run time.
type StepConfig struct {
	Type   string         `json:"type"             yaml:"type" validate:"required"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// StepGroup is an action group whose payload is an ordered list of build
// steps. Steps run strictly in order; the first failing step aborts the
// group.
type StepGroup struct {
	Criteria `yaml:",inline"`
	Steps    []StepConfig `json:"steps" yaml:"steps" validate:"dive"`
}
