package models

// ScriptType selects the executor for a script file.
type ScriptType string

const (
	ScriptTypeGeneric  ScriptType = "generic"  // Run through the platform shell
	ScriptTypeStarlark ScriptType = "starlark" // Evaluated in-process by the script engine
)

// ScriptFile is an action group whose payload is a script in the build
// workspace. Path holds the script path optionally followed by
// space-separated arguments; double quotes group tokens containing spaces.
// Macro references ($VAR, ${VAR}) in Path are resolved against the build
// environment before execution.
type ScriptFile struct {
	Criteria   `yaml:",inline"`
	Path       string     `json:"path"                  yaml:"path"`
	ScriptType ScriptType `json:"script_type,omitempty" yaml:"script_type,omitempty" validate:"omitempty,oneof=generic starlark"`
}

// Script is an action group whose payload is an inline snippet evaluated by
// the script engine.
type Script struct {
	Criteria `yaml:",inline"`
	Content  string `json:"content" yaml:"content"`
}
