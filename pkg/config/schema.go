package config

// actionFileSchema is the JSON schema every action file must satisfy before
// it is decoded. A blank script path is allowed here: missing paths are a
// runtime warning, not a loading error.
const actionFileSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": false,
	"definitions": {
		"results": {
			"type": "array",
			"items": {
				"type": "string",
				"enum": ["SUCCESS", "UNSTABLE", "FAILURE", "NOT_BUILT", "ABORTED"]
			}
		},
		"role": {
			"type": "string",
			"enum": ["any", "controller", "worker"]
		}
	},
	"properties": {
		"script_files": {
			"type": "array",
			"items": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"path": {"type": "string"},
					"script_type": {
						"type": "string",
						"enum": ["generic", "starlark"]
					},
					"results": {"$ref": "#/definitions/results"},
					"role": {"$ref": "#/definitions/role"}
				}
			}
		},
		"scripts": {
			"type": "array",
			"items": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"content": {"type": "string"},
					"results": {"$ref": "#/definitions/results"},
					"role": {"$ref": "#/definitions/role"}
				}
			}
		},
		"step_groups": {
			"type": "array",
			"items": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"steps": {
						"type": "array",
						"items": {
							"type": "object",
							"additionalProperties": false,
							"properties": {
								"type": {"type": "string", "minLength": 1},
								"config": {"type": "object"}
							},
							"required": ["type"]
						}
					},
					"results": {"$ref": "#/definitions/results"},
					"role": {"$ref": "#/definitions/role"}
				}
			}
		},
		"mark_unstable_on_failure": {"type": "boolean"}
	}
}`
