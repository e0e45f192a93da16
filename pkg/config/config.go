// Package config loads post-build action files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cihooks/postbuild/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfiguration indicates the action file does not describe a valid
// set of post-build actions.
var ErrInvalidConfiguration = errors.New("invalid action configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the action file at the given path and validates it.
func Load(path string) (*models.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read action file %s: %w", path, err)
	}

	configuration, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("action file %s: %w", path, err)
	}

	return configuration, nil
}

// Parse checks a YAML action document against the action-file schema and
// decodes it. An empty document is a valid configuration with no actions.
func Parse(data []byte) (*models.Configuration, error) {
	var document map[string]any

	err := yaml.Unmarshal(data, &document)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if document == nil {
		return &models.Configuration{}, nil
	}

	err = validateSchema(document)
	if err != nil {
		return nil, err
	}

	configuration := &models.Configuration{}

	err = yaml.Unmarshal(data, configuration)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	err = validate.Struct(configuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	return configuration, nil
}

func validateSchema(document map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(actionFileSchema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate action file: %w", err)
	}

	if !result.Valid() {
		var descriptions []string
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(descriptions, "; "))
	}

	return nil
}
