// Package registry tracks the build step types available to step groups:
// the native steps compiled into the binary plus any step plugins loaded
// from disk.
package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"plugin"
	"slices"

	"github.com/cihooks/postbuild/pkg/protocol"
)

// StepSymbolName is the exported symbol a step plugin must provide. The
// symbol value has to implement protocol.StepFactory.
const StepSymbolName = "Step"

type Registry struct {
	logger        *slog.Logger
	stepFactories map[string]protocol.StepFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:        logger,
		stepFactories: make(map[string]protocol.StepFactory),
	}
}

// RegisterStep makes a step type available under its factory ID. A factory
// registered later under the same ID replaces the earlier one.
func (r *Registry) RegisterStep(factory protocol.StepFactory) {
	r.stepFactories[factory.ID()] = factory
}

// CreateStep builds a step instance from its configured type.
func (r *Registry) CreateStep(stepType string, config map[string]any) (protocol.Step, error) {
	factory, ok := r.stepFactories[stepType]
	if !ok {
		return nil, fmt.Errorf("step type '%s' not registered", stepType)
	}

	return factory.Create(config)
}

// StepTypes returns the registered step type IDs, sorted.
func (r *Registry) StepTypes() []string {
	return slices.Sorted(maps.Keys(r.stepFactories))
}

// LoadStepPlugins opens every .so file under pluginsPath/steps and collects
// the step factory each one exports. A plugin that cannot be opened or does
// not export a usable factory is a deployment error and panics.
func (r *Registry) LoadStepPlugins(ctx context.Context, pluginsPath string) ([]protocol.StepFactory, error) {
	rootPath := pluginsPath + "/steps"

	pluginPaths, err := fs.Glob(os.DirFS(rootPath), "**/*.so")
	if err != nil {
		return nil, err
	}

	logger := r.logger.With(slog.String("path", rootPath))
	logger.InfoContext(ctx, "Loading step plugins")

	factories := make([]protocol.StepFactory, 0, len(pluginPaths))

	for _, p := range pluginPaths {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			panic(err)
		}

		symbol, err := plg.Lookup(StepSymbolName)
		if err != nil {
			panic(err)
		}

		factory, ok := symbol.(protocol.StepFactory)
		if !ok {
			panic("Could not cast plugin symbol to a step factory")
		}

		factories = append(factories, factory)

		logger.InfoContext(ctx, "Loaded step plugin", slog.String("plugin", p))
	}

	return factories, nil
}
