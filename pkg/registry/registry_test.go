package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cihooks/postbuild/pkg/models"
	"github.com/cihooks/postbuild/pkg/protocol"
)

type stubStep struct{}

func (stubStep) Execute(context.Context, *models.BuildContext, *slog.Logger) (bool, error) {
	return true, nil
}

type stubFactory struct {
	id        string
	createErr error
}

func (f *stubFactory) ID() string {
	return f.id
}

func (f *stubFactory) Create(map[string]any) (protocol.Step, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	return stubStep{}, nil
}

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateStep(t *testing.T) {
	registry := newTestRegistry()
	registry.RegisterStep(&stubFactory{id: "log"})

	step, err := registry.CreateStep("log", map[string]any{"message": "done"})

	require.NoError(t, err)
	assert.NotNil(t, step)
}

func TestCreateStepUnknownType(t *testing.T) {
	registry := newTestRegistry()

	_, err := registry.CreateStep("missing", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "step type 'missing' not registered")
}

func TestCreateStepFactoryError(t *testing.T) {
	registry := newTestRegistry()
	registry.RegisterStep(&stubFactory{id: "log", createErr: errors.New("missing required field 'message'")})

	_, err := registry.CreateStep("log", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field")
}

func TestStepTypesSorted(t *testing.T) {
	registry := newTestRegistry()
	registry.RegisterStep(&stubFactory{id: "log"})
	registry.RegisterStep(&stubFactory{id: "enqueue"})
	registry.RegisterStep(&stubFactory{id: "http_request"})

	assert.Equal(t, []string{"enqueue", "http_request", "log"}, registry.StepTypes())
}

func TestRegisterStepReplacesExisting(t *testing.T) {
	registry := newTestRegistry()
	registry.RegisterStep(&stubFactory{id: "log", createErr: errors.New("old")})
	registry.RegisterStep(&stubFactory{id: "log"})

	_, err := registry.CreateStep("log", nil)

	require.NoError(t, err)
}

func TestLoadStepPluginsMissingDirectory(t *testing.T) {
	registry := newTestRegistry()

	factories, err := registry.LoadStepPlugins(context.Background(), t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, factories)
}
