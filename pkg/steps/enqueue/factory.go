package enqueue

import (
	"github.com/cihooks/postbuild/pkg/protocol"
)

// StepFactory creates enqueue steps.
type StepFactory struct{}

func NewStepFactory() *StepFactory {
	return &StepFactory{}
}

// ID returns the step type this factory is registered under.
func (*StepFactory) ID() string {
	return "enqueue"
}

func (f *StepFactory) Create(config map[string]any) (protocol.Step, error) {
	if config == nil {
		config = map[string]any{}
	}

	return NewStep(config)
}
