// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"log/slog"

	"github.com/cihooks/postbuild/pkg/registry"
	"github.com/cihooks/postbuild/pkg/steps/enqueue"
	"github.com/cihooks/postbuild/pkg/steps/httprequest"
	logstep "github.com/cihooks/postbuild/pkg/steps/log"
)

func registerStepPlugins(ctx context.Context, reg *registry.Registry, pluginsPath string) {
	stepPlugins, err := reg.LoadStepPlugins(ctx, pluginsPath)
	if err != nil {
		panic(err)
	}

	for _, plugin := range stepPlugins {
		reg.RegisterStep(plugin)
	}
}

func registerNativeSteps(reg *registry.Registry) {
	reg.RegisterStep(logstep.NewStepFactory())
	reg.RegisterStep(httprequest.NewStepFactory())
	reg.RegisterStep(enqueue.NewStepFactory())
}

func NewRegistry(ctx context.Context, log *slog.Logger, pluginsPath string) *registry.Registry {
	reg := registry.NewRegistry(log)

	registerStepPlugins(ctx, reg, pluginsPath)
	registerNativeSteps(reg)

	return reg
}
