package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/cihooks/postbuild/pkg/cmd"
	"github.com/cihooks/postbuild/pkg/config"
	"github.com/cihooks/postbuild/pkg/engine"
	"github.com/cihooks/postbuild/pkg/log"
	"github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a post-build action configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "actions",
				Aliases:  []string{"a"},
				Usage:    "Path to the post-build action configuration file",
				Required: true,
				Sources:  cli.EnvVars("POSTBUILD_ACTIONS"),
			},
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing step plugins",
				Value:   "./plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: validateAction,
	}
}

func validateAction(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("postbuild").With("action", "validate")

	configuration, err := config.Load(command.String("actions"))
	if err != nil {
		return fmt.Errorf("failed to load action file: %w", err)
	}

	registry := cmd.NewRegistry(ctx, logger, command.String("plugins-path"))

	fmt.Println("Action Validation Results:")
	fmt.Println("==========================")

	validGroups := 0
	invalidGroups := 0
	warnings := 0

	for i, scriptFile := range configuration.ScriptFiles {
		fmt.Printf("\nScript file %d: %s\n", i+1, scriptFile.Path)

		if strings.TrimSpace(scriptFile.Path) == "" {
			fmt.Printf("    ⚠ WARNING: no script path configured, group will be skipped\n")
			warnings++

			continue
		}

		fmt.Printf("    ✅ VALID\n")
		validGroups++
	}

	for i, script := range configuration.Scripts {
		fmt.Printf("\nScript %d\n", i+1)

		if strings.TrimSpace(script.Content) == "" {
			fmt.Printf("    ⚠ WARNING: no script content configured, group will be skipped\n")
			warnings++

			continue
		}

		err := engine.CheckSyntax(fmt.Sprintf("script-%d", i+1), script.Content)
		if err != nil {
			fmt.Printf("    ❌ INVALID: %v\n", err)
			invalidGroups++

			continue
		}

		fmt.Printf("    ✅ VALID\n")
		validGroups++
	}

	for i, group := range configuration.StepGroups {
		fmt.Printf("\nStep group %d\n", i+1)

		if len(group.Steps) == 0 {
			fmt.Printf("    ⚠ WARNING: no steps configured, group will be skipped\n")
			warnings++

			continue
		}

		groupValid := true

		for _, step := range group.Steps {
			fmt.Printf("  Step: %s\n", step.Type)

			_, err := registry.CreateStep(step.Type, step.Config)
			if err != nil {
				fmt.Printf("    ❌ INVALID: %v\n", err)

				groupValid = false

				continue
			}

			fmt.Printf("    ✅ VALID\n")
		}

		if groupValid {
			validGroups++
		} else {
			invalidGroups++
		}
	}

	fmt.Printf("\nValidation Summary:\n")
	fmt.Printf("  Valid groups: %d\n", validGroups)
	fmt.Printf("  Invalid groups: %d\n", invalidGroups)
	fmt.Printf("  Warnings: %d\n", warnings)

	if invalidGroups > 0 {
		return fmt.Errorf("found %d invalid action groups", invalidGroups)
	}

	fmt.Println("All post-build actions are valid! ✅")

	return nil
}
