// Package cli implements the goad command line interface.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/vk/goad/internal/configurator"
	"github.com/vk/goad/internal/ctxlog"
	"github.com/vk/goad/internal/registry"
	"github.com/vk/goad/internal/systems"
)

// Execute runs the root command, exiting nonzero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var logLevel, logFormat string

	cmd := &cobra.Command{
		Use:           "goad",
		Short:         "Configuration-driven assembly of multidisciplinary design problems",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := ctxlog.New(logLevel, logFormat, cmd.ErrOrStderr())
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	cmd.AddCommand(
		newGenInputsCmd(),
		newRunCmd(),
		newInspectCmd(),
		newListModulesCmd(),
	)
	return cmd
}

// loadConfigurator builds a registry with the built-in modules and loads
// the configuration, exploring its module folders.
func loadConfigurator(ctx context.Context, path string) (*configurator.Configurator, error) {
	reg := registry.New()
	if err := systems.RegisterAll(reg); err != nil {
		return nil, err
	}
	c := configurator.New(reg)
	if err := c.Load(ctx, path); err != nil {
		return nil, err
	}
	return c, nil
}
