// Package cli implements the twingest command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/twingest/internal/config"
	"github.com/ayusman/twingest/pkg/logger"
)

// Version is the current twingest version.
const Version = "0.1.0"

type globalFlags struct {
	configPath string
	logLevel   string
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "twingest",
		Short: "twingest - gesture and voice input engine for the Digital Twin IDE",
		Long: `twingest turns raw pointer, touch, keyboard and voice input streamed from the
Digital Twin IDE canvas into named, prioritized gesture events.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default: $TWINGEST_CONFIG)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log_level")

	cmd.AddCommand(newServeCommand(flags))
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newClassifyCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// loadConfig loads the configuration and initializes the global logger.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	if err := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "twingest %s\n", Version)
		},
	}
}
