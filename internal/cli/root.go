// Package cli implements the patchbayd command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/patchbay-vj/patchbay/internal/config"
	"github.com/patchbay-vj/patchbay/internal/logging"
)

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

type rootFlags struct {
	configFile string
	logLevel   string
	logFormat  string
}

func newRootCmd(version string) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "patchbayd",
		Short:         "Patchbay visual performance daemon",
		Long:          "patchbayd manages slot decks, mixer state and presets,\nand serves output processes and remote clients.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is $HOME/.config/patchbay/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "override logging format (json, console)")

	cmd.AddCommand(
		newServeCmd(flags),
		newExportCmd(flags),
		newImportCmd(flags),
		newMigrateCmd(flags),
		newMediaCmd(flags),
	)

	return cmd
}

// loadConfig loads configuration and initializes logging, applying any
// root flag overrides.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	loader := config.NewLoader()
	if flags.configFile != "" {
		loader.SetConfigFile(flags.configFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})

	if used := loader.ConfigFileUsed(); used != "" {
		logger := logging.Component("config")
		logger.Debug().Str("config_file", used).Msg("loaded config file")
	}

	return cfg, nil
}
