package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hexbet/internal/config"
)

const (
	flagHome      = "home"
	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagAddr      = "addr"
	flagTransport = "transport"
	flagRPC       = "rpc"
)

// NewRootCmd creates the hexbetd root command. It is called once in main.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hexbetd",
		Short:         "hexbet six-outcome betting chain daemon",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().String(flagHome, config.Default().Home, "node home directory")
	rootCmd.PersistentFlags().String(flagConfig, "", "config file (default <home>/"+config.FileName+")")
	rootCmd.PersistentFlags().String(flagLogLevel, "", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(
		initCmd(),
		startCmd(),
		operatorCmd(),
	)
	return rootCmd
}

func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString(flagConfig); p != "" {
		return p
	}
	home, _ := cmd.Flags().GetString(flagHome)
	return filepath.Join(home, config.FileName)
}

// loadConfig reads the config file, then applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	overrides := map[string]any{}
	bind := func(flag, key string) {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	bind(flagHome, "home")
	bind(flagLogLevel, "log.level")
	bind(flagAddr, "abci.addr")
	bind(flagTransport, "abci.transport")
	bind(flagRPC, "operator.rpc")
	return config.Load(configPath(cmd), overrides)
}

func newLogger(level string) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return log.NewLogger(os.Stderr, log.LevelOption(lvl)), nil
}
