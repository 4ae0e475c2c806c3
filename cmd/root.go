// Package cmd holds the draconic command line.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "draconic",
	Short: "A turn-based tabletop rules engine",
	Long: `draconic resolves initiative, attacks, spells and checks for a table
of characters and monsters. Actions arrive as requests, either typed into
the console ("attack by: fighter to: goblin") or sent over WebSocket, and
every outcome is logged and journaled.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(viper.GetString("log_level"), viper.GetString("log_format"))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.draconic.yaml)")
	rootCmd.PersistentFlags().String("log_level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log_format", "text", "log format (text or json)")
	rootCmd.PersistentFlags().String("worlds_dir", "./worlds", "directory holding the worlds and their campaigns")
	rootCmd.PersistentFlags().String("data_dir", "./data", "extra data directory searched before the built-in records")

	for _, name := range []string{"log_level", "log_format", "worlds_dir", "data_dir"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	def := dispatch.DefaultConfig()
	viper.SetDefault("dispatch.enableLogging", def.EnableLogging)
	viper.SetDefault("dispatch.validateParams", def.ValidateParams)
	viper.SetDefault("dispatch.allowUnsafeFunctions", def.AllowUnsafeFunctions)
	viper.SetDefault("dispatch.timeoutMs", def.TimeoutMs)
	viper.SetDefault("dispatch.maxConcurrentActions", def.MaxConcurrentActions)
	viper.SetDefault("storage.driver", "memory")
	viper.SetDefault("server.addr", ":8080")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".draconic")
	}

	viper.SetEnvPrefix("DRACONIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// dispatchConfig decodes the "dispatch" section.
func dispatchConfig() (dispatch.Config, error) {
	cfg := dispatch.DefaultConfig()
	if err := viper.UnmarshalKey("dispatch", &cfg); err != nil {
		return cfg, fmt.Errorf("invalid dispatch configuration: %w", err)
	}
	return cfg, nil
}
