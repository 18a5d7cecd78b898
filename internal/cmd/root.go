package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beelab/hive/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "hive",
	Short: "Capability-matched multi-agent task engine",
	Long: `Hive coordinates a pool of stateful worker agents over a dependency-aware
task queue. Tasks declare the capabilities they require; agents hold evolving
proficiencies, energy, and trust, and a matcher assigns each task to the best
qualified agent. The pool auto-scales with load and per-agent circuit
breakers isolate repeated failures.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/hive/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/hive")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("HIVE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., HIVE_SCALING_MAX_AGENTS for scaling.max_agents
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
