// Package cmd provides the command-line interface for symgen with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --output, etc.) - highest priority
//	2. SYMGEN_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (SYMGEN_GENERATE_BYTES_IN_HASH, etc.)
//	4. Configuration files (.symgen.yml) - lowest priority
//
// Environment Variables:
//
//	SYMGEN_CONFIG_FILE: Path to custom configuration file
//	SYMGEN_GENERATE_OUTPUT_DIR: Override output directory
//	SYMGEN_SOURCE_ROOT: Override interpreter source tree
//	And more following the SYMGEN_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/symgen/internal/config"
	"github.com/conneroisu/symgen/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "symgen",
	Short: "Generate qstr tables and module registries for an embedded interpreter",
	Long: `symgen prepares an embeddable MicroPython-style interpreter for inclusion
in a host program. It preprocesses the interpreter's C sources, discovers
every interned string (qstr) reference and module registration, and renders
the generated headers the interpreter build consumes.

Quick Start:
  symgen generate                 Scan sources and render the headers
  symgen list                     List discovered qstrs and modules
  symgen validate                 Check configuration and data files
  symgen watch                    Regenerate on source changes`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .symgen.yml, can also use SYMGEN_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	bindFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// bindFlag ties a config key to a command-line flag so flags override both
// config file values and environment variables.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. SYMGEN_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .symgen.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SYMGEN_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".symgen")
	}

	viper.SetEnvPrefix("SYMGEN")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults and env vars still apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger from the loaded configuration.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}
