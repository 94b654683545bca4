package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pingwatch/internal/configuration"
	pwlog "pingwatch/pkg/log"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Constants for exit codes
const (
	ExitSuccess          = 0
	ExitErrorInvalidArgs = 1
	ExitErrorConnection  = 2
	ExitErrorConfig      = 3
)

var Version = "dev"

// settings holds the configuration loaded by the root pre-run hook.
var settings *configuration.Settings

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pingwatch",
	Short: "Probe websites on a fixed cadence and keep an incident log",
	Long: `A command-line tool that repeatedly probes one or more websites,
classifies every failed check and appends it to a durable incident log.

Usage: pingwatch [--config=path/to/pingwatch.yml] run`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Ensure config file is absolute
		if !filepath.IsAbs(configuration.Config.ConfigFile) {
			absPath, err := filepath.Abs(configuration.Config.ConfigFile)
			if err == nil {
				configuration.Config.ConfigFile = absPath
			}
		}

		required := cmd.Flags().Changed("config")

		loaded, err := configuration.Load(configuration.Config.ConfigFile, configuration.Config.EnvFile, required)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(ExitErrorConfig)
		}
		settings = loaded

		logCloser = pwlog.InitLogger(pwlog.FileConfig{
			Path:       settings.Log.File,
			MaxSizeMB:  settings.Log.MaxSizeMB,
			MaxBackups: settings.Log.MaxBackups,
			MaxAgeDays: settings.Log.MaxAgeDays,
			Compress:   settings.Log.Compress,
		})
		pwlog.SetLogLevel(settings.Log.Level)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

var logCloser io.Closer

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitErrorInvalidArgs)
	}
}

// exit logs the message and terminates with code.
func exit(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Error().Msg(msg)
	if logCloser != nil {
		logCloser.Close()
	}
	os.Exit(code)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configuration.Config.ConfigFile, "config", "c", configuration.CONFIG_PATH, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&configuration.Config.EnvFile, "env-file", configuration.ENV_FILE, "Path to .env file with PINGWATCH_* overrides")
}
