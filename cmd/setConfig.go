package cmd

import (
	"fmt"
	"os"

	"pingwatch/internal/configuration"
	"pingwatch/internal/models"

	"github.com/spf13/cobra"
)

// setConfigCmd represents the set-config command
var setConfigCmd = &cobra.Command{
	Use:   "set-config",
	Short: "Reads a JSON string, converts it to YAML, and saves it to the configuration file",
	Long: `This command takes a JSON string as an argument, parses it, and writes the configuration to the configuration file in YAML format.

Example:
  pingwatch set-config '{"monitor":[{"url":"https://example.com","timeout":"60s"}],"delay":"5s"}'`,
	Args: cobra.ExactArgs(1),
	// The current file may be the broken one being replaced.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := configuration.UpdateConfig(configuration.Config.ConfigFile, []byte(args[0])); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			models.Response{Message: err.Error()}.Print()
			os.Exit(ExitErrorInvalidArgs)
		}

		models.Response{
			Message: "Configuration saved",
			Data:    configuration.Config.ConfigFile,
		}.Print()
	},
}

func init() {
	rootCmd.AddCommand(setConfigCmd)
}
