package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var outputFormat string

var rootCmd = &cobra.Command{
	Use:           "dashctl",
	Short:         "Offline tools for the agent dashboard",
	Long:          "Render dashboard documents, inspect property lists and manage deployment secrets without running the server.",
	SilenceUsage:  true,
	SilenceErrors: false,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(propertiesCmd)
	rootCmd.AddCommand(sealKeyCmd)
	rootCmd.AddCommand(secretCmd)
}

// readInput reads a named file, or stdin for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

// emit writes v in the selected format. YAML output goes through JSON first so
// both formats share the JSON field names.
func emit(cmd *cobra.Command, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch outputFormat {
	case "json":
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(generic)
	case "yaml", "":
		var generic any
		if err := yaml.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}
