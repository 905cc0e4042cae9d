package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/agent-dashboard/internal/properties"
	"github.com/GregMSThompson/agent-dashboard/pkg/helpers"
)

var (
	propertiesSelected string
	propertiesHint     string
)

var propertiesCmd = &cobra.Command{
	Use:   "properties <file|->",
	Short: "Normalize a property list",
	Long:  "Read a property list in any supported shape (flat, nested or bare) and print the normalized records, optionally with the selection that would be used.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProperties,
}

func init() {
	propertiesCmd.Flags().StringVar(&propertiesSelected, "selected", "", "persisted selection token to resolve against the list")
	propertiesCmd.Flags().StringVar(&propertiesHint, "hint", "", "selection hint forwarded by an upstream call")
}

type propertiesOutput struct {
	Records   []properties.Record `json:"records"`
	Selected  string              `json:"selected,omitempty"`
	NumericID string              `json:"numericId,omitempty"`
}

func runProperties(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	payload, ok := helpers.DecodeLoose(raw)
	if !ok {
		return fmt.Errorf("%s: not valid JSON", args[0])
	}

	out := propertiesOutput{Records: properties.Normalize(payload)}
	if len(out.Records) == 0 {
		return fmt.Errorf("%s: no properties found", args[0])
	}
	if propertiesSelected != "" || propertiesHint != "" {
		sel := properties.Resolve(propertiesSelected, out.Records, propertiesHint)
		out.Selected = sel.Token
		out.NumericID = properties.NumericID(sel.Token)
	}
	return emit(cmd, out)
}
