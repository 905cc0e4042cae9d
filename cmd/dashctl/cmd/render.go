package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/agent-dashboard/internal/dashboard"
	"github.com/GregMSThompson/agent-dashboard/pkg/helpers"
)

var renderWithMetadata bool

var renderCmd = &cobra.Command{
	Use:   "render <file|->",
	Short: "Build the render model of a dashboard document",
	Long:  "Resolve the dashboard inside a document or agent wrapper, validate it and print the KPI, hero and section model.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderWithMetadata, "metadata", false, "include wrapper metadata (answer, ordering, explanations)")
}

type renderOutput struct {
	Model    dashboard.RenderModel      `json:"model"`
	Metadata *dashboard.WrapperMetadata `json:"metadata,omitempty"`
}

func runRender(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	payload, ok := helpers.DecodeLoose(raw)
	if !ok {
		return fmt.Errorf("%s: not valid JSON", args[0])
	}
	if dashboard.IsEmpty(dashboard.Resolve(payload).Dashboard) {
		return fmt.Errorf("%s: no dashboard data found", args[0])
	}

	result, err := dashboard.Process(payload)
	if err != nil {
		return err
	}

	out := renderOutput{Model: result.Model}
	if renderWithMetadata {
		out.Metadata = &result.Metadata
	}
	return emit(cmd, out)
}
