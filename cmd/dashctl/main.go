package main

import (
	"os"

	"github.com/GregMSThompson/agent-dashboard/cmd/dashctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
