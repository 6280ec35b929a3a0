package main

import (
	"os"

	"github.com/mattsolo1/grove-core/cli"

	"github.com/mattsolo1/grove-callsim/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"callsim",
		"Simulated collection calls with a self-correcting agent prompt",
	)

	rootCmd.AddCommand(cmd.NewRunCmd())
	rootCmd.AddCommand(cmd.NewPersonaCmd())
	rootCmd.AddCommand(cmd.NewShowCmd())
	rootCmd.AddCommand(cmd.NewModelsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
