package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-callsim/pkg/llm"
	"github.com/mattsolo1/grove-callsim/pkg/persona"
)

// NewPersonaCmd creates the callsim persona command.
func NewPersonaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Generate the debtor persona prompt without running a call",
		Long: `Generates the system prompt used for the simulated debtor and prints it.
Save the output and pass it to 'callsim run --persona-file' to reuse a persona
across runs.`,
		Args: cobra.NoArgs,
		RunE: runPersona,
	}
	debtorFlags(cmd)
	return cmd
}

func runPersona(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadCallsimConfig()
	if err != nil {
		return err
	}
	if runModel != "" {
		cfg.Model = runModel
		cfg.PersonaModel = ""
	}

	debtor, err := debtorFromFlags()
	if err != nil {
		return err
	}

	base, err := cfg.LLMConfig()
	if err != nil {
		return err
	}
	client, err := llm.NewClient(ctx, base.WithModel(cfg.PersonaModel))
	if err != nil {
		return err
	}

	prompt, err := persona.NewGenerator(client).Generate(ctx, debtor)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), prompt)
	return nil
}
