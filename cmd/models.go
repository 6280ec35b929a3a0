package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-callsim/pkg/llm"
)

// NewModelsCmd creates the callsim models command.
func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models the simulator can route to",
		Long: `Lists recommended models for the agent, debtor, evaluator and reviser.

Gemini and Claude models are called through their APIs; any other name is
passed to the 'llm' command line tool. The special model 'mock' returns canned
replies and needs no credentials.`,
		RunE: runModelsList,
	}
	return cmd
}

type modelInfo struct {
	ID       string       `json:"id"`
	Provider llm.Provider `json:"provider"`
	Note     string       `json:"note"`
}

func recommendedModels() []modelInfo {
	models := []modelInfo{
		{ID: "gemini-2.5-flash", Note: "Default; fast enough for multi-attempt runs"},
		{ID: "gemini-2.5-pro", Note: "Stronger evaluator and reviser"},
		{ID: "gemini-2.0-flash", Note: "Previous generation flash model"},
		{ID: "claude-sonnet-4", Note: "Claude Sonnet, good reviser"},
		{ID: "claude-opus-4", Note: "Most capable, slowest"},
		{ID: "claude-3-haiku", Note: "Fast, lightweight debtor"},
		{ID: "mock", Note: "Offline canned replies for smoke tests"},
	}
	for i := range models {
		models[i].Provider = llm.ProviderFor(models[i].ID)
	}
	return models
}

func runModelsList(cmd *cobra.Command, args []string) error {
	models := recommendedModels()
	out := cmd.OutOrStdout()

	jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")
	if jsonOutput {
		output := struct {
			Models []modelInfo `json:"models"`
		}{
			Models: models,
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "MODEL ID\tPROVIDER\tNOTE")
	fmt.Fprintln(w, "--------\t--------\t----")
	for _, model := range models {
		fmt.Fprintf(w, "%s\t%s\t%s\n", model.ID, model.Provider, model.Note)
	}
	w.Flush()

	fmt.Fprintln(out, "\nUsage: set the model in grove.yml or per run:")
	fmt.Fprintln(out, "  callsim:")
	fmt.Fprintln(out, "    model: gemini-2.5-flash")
	fmt.Fprintln(out, "    evaluator_model: gemini-2.5-pro")
	return nil
}
