package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-callsim/pkg/dialogue"
	"github.com/mattsolo1/grove-callsim/pkg/simulation"
	"github.com/mattsolo1/grove-callsim/pkg/state"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Bold(true)
	agentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

// NewShowCmd creates the callsim show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [transcript]",
		Short: "Display a saved call transcript",
		Long: `Displays the prompt, conversation, evaluation and side-channel log of a saved
transcript. Without an argument the transcript of the most recent run is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShow,
	}
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		last, err := state.GetLastArtifact()
		if err != nil {
			return err
		}
		path = last
	}
	if path == "" {
		path = simulation.DefaultArtifactPath
	}

	artifact, err := simulation.LoadArtifact(path)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")
	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(artifact)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderArtifact(artifact))
	return nil
}

// renderArtifact formats a transcript for the terminal.
func renderArtifact(a *simulation.Artifact) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Call transcript"))
	b.WriteString("\n")
	meta := []string{}
	if a.RunID != "" {
		meta = append(meta, "run "+a.RunID)
	}
	if a.Outcome != "" {
		meta = append(meta, "outcome "+string(a.Outcome))
	}
	if a.Attempts > 0 {
		meta = append(meta, fmt.Sprintf("%d attempt(s)", a.Attempts))
	}
	if !a.SavedAt.IsZero() {
		meta = append(meta, a.SavedAt.Format("2006-01-02 15:04:05"))
	}
	if len(meta) > 0 {
		b.WriteString(mutedStyle.Render(strings.Join(meta, " · ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Prompt"))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(strings.TrimSpace(a.Prompt)))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Conversation"))
	b.WriteString("\n")
	if len(a.Conversation) == 0 {
		b.WriteString(mutedStyle.Render("(empty)"))
		b.WriteString("\n")
	}
	for _, turn := range a.Conversation {
		style := agentStyle
		if turn.Role == dialogue.Counterpart {
			style = userStyle
		}
		b.WriteString(style.Render(turn.Role.Label() + ":"))
		b.WriteString(" ")
		b.WriteString(turn.Message)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Evaluation"))
	b.WriteString("\n")
	writeEvaluation(&b, a)

	if len(a.CustomLog) > 0 {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Log"))
		b.WriteString("\n")
		for _, entry := range a.CustomLog {
			fmt.Fprintf(&b, "%s %s\n", mutedStyle.Render("["+entry.Role.Label()+"]"), entry.Message)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeEvaluation(w io.Writer, a *simulation.Artifact) {
	if len(a.Eval) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("(no verdict)"))
		return
	}
	data, err := json.MarshalIndent(a.Eval, "", "  ")
	if err != nil {
		fmt.Fprintln(w, mutedStyle.Render(err.Error()))
		return
	}
	fmt.Fprintln(w, string(data))
}
