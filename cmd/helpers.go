package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mattsolo1/grove-callsim/pkg/dialogue"
	"github.com/mattsolo1/grove-callsim/pkg/evaluation"
	"github.com/mattsolo1/grove-callsim/pkg/persona"
	"github.com/mattsolo1/grove-callsim/pkg/simulation"
)

var (
	agentColor   = color.New(color.FgCyan, color.Bold)
	userColor    = color.New(color.FgYellow, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
	headerColor  = color.New(color.Bold)
)

// isInteractive reports whether stdin is a terminal.
func isInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

var debtorPrompts = map[string]string{
	"name":        "Enter defaulter's name (e.g., Sania Gupta): ",
	"amount_due":  "Enter amount due (e.g., 125.50): ",
	"due_date":    "Enter due date (e.g., May 25, 2025): ",
	"personality": "Enter personality traits (e.g., emotional, defensive, anxious): ",
}

// promptMissing asks for every empty debtor field on in, writing prompts to out.
func promptMissing(d persona.Debtor, in io.Reader, out io.Writer) (persona.Debtor, error) {
	reader := bufio.NewReader(in)
	for _, field := range d.Missing() {
		fmt.Fprint(out, debtorPrompts[field])
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return d, fmt.Errorf("reading %s: %w", field, err)
		}
		value := strings.TrimSpace(line)
		switch field {
		case "name":
			d.Name = value
		case "amount_due":
			d.AmountDue = value
		case "due_date":
			d.DueDate = value
		case "personality":
			d.Personality = value
		}
		if err == io.EOF {
			break
		}
	}
	if missing := d.Missing(); len(missing) > 0 {
		return d, fmt.Errorf("missing debtor details: %s", strings.Join(missing, ", "))
	}
	return d, nil
}

// resolveDebtor completes d interactively when possible.
func resolveDebtor(d persona.Debtor) (persona.Debtor, error) {
	missing := d.Missing()
	if len(missing) == 0 {
		return d, nil
	}
	if !isInteractive() {
		return d, fmt.Errorf("missing debtor details: %s (pass flags or --debtor-file)", strings.Join(missing, ", "))
	}
	return promptMissing(d, os.Stdin, os.Stdout)
}

// consoleEmitter prints each utterance as it is spoken.
func consoleEmitter(w io.Writer) dialogue.Emitter {
	return dialogue.EmitterFunc(func(ctx context.Context, party dialogue.Party, message string) error {
		c := agentColor
		if party == dialogue.Counterpart {
			c = userColor
		}
		if _, err := c.Fprintf(w, "%s: ", party.Label()); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, message)
		return err
	})
}

// printAttempt reports the verdict of one attempt.
func printAttempt(w io.Writer, a *simulation.Attempt, accepted bool) {
	fmt.Fprintln(w)
	if accepted {
		successColor.Fprintf(w, "✓ Attempt #%d met all success criteria.\n", a.Number)
		return
	}
	if len(a.Verdicts) == 0 {
		failColor.Fprintf(w, "✗ Attempt #%d could not be evaluated.\n", a.Number)
		return
	}
	failColor.Fprintf(w, "✗ Attempt #%d did not meet criteria:", a.Number)
	verdict := a.Verdicts[0]
	criteria := make([]string, 0, len(verdict))
	for criterion := range verdict {
		criteria = append(criteria, string(criterion))
	}
	sort.Strings(criteria)
	for _, criterion := range criteria {
		fmt.Fprintf(w, " %s=%s", criterion, verdict[evaluation.Criterion(criterion)])
	}
	fmt.Fprintln(w)
}

// printOutcome summarizes a finished run.
func printOutcome(w io.Writer, res *simulation.Result, output string) {
	fmt.Fprintln(w)
	switch res.Outcome {
	case simulation.OutcomeAccepted:
		successColor.Fprintln(w, "Call flow met all success criteria.")
	case simulation.OutcomeExhausted:
		warnColor.Fprintln(w, "Attempt budget exhausted; inspect the evaluation in the transcript.")
	default:
		failColor.Fprintln(w, "Run aborted.")
	}
	if res.Artifact != nil {
		fmt.Fprintf(w, "Transcript saved to %s\n", output)
	}
}
