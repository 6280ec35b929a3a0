package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-callsim/pkg/dialogue"
	"github.com/mattsolo1/grove-callsim/pkg/evaluation"
	"github.com/mattsolo1/grove-callsim/pkg/persona"
	"github.com/mattsolo1/grove-callsim/pkg/simulation"
)

func init() {
	color.NoColor = true
}

func TestPromptMissing(t *testing.T) {
	in := strings.NewReader("125.50\nanxious, defensive\n")
	var out bytes.Buffer

	d, err := promptMissing(persona.Debtor{Name: "Sania", DueDate: "May 25"}, in, &out)
	require.NoError(t, err)
	assert.Equal(t, "125.50", d.AmountDue)
	assert.Equal(t, "anxious, defensive", d.Personality)
	assert.Contains(t, out.String(), "Enter amount due")
	assert.NotContains(t, out.String(), "Enter defaulter's name")
}

func TestPromptMissingShortInput(t *testing.T) {
	_, err := promptMissing(persona.Debtor{}, strings.NewReader("Sania\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount_due")
}

func TestConsoleEmitter(t *testing.T) {
	var out bytes.Buffer
	em := consoleEmitter(&out)

	require.NoError(t, em.Emit(context.Background(), dialogue.Representative, "Hello"))
	require.NoError(t, em.Emit(context.Background(), dialogue.Counterpart, "Hi"))
	assert.Equal(t, "Agent: Hello\nUser: Hi\n", out.String())
}

func TestPrintAttempt(t *testing.T) {
	var out bytes.Buffer
	printAttempt(&out, &simulation.Attempt{Number: 2, Verdicts: []evaluation.Verdict{{evaluation.IsRepeating: "yes"}}}, false)
	assert.Contains(t, out.String(), "Attempt #2 did not meet criteria: is_repeating=yes")

	out.Reset()
	printAttempt(&out, &simulation.Attempt{Number: 1}, false)
	assert.Contains(t, out.String(), "could not be evaluated")
}
