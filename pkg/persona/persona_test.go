package persona

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-callsim/pkg/llm"
)

func TestGenerate(t *testing.T) {
	client := &llm.MockClient{Responses: []string{"  You are Sania, anxious and defensive.\n"}}
	d := Debtor{Name: "Sania Gupta", AmountDue: "125.50", DueDate: "May 25, 2025", Personality: "emotional, defensive"}

	got, err := NewGenerator(client).Generate(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "You are Sania, anxious and defensive.", got)

	prompt := client.Prompts[0]
	assert.Contains(t, prompt, "You are a human named Sania Gupta, who has defaulted on a loan of ₹125.50, due since May 25, 2025.")
	assert.Contains(t, prompt, "described as: emotional, defensive.")
}

func TestGenerateEmptyResponse(t *testing.T) {
	client := &llm.MockClient{Responses: []string{"  "}}
	_, err := NewGenerator(client).Generate(context.Background(), Debtor{Name: "X"})
	assert.Error(t, err)
}

func TestDebtorMissing(t *testing.T) {
	assert.Equal(t, []string{"amount_due", "personality"}, Debtor{Name: "A", DueDate: "B"}.Missing())
	assert.Empty(t, Debtor{Name: "A", AmountDue: "1", DueDate: "B", Personality: "calm"}.Missing())
}

func TestLoadDebtor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debtor.yml")
	content := `name: Sania Gupta
amount_due: "125.50"
due_date: May 25, 2025
personality: emotional, defensive, anxious
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	d, err := LoadDebtor(path)
	require.NoError(t, err)
	assert.Equal(t, Debtor{
		Name:        "Sania Gupta",
		AmountDue:   "125.50",
		DueDate:     "May 25, 2025",
		Personality: "emotional, defensive, anxious",
	}, d)

	_, err = LoadDebtor(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
