// Package persona generates the instructions for the simulated debtor.
package persona

import (
	"context"
	"fmt"
	"os"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-callsim/pkg/llm"
)

var log = grovelogging.NewLogger("callsim.persona")

// Debtor describes the person the counterpart impersonates.
type Debtor struct {
	Name        string `yaml:"name" json:"name"`
	AmountDue   string `yaml:"amount_due" json:"amount_due"`
	DueDate     string `yaml:"due_date" json:"due_date"`
	Personality string `yaml:"personality" json:"personality"`
}

// Missing lists the fields that are empty, by their yaml name.
func (d Debtor) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", d.Name},
		{"amount_due", d.AmountDue},
		{"due_date", d.DueDate},
		{"personality", d.Personality},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// LoadDebtor reads a debtor description from a YAML file.
func LoadDebtor(path string) (Debtor, error) {
	var d Debtor
	data, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("reading debtor file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parsing debtor file %s: %w", path, err)
	}
	return d, nil
}

const generationPrompt = `
You are a human named %s, who has defaulted on a loan of ₹%s, due since %s.

You must behave and respond in a realistic conversation with a debt collection agent.
Your personality traits and behavior are described as: %s.

Generate a **detailed system prompt** that can be used to instruct an LLM to fully impersonate this person in a back-and-forth conversation.
This prompt should guide the LLM to:
- Emulate the tone, speaking style, and emotional behavior of the defaulter.
- Mention relevant personal background if needed to justify behavior.
- Offer realistic excuses or reasons for late payment.
- Possibly negotiate, avoid, or become emotional during the conversation.
- Respond in a way that's consistent with the personality traits.

Make sure the output is written in **prompt format**, not just a description.
`

// Generator builds counterpart instructions with a language model.
type Generator struct {
	client llm.Client
}

// NewGenerator creates a Generator.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Prompt returns the generation prompt for d.
func Prompt(d Debtor) string {
	return fmt.Sprintf(generationPrompt, d.Name, d.AmountDue, d.DueDate, d.Personality)
}

// Generate returns the counterpart's instruction text for d.
func (g *Generator) Generate(ctx context.Context, d Debtor) (string, error) {
	response, err := g.client.Generate(ctx, Prompt(d))
	if err != nil {
		return "", fmt.Errorf("generating persona for %s: %w", d.Name, err)
	}
	instructions := strings.TrimSpace(response)
	if instructions == "" {
		return "", fmt.Errorf("generating persona for %s: empty response", d.Name)
	}
	log.WithFields(logrus.Fields{
		"debtor": d.Name,
		"bytes":  len(instructions),
	}).Info("Counterpart persona generated")
	return instructions, nil
}
