// Package revision rewrites a representative policy using the evaluator's
// feedback on a failed call.
package revision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-callsim/pkg/dialogue"
	"github.com/mattsolo1/grove-callsim/pkg/evaluation"
	"github.com/mattsolo1/grove-callsim/pkg/failure"
	"github.com/mattsolo1/grove-callsim/pkg/llm"
	"github.com/mattsolo1/grove-callsim/pkg/policy"
)

var log = grovelogging.NewLogger("callsim.revision")

const metaPrompt = `
You are a Prompt Improvement Assistant for conversational LLM agents.

Below is a prompt that was originally given to an LLM to simulate a debt collection agent.

----------------------------
Original Prompt:
%s

----------------------------
The conversation it generated:
%s

----------------------------
Evaluation of the conversation:
%s

----------------------------

Please generate a new improved version of the **prompt** that fixes the weaknesses shown in the evaluation.

For example, if the evaluation says "is_repeating": "yes", improve the prompt to encourage the agent not to repeat itself.

DO NOT regenerate the conversation - only generate a **new, better prompt**.

Also note: This is only *one example conversation*. Your improved prompt should work more generally.

Keep every placeholder of the original prompt (such as {name}, {amount_due}, {due_date}, {today} and {summary}) exactly as written.

Only return the new improved prompt.
`

// Reviser produces replacement policies.
type Reviser struct {
	client llm.Client
}

// NewReviser creates a Reviser.
func NewReviser(client llm.Client) *Reviser {
	return &Reviser{client: client}
}

// Prompt builds the meta-prompt for one revision.
func Prompt(p policy.Policy, conv dialogue.Conversation, verdict evaluation.Verdict) (string, error) {
	if verdict == nil {
		verdict = evaluation.Verdict{}
	}
	evalText, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing verdict: %w", err)
	}
	return fmt.Sprintf(metaPrompt, p, conv.Format(), evalText), nil
}

// Revise asks the model for a new policy and returns its trimmed text. The
// result is not checked for placeholders; callers validate it.
func (r *Reviser) Revise(ctx context.Context, p policy.Policy, conv dialogue.Conversation, verdict evaluation.Verdict) (policy.Policy, error) {
	prompt, err := Prompt(p, conv, verdict)
	if err != nil {
		return "", err
	}

	response, err := r.client.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("revising policy: %w", err)
	}

	revised := policy.Policy(strings.TrimSpace(response))
	if revised == "" {
		return "", failure.New(failure.PolicyTemplateMismatch, "revision returned an empty policy")
	}

	log.WithFields(logrus.Fields{
		"previous_bytes": len(p),
		"revised_bytes":  len(revised),
	}).Info("Policy revised")
	return revised, nil
}
