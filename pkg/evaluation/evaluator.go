package evaluation

import (
	"context"
	"fmt"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-callsim/pkg/dialogue"
	"github.com/mattsolo1/grove-callsim/pkg/failure"
	"github.com/mattsolo1/grove-callsim/pkg/judgment"
	"github.com/mattsolo1/grove-callsim/pkg/llm"
)

var log = grovelogging.NewLogger("callsim.evaluation")

const rubric = `You are an expert LLM conversation evaluator.

Given the following conversation between a debt collection agent ("agent") and a customer ("user"), analyze only the agent's messages and evaluate the following three things:

1. Is the bot (agent) repeating itself?
2. Is the bot negotiating enough?
3. Is the bot giving irrelevant responses?

Reply in **JSON format**, exactly like this:
{
  "is_repeating": "yes" or "no",
  "is_negotiating_enough": "yes" or "no",
  "is_irrelevant": "yes" or "no"
}

The answer must validate against this schema:
%s

Conversation:
%s
`

// Evaluator scores a conversation with a language model.
type Evaluator struct {
	client llm.Client
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(client llm.Client) *Evaluator {
	return &Evaluator{client: client}
}

// Prompt builds the rubric prompt for conv. The whole transcript is included
// for context but only the agent's messages are judged.
func Prompt(conv dialogue.Conversation) string {
	return fmt.Sprintf(rubric, judgment.SchemaFor(&verdictFormat{}), conv.Format())
}

// Evaluate returns zero or one verdict. Output without a parseable object
// yields an empty result, not an error; collaborator failures are returned.
func (e *Evaluator) Evaluate(ctx context.Context, conv dialogue.Conversation) ([]Verdict, error) {
	response, err := e.client.Generate(ctx, Prompt(conv))
	if err != nil {
		return nil, fmt.Errorf("evaluating conversation: %w", err)
	}

	obj, ok := judgment.ExtractFirstJSONObject(response)
	if !ok {
		log.WithFields(logrus.Fields{
			"kind":           failure.MalformedVerdict,
			"response_bytes": len(response),
		}).Warn("Evaluator returned no parseable verdict")
		return []Verdict{}, nil
	}

	v := fromObject(obj)
	log.WithFields(logrus.Fields{
		string(IsRepeating):         v.Get(IsRepeating),
		string(IsNegotiatingEnough): v.Get(IsNegotiatingEnough),
		string(IsIrrelevant):        v.Get(IsIrrelevant),
	}).Info("Conversation evaluated")
	return []Verdict{v}, nil
}
