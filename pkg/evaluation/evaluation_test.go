package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-callsim/pkg/dialogue"
	"github.com/mattsolo1/grove-callsim/pkg/llm"
)

var sampleConversation = dialogue.Conversation{
	{Role: dialogue.Representative, Message: "Hello, this is Joe from SBI Bank."},
	{Role: dialogue.Counterpart, Message: "I lost my job, I can't pay."},
	{Role: dialogue.Representative, Message: "Would a partial payment by Friday work?"},
	{Role: dialogue.Counterpart, Message: "Maybe. Bye."},
}

func TestDefaultAcceptance(t *testing.T) {
	tests := []struct {
		name     string
		verdicts []Verdict
		want     bool
	}{
		{
			name:     "all criteria met",
			verdicts: []Verdict{{IsRepeating: "no", IsNegotiatingEnough: "yes", IsIrrelevant: "no"}},
			want:     true,
		},
		{
			name:     "repeating",
			verdicts: []Verdict{{IsRepeating: "yes", IsNegotiatingEnough: "yes", IsIrrelevant: "no"}},
			want:     false,
		},
		{
			name:     "not negotiating",
			verdicts: []Verdict{{IsRepeating: "no", IsNegotiatingEnough: "no", IsIrrelevant: "no"}},
			want:     false,
		},
		{
			name:     "missing criterion",
			verdicts: []Verdict{{IsRepeating: "no", IsNegotiatingEnough: "yes"}},
			want:     false,
		},
		{
			name:     "no verdicts",
			verdicts: []Verdict{},
			want:     false,
		},
		{
			name: "any verdict suffices",
			verdicts: []Verdict{
				{IsRepeating: "yes"},
				{IsRepeating: "no", IsNegotiatingEnough: "yes", IsIrrelevant: "no"},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultAcceptance(tt.verdicts))
		})
	}
}

func TestVerdictFailing(t *testing.T) {
	v := Verdict{IsRepeating: "yes", IsNegotiatingEnough: "no", IsIrrelevant: "no"}
	assert.Equal(t, []Criterion{IsNegotiatingEnough, IsRepeating}, v.Failing(DefaultCriteria))
	assert.Empty(t, Verdict{IsRepeating: "no", IsNegotiatingEnough: "yes", IsIrrelevant: "no"}.Failing(DefaultCriteria))
}

func TestEvaluateParsesVerdict(t *testing.T) {
	client := &llm.MockClient{Responses: []string{"Sure! Here you go:\n```json\n" +
		`{"is_repeating": "No", "is_negotiating_enough": true, "is_irrelevant": " no "}` +
		"\n```\nHope this helps."}}

	verdicts, err := NewEvaluator(client).Evaluate(context.Background(), sampleConversation)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, Verdict{IsRepeating: "no", IsNegotiatingEnough: "yes", IsIrrelevant: "no"}, verdicts[0])
	assert.True(t, DefaultAcceptance(verdicts))

	prompt := client.Prompts[0]
	assert.Contains(t, prompt, "analyze only the agent's messages")
	assert.Contains(t, prompt, "Agent: Hello, this is Joe from SBI Bank.\nUser: I lost my job, I can't pay.")
	assert.Contains(t, prompt, `"is_negotiating_enough"`)
}

func TestEvaluateMalformedIsEmpty(t *testing.T) {
	client := &llm.MockClient{Responses: []string{"The agent did fine overall."}}

	verdicts, err := NewEvaluator(client).Evaluate(context.Background(), sampleConversation)
	require.NoError(t, err)
	assert.NotNil(t, verdicts)
	assert.Empty(t, verdicts)
	assert.False(t, DefaultAcceptance(verdicts))
}

func TestEvaluateCollaboratorError(t *testing.T) {
	client := &llm.MockClient{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("quota exceeded")
	}}

	_, err := NewEvaluator(client).Evaluate(context.Background(), sampleConversation)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestFromObject(t *testing.T) {
	v := fromObject(map[string]any{"a": "YES", "b": false, "c": float64(3)})
	assert.Equal(t, Verdict{"a": "yes", "b": "no", "c": "3"}, v)
}
