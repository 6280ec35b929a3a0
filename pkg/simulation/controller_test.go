package simulation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-callsim/pkg/dialogue"
	"github.com/mattsolo1/grove-callsim/pkg/evaluation"
	"github.com/mattsolo1/grove-callsim/pkg/failure"
	"github.com/mattsolo1/grove-callsim/pkg/policy"
)

const basePolicy policy.Policy = "Attempt policy for {name} {amount_due} {due_date} {today} {summary}"

var params = policy.Params{Name: "Sania", AmountDue: "125", DueDate: "May 25", Today: "June 1", Summary: policy.NoSummary}

var (
	passing = evaluation.Verdict{evaluation.IsRepeating: "no", evaluation.IsNegotiatingEnough: "yes", evaluation.IsIrrelevant: "no"}
	failing = evaluation.Verdict{evaluation.IsRepeating: "yes", evaluation.IsNegotiatingEnough: "no", evaluation.IsIrrelevant: "no"}
)

type fakeDialogue struct {
	runs         int
	instructions []string
	errOnRun     map[int]error
	partial      bool
}

func (f *fakeDialogue) Run(ctx context.Context, rep, cp, opening string) (*dialogue.Result, error) {
	f.runs++
	f.instructions = append(f.instructions, rep)
	res := &dialogue.Result{
		Conversation: dialogue.Conversation{
			{Role: dialogue.Representative, Message: fmt.Sprintf("call %d", f.runs)},
			{Role: dialogue.Counterpart, Message: "bye"},
		},
		Log: []dialogue.LogEntry{{Role: dialogue.Representative, Kind: "complaint", Message: "[Complaint] : fees"}},
	}
	if err := f.errOnRun[f.runs]; err != nil {
		if f.partial {
			return res, err
		}
		return nil, err
	}
	return res, nil
}

type fakeEvaluator struct {
	verdicts [][]evaluation.Verdict
	calls    int
	err      error
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, conv dialogue.Conversation) ([]evaluation.Verdict, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.verdicts) == 0 {
		return []evaluation.Verdict{}, nil
	}
	i := f.calls - 1
	if i >= len(f.verdicts) {
		i = len(f.verdicts) - 1
	}
	return f.verdicts[i], nil
}

type fakeReviser struct {
	calls     int
	responses []policy.Policy
	err       error
	verdicts  []evaluation.Verdict
}

func (f *fakeReviser) Revise(ctx context.Context, p policy.Policy, conv dialogue.Conversation, v evaluation.Verdict) (policy.Policy, error) {
	f.calls++
	f.verdicts = append(f.verdicts, v)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) > 0 {
		i := f.calls - 1
		if i >= len(f.responses) {
			i = len(f.responses) - 1
		}
		return f.responses[i], nil
	}
	return policy.Policy(fmt.Sprintf("Revision %d for {name} {amount_due} {due_date} {today} {summary}", f.calls)), nil
}

type memoryStore struct {
	saved []*Artifact
}

func (m *memoryStore) Save(a *Artifact) error {
	m.saved = append(m.saved, a)
	return nil
}

func input() Input {
	return Input{Policy: basePolicy, Params: params, Counterpart: "debtor persona"}
}

func TestRunExhaustsBudget(t *testing.T) {
	d := &fakeDialogue{}
	e := &fakeEvaluator{verdicts: [][]evaluation.Verdict{{failing}}}
	r := &fakeReviser{}
	s := &memoryStore{}
	never := func([]evaluation.Verdict) bool { return false }

	res, err := NewController(d, e, r, s, WithMaxAttempts(3), WithAcceptance(never)).Run(context.Background(), input())
	require.NoError(t, err)

	assert.Equal(t, OutcomeExhausted, res.Outcome)
	assert.Equal(t, 3, d.runs)
	assert.Equal(t, 2, r.calls, "no revision after the last attempt")
	require.Len(t, s.saved, 1)

	// The artifact holds the policy that produced the final conversation.
	art := s.saved[0]
	assert.Equal(t, "Revision 2 for {name} {amount_due} {due_date} {today} {summary}", art.Prompt)
	assert.Equal(t, "Revision 2 for Sania 125 May 25 June 1 No past conversation", d.instructions[2])
	assert.Equal(t, "call 3", art.Conversation[0].Message)
	assert.Equal(t, 3, art.Attempts)
	assert.Equal(t, []evaluation.Verdict{failing}, art.Eval)
	assert.Len(t, art.CustomLog, 1)
}

func TestRunAcceptedFirstAttempt(t *testing.T) {
	d := &fakeDialogue{}
	r := &fakeReviser{}
	s := &memoryStore{}
	var observed []bool

	res, err := NewController(d, &fakeEvaluator{verdicts: [][]evaluation.Verdict{{passing}}}, r, s,
		WithRunID("run-1"),
		WithObserver(func(a *Attempt, accepted bool) { observed = append(observed, accepted) }),
	).Run(context.Background(), input())
	require.NoError(t, err)

	assert.Equal(t, OutcomeAccepted, res.Outcome)
	assert.Equal(t, 1, d.runs)
	assert.Equal(t, 0, r.calls)
	assert.Equal(t, []bool{true}, observed)
	require.Len(t, s.saved, 1)
	assert.Equal(t, "run-1", s.saved[0].RunID)
	assert.Equal(t, basePolicy.String(), s.saved[0].Prompt)
}

func TestRunAcceptedAfterRevision(t *testing.T) {
	d := &fakeDialogue{}
	e := &fakeEvaluator{verdicts: [][]evaluation.Verdict{{failing}, {passing}}}
	r := &fakeReviser{}
	s := &memoryStore{}

	res, err := NewController(d, e, r, s).Run(context.Background(), input())
	require.NoError(t, err)

	assert.Equal(t, OutcomeAccepted, res.Outcome)
	assert.Equal(t, 2, d.runs)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, []evaluation.Verdict{failing}, r.verdicts)
	assert.Equal(t, 2, res.Final.Number)
	require.Len(t, s.saved, 1)
}

func TestRunMissingVerdictCountsAsFailure(t *testing.T) {
	d := &fakeDialogue{}
	r := &fakeReviser{}

	res, err := NewController(d, &fakeEvaluator{}, r, &memoryStore{}, WithMaxAttempts(2)).Run(context.Background(), input())
	require.NoError(t, err)

	assert.Equal(t, OutcomeExhausted, res.Outcome)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, []evaluation.Verdict{nil}, r.verdicts)
	assert.NotNil(t, res.Artifact.Eval)
}

func TestRunRevisionRetriedOnceThenFallsBack(t *testing.T) {
	d := &fakeDialogue{}
	r := &fakeReviser{responses: []policy.Policy{"lost all placeholders"}}
	s := &memoryStore{}

	res, err := NewController(d, &fakeEvaluator{verdicts: [][]evaluation.Verdict{{failing}}}, r, s, WithMaxAttempts(2)).
		Run(context.Background(), input())
	require.NoError(t, err)

	assert.Equal(t, OutcomeExhausted, res.Outcome)
	assert.Equal(t, 2, r.calls, "one revision with a single re-request")
	assert.Equal(t, d.instructions[0], d.instructions[1], "previous policy reused")
	assert.Equal(t, basePolicy.String(), s.saved[0].Prompt)
}

func TestRunRevisionSecondRequestSucceeds(t *testing.T) {
	d := &fakeDialogue{}
	good := policy.Policy("Better {name} {amount_due} {due_date} {today} {summary}")
	r := &fakeReviser{responses: []policy.Policy{"broken {name}", good}}

	_, err := NewController(d, &fakeEvaluator{verdicts: [][]evaluation.Verdict{{failing}}}, r, &memoryStore{}, WithMaxAttempts(2)).
		Run(context.Background(), input())
	require.NoError(t, err)

	assert.Equal(t, 2, r.calls)
	assert.Equal(t, "Better Sania 125 May 25 June 1 No past conversation", d.instructions[1])
}

func TestRunDialogueFailureKeepsLastGoodAttempt(t *testing.T) {
	d := &fakeDialogue{errOnRun: map[int]error{2: failure.New(failure.CollaboratorUnavailable, "model down")}}
	s := &memoryStore{}

	res, err := NewController(d, &fakeEvaluator{verdicts: [][]evaluation.Verdict{{failing}}}, &fakeReviser{}, s).
		Run(context.Background(), input())
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.CollaboratorUnavailable))

	assert.Equal(t, OutcomeAborted, res.Outcome)
	require.Len(t, s.saved, 1)
	assert.Equal(t, "call 1", s.saved[0].Conversation[0].Message)
	assert.Equal(t, OutcomeAborted, s.saved[0].Outcome)
}

func TestRunDialogueFailureOnFirstAttemptWritesNothing(t *testing.T) {
	d := &fakeDialogue{errOnRun: map[int]error{1: errors.New("boom")}}
	s := &memoryStore{}

	res, err := NewController(d, &fakeEvaluator{}, &fakeReviser{}, s).Run(context.Background(), input())
	require.Error(t, err)
	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.Nil(t, res.Final)
	assert.Empty(t, s.saved)
}

func TestRunEvaluationFailurePersistsConversation(t *testing.T) {
	d := &fakeDialogue{}
	s := &memoryStore{}
	e := &fakeEvaluator{err: failure.New(failure.CollaboratorUnavailable, "eval down")}

	res, err := NewController(d, e, &fakeReviser{}, s).Run(context.Background(), input())
	require.Error(t, err)
	assert.Equal(t, OutcomeAborted, res.Outcome)
	require.Len(t, s.saved, 1)
	assert.Equal(t, "call 1", s.saved[0].Conversation[0].Message)
	assert.Empty(t, s.saved[0].Eval)
}

func TestRunTurnLimitIsRecoverable(t *testing.T) {
	d := &fakeDialogue{partial: true, errOnRun: map[int]error{1: failure.New(failure.TurnLimitExceeded, "50 turns")}}
	e := &fakeEvaluator{verdicts: [][]evaluation.Verdict{{passing}}}

	res, err := NewController(d, e, &fakeReviser{}, &memoryStore{}).Run(context.Background(), input())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, res.Outcome)
	assert.Equal(t, 1, e.calls)
}

func TestRunRenderFailureAborts(t *testing.T) {
	d := &fakeDialogue{}
	s := &memoryStore{}
	in := input()
	in.Policy = "no placeholders"

	_, err := NewController(d, &fakeEvaluator{}, &fakeReviser{}, s).Run(context.Background(), in)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.PolicyTemplateMismatch))
	assert.Equal(t, 0, d.runs)
	assert.Empty(t, s.saved)
}

func TestRunRevisionCollaboratorFailureAborts(t *testing.T) {
	s := &memoryStore{}
	r := &fakeReviser{err: failure.New(failure.CollaboratorUnavailable, "down")}

	res, err := NewController(&fakeDialogue{}, &fakeEvaluator{verdicts: [][]evaluation.Verdict{{failing}}}, r, s).
		Run(context.Background(), input())
	require.Error(t, err)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, OutcomeAborted, res.Outcome)
	require.Len(t, s.saved, 1)
}

func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "transcript.json")
	attempt := &Attempt{
		Number: 2,
		Policy: basePolicy,
		Conversation: dialogue.Conversation{
			{Role: dialogue.Representative, Message: "Hello"},
			{Role: dialogue.Counterpart, Message: "Hi"},
		},
		Verdicts: []evaluation.Verdict{passing},
		Log:      []dialogue.LogEntry{{Role: dialogue.Representative, Kind: "reschedule", Message: "[Reschedule] Requested callback on Monday"}},
	}
	art := NewArtifact(attempt, OutcomeAccepted, "run-7")

	require.NoError(t, NewFileStore(path).Save(art))
	loaded, err := LoadArtifact(path)
	require.NoError(t, err)

	assert.Equal(t, art.Prompt, loaded.Prompt)
	assert.Equal(t, art.Conversation, loaded.Conversation)
	assert.Equal(t, art.Eval, loaded.Eval)
	assert.Equal(t, art.CustomLog, loaded.CustomLog)
	assert.Equal(t, OutcomeAccepted, loaded.Outcome)
	assert.Equal(t, 2, loaded.Attempts)
}

func TestNewArtifactNormalizesEmptyLists(t *testing.T) {
	art := NewArtifact(&Attempt{Number: 1, Policy: basePolicy}, OutcomeExhausted, "")
	assert.NotNil(t, art.Conversation)
	assert.NotNil(t, art.Eval)
	assert.NotNil(t, art.CustomLog)
}
