// Package simulation runs the self-correcting call loop: simulate a call,
// evaluate it, revise the representative policy and retry until the call is
// accepted or the attempt budget is spent.
package simulation

import (
	"context"
	"errors"
	"fmt"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-callsim/pkg/dialogue"
	"github.com/mattsolo1/grove-callsim/pkg/evaluation"
	"github.com/mattsolo1/grove-callsim/pkg/failure"
	"github.com/mattsolo1/grove-callsim/pkg/policy"
)

var log = grovelogging.NewLogger("callsim.simulation")

// DefaultMaxAttempts is the attempt budget when none is configured.
const DefaultMaxAttempts = 3

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeAborted   Outcome = "aborted"
)

// Attempt is one call plus its evaluation under a given policy.
type Attempt struct {
	Number       int
	Policy       policy.Policy
	Conversation dialogue.Conversation
	Verdicts     []evaluation.Verdict
	Log          []dialogue.LogEntry
}

// Dialogue runs one call.
type Dialogue interface {
	Run(ctx context.Context, representativeInstructions, counterpartInstructions, opening string) (*dialogue.Result, error)
}

// Evaluator judges a conversation.
type Evaluator interface {
	Evaluate(ctx context.Context, conv dialogue.Conversation) ([]evaluation.Verdict, error)
}

// Reviser proposes a replacement policy.
type Reviser interface {
	Revise(ctx context.Context, p policy.Policy, conv dialogue.Conversation, verdict evaluation.Verdict) (policy.Policy, error)
}

// Input is what a run needs besides its collaborators.
type Input struct {
	Policy      policy.Policy
	Params      policy.Params
	Counterpart string
}

// Result describes a finished run.
type Result struct {
	Outcome  Outcome
	Final    *Attempt
	Artifact *Artifact
}

// Controller owns the retry loop.
type Controller struct {
	dialogue    Dialogue
	evaluator   Evaluator
	reviser     Reviser
	store       Store
	accept      evaluation.Acceptance
	maxAttempts int
	opening     string
	runID       string
	onAttempt   func(a *Attempt, accepted bool)
}

// Option configures a Controller.
type Option func(*Controller)

// WithAcceptance replaces the default acceptance predicate.
func WithAcceptance(a evaluation.Acceptance) Option {
	return func(c *Controller) { c.accept = a }
}

// WithMaxAttempts sets the attempt budget. Values <= 0 keep the default.
func WithMaxAttempts(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithOpening sets the synthetic first input of every call.
func WithOpening(opening string) Option {
	return func(c *Controller) { c.opening = opening }
}

// WithRunID tags logs and the artifact.
func WithRunID(id string) Option {
	return func(c *Controller) { c.runID = id }
}

// WithObserver is called after every evaluated attempt.
func WithObserver(fn func(a *Attempt, accepted bool)) Option {
	return func(c *Controller) { c.onAttempt = fn }
}

// NewController wires the loop's collaborators.
func NewController(d Dialogue, e Evaluator, r Reviser, s Store, opts ...Option) *Controller {
	c := &Controller{
		dialogue:    d,
		evaluator:   e,
		reviser:     r,
		store:       s,
		accept:      evaluation.DefaultAcceptance,
		maxAttempts: DefaultMaxAttempts,
		opening:     dialogue.DefaultOpening,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes attempts until one is accepted or the budget is spent, then
// persists the final attempt exactly once. Render failures and collaborator
// failures abort the run; the last completed attempt is still persisted.
func (c *Controller) Run(ctx context.Context, in Input) (*Result, error) {
	runLog := log.WithField("run_id", c.runID)
	current := in.Policy

	var last *Attempt
	for n := 1; ; n++ {
		attemptLog := runLog.WithField("attempt", n)
		attemptLog.Info("Starting call attempt")

		attempt, err := c.attempt(ctx, n, current, in)
		if err != nil {
			if attempt != nil && last == nil {
				// Nothing evaluated yet; keep the conversation we do have.
				last = attempt
			}
			attemptLog.WithError(err).Error("Attempt aborted")
			return c.finish(last, OutcomeAborted, err)
		}
		last = attempt

		accepted := c.accept(attempt.Verdicts)
		if c.onAttempt != nil {
			c.onAttempt(attempt, accepted)
		}
		if accepted {
			attemptLog.Info("Call flow met all success criteria")
			return c.finish(last, OutcomeAccepted, nil)
		}
		if n >= c.maxAttempts {
			attemptLog.WithFields(logrus.Fields{
				"kind":         failure.AttemptBudgetExhausted,
				"max_attempts": c.maxAttempts,
			}).Warn("Attempt budget exhausted")
			return c.finish(last, OutcomeExhausted, nil)
		}

		attemptLog.Info("Call flow did not meet criteria, revising policy")
		next, err := c.revise(ctx, attempt, attemptLog)
		if err != nil {
			attemptLog.WithError(err).Error("Policy revision failed")
			return c.finish(last, OutcomeAborted, err)
		}
		current = next
	}
}

// attempt runs and evaluates one call. On evaluation failure the returned
// attempt carries the finished conversation without verdicts.
func (c *Controller) attempt(ctx context.Context, n int, p policy.Policy, in Input) (*Attempt, error) {
	instructions, err := p.Render(in.Params)
	if err != nil {
		return nil, fmt.Errorf("attempt %d: rendering policy: %w", n, err)
	}

	res, err := c.dialogue.Run(ctx, instructions, in.Counterpart, c.opening)
	switch {
	case err == nil:
	case failure.Is(err, failure.TurnLimitExceeded) && res != nil:
		log.WithError(err).WithField("attempt", n).Warn("Evaluating truncated conversation")
	default:
		return nil, fmt.Errorf("attempt %d: dialogue: %w", n, err)
	}

	a := &Attempt{
		Number:       n,
		Policy:       p,
		Conversation: res.Conversation,
		Log:          res.Log,
	}

	verdicts, err := c.evaluator.Evaluate(ctx, res.Conversation)
	if err != nil {
		return a, fmt.Errorf("attempt %d: %w", n, err)
	}
	a.Verdicts = verdicts
	return a, nil
}

// revise asks for a new policy. A revision that drops a placeholder is
// requested once more; if it still fails the previous policy is reused.
func (c *Controller) revise(ctx context.Context, a *Attempt, l *logrus.Entry) (policy.Policy, error) {
	var verdict evaluation.Verdict
	if len(a.Verdicts) > 0 {
		verdict = a.Verdicts[0]
	}

	for try := 1; try <= 2; try++ {
		next, err := c.reviser.Revise(ctx, a.Policy, a.Conversation, verdict)
		if err == nil {
			err = next.Validate()
		}
		if err == nil {
			return next, nil
		}
		if !failure.Is(err, failure.PolicyTemplateMismatch) {
			return "", err
		}
		l.WithError(err).WithField("try", try).Warn("Revised policy rejected")
	}

	l.Warn("Falling back to the previous policy")
	return a.Policy, nil
}

func (c *Controller) finish(last *Attempt, outcome Outcome, runErr error) (*Result, error) {
	res := &Result{Outcome: outcome, Final: last}
	if last == nil {
		return res, runErr
	}

	res.Artifact = NewArtifact(last, outcome, c.runID)
	if err := c.store.Save(res.Artifact); err != nil {
		return res, errors.Join(runErr, fmt.Errorf("persisting artifact: %w", err))
	}
	log.WithFields(logrus.Fields{
		"run_id":   c.runID,
		"outcome":  outcome,
		"attempts": last.Number,
	}).Info("Transcript saved")
	return res, runErr
}
