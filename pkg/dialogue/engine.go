package dialogue

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-callsim/pkg/failure"
	"github.com/mattsolo1/grove-callsim/pkg/llm"
)

// DefaultOpening is the synthetic first input the representative answers.
const DefaultOpening = "Hello"

// DefaultMaxTurns is the safety ceiling for a single call.
const DefaultMaxTurns = 50

// Result is the record of one finished call.
type Result struct {
	Conversation Conversation
	// Log holds the representative's entries followed by the counterpart's.
	Log []LogEntry
	// EndedBy is empty when the call stopped for any reason other than a hangup.
	EndedBy Party
}

// Engine alternates two roles until one of them ends the call.
type Engine struct {
	representative llm.Client
	counterpart    llm.Client
	maxTurns       int
	turnDelay      time.Duration
	emitter        Emitter
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxTurns overrides the turn ceiling. Values <= 0 keep the default and
// odd values are rounded up, so only a hangup can end a call mid-pair.
func WithMaxTurns(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxTurns = n + n%2
		}
	}
}

// WithTurnDelay pauses between exchanges, useful against rate limits.
func WithTurnDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.turnDelay = d }
}

// WithEngineEmitter passes e to both roles.
func WithEngineEmitter(em Emitter) EngineOption {
	return func(e *Engine) { e.emitter = em }
}

// NewEngine creates an engine whose roles talk to the given clients.
func NewEngine(representative, counterpart llm.Client, opts ...EngineOption) *Engine {
	e := &Engine{
		representative: representative,
		counterpart:    counterpart,
		maxTurns:       DefaultMaxTurns,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run creates fresh roles from the rendered instructions and converses.
func (e *Engine) Run(ctx context.Context, representativeInstructions, counterpartInstructions, opening string) (*Result, error) {
	rep := NewRepresentative(e.representative, representativeInstructions, WithEmitter(e.emitter))
	cp := NewCounterpart(e.counterpart, counterpartInstructions, WithEmitter(e.emitter))
	return e.Converse(ctx, rep, cp, opening)
}

// Converse drives rep and cp turn by turn. Both ended flags are checked after
// every single reply, so a hangup stops the call before the partner answers.
// When the turn ceiling is hit the partial result is returned with a
// TurnLimitExceeded failure.
func (e *Engine) Converse(ctx context.Context, rep, cp Role, opening string) (*Result, error) {
	if opening == "" {
		opening = DefaultOpening
	}

	var conv Conversation
	input := opening
	for {
		for _, r := range []Role{rep, cp} {
			if len(conv) >= e.maxTurns {
				log.WithField("max_turns", e.maxTurns).Warn("Turn ceiling reached without a hangup")
				return buildResult(conv, rep, cp), failure.Newf(failure.TurnLimitExceeded, "no hangup after %d turns", e.maxTurns)
			}

			reply, err := r.GenerateReply(ctx, input)
			if err != nil {
				return buildResult(conv, rep, cp), fmt.Errorf("turn %d: %w", len(conv)+1, err)
			}
			conv = append(conv, Turn{Role: r.Party(), Message: reply.Message})

			log.WithFields(logrus.Fields{
				"turn": len(conv),
				"role": r.Party(),
			}).Infof("%s replied: %s", r.Party().Label(), reply.Message)

			if rep.Ended() || cp.Ended() {
				return buildResult(conv, rep, cp), nil
			}
			input = reply.Message
		}

		if e.turnDelay > 0 {
			select {
			case <-ctx.Done():
				return buildResult(conv, rep, cp), ctx.Err()
			case <-time.After(e.turnDelay):
			}
		}
	}
}

func buildResult(conv Conversation, rep, cp Role) *Result {
	res := &Result{Conversation: conv}
	res.Log = append(res.Log, rep.Log()...)
	res.Log = append(res.Log, cp.Log()...)
	switch {
	case rep.Ended():
		res.EndedBy = rep.Party()
	case cp.Ended():
		res.EndedBy = cp.Party()
	}
	return res
}
