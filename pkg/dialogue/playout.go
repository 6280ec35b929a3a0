package dialogue

import (
	"context"
)

// Emitter receives each utterance as it is committed to the call. A voice
// integration would synthesize speech here; the CLI prints a live transcript.
type Emitter interface {
	Emit(ctx context.Context, party Party, message string) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, party Party, message string) error

// Emit implements Emitter.
func (f EmitterFunc) Emit(ctx context.Context, party Party, message string) error {
	return f(ctx, party, message)
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, Party, string) error { return nil }

// utterance is the playout scope of one reply. Emission runs while the role
// executes its tools; wait blocks until the utterance is fully emitted.
type utterance struct {
	done chan struct{}
	err  error
}

func startUtterance(ctx context.Context, e Emitter, party Party, message string) *utterance {
	u := &utterance{done: make(chan struct{})}
	go func() {
		defer close(u.done)
		u.err = e.Emit(ctx, party, message)
	}()
	return u
}

func (u *utterance) wait(ctx context.Context) error {
	select {
	case <-u.done:
		return u.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
