package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-callsim/pkg/failure"
)

// maxRetryDelay caps the exponential growth of the delay between calls.
const maxRetryDelay = time.Minute

// RetryingClient bounds each call with a timeout and retries transient
// failures with exponential backoff. Errors that survive all retries are
// reported as CollaboratorUnavailable.
type RetryingClient struct {
	next      Client
	timeout   time.Duration
	retries   int
	baseDelay time.Duration

	// timer drives the waits between calls; nil uses a real timer.
	timer backoff.Timer
}

// NewRetryingClient wraps next using the timeout and retry settings of cfg.
func NewRetryingClient(next Client, cfg Config) *RetryingClient {
	cfg = cfg.WithDefaults()
	return &RetryingClient{
		next:      next,
		timeout:   cfg.Timeout,
		retries:   cfg.Retries,
		baseDelay: cfg.RetryBackoff,
	}
}

// schedule doubles the delay after every failed call, without jitter, and
// stops after the configured number of retries or when ctx is done.
func (c *RetryingClient) schedule(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = maxRetryDelay
	if b.MaxInterval < c.baseDelay {
		b.MaxInterval = c.baseDelay
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retries)), ctx)
}

// Generate calls the wrapped client until it succeeds, a fatal error occurs,
// or the retry budget is spent.
func (c *RetryingClient) Generate(ctx context.Context, prompt string) (string, error) {
	var (
		response string
		calls    int
		fatal    bool
	)
	operation := func() error {
		calls++
		r, err := c.call(ctx, prompt)
		if err == nil {
			response = r
			return nil
		}
		if !Retryable(ctx, err) {
			fatal = true
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		log.WithError(err).WithFields(logrus.Fields{
			"retry": calls,
			"delay": delay,
		}).Warn("Collaborator call failed, retrying")
	}

	err := backoff.RetryNotifyWithTimer(operation, c.schedule(ctx), notify, c.timer)
	switch {
	case err == nil:
		return response, nil
	case fatal || ctx.Err() != nil:
		return "", err
	default:
		return "", failure.Wrap(failure.CollaboratorUnavailable, "language model call failed after retries", err)
	}
}

func (c *RetryingClient) call(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.next.Generate(callCtx, prompt)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return "", failure.Wrap(failure.CollaboratorUnavailable, "language model call timed out", err)
	}
	return response, err
}

// Retryable reports whether err should be retried. Configuration failures and
// cancellation of the caller's context are final.
func Retryable(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	if failure.Is(err, failure.InvalidConfig) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
