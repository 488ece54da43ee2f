package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/breate/internal/filter"
)

// Transport performs one network call for a descriptor. Any error, including
// a non-2xx status, is treated as a transient failure.
type Transport interface {
	Fetch(ctx context.Context, d filter.Descriptor) (json.RawMessage, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, d filter.Descriptor) (json.RawMessage, error)

// Fetch implements Transport.
func (f TransportFunc) Fetch(ctx context.Context, d filter.Descriptor) (json.RawMessage, error) {
	return f(ctx, d)
}

// FetchError is the terminal failure of a request once retries are exhausted.
type FetchError struct {
	Descriptor filter.Descriptor
	Attempts   int
	Cause      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.Descriptor.Key(), e.Attempts, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Result is the outcome of Execute. Token always matches the descriptor's
// token so callers can discard stale results.
type Result struct {
	Token      filter.Token
	Descriptor filter.Descriptor
	Payload    json.RawMessage
	Attempts   int
	Err        error
}

// OK reports whether the request succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Client executes descriptors with bounded retries.
type Client struct {
	transport Transport
	policy    Policy
	logger    *zap.Logger
}

// NewClient wraps transport with the given retry policy.
func NewClient(transport Transport, policy Policy, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{transport: transport, policy: policy, logger: logger}
}

// Policy returns the client's default retry policy.
func (c *Client) Policy() Policy { return c.policy }

// Execute runs d with the client's policy.
func (c *Client) Execute(ctx context.Context, d filter.Descriptor) Result {
	return c.ExecuteWith(ctx, d, c.policy)
}

// ExecuteWith runs d, retrying transient failures according to p. An empty
// but successful payload is a valid terminal result.
func (c *Client) ExecuteWith(ctx context.Context, d filter.Descriptor, p Policy) Result {
	res := Result{Token: d.Token, Descriptor: d}
	var payload json.RawMessage
	attempts, err := Retry(ctx, p, c.logger.With(zap.String("endpoint", d.Key()), zap.Uint64("token", uint64(d.Token))),
		func(ctx context.Context) error {
			var ferr error
			payload, ferr = c.transport.Fetch(ctx, d)
			return ferr
		})
	res.Attempts = attempts
	if err != nil {
		res.Err = &FetchError{Descriptor: d, Attempts: attempts, Cause: err}
		return res
	}
	res.Payload = payload
	return res
}

// Retry calls fn until it succeeds or the policy is exhausted, returning the
// number of attempts made and the last error. Context cancellation ends the
// loop early.
func Retry(ctx context.Context, p Policy, logger *zap.Logger, fn func(context.Context) error) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	total := p.Attempts()
	var last error
	for attempt := 1; attempt <= total; attempt++ {
		if err := ctx.Err(); err != nil {
			if last == nil {
				last = err
			}
			return attempt - 1, last
		}
		err := fn(ctx)
		if err == nil {
			return attempt, nil
		}
		last = err
		if ctx.Err() != nil {
			return attempt, err
		}
		if attempt == total {
			break
		}
		delay := p.Delay(attempt)
		logger.Warn("retrying request",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", total),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := sleep(ctx, delay); err != nil {
			return attempt, last
		}
	}
	return total, last
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
