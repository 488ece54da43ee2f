package fetch

import (
	"fmt"
	"strings"
	"time"
)

// Backoff selects how the delay grows between attempts.
type Backoff int

const (
	// BackoffFixed waits BaseDelay before every retry.
	BackoffFixed Backoff = iota
	// BackoffLinear waits BaseDelay*n before retry n.
	BackoffLinear
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 800 * time.Millisecond
)

// Policy bounds the retries of a single request.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Backoff    Backoff
}

// DefaultPolicy returns 3 retries with a fixed 800ms pause.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay, Backoff: BackoffFixed}
}

// Attempts is the total number of calls the policy allows.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Delay returns the pause before retry number n (1-based).
func (p Policy) Delay(n int) time.Duration {
	if p.BaseDelay <= 0 || n <= 0 {
		return 0
	}
	if p.Backoff == BackoffLinear {
		return p.BaseDelay * time.Duration(n)
	}
	return p.BaseDelay
}

func (b Backoff) String() string {
	if b == BackoffLinear {
		return "linear"
	}
	return "fixed"
}

// ParseBackoff accepts "fixed" or "linear". Blank means fixed.
func ParseBackoff(s string) (Backoff, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return BackoffFixed, nil
	case "linear":
		return BackoffLinear, nil
	default:
		return BackoffFixed, fmt.Errorf("unknown backoff %q", s)
	}
}
