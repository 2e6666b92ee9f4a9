package ratelimiter

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidConfig     = errors.New("ratelimiter: invalid configuration")
	ErrInvalidTokenCount = errors.New("ratelimiter: invalid token count")
	ErrStoreUnavailable  = errors.New("ratelimiter: store unavailable")
)

// Config defines the token bucket configuration.
type Config struct {
	Capacity       int           // burst size
	RefillRate     int           // tokens added per interval
	RefillInterval time.Duration // interval between refills
}

func (c Config) validate() error {
	switch {
	case c.Capacity <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("capacity must be positive"))
	case c.RefillRate <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("refill rate must be positive"))
	case c.RefillInterval <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("refill interval must be positive"))
	}
	return nil
}

// Result contains the result of a rate limit check.
type Result struct {
	Limit     int
	Remaining int // negative when the request was denied
	ResetAt   time.Time
}

// Allowed reports whether the request fit in the bucket.
func (r Result) Allowed() bool { return r.Remaining >= 0 }

// RetryAfter returns how long to wait before the next request.
// Returns 0 if the request was allowed.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Store persists bucket state.
type Store interface {
	// ConsumeTokens refills the bucket for key, then subtracts tokens.
	// A negative remaining value means the bucket could not cover the request;
	// the tokens are not debited in that case.
	ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config) (remaining int, resetAt time.Time, err error)
}
