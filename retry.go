package actionclient

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"syscall"
	"time"
)

// DefaultRetryConfig is the default retry configuration used if nil is passed to Retry().
// nolint:gochecknoglobals
var DefaultRetryConfig = RetryConfig{}

// DefaultBackoff is a backoff configuration with the default values.
// nolint:gochecknoglobals
var DefaultBackoff = ExponentialBackoff{
	BaseDelay:  1.0 * time.Second,
	Multiplier: 1.6,
	Jitter:     0.2,
	MaxDelay:   120 * time.Second,
}

// DefaultShouldRetry is the default ShouldRetryer.  It retries the request if the error is
// a timeout, EOF, or connection reset error, or if the status code is 429 (Too Many Requests)
// or >=500, except for 501 (Not Implemented).
func DefaultShouldRetry(attempt int, req *Request, resp *Response, err error) bool {
	var netError net.Error

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNABORTED), errors.Is(err, syscall.EPIPE):
		return true
	case errors.As(err, &netError) && netError.Timeout():
		return true
	case err != nil:
		return false
	case resp == nil:
		return false
	case resp.StatusCode == 429, resp.StatusCode == 500, resp.StatusCode > 501:
		return true
	}

	return false
}

// OnlyIdempotentShouldRetry returns true if the request is using one of the HTTP methods which
// are intended to be idempotent: GET, HEAD, OPTIONS, and TRACE.  Should be combined with other
// criteria using AllRetryers(), for example:
//
//     c.ShouldRetry = AllRetryers(ShouldRetryerFunc(DefaultShouldRetry), ShouldRetryerFunc(OnlyIdempotentShouldRetry))
//
func OnlyIdempotentShouldRetry(_ int, req *Request, _ *Response, _ error) bool {
	switch req.Method {
	case MethodGet, MethodHead, MethodOptions, MethodTrace:
		return true
	}
	return false
}

// AllRetryers returns a ShouldRetryer which returns true only if all the supplied retryers return true.
func AllRetryers(s ...ShouldRetryer) ShouldRetryer {
	return ShouldRetryerFunc(func(attempt int, req *Request, resp *Response, err error) bool {
		for _, shouldRetryer := range s {
			if !shouldRetryer.ShouldRetry(attempt, req, resp, err) {
				return false
			}
		}
		return true
	})
}

// RetryConfig defines settings for the Retry stage.
type RetryConfig struct {
	// MaxAttempts is the number of times to attempt the request.
	// Defaults to 3.
	MaxAttempts int
	// ShouldRetry tests whether a response should be retried.  Defaults to
	// DefaultShouldRetry.
	ShouldRetry ShouldRetryer
	// Backoff returns how long to wait between retries.  Defaults to
	// an exponential backoff with some jitter.
	Backoff Backoffer
}

func (c *RetryConfig) normalize() {
	if c.Backoff == nil {
		c.Backoff = &DefaultBackoff
	}

	if c.ShouldRetry == nil {
		c.ShouldRetry = ShouldRetryerFunc(DefaultShouldRetry)
	}

	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
}

// ShouldRetryer evaluates whether a request should be retried.  resp may be nil.  Attempt is the number of
// the attempt which was just completed, and starts at 1.  For example, if attempt=1, ShouldRetry should return true
// if attempt 2 should be tried.
type ShouldRetryer interface {
	ShouldRetry(attempt int, req *Request, resp *Response, err error) bool
}

// ShouldRetryerFunc adapts a function to the ShouldRetryer interface
type ShouldRetryerFunc func(attempt int, req *Request, resp *Response, err error) bool

// ShouldRetry implements ShouldRetryer
func (s ShouldRetryerFunc) ShouldRetry(attempt int, req *Request, resp *Response, err error) bool {
	return s(attempt, req, resp, err)
}

// Backoffer calculates how long to wait between attempts.  The attempt argument is the attempt which
// just completed, and starts at 1.  So attempt=1 should return the time to wait between attempt 1 and 2.
type Backoffer interface {
	Backoff(attempt int) time.Duration
}

// BackofferFunc adapts a function to the Backoffer interface.
type BackofferFunc func(int) time.Duration

// Backoff implements Backoffer
func (b BackofferFunc) Backoff(attempt int) time.Duration {
	return b(attempt)
}

// ExponentialBackoff defines the configuration options for an exponential backoff strategy.
// The implementation is based on the one from grpc.
type ExponentialBackoff struct {
	// BaseDelay is the amount of time to backoff after the first failure.
	BaseDelay time.Duration
	// Multiplier is the factor with which to multiply backoffs after a
	// failed retry. Should ideally be greater than 1.
	Multiplier float64
	// Jitter is the factor with which backoffs are randomized.
	Jitter float64
	// MaxDelay is the upper bound of backoff delay.
	MaxDelay time.Duration
}

// Backoff implements Backoffer.
func (c *ExponentialBackoff) Backoff(attempt int) time.Duration {
	if attempt == 1 {
		return c.BaseDelay
	}

	backoff, max := float64(c.BaseDelay), float64(c.MaxDelay)
	for backoff < max && attempt > 1 {
		backoff *= c.Multiplier
		attempt--
	}

	if backoff > max {
		backoff = max
	}
	// Randomize backoff delays so that if a cluster of requests start at
	// the same time, they won't operate in lockstep.
	// nolint:gosec
	backoff *= 1 + c.Jitter*(rand.Float64()*2-1)
	if backoff < 0 {
		return 0
	}

	return time.Duration(backoff)
}

// Retry is an inbound stage which retries the request under certain conditions.  The number of retries,
// retry conditions, and the time to sleep between retries can be configured.  If
// config is nil, the DefaultRetryConfig will be used.
//
// Request bodies are byte slices, so every attempt resends the full body.  Each
// attempt gets its own copy of the request, so stages further down the chain
// can modify it freely.
func Retry(config *RetryConfig) Stage {
	var c RetryConfig
	if config == nil {
		c = DefaultRetryConfig
	} else {
		c = *config
	}

	c.normalize()

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			var resp *Response
			var err error
			var attempt int
			for {
				resp, err = next.Handle(ctx, req.Clone())
				attempt++
				if attempt >= c.MaxAttempts || !c.ShouldRetry.ShouldRetry(attempt, req, resp, err) {
					break
				}

				// sleep for backoff
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(c.Backoff.Backoff(attempt)):
				}
			}
			return resp, err
		})
	}
}
