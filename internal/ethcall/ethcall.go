// Package ethcall wraps eth_call with a concurrency gate and retry on
// provider throttling.
package ethcall

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/rs/zerolog"
)

// Caller limits parallel eth_call traffic to protect the RPC and retries
// transient failures with exponential backoff.
type Caller struct {
	gate     chan struct{}
	maxTries uint
	initial  time.Duration
	log      zerolog.Logger

	// OnRetry, when set, is invoked before every retry.
	OnRetry func(err error)
}

func New(maxConcurrency, maxTries int, log zerolog.Logger) *Caller {
	if maxConcurrency <= 0 {
		maxConcurrency = 16
	}
	if maxTries <= 0 {
		maxTries = 3
	}
	return &Caller{
		gate:     make(chan struct{}, maxConcurrency),
		maxTries: uint(maxTries),
		initial:  200 * time.Millisecond,
		log:      log.With().Str("component", "ethcall").Logger(),
	}
}

// Call performs eth_call against the latest block. Reverts are not retried.
func (c *Caller) Call(ctx context.Context, b ethereum.ContractCaller, msg ethereum.CallMsg) ([]byte, error) {
	select {
	case c.gate <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.gate }()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initial
	policy.MaxInterval = 8 * c.initial

	op := func() ([]byte, error) {
		out, err := b.CallContract(ctx, msg, nil)
		if err != nil && IsRevert(err) {
			return nil, backoff.Permanent(err)
		}
		return out, err
	}
	notify := func(err error, d time.Duration) {
		c.log.Debug().Err(err).Dur("backoff", d).Str("reason", ClassifyError(err)).Msg("eth_call retry")
		if c.OnRetry != nil {
			c.OnRetry(err)
		}
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(notify))
}

func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005")
}

func IsRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "execution reverted")
}

// ClassifyError returns a concise, user-facing reason for common eth_call failures.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	switch {
	case IsRateLimit(err):
		return "[RATE_LIMIT] provider throttled the request"
	case IsRevert(err):
		if idx := strings.Index(s, "execution reverted:"); idx >= 0 {
			if r := strings.TrimSpace(s[idx+len("execution reverted:"):]); r != "" {
				return "[REVERT] " + r
			}
		}
		return "[REVERT] execution reverted"
	case strings.Contains(s, "dial tcp"), strings.Contains(s, "lookup "):
		return "[NETWORK] " + s
	}
	return "[RPC] " + s
}
