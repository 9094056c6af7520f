package gateway

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RetryingGateway wraps a PaymentGateway with bounded linear backoff. Waits
// grow by the base per attempt (1s, 2s, 3s with the defaults). Only failures
// classified transient are retried; a definitive rejection fails fast.
type RetryingGateway struct {
	inner    PaymentGateway
	attempts int
	baseWait time.Duration
	sleep    func(context.Context, time.Duration) error
	logger   *zap.Logger
}

// NewRetryingGateway wraps the gateway. Non-positive attempts or base wait
// fall back to 3 attempts and 1 second.
func NewRetryingGateway(inner PaymentGateway, attempts int, baseWait time.Duration, logger *zap.Logger) *RetryingGateway {
	if attempts <= 0 {
		attempts = 3
	}
	if baseWait <= 0 {
		baseWait = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingGateway{
		inner:    inner,
		attempts: attempts,
		baseWait: baseWait,
		sleep:    sleepContext,
		logger:   logger,
	}
}

// Submit forwards to the wrapped gateway, retrying transient failures up to
// the attempt bound.
func (g *RetryingGateway) Submit(ctx context.Context, req PayoutRequest) (*PayoutResult, error) {
	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		result, err := g.inner.Submit(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var gwErr *Error
		if errors.As(err, &gwErr) && !gwErr.Transient() {
			g.logger.Warn("payout rejected, not retrying",
				zap.String("reference", req.Reference), zap.Error(err))
			return nil, err
		}
		if attempt == g.attempts {
			break
		}

		wait := time.Duration(attempt) * g.baseWait
		g.logger.Warn("payout attempt failed, retrying",
			zap.String("reference", req.Reference),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
		if err := g.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
