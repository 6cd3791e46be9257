package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
	pingTimeout     = 5 * time.Second
)

// connectPolicy doubles the wait after every failed ping, starting at
// connectBackoff, for at most connectAttempts pings.
func connectPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = connectBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, connectAttempts-1), ctx)
}

// pingWithRetry pings until it succeeds, the attempts run out or ctx ends.
func pingWithRetry(ctx context.Context, what string, ping func(context.Context) error, log zerolog.Logger) error {
	attempt := 0
	op := func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return ping(pingCtx)
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().
			Err(err).
			Str("target", what).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("Connection not ready, retrying")
	}

	if err := backoff.RetryNotify(op, connectPolicy(ctx), notify); err != nil {
		return fmt.Errorf("ping %s: %w", what, err)
	}
	return nil
}
