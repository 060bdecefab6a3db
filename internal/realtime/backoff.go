package realtime

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	// DefaultReconnectBase is the first reconnect delay.
	DefaultReconnectBase = time.Second

	maxBackoff = 30 * time.Second

	// stableConnection is how long a socket must stay up before a drop
	// resets the backoff.
	stableConnection = 10 * time.Second
)

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// reconnectPolicy tracks consecutive failed dials and short-lived
// connections.
type reconnectPolicy struct {
	base     time.Duration
	failures int
}

// dialFailed returns the delay before the next dial after a failed one.
func (p *reconnectPolicy) dialFailed() time.Duration {
	delay := calculateBackoff(p.failures, p.base)
	p.failures++
	return delay
}

// dropped returns the delay before redialling after a socket that was up
// for uptime went away. Connections that die quickly keep backing off.
func (p *reconnectPolicy) dropped(uptime time.Duration) time.Duration {
	if uptime >= stableConnection {
		p.failures = 0
	}
	return p.dialFailed()
}

// withJitter spreads d by up to ±20% so many clients do not retry in step.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	spread := int64(d) / 5
	if spread <= 0 {
		return d
	}
	return d - time.Duration(spread) + time.Duration(rand.Int64N(2*spread+1))
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
