// Package health keeps a cached liveness flag for slow dependencies so
// the health endpoint never blocks on them.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Pinger is the probe a checker runs against its dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker periodically probes one dependency and caches the result.
type Checker struct {
	name    string
	pinger  Pinger
	log     zerolog.Logger
	timeout time.Duration
	healthy atomic.Bool
}

func NewChecker(name string, p Pinger, log zerolog.Logger, timeout time.Duration) *Checker {
	return &Checker{name: name, pinger: p, log: log, timeout: timeout}
}

// IsHealthy returns the cached probe result.
func (c *Checker) IsHealthy() bool { return c.healthy.Load() }

// Start probes immediately, then on every interval tick until ctx ends.
// Transitions are logged once, not on every tick.
func (c *Checker) Start(ctx context.Context, interval time.Duration) {
	c.probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.probe(ctx)
		}
	}
}

func (c *Checker) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.pinger.Ping(pctx)
	was := c.healthy.Swap(err == nil)
	switch {
	case err == nil && !was:
		c.log.Info().Str("component", c.name).Msg("health: UP")
	case err != nil && was:
		c.log.Error().Err(err).Str("component", c.name).Msg("health: DOWN")
	}
}
