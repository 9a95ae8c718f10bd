package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers (store, telegram).
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ProbeChecker periodically runs a HealthPinger under a timeout and caches the outcome.
type ProbeChecker struct {
	name         string
	pinger       HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewProbeChecker creates a checker that starts unhealthy until its first successful probe.
func NewProbeChecker(name string, p HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *ProbeChecker {
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	return &ProbeChecker{name: name, pinger: p, log: log, probeTimeout: probeTimeout}
}

func (c *ProbeChecker) Name() string { return c.name }

// IsHealthy returns the cached status (non-blocking).
func (c *ProbeChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

// Check runs one probe and records the result.
func (c *ProbeChecker) Check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	if err := c.pinger.HealthPing(probeCtx); err != nil {
		c.log.Error().Stack().Err(err).Str("checker", c.name).Msg("health probe failed")
		c.healthy.Store(0)
		return false
	}
	c.healthy.Store(1)
	return true
}

// Start probes immediately and then every interval until ctx is done.
func (c *ProbeChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// ServiceHealthChecker aggregates component checkers into a single service health flag.
type ServiceHealthChecker struct {
	healthy atomic.Int32
	deps    []HealthChecker
	log     zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	return &ServiceHealthChecker{deps: deps, log: log}
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() == 1 }

// Components reports the cached status of every dependency.
func (h *ServiceHealthChecker) Components() map[string]bool {
	out := make(map[string]bool, len(h.deps))
	for _, c := range h.deps {
		out[c.Name()] = c.IsHealthy()
	}
	return out
}

// Start periodically evaluates dependency health and updates the service flag.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := int32(-1)
	eval := func() {
		cur := int32(1)
		for _, c := range h.deps {
			if !c.IsHealthy() {
				cur = 0
			}
		}
		h.healthy.Store(cur)
		if cur != prev {
			if cur == 1 {
				h.log.Info().Msg("service health: UP")
			} else {
				h.log.Warn().Interface("components", h.Components()).Msg("service health: DOWN")
			}
			prev = cur
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
