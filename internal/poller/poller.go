// Package poller runs the single command-polling loop against the chat channel.
package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/arunsharma1203/grievance/internal/metrics"
	"github.com/arunsharma1203/grievance/internal/telegram"
)

// Source yields inbound updates with id >= offset.
type Source interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegram.Update, error)
}

// Handler processes one inbound update.
type Handler interface {
	HandleUpdate(ctx context.Context, u telegram.Update) error
}

// Config controls polling cadence.
type Config struct {
	Interval           time.Duration // tick period
	PollTimeoutSeconds int           // provider-side long-poll wait, shorter than Interval
	DispatchTimeout    time.Duration // bound for each handler call
}

// Poller fetches updates newer than its cursor and dispatches them in order.
// The cursor lives in memory only and starts at zero for every process.
type Poller struct {
	src    Source
	h      Handler
	cfg    Config
	log    zerolog.Logger
	cursor atomic.Int64
}

// New constructs a Poller from dependencies.
func New(src Source, h Handler, cfg Config, log zerolog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.PollTimeoutSeconds < 0 {
		cfg.PollTimeoutSeconds = 0
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 30 * time.Second
	}
	return &Poller{src: src, h: h, cfg: cfg, log: log.With().Str("component", "poller").Logger()}
}

// Cursor returns the highest update id observed so far.
func (p *Poller) Cursor() int64 { return p.cursor.Load() }

// Run polls once per interval until ctx is canceled. Cycles run on this
// goroutine only, so a slow cycle delays the next tick instead of overlapping it.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info().Dur("interval", p.cfg.Interval).Int("long_poll_seconds", p.cfg.PollTimeoutSeconds).Msg("command poller starting")
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Int64("cursor", p.Cursor()).Msg("command poller stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
				// cursor untouched; the same updates come back next tick
				p.log.Warn().Err(err).Int64("cursor", p.Cursor()).Msg("poll cycle aborted")
			}
		}
	}
}

// PollOnce runs a single cycle and returns how many updates were dispatched successfully.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	updates, err := p.src.GetUpdates(ctx, p.Cursor()+1, p.cfg.PollTimeoutSeconds)
	if err != nil {
		metrics.PollCycles.WithLabelValues(metrics.ResultError).Inc()
		return 0, err
	}

	handled := 0
	for _, u := range updates {
		if u.UpdateID <= p.Cursor() {
			continue
		}
		// advance before dispatch: a failing update is never seen twice
		p.cursor.Store(u.UpdateID)
		metrics.UpdatesSeen.Inc()

		if u.Msg() == nil {
			continue
		}
		if err := p.dispatch(ctx, u); err != nil {
			p.log.Error().Stack().Err(err).Int64("update_id", u.UpdateID).Msg("dispatch failed")
			continue
		}
		handled++
	}
	metrics.PollCycles.WithLabelValues(metrics.ResultOK).Inc()
	return handled, nil
}

func (p *Poller) dispatch(ctx context.Context, u telegram.Update) (err error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.DispatchTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in handler: %v", rec)
		}
	}()
	return p.h.HandleUpdate(ctx, u)
}
