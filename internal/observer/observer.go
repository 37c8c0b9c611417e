// Package observer implements the Observer (C9): a periodic watchdog
// over one table's staging rows that raises a throttle flag once a side
// grows past observer-throttle-size and clears it once drained back to
// half that, and optionally runs VACUUM on every tick. Grounded on the
// teacher's ticker-driven progress reporting in internal/engine/pumper.go,
// generalized from a progress printer into a stateful throttle signal
// exposed through Throttled. The Extractor does not consult the flag,
// so a raised flag does not pause extraction.
package observer

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"pgcompare/internal/model"
)

// Counter is the subset of *repo.Repo the observer needs.
type Counter interface {
	StagedCount(ctx context.Context, tid int64, side model.Side) (int64, error)
	Vacuum(ctx context.Context, side model.Side) error
}

// Config controls throttle thresholds and polling cadence.
type Config struct {
	Enabled      bool
	ThrottleSize int64
	Vacuum       bool
	Interval     time.Duration
}

// Observer tracks whether extraction should pause for tid/side.
type Observer struct {
	cfg      Config
	counter  Counter
	log      *zap.Logger
	tid      int64
	side     model.Side
	throttle atomic.Bool
}

// New constructs an Observer for one (tid, side) pair.
func New(cfg Config, counter Counter, log *zap.Logger, tid int64, side model.Side) *Observer {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &Observer{cfg: cfg, counter: counter, log: log, tid: tid, side: side}
}

// Throttled reports whether the staged count last rose above
// ThrottleSize without having drained back to half of it since.
func (o *Observer) Throttled() bool { return o.throttle.Load() }

// Run polls StagedCount on cfg.Interval until ctx is done, toggling the
// throttle flag at the thresholds from spec §4.9: set above
// ThrottleSize, clear at or below half that, optionally vacuuming the
// staging table each tick once the count is available.
func (o *Observer) Run(ctx context.Context) {
	if !o.cfg.Enabled {
		return
	}
	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	half := o.cfg.ThrottleSize / 2
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := o.counter.StagedCount(ctx, o.tid, o.side)
			if err != nil {
				o.log.Warn("observer failed to count staged rows", zap.Int64("tid", o.tid), zap.Error(err))
				continue
			}
			switch {
			case count > o.cfg.ThrottleSize:
				o.throttle.Store(true)
			case count <= half:
				o.throttle.Store(false)
			}
			if o.cfg.Vacuum {
				if err := o.counter.Vacuum(ctx, o.side); err != nil {
					o.log.Warn("observer vacuum failed", zap.Int64("tid", o.tid), zap.Error(err))
				}
			}
		}
	}
}
