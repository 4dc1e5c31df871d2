package telemetry

import (
	"context"
	"github.com/benbjohnson/clock"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

// Logs periodically writes per-cache interval statistics of a Source.
type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *slog.Logger
	source   Source
	clock    clock.Clock
	interval time.Duration
	wg       sync.WaitGroup
}

// New starts the loop when interval > 0, otherwise the returned Logs is idle.
func New(ctx context.Context, logger *slog.Logger, source Source, interval time.Duration, clk clock.Clock) *Logs {
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(ctx)
	return (&Logs{
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		source:   source,
		clock:    clk,
		interval: interval,
	}).run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	l.wg.Wait()
	return nil
}

func (l *Logs) run() *Logs {
	if l.interval > 0 {
		l.wg.Go(l.loop)
	}
	return l
}

func (l *Logs) loop() {
	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()

	prev := make(map[string]counters)
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			prev = l.emit(prev)
		}
	}
}

// emit logs one line per cache and returns the new baseline. Caches that
// disappeared since the previous tick drop out of the baseline.
func (l *Logs) emit(prev map[string]counters) map[string]counters {
	next := make(map[string]counters, len(prev))
	for _, s := range l.source.Samples() {
		cur := countersOf(s)
		d := deltaCounters(prev[s.Name], cur)
		next[s.Name] = cur

		l.logger.Info("cache_stats",
			"cache", s.Name,
			"interval", l.interval.String(),
			"entries", s.Size,
			"capacity", fmtCapacity(s.Capacity),
			"hits", int64(d.hits),
			"misses", int64(d.misses),
			"hit_ratio", strconv.FormatFloat(d.hitRatio(), 'f', 3, 64),
			"loads", int64(d.loads),
			"load_errors", int64(d.loadFailures),
			"refreshes", int64(d.refreshes),
			"refresh_errors", int64(d.refreshFailures),
			"listener_errors", int64(d.listenerFailures),
		)
	}
	return next
}

func fmtCapacity(c int64) string {
	if c == math.MaxInt64 {
		return "INF"
	}
	return strconv.FormatInt(c, 10)
}
