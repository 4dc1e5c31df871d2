package refresh

import (
	"container/heap"
	"context"
	"github.com/Borislavv/go-ash-registry/internal/shared/rate"
	"github.com/benbjohnson/clock"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Func reloads a single key. It is invoked from worker goroutines and may
// call Close on the worker that runs it.
type Func[K comparable] func(ctx context.Context, key K) error

type Refresher[K comparable] interface {
	// Schedule (re)arms key to be refreshed at the given time. A later call
	// for the same key replaces the earlier one.
	Schedule(key K, at time.Time)
	// Cancel drops a pending refresh of key, if any.
	Cancel(key K)
	Pending() int
	Metrics() (scheduled, refreshed, errors int64)
	Close() error
}

type Config struct {
	// Rate bounds refresh invocations per second, <= 0 means unbounded.
	Rate int
	// Workers is the number of consumers, <= 0 means GOMAXPROCS.
	Workers int
	Clock   clock.Clock
}

type Worker[K comparable] struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      Config
	clock    clock.Clock
	logger   *slog.Logger
	fn       Func[K]
	jitter   *rate.Jitter
	counters *refresherCounters

	mu      sync.Mutex
	queue   taskQueue[K]
	pending map[K]uint64
	seq     uint64

	wakeCh   chan struct{}
	invokeCh chan K
	once     sync.Once

	// running counts live goroutines, calling those of them inside fn.
	loopsMu sync.Mutex
	idle    *sync.Cond
	running int
	calling int
}

// New starts a provider goroutine which hands due keys to a pool of consumers.
func New[K comparable](ctx context.Context, cfg Config, logger *slog.Logger, fn Func[K]) *Worker[K] {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)

	var invokeCap = cfg.Rate
	if invokeCap <= 0 || invokeCap > 1024 {
		invokeCap = 1024
	}

	w := &Worker[K]{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		clock:    cfg.Clock,
		logger:   logger,
		fn:       fn,
		jitter:   rate.NewJitter(ctx, cfg.Rate),
		counters: newRefresherCounters(),
		pending:  make(map[K]uint64),
		wakeCh:   make(chan struct{}, 1),
		invokeCh: make(chan K, invokeCap),
	}
	w.idle = sync.NewCond(&w.loopsMu)
	return w.run()
}

func (w *Worker[K]) Schedule(key K, at time.Time) {
	if w.ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	w.seq++
	w.pending[key] = w.seq
	heap.Push(&w.queue, task[K]{key: key, at: at, seq: w.seq})
	w.mu.Unlock()

	w.counters.scheduled.Add(1)
	w.wake()
}

func (w *Worker[K]) Cancel(key K) {
	w.mu.Lock()
	_, ok := w.pending[key]
	delete(w.pending, key)
	w.mu.Unlock()

	if ok {
		w.counters.cancelled.Add(1)
	}
}

// Pending returns the number of keys waiting for their refresh time.
func (w *Worker[K]) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *Worker[K]) Metrics() (scheduled, refreshed, errors int64) {
	scheduled, refreshed, errors, _ = w.counters.snapshot()
	return
}

// Close stops the workers. It waits for every goroutine that is not inside
// fn; refreshes already running finish on their own, so fn may call Close.
// No refresh starts after Close returns.
func (w *Worker[K]) Close() error {
	w.once.Do(func() {
		w.cancel()

		w.loopsMu.Lock()
		for w.running > w.calling {
			w.idle.Wait()
		}
		w.loopsMu.Unlock()

		w.logger.Debug("refresher is stopped")
	})
	return nil
}

// spawn runs loop on a tracked goroutine.
func (w *Worker[K]) spawn(loop func()) {
	w.loopsMu.Lock()
	w.running++
	w.loopsMu.Unlock()

	go func() {
		defer func() {
			w.loopsMu.Lock()
			w.running--
			w.idle.Broadcast()
			w.loopsMu.Unlock()
		}()
		loop()
	}()
}

// invoke calls fn unless the worker is closed, ran reports whether it did.
func (w *Worker[K]) invoke(key K) (ran bool, err error) {
	w.loopsMu.Lock()
	if w.ctx.Err() != nil {
		w.loopsMu.Unlock()
		return false, nil
	}
	w.calling++
	w.loopsMu.Unlock()

	defer func() {
		w.loopsMu.Lock()
		w.calling--
		w.idle.Broadcast()
		w.loopsMu.Unlock()
	}()
	return true, w.fn(w.ctx, key)
}

func (w *Worker[K]) run() *Worker[K] {
	w.logger.Debug("refresher is running", "rate", w.cfg.Rate, "workers", w.cfg.Workers)

	for i := 0; i < w.cfg.Workers; i++ {
		w.spawn(w.consumer)
	}
	w.spawn(w.provider)

	return w
}

func (w *Worker[K]) wake() {
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

// due pops every task whose time has come and reports how long to wait
// for the next one (negative when the queue is empty).
func (w *Worker[K]) due(now time.Time) (keys []K, wait time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wait = -1
	for w.queue.Len() > 0 {
		next := w.queue[0]
		if seq, ok := w.pending[next.key]; !ok || seq != next.seq {
			heap.Pop(&w.queue) // superseded or cancelled
			continue
		}
		if next.at.After(now) {
			wait = next.at.Sub(now)
			break
		}
		heap.Pop(&w.queue)
		delete(w.pending, next.key)
		keys = append(keys, next.key)
	}
	return keys, wait
}

func (w *Worker[K]) provider() {
	for {
		keys, wait := w.due(w.clock.Now())
		for _, key := range keys {
			select {
			case <-w.ctx.Done():
				return
			case w.invokeCh <- key:
			}
		}
		if len(keys) > 0 {
			continue
		}

		var (
			timer  *clock.Timer
			timerC <-chan time.Time
		)
		if wait >= 0 {
			timer = w.clock.Timer(wait)
			timerC = timer.C
		}

		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.wakeCh:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (w *Worker[K]) consumer() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case key := <-w.invokeCh:
			select {
			case <-w.ctx.Done():
				return
			case <-w.jitter.Chan():
			}
			ran, err := w.invoke(key)
			if !ran {
				return
			}
			if err != nil {
				w.counters.errors.Add(1)
				w.logger.Debug("refresh failed", "key", key, "err", err)
			} else {
				w.counters.refreshed.Add(1)
			}
		}
	}
}
