package rate

import (
	"context"
	"go.uber.org/ratelimit"
)

// Jitter emits tokens on a channel at a bounded rate until ctx is done,
// then closes the channel.
type Jitter struct {
	ch    chan struct{}
	l     ratelimit.Limiter
	limit int
}

// NewJitter starts a token provider. A limit <= 0 removes the bound entirely.
func NewJitter(ctx context.Context, limit int, opts ...ratelimit.Option) *Jitter {
	var l ratelimit.Limiter
	if limit > 0 {
		l = ratelimit.New(limit, opts...)
	} else {
		l = ratelimit.NewUnlimited()
	}

	brst := int(float64(limit) * 0.1)
	if brst < 1 {
		brst = 1
	}
	jitter := &Jitter{
		limit: limit,
		ch:    make(chan struct{}, brst),
		l:     l,
	}
	go jitter.provider(ctx)
	return jitter
}

func (l *Jitter) provider(ctx context.Context) {
	defer close(l.ch)
	for {
		l.l.Take()
		select {
		case <-ctx.Done():
			return
		case l.ch <- struct{}{}:
		}
	}
}

func (l *Jitter) Limit() int { return l.limit }

func (l *Jitter) Chan() <-chan struct{} {
	return l.ch
}
