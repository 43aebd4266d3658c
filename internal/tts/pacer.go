package tts

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer inserts a random delay in [minDelay, maxDelay] between the end of one
// synthesis call and the start of the next. The first call never waits.
type Pacer struct {
	minDelay, maxDelay time.Duration

	mu      sync.Mutex
	limiter *rate.Limiter
	last    time.Duration
	jitter  func(n int64) int64
}

// NewPacer returns a pacer; a zero range disables pacing.
func NewPacer(minDelay, maxDelay time.Duration) *Pacer {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Pacer{
		minDelay: minDelay,
		maxDelay: maxDelay,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		jitter:   rand.Int64N,
	}
}

// Wait blocks until the current delay has elapsed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	limiter := p.limiter
	p.mu.Unlock()
	return limiter.Wait(ctx)
}

// Done marks the end of a call and arms the next delay.
func (p *Pacer) Done() {
	d := p.next()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = d
	if d <= 0 {
		p.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	p.limiter = rate.NewLimiter(rate.Every(d), 1)
	p.limiter.Allow() // drain the initial token so the next Wait takes d
}

// LastDelay returns the delay armed by the most recent Done.
func (p *Pacer) LastDelay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Pacer) next() time.Duration {
	span := int64(p.maxDelay - p.minDelay)
	if span <= 0 {
		return p.minDelay
	}
	return p.minDelay + time.Duration(p.jitter(span+1))
}
