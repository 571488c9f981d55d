package ratelimiter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientLimiters holds one token bucket per client key (usually the remote IP).
// Buckets are created lazily and evicted by Sweep once idle for longer than idleTTL.
type ClientLimiters struct {
	mu      sync.Mutex
	clients map[string]*client

	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates ClientLimiters allowing ratePerSec steady-state requests per client
// with bursts of up to burst requests.
func New(ratePerSec float64, burst int, idleTTL time.Duration) *ClientLimiters {
	return &ClientLimiters{
		clients: make(map[string]*client),
		limit:   rate.Limit(ratePerSec),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (cl *ClientLimiters) WithClock(now func() time.Time) *ClientLimiters {
	cl.now = now
	return cl
}

// Allow consumes a token for key. When the bucket is empty it returns false
// and how long the client should wait before the next token is available.
func (cl *ClientLimiters) Allow(key string) (bool, time.Duration) {
	now := cl.now()

	cl.mu.Lock()
	c, ok := cl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[key] = c
	}
	c.lastSeen = now
	cl.mu.Unlock()

	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		// Give the token back so a rejected request does not push the
		// client's next slot further out.
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Sweep drops buckets not used within idleTTL and returns how many were removed.
func (cl *ClientLimiters) Sweep() int {
	cutoff := cl.now().Add(-cl.idleTTL)

	cl.mu.Lock()
	defer cl.mu.Unlock()
	removed := 0
	for key, c := range cl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(cl.clients, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (cl *ClientLimiters) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.clients)
}

// Run sweeps idle buckets every interval.
// Stops cleanly when ctx is cancelled.
func (cl *ClientLimiters) Run(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("rate limiter sweeper started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("rate limiter sweeper stopping")
			return
		case <-ticker.C:
			if n := cl.Sweep(); n > 0 {
				logger.Debug("evicted idle rate limit buckets", zap.Int("count", n))
			}
		}
	}
}
