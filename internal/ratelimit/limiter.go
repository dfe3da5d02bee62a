package ratelimit

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds the evaluation rounds of a single Acquire call
const DefaultMaxAttempts = 10

const window = time.Second

// ErrLimitExceeded is returned when Acquire could not admit a request
// within DefaultMaxAttempts rounds. It indicates a misconfigured limiter
// or a clock that does not advance.
var ErrLimitExceeded = errors.New("rate limit exceeded: maximum acquire attempts reached")

// Clock abstracts time for the limiter
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Option configures a Limiter
type Option func(*Limiter)

// WithClock sets the time source
func WithClock(clock Clock) Option {
	return func(l *Limiter) {
		l.clock = clock
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts
func WithMaxAttempts(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

// Limiter bounds outbound requests to burst per trailing second and spaces
// consecutive requests at least 1/rate apart. Callers block while waiting.
type Limiter struct {
	mu          sync.Mutex
	interval    time.Duration
	burst       int
	maxAttempts int
	lastRequest time.Time
	requests    []time.Time
	clock       Clock
	logger      *zap.Logger
}

// New creates a new rate limiter
func New(ratePerSecond float64, burst int, logger *zap.Logger, opts ...Option) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if burst < 1 {
		burst = 1
	}

	var interval time.Duration
	if ratePerSecond > 0 {
		interval = time.Duration(float64(time.Second) / ratePerSecond)
	}

	l := &Limiter{
		interval:    interval,
		burst:       burst,
		maxAttempts: DefaultMaxAttempts,
		requests:    make([]time.Time, 0, burst),
		clock:       realClock{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until a request may proceed
func (l *Limiter) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		now := l.clock.Now()
		l.prune(now)

		if len(l.requests) >= l.burst {
			wait := l.requests[0].Add(window).Sub(now)
			l.logger.Debug("Burst limit reached, waiting",
				zap.Int("in_window", len(l.requests)),
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt),
			)
			if wait > 0 {
				l.clock.Sleep(wait)
			}
			continue
		}

		if !l.lastRequest.IsZero() && l.interval > 0 {
			if gap := now.Sub(l.lastRequest); gap < l.interval {
				l.clock.Sleep(l.interval - gap)
			}
		}

		granted := l.clock.Now()
		l.lastRequest = granted
		l.requests = append(l.requests, granted)
		return nil
	}

	l.logger.Error("Rate limiter gave up",
		zap.Int("max_attempts", l.maxAttempts),
		zap.Int("burst", l.burst),
	)
	return ErrLimitExceeded
}

// prune drops timestamps that left the trailing window
func (l *Limiter) prune(now time.Time) {
	keep := 0
	for _, ts := range l.requests {
		if now.Sub(ts) < window {
			l.requests[keep] = ts
			keep++
		}
	}
	l.requests = l.requests[:keep]
}

// InWindow returns the number of requests counted in the trailing window
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.clock.Now())
	return len(l.requests)
}
