package ratelimit

import (
	"context"
	"sync"
	"time"

	"lucidaflow/pkg/config"
	"lucidaflow/pkg/logger"
	"lucidaflow/pkg/retry"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour

	// windowMargin is added when sleeping until the oldest request leaves a window
	windowMargin = time.Second
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Wait blocks until every policy allows another request, then records it
	Wait(ctx context.Context) error
	// RecordSuccess resets the consecutive error counter
	RecordSuccess()
	// RecordError increments the consecutive error counter
	RecordError()
	// Stats returns a read-only snapshot of the limiter state
	Stats() Stats
}

// Policy holds the limits enforced by a SlidingWindow
type Policy struct {
	RequestsPerMinute int
	RequestsPerHour   int
	MinDelay          time.Duration
	MaxBackoff        time.Duration
}

// DefaultPolicy returns the conservative limits used against lucida.to
func DefaultPolicy() Policy {
	return Policy{
		RequestsPerMinute: 30,
		RequestsPerHour:   500,
		MinDelay:          2 * time.Second,
		MaxBackoff:        5 * time.Minute,
	}
}

// PolicyFromConfig converts the rate limit section of the configuration
func PolicyFromConfig(cfg *config.RateLimitConfig) Policy {
	if cfg == nil {
		return DefaultPolicy()
	}
	return Policy{
		RequestsPerMinute: cfg.RequestsPerMinute,
		RequestsPerHour:   cfg.RequestsPerHour,
		MinDelay:          cfg.MinDelay,
		MaxBackoff:        cfg.MaxBackoff,
	}
}

// Stats is a snapshot of the limiter state
type Stats struct {
	RequestsLastMinute int `json:"requests_last_minute"`
	RequestsLastHour   int `json:"requests_last_hour"`
	ConsecutiveErrors  int `json:"consecutive_errors"`
	TotalRequests      int `json:"total_requests"`
}

// SlidingWindow enforces a minimum inter-request delay, per-minute and
// per-hour caps over a bounded window of request timestamps, and an
// exponential backoff driven by consecutive errors.
type SlidingWindow struct {
	policy   Policy
	capacity int
	clock    Clock
	backoff  retry.BackoffStrategy
	logger   logger.Logger

	// gate serializes Wait callers; a buffered channel lets waiters give up on ctx
	gate chan struct{}

	mu                sync.Mutex
	requests          []time.Time
	lastRequest       time.Time
	consecutiveErrors int
}

// Option configures a SlidingWindow
type Option func(*SlidingWindow)

// WithClock replaces the wall clock
func WithClock(clock Clock) Option {
	return func(sw *SlidingWindow) {
		sw.clock = clock
	}
}

// WithLogger sets the logger used for sleep notices
func WithLogger(log logger.Logger) Option {
	return func(sw *SlidingWindow) {
		if log != nil {
			sw.logger = log
		}
	}
}

// WithBackoff replaces the error backoff strategy
func WithBackoff(backoff retry.BackoffStrategy) Option {
	return func(sw *SlidingWindow) {
		sw.backoff = backoff
	}
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(policy Policy, opts ...Option) *SlidingWindow {
	capacity := policy.RequestsPerHour
	if capacity < policy.RequestsPerMinute {
		capacity = policy.RequestsPerMinute
	}
	if capacity < 1 {
		capacity = 1
	}

	sw := &SlidingWindow{
		policy:   policy,
		capacity: capacity,
		clock:    RealClock(),
		backoff: &retry.ExponentialBackoff{
			BaseDelay:  policy.MinDelay,
			MaxDelay:   policy.MaxBackoff,
			Multiplier: 2.0,
		},
		gate:     make(chan struct{}, 1),
		requests: make([]time.Time, 0, capacity),
	}

	for _, opt := range opts {
		opt(sw)
	}
	if sw.logger == nil {
		sw.logger = logger.GetLogger()
	}

	return sw
}

// Policy returns the limits this window enforces
func (sw *SlidingWindow) Policy() Policy {
	return sw.policy
}

// Wait blocks until a request is allowed and records it.
// Each policy re-samples the clock after sleeping so later checks see the new time.
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	select {
	case sw.gate <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sw.gate }()

	now := sw.clock.Now()

	sw.mu.Lock()
	last := sw.lastRequest
	sw.mu.Unlock()

	if !last.IsZero() && sw.policy.MinDelay > 0 {
		if elapsed := now.Sub(last); elapsed < sw.policy.MinDelay {
			if err := sw.sleep(ctx, "min_delay", sw.policy.MinDelay-elapsed); err != nil {
				return err
			}
			now = sw.clock.Now()
		}
	}

	if delay := sw.windowDelay(now, minuteWindow, sw.policy.RequestsPerMinute); delay > 0 {
		if err := sw.sleep(ctx, "per_minute", delay); err != nil {
			return err
		}
		now = sw.clock.Now()
	}

	if delay := sw.windowDelay(now, hourWindow, sw.policy.RequestsPerHour); delay > 0 {
		if err := sw.sleep(ctx, "per_hour", delay); err != nil {
			return err
		}
		now = sw.clock.Now()
	}

	sw.mu.Lock()
	failures := sw.consecutiveErrors
	sw.mu.Unlock()

	if failures > 0 {
		if err := sw.sleep(ctx, "backoff", sw.backoff.NextDelay(failures)); err != nil {
			return err
		}
		now = sw.clock.Now()
	}

	sw.record(now)
	return nil
}

// RecordSuccess resets the consecutive error counter
func (sw *SlidingWindow) RecordSuccess() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.consecutiveErrors = 0
}

// RecordError increments the consecutive error counter
func (sw *SlidingWindow) RecordError() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.consecutiveErrors++
}

// Stats returns the current request counts and error state
func (sw *SlidingWindow) Stats() Stats {
	now := sw.clock.Now()

	sw.mu.Lock()
	defer sw.mu.Unlock()

	return Stats{
		RequestsLastMinute: sw.countSince(now.Add(-minuteWindow)),
		RequestsLastHour:   sw.countSince(now.Add(-hourWindow)),
		ConsecutiveErrors:  sw.consecutiveErrors,
		TotalRequests:      len(sw.requests),
	}
}

// windowDelay returns how long to sleep until fewer than limit requests
// remain inside the window ending at now. A non-positive limit disables the check.
func (sw *SlidingWindow) windowDelay(now time.Time, window time.Duration, limit int) time.Duration {
	if limit <= 0 {
		return 0
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	cutoff := now.Add(-window)
	count := 0
	var oldest time.Time
	for _, t := range sw.requests {
		if t.After(cutoff) {
			if count == 0 {
				oldest = t
			}
			count++
		}
	}

	if count < limit {
		return 0
	}

	return window - now.Sub(oldest) + windowMargin
}

// countSince counts recorded requests strictly after cutoff; callers hold mu
func (sw *SlidingWindow) countSince(cutoff time.Time) int {
	count := 0
	for _, t := range sw.requests {
		if t.After(cutoff) {
			count++
		}
	}
	return count
}

// record appends a request timestamp, evicting the oldest past capacity
func (sw *SlidingWindow) record(now time.Time) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = append(sw.requests, now)
	if overflow := len(sw.requests) - sw.capacity; overflow > 0 {
		copy(sw.requests, sw.requests[overflow:])
		sw.requests = sw.requests[:len(sw.requests)-overflow]
	}
	sw.lastRequest = now
}

func (sw *SlidingWindow) sleep(ctx context.Context, policy string, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	logger.LogRateLimit(sw.logger, policy, delay)
	return sw.clock.Sleep(ctx, delay)
}
