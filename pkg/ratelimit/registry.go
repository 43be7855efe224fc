package ratelimit

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Registry hands out one shared limiter per target origin so that every
// client talking to the same origin draws from the same request budget.
type Registry struct {
	policy   Policy
	opts     []Option
	mu       sync.Mutex
	limiters map[string]*SlidingWindow
}

// NewRegistry creates a registry whose limiters all use the given policy
func NewRegistry(policy Policy, opts ...Option) *Registry {
	return &Registry{
		policy:   policy,
		opts:     opts,
		limiters: make(map[string]*SlidingWindow),
	}
}

// For returns the limiter owning the origin of rawURL, creating it on first use
func (r *Registry) For(rawURL string) (*SlidingWindow, error) {
	origin, err := Origin(rawURL)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sw, ok := r.limiters[origin]; ok {
		return sw, nil
	}

	sw := NewSlidingWindow(r.policy, r.opts...)
	r.limiters[origin] = sw
	return sw, nil
}

// Len returns the number of origins with a limiter
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

// Origin normalizes rawURL to scheme://host[:port]
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid origin %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid origin %q: scheme and host are required", rawURL)
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), nil
}
