// Package ratelimit keeps request pressure on the Lucida origin below its
// implicit limits.
//
// A SlidingWindow applies four policies, in order, before every request:
//
//  1. Minimum delay: requests are at least MinDelay apart.
//  2. Per-minute cap: at most RequestsPerMinute requests in any 60s window.
//  3. Per-hour cap: at most RequestsPerHour requests in any 3600s window.
//  4. Backoff: after n consecutive errors, sleep min(MinDelay*2^n, MaxBackoff).
//
// The window stores at most max(RequestsPerHour, RequestsPerMinute)
// timestamps; the oldest is evicted first. Callers report the outcome of
// each request through RecordSuccess and RecordError, which are the only
// ways the error counter changes.
//
// Wait serializes concurrent callers, so one SlidingWindow can be shared by
// every goroutine that talks to the same origin. Registry hands out exactly
// one SlidingWindow per origin.
//
// Usage:
//
//	limiter := ratelimit.NewSlidingWindow(ratelimit.DefaultPolicy())
//
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	resp, err := http.DefaultClient.Do(req)
//	if err != nil || resp.StatusCode >= 500 {
//	    limiter.RecordError()
//	} else {
//	    limiter.RecordSuccess()
//	}
package ratelimit
