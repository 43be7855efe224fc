// Package retry provides the backoff arithmetic and cancellable sleeps used
// when the Lucida origin signals throttling or server failures.
//
// The client never re-issues a failed request on its own. Instead, every
// failure bumps a shared error counter and the next request pays the
// backoff computed here before it is sent.
//
// Basic usage:
//
//	backoff := retry.DefaultExponentialBackoff()
//	delay := backoff.NextDelay(consecutiveErrors) // min(2s * 2^n, 5m)
//
//	if err := retry.Wait(ctx, delay); err != nil {
//		return err // context cancelled or deadline exceeded
//	}
package retry
