// Package httpx holds the retry predicates shared by outbound HTTP
// clients, chiefly the workflow-engine webhook.
package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"
)

// IsRetryableHTTPStatus reports whether a response status is worth one
// more attempt: timeouts, throttling, and server-side failures.
func IsRetryableHTTPStatus(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryableError reports whether a transport-level error is
// transient. Anything else is treated as permanent.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// JitterSleep spreads retries around the base delay (±20%) so
// concurrent callers do not hammer the engine in lockstep.
func JitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	v := low + rand.Float64()*(2*delta)
	return time.Duration(v * float64(time.Second))
}
