package github

import (
	"log"
	"strings"
	"time"
)

const (
	// Mutations get a small number of in-process retries; anything beyond
	// that is left to an operator rerun, which is idempotent.
	defaultMaxRetries   = 2
	defaultInitialDelay = 1 * time.Second
)

// retryTransient executes fn with exponential backoff, retrying only
// transient transport failures. Permanent errors return immediately.
func retryTransient(fn func() error) error {
	return retryTransientCustom(defaultMaxRetries, defaultInitialDelay, fn)
}

func retryTransientCustom(maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := initialDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[Retry] Attempt %d/%d after %v delay", attempt+1, maxRetries+1, delay)
			time.Sleep(delay)
			delay *= 2
		}

		lastErr = fn()
		if lastErr == nil {
			if attempt > 0 {
				log.Printf("[Retry] Succeeded on attempt %d/%d", attempt+1, maxRetries+1)
			}
			return nil
		}

		if !isRetryableError(lastErr) {
			return lastErr
		}

		if attempt < maxRetries {
			log.Printf("[Retry] Retryable error on attempt %d/%d: %v", attempt+1, maxRetries+1, lastErr)
		}
	}

	log.Printf("[Retry] All %d attempts failed, giving up", maxRetries+1)
	return lastErr
}

// isRetryableError reports whether an error looks like a transient network
// failure. GraphQL rejections and missing resources are permanent.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if kind := KindOf(err); kind != KindTransport {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"eof",
		"timeout",
		"connection refused",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"no such host",
		"network is unreachable",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
