package ai

import "strings"

// ErrorClass is the retry policy's view of a failed model call
type ErrorClass int

const (
	// ClassTerminal errors are surfaced immediately
	ClassTerminal ErrorClass = iota
	// ClassRetryable errors are transient (timeouts, temporary unavailability)
	ClassRetryable
	// ClassQuota errors are rate limits/quota exhaustion; retried and may trigger the fallback model
	ClassQuota
	// ClassRevoked means the API key was revoked or reported leaked; never retried
	ClassRevoked
)

func (c ErrorClass) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassQuota:
		return "quota"
	case ClassRevoked:
		return "revoked"
	default:
		return "terminal"
	}
}

// Retryable reports whether the class allows another attempt
func (c ErrorClass) Retryable() bool {
	return c == ClassRetryable || c == ClassQuota
}

var (
	quotaMarkers     = []string{"429", "quota", "rate limit", "retry in"}
	transientMarkers = []string{"temporarily unavailable", "deadline exceeded", "unavailable"}
)

// Classify decides how the retry loop treats err by looking for marker
// substrings in its message (case-insensitive). Providers do not agree on
// structured error codes, so the message text is the common denominator.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassTerminal
	}
	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "403") && (strings.Contains(msg, "leaked") || strings.Contains(msg, "revoked")) {
		return ClassRevoked
	}
	if containsAny(msg, quotaMarkers) {
		return ClassQuota
	}
	if containsAny(msg, transientMarkers) {
		return ClassRetryable
	}
	return ClassTerminal
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
