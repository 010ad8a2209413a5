package models

import "time"

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// NewWriteKey returns the bucket key for a mutating request: the caller when
// authenticated, the client IP otherwise.
func NewWriteKey(caller, clientIP string) string {
	if caller != "" {
		return "writes:caller:" + SanitizeKeySegment(caller)
	}
	return "writes:ip:" + SanitizeKeySegment(clientIP)
}
