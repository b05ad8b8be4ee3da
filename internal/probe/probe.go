package probe

import "context"

// CheckResult is the unified outcome of a single probe attempt.
//
// StatusCode is the HTTP status when available; 0 for transport errors and
// for reachability probes.
type CheckResult struct {
	Success    bool    `json:"success"`
	StatusCode int     `json:"status_code,omitempty"`
	LatencyMS  float64 `json:"latency_ms,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// Checker performs a single check for a given target. Implementations never
// return an error: every failure mode collapses into Success=false with a
// Message saying why.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}
