package probe

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// PingChecker sends a single echo request per attempt. In the default
// unprivileged mode it uses a UDP socket (no CAP_NET_RAW needed); set
// Privileged for raw ICMP.
type PingChecker struct {
	Timeout    time.Duration
	Privileged bool
}

func NewPingChecker(timeout time.Duration, privileged bool) *PingChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &PingChecker{Timeout: timeout, Privileged: privileged}
}

func (p *PingChecker) Check(ctx context.Context, target string) CheckResult {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		// bad hostname, failed resolution
		return CheckResult{Success: false, Message: err.Error()}
	}
	pinger.Count = 1
	pinger.Timeout = p.Timeout
	pinger.SetPrivileged(p.Privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		return CheckResult{Success: false, Message: err.Error()}
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return CheckResult{Success: false, Message: "100% packet loss"}
	}
	return CheckResult{
		Success:   true,
		LatencyMS: float64(stats.AvgRtt) / float64(time.Millisecond),
		Message:   "echo reply",
	}
}
