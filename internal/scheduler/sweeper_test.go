package scheduler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nihilok/serverstatus/internal/display"
	"github.com/nihilok/serverstatus/internal/notify"
	"github.com/nihilok/serverstatus/internal/probe"
	"github.com/nihilok/serverstatus/internal/status"
	"github.com/nihilok/serverstatus/internal/target"
)

type verdictChecker struct {
	mu       sync.Mutex
	verdicts map[string]probe.CheckResult
	delay    time.Duration
	calls    map[string]int
}

func (v *verdictChecker) Check(ctx context.Context, t string) probe.CheckResult {
	if v.delay > 0 {
		time.Sleep(v.delay)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.calls == nil {
		v.calls = map[string]int{}
	}
	v.calls[t]++
	if out, ok := v.verdicts[t]; ok {
		return out
	}
	return probe.CheckResult{Success: false, Message: "unknown target"}
}

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (r *recordingNotifier) Send(ctx context.Context, title, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return r.err
}

func newTestSweeper(t *testing.T, targets []target.Target, checker probe.Checker, nt notify.Notifier) (*Sweeper, *notify.DownLog, *bytes.Buffer) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "down.log")
	dl := notify.NewDownLog(logPath)
	var buf bytes.Buffer
	s := NewSweeper(
		zap.NewNop(),
		targets,
		checker, checker,
		nt,
		dl,
		status.New(),
		display.New(&buf),
		1, // interval: one tick per countdown
		1,
	)
	s.Tick = time.Millisecond
	s.Diagnose = func(string) string { return "RESOLVES" }
	return s, dl, &buf
}

func TestSweepOnce_UpTargetTouchesNothing(t *testing.T) {
	targets := []target.Target{{Raw: "http://example.com", Kind: target.KindHTTP}}
	chk := &verdictChecker{verdicts: map[string]probe.CheckResult{
		"http://example.com": {Success: true, StatusCode: 200},
	}}
	nt := &recordingNotifier{}
	s, dl, _ := newTestSweeper(t, targets, chk, nt)

	s.sweepOnce(context.Background())

	rows := s.Store.Rows()
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Up)
	assert.Equal(t, 200, rows[0].StatusCode)
	assert.Empty(t, nt.titles, "no notification for an up target")
	_, err := os.Stat(dl.Path)
	assert.True(t, os.IsNotExist(err), "down log must stay untouched")
}

func TestSweepOnce_DownTargetLogsAndNotifies(t *testing.T) {
	targets := []target.Target{{Raw: "10.0.0.5", Kind: target.KindReachability}}
	chk := &verdictChecker{verdicts: map[string]probe.CheckResult{
		"10.0.0.5": {Success: false, Message: "100% packet loss"},
	}}
	nt := &recordingNotifier{}
	s, dl, _ := newTestSweeper(t, targets, chk, nt)

	s.sweepOnce(context.Background())

	data, err := os.ReadFile(dl.Path)
	require.NoError(t, err)
	assert.Regexp(t,
		regexp.MustCompile(`^Server: 10\.0\.0\.5 is down - \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\n$`),
		string(data))
	require.Len(t, nt.titles, 1, "one delivery attempt per down verdict")
	assert.Contains(t, nt.titles[0], "10.0.0.5")
}

func TestSweepOnce_NotifierFailureDoesNotHaltSweep(t *testing.T) {
	targets := []target.Target{
		{Raw: "a.example", Kind: target.KindReachability},
		{Raw: "b.example", Kind: target.KindReachability},
	}
	chk := &verdictChecker{verdicts: map[string]probe.CheckResult{
		"a.example": {Success: false},
		"b.example": {Success: false},
	}}
	nt := &recordingNotifier{err: errors.New("smtp: connection refused")}
	s, dl, _ := newTestSweeper(t, targets, chk, nt)

	s.sweepOnce(context.Background())

	data, err := os.ReadFile(dl.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 2, "log line written for every down target despite mail failures")
	assert.Len(t, nt.titles, 2, "delivery attempted for every down target")
}

func TestSweepOnce_ConcurrentSweepKeepsOrder(t *testing.T) {
	var targets []target.Target
	verdicts := map[string]probe.CheckResult{}
	names := []string{"e.example", "d.example", "c.example", "b.example", "a.example"}
	for _, n := range names {
		targets = append(targets, target.Target{Raw: n, Kind: target.KindReachability})
		verdicts[n] = probe.CheckResult{Success: false}
	}
	chk := &verdictChecker{verdicts: verdicts, delay: 5 * time.Millisecond}
	nt := &recordingNotifier{}
	s, _, _ := newTestSweeper(t, targets, chk, nt)
	s.Concurrency = 4

	s.sweepOnce(context.Background())

	require.Len(t, nt.titles, len(names))
	for i, n := range names {
		assert.Contains(t, nt.titles[i], n, "notifications must follow input order")
	}
	rows := s.Store.Rows()
	require.Len(t, rows, len(names))
	for i, n := range names {
		assert.Equal(t, n, rows[i].Target)
	}
}

func TestRun_CancelDuringCountdown(t *testing.T) {
	targets := []target.Target{{Raw: "http://example.com", Kind: target.KindHTTP}}
	chk := &verdictChecker{verdicts: map[string]probe.CheckResult{
		"http://example.com": {Success: true, StatusCode: 200},
	}}
	s, _, buf := newTestSweeper(t, targets, chk, &recordingNotifier{})
	s.Interval = 3600 // long countdown; cancellation must cut it short
	s.Tick = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// let the first sweep land, then interrupt mid-count
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "cancellation is a clean shutdown")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not observe cancellation within a tick")
	}

	assert.Equal(t, StateCancelled, s.State())
	assert.Contains(t, buf.String(), "Next scan in", "countdown was drawn")
	assert.True(t, strings.HasSuffix(buf.String(), "\033[2J\033[H"),
		"terminal left clean on shutdown")
}

func TestRun_LoopsBackToSweeping(t *testing.T) {
	targets := []target.Target{{Raw: "a.example", Kind: target.KindReachability}}
	chk := &verdictChecker{verdicts: map[string]probe.CheckResult{
		"a.example": {Success: true},
	}}
	s, _, _ := newTestSweeper(t, targets, chk, &recordingNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		chk.mu.Lock()
		n := chk.calls["a.example"]
		chk.mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("countdown never transitioned back to sweeping")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	require.NoError(t, <-done)
}
