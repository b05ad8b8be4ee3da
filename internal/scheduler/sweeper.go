package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nihilok/serverstatus/internal/display"
	"github.com/nihilok/serverstatus/internal/notify"
	"github.com/nihilok/serverstatus/internal/probe"
	"github.com/nihilok/serverstatus/internal/status"
	"github.com/nihilok/serverstatus/internal/target"
)

// State of the monitoring loop. The loop is an explicit machine so it can be
// driven and observed in tests without spawning a process.
type State int

const (
	StateIdle State = iota
	StateSweeping
	StateCounting
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateSweeping:
		return "sweeping"
	case StateCounting:
		return "counting"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Sweeper drives the sweep/countdown loop: probe every target, notify on
// down verdicts, count the interval down, repeat until the context is
// cancelled.
type Sweeper struct {
	Logger   *zap.Logger
	Targets  []target.Target
	HTTP     probe.Checker
	Ping     probe.Checker
	Notifier notify.Notifier
	DownLog  *notify.DownLog
	Store    *status.Store
	Display  *display.Renderer

	Interval    int // seconds between sweeps
	Concurrency int

	// Tick is the countdown granularity, one second in production.
	Tick time.Duration

	// Diagnose classifies DNS for the log line when an HTTP target is
	// unreachable; swappable so tests stay off the network.
	Diagnose func(host string) string

	now func() time.Time

	mu    sync.Mutex
	state State
}

func NewSweeper(
	logger *zap.Logger,
	targets []target.Target,
	httpChecker, pingChecker probe.Checker,
	notifier notify.Notifier,
	downLog *notify.DownLog,
	store *status.Store,
	disp *display.Renderer,
	interval int,
	concurrency int,
) *Sweeper {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval < 1 {
		interval = 1
	}
	return &Sweeper{
		Logger:      logger,
		Targets:     targets,
		HTTP:        httpChecker,
		Ping:        pingChecker,
		Notifier:    notifier,
		DownLog:     downLog,
		Store:       store,
		Display:     disp,
		Interval:    interval,
		Concurrency: concurrency,
		Tick:        time.Second,
		Diagnose:    probe.Diagnose,
		now:         time.Now,
	}
}

func (s *Sweeper) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sweeper) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run loops Sweeping -> Counting until ctx is cancelled. The first sweep is
// immediate. Always returns nil: cancellation is a clean shutdown, not an
// error.
func (s *Sweeper) Run(ctx context.Context) error {
	tick := s.Tick
	if tick <= 0 {
		tick = time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}

	for {
		s.setState(StateSweeping)
		s.sweepOnce(ctx)
		if ctx.Err() != nil {
			break
		}

		s.setState(StateCounting)
		if !s.countdown(ctx, tick) {
			break
		}
	}

	s.setState(StateCancelled)
	s.Display.Shutdown()
	s.Logger.Info("monitor_stopped")
	return nil
}

// sweepOnce probes every target, fanned out under a concurrency bound, then
// publishes the complete snapshot and dispatches down notifications in the
// original target order. The display never sees a half-finished sweep.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	rows := make([]status.Row, len(s.Targets))

	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup

	for i, tgt := range s.Targets {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, tgt target.Target) {
			defer func() { <-sem }()
			defer wg.Done()

			out := s.checkerFor(tgt).Check(ctx, tgt.Raw)
			rows[i] = status.Row{
				Target:     tgt.Raw,
				Kind:       tgt.Kind,
				KindName:   tgt.Kind.String(),
				Up:         out.Success,
				StatusCode: out.StatusCode,
				LatencyMS:  out.LatencyMS,
				CheckedAt:  s.now(),
			}
		}(i, tgt)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return
	}

	s.Store.SetAll(rows)
	s.Display.Sweep(rows)

	downs := 0
	for i, row := range rows {
		if row.Up {
			s.Logger.Debug("target_up",
				zap.String("target", row.Target),
				zap.Int("status", row.StatusCode),
				zap.Float64("latency_ms", row.LatencyMS),
			)
			continue
		}
		downs++
		s.notifyDown(ctx, s.Targets[i], row)
	}

	s.Logger.Info("sweep_complete",
		zap.Int("targets", len(rows)),
		zap.Int("down", downs),
	)
}

func (s *Sweeper) checkerFor(t target.Target) probe.Checker {
	if t.Kind == target.KindHTTP {
		return s.HTTP
	}
	return s.Ping
}

// notifyDown records the down verdict everywhere it needs to go. Any channel
// failing is a warning, never a reason to stop the sweep.
func (s *Sweeper) notifyDown(ctx context.Context, tgt target.Target, row status.Row) {
	line := notify.Line(row.Target, row.CheckedAt)

	if err := s.DownLog.Append(row.Target, row.CheckedAt); err != nil {
		s.Logger.Warn("down_log_error", zap.String("target", row.Target), zap.Error(err))
	}

	fields := []zap.Field{
		zap.String("target", row.Target),
		zap.String("kind", tgt.Kind.String()),
		zap.Int("status", row.StatusCode),
	}
	if s.Diagnose != nil && tgt.Kind == target.KindHTTP && row.StatusCode == 0 {
		fields = append(fields, zap.String("dns", s.Diagnose(probe.ExtractHost(row.Target))))
	}
	s.Logger.Info("target_down", fields...)

	if s.Notifier != nil {
		if err := s.Notifier.Send(ctx, "Server down: "+row.Target, line); err != nil {
			s.Logger.Warn("notify_error", zap.String("target", row.Target), zap.Error(err))
		}
	}
}

// countdown ticks the interval away, redrawing the remaining time in place.
// Returns false when cancelled mid-count.
func (s *Sweeper) countdown(ctx context.Context, tick time.Duration) bool {
	for remaining := s.Interval; remaining > 0; remaining-- {
		s.Display.Countdown(remaining)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(tick):
		}
	}
	return true
}
