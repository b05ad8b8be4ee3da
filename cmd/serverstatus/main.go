package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nihilok/serverstatus/internal/config"
	"github.com/nihilok/serverstatus/internal/display"
	"github.com/nihilok/serverstatus/internal/httpapi"
	"github.com/nihilok/serverstatus/internal/logging"
	"github.com/nihilok/serverstatus/internal/notify"
	"github.com/nihilok/serverstatus/internal/probe"
	"github.com/nihilok/serverstatus/internal/scheduler"
	"github.com/nihilok/serverstatus/internal/status"
	"github.com/nihilok/serverstatus/internal/target"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Parse(args, os.Stderr)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Sync()

	targets, err := target.Load(cfg.TargetsFile)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New("no targets to monitor")
	}

	downLog := notify.NewDownLog(cfg.LogPath)
	if err := downLog.CheckWritable(); err != nil {
		return err
	}

	httpChecker := &probe.RetryChecker{
		Inner:    probe.NewHTTPChecker(cfg.HTTPTimeout),
		Attempts: cfg.MaxRetries,
		Backoff:  cfg.RetryDelay,
	}
	pingChecker := &probe.RetryChecker{
		Inner:    probe.NewPingChecker(cfg.PingTimeout, cfg.PrivilegedPing),
		Attempts: cfg.MaxRetries,
		Backoff:  cfg.RetryDelay,
	}

	var notifier notify.Notifier
	if cfg.NotifyEmail != "" {
		mailer := notify.NewMailer(notify.SMTPConfig{
			Server:   cfg.SMTP.Server,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, cfg.NotifyEmail)
		if mailer == nil {
			logger.Warn("smtp_not_configured",
				zap.String("email", cfg.NotifyEmail),
				zap.String("hint", "set SMTP_SERVER/SMTP_PORT/SMTP_USER/SMTP_PASSWORD"),
			)
		} else {
			notifier = notify.Multi{mailer}
		}
	}

	store := status.New()
	if cfg.APIAddr != "" {
		api := httpapi.NewServer(logger, store, targets)
		go api.Serve(ctx, cfg.APIAddr)
	}

	sweeper := scheduler.NewSweeper(
		logger,
		targets,
		httpChecker,
		pingChecker,
		notifier,
		downLog,
		store,
		display.New(os.Stdout),
		cfg.Interval,
		cfg.Concurrency,
	)

	logger.Info("monitor_start",
		zap.Int("targets", len(targets)),
		zap.Int("interval_s", cfg.Interval),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Bool("mail", notifier != nil),
		zap.String("down_log", cfg.LogPath),
	)
	return sweeper.Run(ctx)
}
