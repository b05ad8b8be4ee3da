package config

import (
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Retry policy is deliberately fixed: three attempts, one second apart.
const (
	DefaultInterval = 30
	MaxRetries      = 3
	RetryDelay      = time.Second
)

type SMTP struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string
}

// Config is built once at startup and never mutated; every component gets it
// by value.
type Config struct {
	TargetsFile string // "" or "-" means stdin
	Interval    int    // seconds between sweeps
	NotifyEmail string // empty disables mail alerts
	MaxRetries  int
	RetryDelay  time.Duration

	HTTPTimeout    time.Duration
	PingTimeout    time.Duration
	PrivilegedPing bool
	Concurrency    int

	LogPath string // user-facing down log
	LogDir  string // rotated diagnostics logs
	APIAddr string // empty disables the status API

	SMTP SMTP
}

// FromEnv fills the parts of the configuration that live in the environment
// (a .env file is honored when present). Flag values are layered on top by
// Parse.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		Interval:    DefaultInterval,
		MaxRetries:  MaxRetries,
		RetryDelay:  RetryDelay,
		HTTPTimeout: 5 * time.Second,
		PingTimeout: 2 * time.Second,
		Concurrency: 1,
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	cfg.LogPath = filepath.Join(home, ".server_status.log")
	if v := os.Getenv("STATUS_LOG"); v != "" {
		cfg.LogPath = v
	}

	cfg.LogDir = "logs"
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}

	if v := os.Getenv("SWEEP_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}

	cfg.PrivilegedPing = os.Getenv("SERVERSTATUS_PRIVILEGED_PING") == "1"

	cfg.SMTP = SMTP{
		Server:   os.Getenv("SMTP_SERVER"),
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
	cfg.SMTP.Port = 465
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SMTP.Port = n
		}
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}

	return cfg
}

// Parse layers command-line flags over the environment configuration.
// Usage and flag errors go to stderr; the caller decides the exit code
// (a help request surfaces as an error so -h exits non-zero).
func Parse(args []string, stderr io.Writer) (Config, error) {
	cfg := FromEnv()

	fs := pflag.NewFlagSet("serverstatus", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: serverstatus [flags] [targets-file]")
		fmt.Fprintln(stderr, "Targets are read from targets-file, or stdin when omitted.")
		fs.PrintDefaults()
	}

	fs.IntVarP(&cfg.Interval, "interval", "i", cfg.Interval, "seconds between sweeps")
	fs.StringVarP(&cfg.NotifyEmail, "email", "e", cfg.NotifyEmail, "address to alert when a server goes down")
	fs.StringVarP(&cfg.APIAddr, "listen", "l", cfg.APIAddr, "serve the status API on this address (disabled when empty)")

	if err := fs.Parse(args); err != nil {
		// pflag already printed usage for -h and the message for bad flags
		return cfg, err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return cfg, fmt.Errorf("expected at most one targets file, got %d args", fs.NArg())
	}
	cfg.TargetsFile = fs.Arg(0)
	return cfg, nil
}

// Validate catches fatal argument errors before any monitoring starts.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be a positive number of seconds, got %d", c.Interval)
	}
	if c.NotifyEmail != "" {
		if _, err := mail.ParseAddress(c.NotifyEmail); err != nil {
			return fmt.Errorf("invalid notification email %q: %w", c.NotifyEmail, err)
		}
	}
	return nil
}
