package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_InvalidIntervalIsFatal(t *testing.T) {
	t.Setenv("LOG_DIR", t.TempDir())
	err := run(context.Background(), []string{"-i", "-5", "targets.txt"})
	require.Error(t, err, "monitoring must not start with a non-positive interval")
}

func TestRun_InvalidEmailIsFatal(t *testing.T) {
	t.Setenv("LOG_DIR", t.TempDir())
	err := run(context.Background(), []string{"-e", "not-an-address", "targets.txt"})
	require.Error(t, err)
}

func TestRun_MissingTargetsFileIsFatal(t *testing.T) {
	t.Setenv("LOG_DIR", t.TempDir())
	err := run(context.Background(), []string{filepath.Join(t.TempDir(), "absent.txt")})
	require.Error(t, err)
}

func TestRun_CancelledContextShutsDownCleanly(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("STATUS_LOG", filepath.Join(dir, "down.log"))

	targets := filepath.Join(dir, "targets.txt")
	require.NoError(t, os.WriteFile(targets, []byte("http://example.com\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, run(ctx, []string{targets}), "cancellation is a clean exit")
}
