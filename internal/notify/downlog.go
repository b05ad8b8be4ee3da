package notify

import (
	"fmt"
	"os"
	"time"
)

const stampLayout = "2006-01-02 15:04:05"

// DownLog appends one line per down verdict to a plain-text file. The file
// handle is scoped to each append: open, write, close. A log that was
// deleted or rotated out from under us is recreated on the next append.
type DownLog struct {
	Path string
}

func NewDownLog(path string) *DownLog {
	return &DownLog{Path: path}
}

// Line formats the down message for a target at a given time.
func Line(target string, at time.Time) string {
	return fmt.Sprintf("Server: %s is down - %s", target, at.Format(stampLayout))
}

// Append writes one down line. Never truncates, never rewrites.
func (d *DownLog) Append(target string, at time.Time) error {
	f, err := os.OpenFile(d.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open down log: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, Line(target, at)); err != nil {
		return fmt.Errorf("append down log: %w", err)
	}
	return nil
}

// CheckWritable proves at startup that the log location can be appended to,
// creating the file if absent. An unwritable location is a fatal argument
// error, reported before any monitoring starts.
func (d *DownLog) CheckWritable() error {
	f, err := os.OpenFile(d.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("down log not writable: %w", err)
	}
	return f.Close()
}
