package target

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Kind is decided once at parse time so nothing downstream has to
// re-inspect the raw string.
type Kind int

const (
	KindHTTP Kind = iota
	KindReachability
)

func (k Kind) String() string {
	if k == KindHTTP {
		return "http"
	}
	return "reachability"
}

type Target struct {
	Raw  string
	Kind Kind
}

// Parse reads one target per line. Trailing carriage returns are stripped,
// blank lines and #-comments skipped, order preserved, duplicates kept.
// A line that is not an HTTP(S) URL is a reachability target; there is no
// such thing as a malformed line here — a bad hostname just fails its probe.
func Parse(r io.Reader) ([]Target, error) {
	var out []Target
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, Target{Raw: line, Kind: classify(line)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return out, nil
}

func classify(s string) Kind {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return KindHTTP
	}
	return KindReachability
}

// Load reads targets from path, or from stdin when path is "" or "-".
func Load(path string) ([]Target, error) {
	if path == "" || path == "-" {
		return Parse(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
