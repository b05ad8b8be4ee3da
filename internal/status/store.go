package status

import (
	"sync"
	"time"

	"github.com/nihilok/serverstatus/internal/target"
)

// Row is the latest verdict for one target.
type Row struct {
	Target     string      `json:"target"`
	Kind       target.Kind `json:"-"`
	KindName   string      `json:"kind"`
	Up         bool        `json:"up"`
	StatusCode int         `json:"status_code,omitempty"`
	LatencyMS  float64     `json:"latency_ms,omitempty"`
	CheckedAt  time.Time   `json:"checked_at"`
}

// Store holds the snapshot of the most recent completed sweep. The whole
// snapshot is swapped at once so readers never see a half-finished sweep.
type Store struct {
	mu   sync.RWMutex
	rows []Row
}

func New() *Store {
	return &Store{}
}

func (s *Store) SetAll(rows []Row) {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	s.mu.Lock()
	s.rows = cp
	s.mu.Unlock()
}

func (s *Store) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}
