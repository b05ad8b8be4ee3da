package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/nihilok/serverstatus/internal/status"
	"github.com/nihilok/serverstatus/internal/target"
)

// Server exposes the same view the terminal shows, read-only: the target
// list and the latest sweep's verdicts. Targets come from the input file,
// so there are no mutating endpoints.
type Server struct {
	Logger  *zap.Logger
	Store   *status.Store
	Targets []target.Target
}

func NewServer(l *zap.Logger, store *status.Store, targets []target.Target) *Server {
	return &Server{Logger: l, Store: store, Targets: targets}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/targets", s.handleTargets)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Store.Rows())
}

type targetJSON struct {
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	out := make([]targetJSON, 0, len(s.Targets))
	for _, t := range s.Targets {
		out = append(out, targetJSON{Target: t.Raw, Kind: t.Kind.String()})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// Serve runs the API until ctx is cancelled. Listen failures are logged and
// swallowed: a broken status API must not take the monitor down with it.
func (s *Server) Serve(ctx context.Context, addr string) {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.Logger.Info("api_listen", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.Logger.Warn("api_error", zap.Error(err))
	}
}
