// Package server exposes a session over WebSocket and HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
	"github.com/wendellvieira/rpg-ai-sub001/internal/metrics"
	"github.com/wendellvieira/rpg-ai-sub001/internal/session"
	"github.com/wendellvieira/rpg-ai-sub001/internal/turn"
)

type Server struct {
	sess     *session.Session
	exporter *metrics.Exporter
	addr     string
	log      logrus.FieldLogger
}

// New builds a server for sess. exporter may be nil to leave /metrics out.
func New(sess *session.Session, exporter *metrics.Exporter, addr string) *Server {
	return &Server{sess: sess, exporter: exporter, addr: addr, log: logger.Log}
}

// Handler returns the routes: /ws, /catalog, /state, /health and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/catalog", enableCORS(s.handleCatalog))
	mux.HandleFunc("/state", enableCORS(s.handleState))
	mux.HandleFunc("/health", s.handleHealth)
	if s.exporter != nil {
		mux.Handle("/metrics", s.exporter.Handler())
	}
	return mux
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.addr).Info("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next(w, r)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := newClient(s.sess, conn, s.log)
	c.log.Info("client connected")

	go c.writePump()
	go c.readPump()
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.sess.Catalog())
}

// StateView is what /state returns: the table and the dispatcher.
type StateView struct {
	Scheduler  turn.Snapshot     `json:"scheduler"`
	HP         map[string]string `json:"hp"`
	Dispatcher dispatch.State    `json:"dispatcher"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	view := StateView{Dispatcher: s.sess.Dispatcher().State()}
	_ = s.sess.Table().Do(func(st *game.State) error {
		view.Scheduler = st.Scheduler.Export()
		view.HP = st.HPSummary()
		return nil
	})
	writeJSON(w, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("failed to encode response")
	}
}
