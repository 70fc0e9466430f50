// Package server hosts the chart pages over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"TradeLens/internal/collector"
	"TradeLens/internal/fetcher"
	"TradeLens/internal/pipeline"
	"TradeLens/internal/render"
	"TradeLens/internal/trades"
)

// Server runs update cycles for browser requests and serves the results.
type Server struct {
	Pipeline *pipeline.Pipeline
	Board    *render.MemoryBoard
	Source   string // collector.SourceForm or collector.SourceQuery
	Logger   zerolog.Logger
}

// New creates a Server for the configured input source.
func New(p *pipeline.Pipeline, board *render.MemoryBoard, source string, logger zerolog.Logger) *Server {
	return &Server{
		Pipeline: p,
		Board:    board,
		Source:   source,
		Logger:   logger.With().Str("component", "server").Logger(),
	}
}

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

// Router returns the HTTP routes. Only the configured input variant is mounted;
// the trade import lives with the query variant since its links open /trade.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.index).Methods(http.MethodGet)
	switch s.Source {
	case collector.SourceForm:
		r.HandleFunc("/charts", s.submitForm).Methods(http.MethodPost)
	case collector.SourceQuery:
		r.HandleFunc("/trade", s.loadTrade).Methods(http.MethodGet)
		r.HandleFunc("/trades", s.tradesForm).Methods(http.MethodGet)
		r.HandleFunc("/upload", s.uploadTrades).Methods(http.MethodPost)
	}
	r.HandleFunc("/containers", s.listContainers).Methods(http.MethodGet)
	r.HandleFunc("/containers/{id}", s.getContainer).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.Use(s.logRequests)
	return r
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info().Str("addr", addr).Str("input", s.Source).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	page := render.Page{Title: "TradeLens", Charts: s.Board.Charts()}
	if s.Source == collector.SourceForm {
		page.Form = true
	} else {
		page.Error = "Open /trade?symbol=...&tradeEnterDate=...&buyPrice=... to chart a trade."
	}
	s.writePage(w, http.StatusOK, page)
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, "bad_form", http.StatusBadRequest, err)
		return
	}
	s.runCycle(w, r, &collector.FormSource{Form: r.PostForm}, true)
}

func (s *Server) loadTrade(w http.ResponseWriter, r *http.Request) {
	s.runCycle(w, r, &collector.QuerySource{Query: r.URL.Query()}, false)
}

func (s *Server) tradesForm(w http.ResponseWriter, _ *http.Request) {
	s.writeTrades(w, http.StatusOK, render.TradesPage{})
}

// uploadTrades imports the export in the "file" field. JSON clients get the
// orders back as JSON, browsers get the trade table.
func (s *Server) uploadTrades(w http.ResponseWriter, r *http.Request) {
	wantJSON := strings.Contains(r.Header.Get("Accept"), "application/json")
	fail := func(errType string, status int, err error) {
		if wantJSON {
			s.writeError(w, errType, status, err)
			return
		}
		s.writeTrades(w, status, render.TradesPage{Error: err.Error()})
	}

	r.Body = http.MaxBytesReader(w, r.Body, trades.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(trades.MaxUploadSize); err != nil {
		fail("bad_upload", http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		fail("bad_upload", http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	defer file.Close()

	orders, err := trades.Parse(file)
	if err != nil {
		fail("bad_csv", http.StatusBadRequest, err)
		return
	}
	s.Logger.Info().Int("trades", len(orders)).Msg("trades imported")
	if wantJSON {
		s.writeJSON(w, http.StatusOK, orders)
		return
	}
	s.writeTrades(w, http.StatusOK, render.TradesPage{Orders: orders})
}

func (s *Server) runCycle(w http.ResponseWriter, r *http.Request, src collector.Source, form bool) {
	cycle, err := s.Pipeline.Run(r.Context(), src, s.Board, "http")

	page := render.Page{
		Title:  "TradeLens",
		Form:   form,
		Inputs: cycle.Inputs,
		Charts: s.Board.Charts(),
	}
	if err != nil {
		page.Error = err.Error()
	}
	s.writePage(w, statusFor(err), page)
}

func (s *Server) listContainers(w http.ResponseWriter, _ *http.Request) {
	ids := []string{}
	for _, m := range s.Board.Charts() {
		ids = append(ids, m.ID)
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"containers": ids})
}

func (s *Server) getContainer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	opts, ok := s.Board.Get(id)
	if !ok {
		s.writeError(w, "not_rendered", http.StatusNotFound, fmt.Errorf("container %s has no chart", id))
		return
	}
	s.writeJSON(w, http.StatusOK, opts)
}

// statusFor maps a cycle error to an HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, collector.ErrMissingSymbol):
		return http.StatusBadRequest
	case errors.Is(err, fetcher.ErrNetwork), errors.Is(err, fetcher.ErrParse), errors.Is(err, render.ErrNoSeries):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writePage(w http.ResponseWriter, status int, page render.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := render.WritePage(w, page); err != nil {
		s.Logger.Error().Err(err).Msg("write page")
	}
}

func (s *Server) writeTrades(w http.ResponseWriter, status int, page render.TradesPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := render.WriteTrades(w, page); err != nil {
		s.Logger.Error().Err(err).Msg("write trades page")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, errType string, status int, err error) {
	s.writeJSON(w, status, &errorResponse{Type: errType, Msg: err.Error()})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
