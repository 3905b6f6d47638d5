package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/lox/straightq/internal/deck"
	"github.com/lox/straightq/internal/hand"
	"github.com/lox/straightq/sdk/solver/runtime"
)

const maxRequestBytes = 4 << 10

// Server answers discard questions over HTTP using a learned policy.
type Server struct {
	addr       string
	policy     *runtime.Policy
	logger     zerolog.Logger
	httpServer *http.Server
}

// NewServer creates an advice server for policy.
func NewServer(addr string, policy *runtime.Policy, logger zerolog.Logger) *Server {
	s := &Server{
		addr:   addr,
		policy: policy,
		logger: logger.With().Str("component", "server").Logger(),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routes served by s.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/table", s.handleTable)
		r.Post("/advice", s.handleAdvice)
	})
	return r
}

// Start listens until Stop is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.addr).Msg("Starting advice server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// TableInfo describes the loaded table.
type TableInfo struct {
	RunID       string    `json:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Episodes    int       `json:"episodes"`
	Cells       int       `json:"cells"`
	States      int       `json:"states"`
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	meta := s.policy.Meta()
	table := s.policy.Table()
	writeJSON(w, http.StatusOK, TableInfo{
		RunID:       meta.RunID,
		GeneratedAt: meta.GeneratedAt,
		Episodes:    meta.Episodes,
		Cells:       table.Len(),
		States:      table.States(),
	})
}

// AdviceRequest is the body of POST /v1/advice.
type AdviceRequest struct {
	Hand string `json:"hand"`
}

// AdviceResponse is the greedy recommendation for a hand.
type AdviceResponse struct {
	Hand      string   `json:"hand"`
	State     string   `json:"state"`
	Straight  bool     `json:"straight"`
	Action    string   `json:"action,omitempty"`
	Positions []int    `json:"positions"`
	Discard   []string `json:"discard"`
	Keep      []string `json:"keep"`
	Value     float64  `json:"value"`
	Known     bool     `json:"known"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var req AdviceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	h, err := hand.Parse(req.Hand)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	advice, err := s.policy.Advise(h)
	if err != nil {
		s.logger.Error().Err(err).Str("hand", req.Hand).Msg("advise failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	resp := AdviceResponse{
		Hand:      h.String(),
		State:     advice.State.String(),
		Straight:  advice.Straight,
		Positions: []int{},
		Discard:   []string{},
		Keep:      cardStrings(h),
		Value:     advice.Value,
		Known:     advice.Known,
	}
	if !advice.Straight {
		resp.Action = advice.Action.String()
		resp.Positions = advice.Positions
		resp.Discard = cardStrings(advice.Discard)
		resp.Keep = resp.Keep[:0]
		dropped := make(map[int]bool, len(advice.Positions))
		for _, p := range advice.Positions {
			dropped[p] = true
		}
		for i, c := range h {
			if !dropped[i] {
				resp.Keep = append(resp.Keep, c.String())
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func cardStrings(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
