// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the listen address used by `agendeid devserver`.
	DefaultAddr = "127.0.0.1:8765"

	// DefaultRateLimit is the per-client request budget per minute.
	DefaultRateLimit = 120

	// SessionCookie carries the visitor id.
	SessionCookie = "agendeid_sessao"

	// maxBodyBytes caps POST /chat bodies.
	maxBodyBytes = 64 << 10
)

// ============================================================================
// SERVER TYPES
// ============================================================================

// Options configures a Server.
type Options struct {
	// Script answers chat messages (default: DefaultScript()).
	Script *Script

	// CSRFToken is the token embedded in the page and required on POST /chat
	// (default: a random uuid).
	CSRFToken string

	// RateLimit is requests per minute per client. Zero uses
	// DefaultRateLimit; negative disables limiting.
	RateLimit int

	// Latency delays every chat reply, to exercise busy indicators.
	Latency time.Duration

	// Logger receives request logs (default: slog.Default()).
	Logger *slog.Logger
}

// Stats counts what the server has handled since start.
type Stats struct {
	StartTime    time.Time        `json:"start_time"`
	ChatMessages int64            `json:"chat_messages"`
	CSRFRejected int64            `json:"csrf_rejected"`
	Visitors     int              `json:"visitors"`
	RuleHits     map[string]int64 `json:"rule_hits"`
}

// visitor is the per-cookie conversation and login state.
type visitor struct {
	state    string
	loggedIn bool
	role     string
	user     string
}

// Server replays the chat wire protocol from a Script.
type Server struct {
	router  *chi.Mux
	token   string
	latency time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	script   *Script
	visitors map[string]*visitor
	stats    Stats

	httpServer *http.Server
}

// New builds a Server with its routes and middleware.
func New(opts Options) *Server {
	if opts.Script == nil {
		opts.Script = DefaultScript()
	}
	if opts.CSRFToken == "" {
		opts.CSRFToken = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = DefaultRateLimit
	}

	s := &Server{
		router:   chi.NewRouter(),
		token:    opts.CSRFToken,
		latency:  opts.Latency,
		logger:   opts.Logger,
		script:   opts.Script,
		visitors: make(map[string]*visitor),
		stats:    Stats{StartTime: time.Now(), RuleHits: make(map[string]int64)},
	}

	s.router.Use(chiMiddleware.RequestID)
	s.router.Use(chiMiddleware.RealIP)
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(SecurityHeadersMiddleware())
	s.router.Use(LoggingMiddleware(s.logger))
	if opts.RateLimit > 0 {
		s.router.Use(RateLimitMiddleware(NewRateLimiter(opts.RateLimit, time.Minute), s.logger))
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handlePage)
	s.router.Post("/chat", s.handleChat)
	s.router.Get("/verificar-sessao", s.handleSession)
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/stats", s.handleStats)
}

// Router returns the HTTP handler, for httptest or embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// CSRFToken returns the token POST /chat expects.
func (s *Server) CSRFToken() string {
	return s.token
}

// SetScript swaps the script. Visitor states are kept.
func (s *Server) SetScript(script *Script) {
	s.mu.Lock()
	s.script = script
	s.mu.Unlock()
}

// Stats returns a snapshot of the counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stats
	out.Visitors = len(s.visitors)
	out.RuleHits = make(map[string]int64, len(s.stats.RuleHits))
	for k, v := range s.stats.RuleHits {
		out.RuleHits[k] = v
	}
	return out
}

// ============================================================================
// HANDLERS
// ============================================================================

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="csrf-token" content="{{.Token}}">
<title>AgendeID</title>
</head>
<body><div id="chat"></div></body>
</html>
`))

// handlePage handles GET /.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.visitorFor(w, r, true)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, struct{ Token string }{s.token}); err != nil {
		s.logger.Error("render page", "event", "page_error", "error", err)
	}
}

// handleChat handles POST /chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-CSRFToken") != s.token {
		s.mu.Lock()
		s.stats.CSRFRejected++
		s.mu.Unlock()
		s.writeError(w, http.StatusForbidden, "token CSRF inválido")
		return
	}

	message, err := decodeMessage(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-r.Context().Done():
			return
		}
	}

	v := s.visitorFor(w, r, true)

	s.mu.Lock()
	reply, rule := s.script.Match(v.state, message)
	s.apply(v, reply, message)
	s.stats.ChatMessages++
	if rule == "" {
		rule = "fallback"
	}
	s.stats.RuleHits[rule]++
	state := v.state
	s.mu.Unlock()

	s.logger.Debug("chat reply", "event", "devserver_reply", "rule", rule, "state", state)

	if reply.Status != 0 && reply.Status != http.StatusOK {
		s.writeError(w, reply.Status, reply.Resposta)
		return
	}
	s.writeJSON(w, http.StatusOK, reply.Payload())
}

// apply moves the visitor according to reply. Caller holds mu.
func (s *Server) apply(v *visitor, reply Reply, message string) {
	if reply.Then != "" {
		v.state = reply.Then
	}
	change := reply.Session
	if change == nil {
		return
	}
	if change.Logout {
		v.loggedIn, v.role, v.user = false, "", ""
	}
	if change.User != "" {
		v.user = strings.ReplaceAll(change.User, messagePlaceholder, strings.TrimSpace(message))
	}
	if change.Login != "" {
		v.loggedIn = true
		v.role = change.Login
	}
}

// handleSession handles GET /verificar-sessao.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	v := s.visitorFor(w, r, false)

	body := map[string]any{"logado": false}
	if v != nil {
		s.mu.Lock()
		if v.loggedIn {
			body = map[string]any{"logado": true, "tipo": v.role, "usuario": v.user}
		}
		s.mu.Unlock()
	}
	s.writeJSON(w, http.StatusOK, body)
}

// handleStatus handles GET /status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Stats())
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("devserver listening", "event", "server_start", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a running server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("devserver stopping", "event", "server_shutdown")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// decodeMessage reads the text from either {"mensagem"} or {"message"}.
func decodeMessage(r io.Reader) (string, error) {
	var body map[string]any
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return "", fmt.Errorf("corpo JSON inválido: %w", err)
	}
	for _, key := range []string{"mensagem", "message"} {
		if text, ok := body[key].(string); ok {
			return text, nil
		}
	}
	return "", errors.New("campo mensagem ausente")
}

// visitorFor returns the visitor named by the session cookie. With create,
// unknown or missing cookies start a new visitor and set the cookie.
func (s *Server) visitorFor(w http.ResponseWriter, r *http.Request, create bool) *visitor {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(SessionCookie); err == nil {
		if v, ok := s.visitors[c.Value]; ok {
			return v
		}
	}
	if !create {
		return nil
	}

	id := uuid.NewString()
	v := &visitor{state: StateStart}
	s.visitors[id] = v
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return v
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "event", "write_error", "error", err)
	}
}

// writeError writes a JSON error body in the site's shape.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{"erro": message, "codigo": status})
}
