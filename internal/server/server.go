// Package server exposes the demo over HTTP: the streaming agent endpoint,
// the script listing, the Google OAuth flow, the direct tool endpoint, and
// Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/dealflow/internal/agent"
	"github.com/haasonsaas/dealflow/internal/auth"
	"github.com/haasonsaas/dealflow/internal/google"
	"github.com/haasonsaas/dealflow/internal/script"
	"github.com/haasonsaas/dealflow/pkg/models"
)

// oauthState is a fixed CSRF token; the demo runs single-operator on
// localhost so a per-session state adds nothing.
const oauthState = "dealflow-oauth"

// Server wires the demo's HTTP surface over the engine, the script, and the
// Google collaborators.
type Server struct {
	engine  *agent.Engine
	script  *script.Service
	auth    *auth.Store
	google  *google.Service
	metrics *Metrics
	logger  *slog.Logger

	httpServer *http.Server
}

// Config carries the server's collaborators and listen address.
type Config struct {
	Addr    string
	Engine  *agent.Engine
	Script  *script.Service
	Auth    *auth.Store
	Google  *google.Service
	Metrics *Metrics
	Logger  *slog.Logger
}

// New assembles the server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	s := &Server{
		engine:  cfg.Engine,
		script:  cfg.Script,
		auth:    cfg.Auth,
		google:  cfg.Google,
		metrics: metrics,
		logger:  logger.With("component", "server"),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)

	mux.HandleFunc("/api/agent", s.handleAgent)
	mux.HandleFunc("/api/steps", s.handleSteps)
	mux.HandleFunc("/api/tools", s.handleTools)

	mux.HandleFunc("/api/auth/status", s.handleAuthStatus)
	mux.HandleFunc("/api/auth/google", s.handleAuthStart)
	mux.HandleFunc("/api/auth/google/callback", s.handleAuthCallback)
	mux.HandleFunc("/api/auth/logout", s.handleLogout)

	return mux
}

// Start listens and serves until Shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	s.logger.Info("starting http server", "addr", s.httpServer.Addr)
	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleAgent runs one agent step and streams its events. Validation
// failures are plain JSON errors; once the stream opens, failures travel as
// error events inside it.
func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		StepID string `json:"stepId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	step, err := s.script.Step(req.StepID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if step.Type != models.StepAgentAction {
		writeError(w, http.StatusBadRequest, "step is not an agent action: "+step.ID)
		return
	}

	events, err := s.engine.Run(r.Context(), step)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.TurnsStarted.Inc()

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for ev := range events {
		if err := sse.Send(ev); err != nil {
			// Client went away; the request context cancels the engine.
			s.logger.Debug("stream write failed", "step", step.ID, "error", err)
			for range events {
			}
			return
		}
		s.metrics.EventsStreamed.Inc()
		switch ev.Type {
		case models.EventComplete:
			s.metrics.TurnsCompleted.Inc()
		case models.EventError:
			s.metrics.TurnsFailed.Inc()
		}
	}
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"steps": s.script.Steps()})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated":   s.auth.Authenticated(),
		"hasRefreshToken": s.auth.HasRefreshToken(),
	})
}

func (s *Server) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.auth.AuthURL(oauthState), http.StatusFound)
}

func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errMsg := q.Get("error"); errMsg != "" {
		http.Redirect(w, r, "/?auth=error&message="+url.QueryEscape(errMsg), http.StatusFound)
		return
	}
	if state := q.Get("state"); state != oauthState {
		writeError(w, http.StatusBadRequest, "oauth state mismatch")
		return
	}
	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	if err := s.auth.Exchange(r.Context(), code); err != nil {
		s.logger.Error("oauth exchange failed", "error", err)
		http.Redirect(w, r, "/?auth=error&message="+url.QueryEscape(err.Error()), http.StatusFound)
		return
	}
	s.logger.Info("google account connected")
	http.Redirect(w, r, "/?auth=success", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.auth.Logout(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleTools invokes a collaborator directly, outside any agent turn. Used
// by demo tooling that wants a single concrete action with a synchronous
// result.
func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Tool   string          `json:"tool"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.invokeTool(r.Context(), req.Tool, req.Params)
	if err != nil {
		s.metrics.ToolInvocations.WithLabelValues(req.Tool, "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.ToolInvocations.WithLabelValues(req.Tool, "ok").Inc()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) invokeTool(ctx context.Context, tool string, params json.RawMessage) (any, error) {
	switch tool {
	case "gmail_send":
		var p google.SendEmailParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		res := s.google.SendEmail(ctx, p)
		return map[string]any{"success": res.Success, "messageId": res.MessageID, "error": res.Error}, nil

	case "drive_search":
		var p struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		files, err := s.google.SearchFiles(ctx, p.Query)
		if err != nil {
			return nil, err
		}
		return map[string]any{"files": files, "count": len(files)}, nil

	case "calendar_create":
		var p struct {
			Summary     string   `json:"summary"`
			Description string   `json:"description"`
			StartTime   string   `json:"start_time"`
			EndTime     string   `json:"end_time"`
			Attendees   []string `json:"attendees"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		res := s.google.CreateEvent(ctx, google.CreateEventParams{
			Summary:     p.Summary,
			Description: p.Description,
			StartTime:   p.StartTime,
			EndTime:     p.EndTime,
			Attendees:   p.Attendees,
		})
		return map[string]any{"success": res.Success, "eventId": res.EventID, "eventLink": res.EventLink, "error": res.Error}, nil

	case "calendar_availability":
		var p struct {
			Date string `json:"date"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		return map[string]any{"busy": s.google.GetAvailability(ctx, p.Date)}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", tool)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
