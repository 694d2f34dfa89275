package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	girthindex "girthgov/contexts/ecosystem-health/girth-index-service"
	decisionengine "girthgov/contexts/governance/decision-engine"
	votingledger "girthgov/contexts/governance/voting-ledger"
	"girthgov/internal/app/pipeline"
	"girthgov/internal/platform/auth"
	_ "girthgov/internal/platform/httpserver/docs"
	"girthgov/internal/platform/ratelimit"

	httpSwagger "github.com/swaggo/http-swagger"
)

// AdminVerifier resolves the admin actor behind a bearer token.
type AdminVerifier interface {
	VerifyAdmin(token string) (string, error)
}

// SessionVerifier resolves the wallet behind a player bearer token.
type SessionVerifier interface {
	VerifySession(token string) (string, error)
}

// StageTrigger runs one pipeline stage on demand.
type StageTrigger interface {
	RunStage(ctx context.Context, stage string) (pipeline.Report, error)
}

type Modules struct {
	Girth     girthindex.Module
	Decisions decisionengine.Module
	Votes     votingledger.Module
}

type Options struct {
	Addr        string
	Admins      AdminVerifier
	Sessions    SessionVerifier
	VoteLimiter *ratelimit.KeyedLimiter
	Stages      StageTrigger
	Logger      *slog.Logger
}

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	modules Modules
	opts    Options
}

func New(modules Modules, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  opts.Logger,
		addr:    opts.Addr,
		modules: modules,
		opts:    opts,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.HandleFunc("GET /api/v1/polls", s.handleListPolls)
	s.mux.HandleFunc("GET /api/v1/polls/{poll_id}", s.handleGetPoll)
	s.mux.HandleFunc("GET /api/v1/polls/{poll_id}/commentary", s.handleListCommentary)
	s.mux.HandleFunc("GET /api/v1/polls/{poll_id}/analysis", s.handleGetPollAnalysis)
	s.mux.HandleFunc("POST /api/v1/polls/{poll_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /api/v1/polls/{poll_id}/cooldown", s.handleCooldown)
	s.mux.HandleFunc("GET /api/v1/wallet", s.handleWallet)

	s.mux.HandleFunc("POST /api/v1/admin/polls/{poll_id}/approve", s.requireAdmin(s.handleApprovePoll))
	s.mux.HandleFunc("POST /api/v1/admin/polls/{poll_id}/reject", s.requireAdmin(s.handleRejectPoll))
	s.mux.HandleFunc("POST /api/v1/admin/polls/{poll_id}/override", s.requireAdmin(s.handleOverridePoll))
	s.mux.HandleFunc("POST /api/v1/admin/emergency-brake", s.requireAdmin(s.handleEmergencyBrake))
	s.mux.HandleFunc("GET /api/v1/admin/emergency-brake", s.requireAdmin(s.handleGetEmergencyBrake))
	s.mux.HandleFunc("PUT /api/v1/admin/config", s.requireAdmin(s.handleUpdateConfig))
	s.mux.HandleFunc("GET /api/v1/admin/config", s.requireAdmin(s.handleGetConfig))
	s.mux.HandleFunc("POST /api/v1/admin/decisions/{decision_id}/score", s.requireAdmin(s.handleScoreDecision))
	s.mux.HandleFunc("GET /api/v1/admin/decisions/{decision_id}", s.requireAdmin(s.handleGetDecision))
	s.mux.HandleFunc("GET /api/v1/admin/actions", s.requireAdmin(s.handleListAdminActions))
	s.mux.HandleFunc("GET /api/v1/admin/learning", s.requireAdmin(s.handleLearningReport))
	s.mux.HandleFunc("POST /api/v1/admin/stages/{stage}/run", s.requireAdmin(s.handleRunStage))

	s.mux.HandleFunc("POST /api/v1/ecosystem/events", s.handleIngestEvents)
	s.mux.HandleFunc("GET /api/v1/ecosystem/girth-index", s.handleGetGirthIndex)
	s.mux.HandleFunc("GET /api/v1/ecosystem/metrics", s.handleListMetrics)
}

type adminHandler func(w http.ResponseWriter, r *http.Request, actorID string)

func (s *Server) requireAdmin(next adminHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok || s.opts.Admins == nil {
			writeGovernanceError(w, http.StatusUnauthorized, "unauthorized", "Authorization bearer token is required")
			return
		}
		actorID, err := s.opts.Admins.VerifyAdmin(token)
		if err != nil {
			if errors.Is(err, auth.ErrForbidden) {
				writeGovernanceError(w, http.StatusForbidden, "forbidden", "admin role required")
				return
			}
			writeGovernanceError(w, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
			return
		}
		next(w, r, actorID)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func parseLimit(r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, false
	}
	return limit, true
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
