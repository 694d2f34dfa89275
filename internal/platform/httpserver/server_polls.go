package httpserver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"

	decisionhttp "girthgov/contexts/governance/decision-engine/transport/http"
	ledgerhttpadapter "girthgov/contexts/governance/voting-ledger/adapters/http"
	ledgerdomainerrors "girthgov/contexts/governance/voting-ledger/domain/errors"
	ledgerhttp "girthgov/contexts/governance/voting-ledger/transport/http"
)

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return
	}
	resp, err := s.modules.Decisions.Handler.ListPollsHandler(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Decisions.Handler.GetPollHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCommentary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Decisions.Handler.ListCommentaryHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPollAnalysis(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Decisions.Handler.GetPollAnalysisHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeLedgerError(w, http.StatusUnauthorized, "unauthorized", "Authorization bearer token is required")
		return
	}
	if !s.allowVote(token) {
		writeLedgerError(w, http.StatusTooManyRequests, "rate_limited", "too many vote attempts")
		return
	}

	var req ledgerhttp.CastVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Votes.Handler.CastVoteHandler(
		r.Context(),
		token,
		r.Header.Get("Idempotency-Key"),
		r.PathValue("poll_id"),
		req,
	)
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleCooldown(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeLedgerError(w, http.StatusUnauthorized, "unauthorized", "Authorization bearer token is required")
		return
	}
	resp, err := s.modules.Votes.Handler.CooldownHandler(r.Context(), token, r.PathValue("poll_id"))
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeLedgerError(w, http.StatusUnauthorized, "unauthorized", "Authorization bearer token is required")
		return
	}
	resp, err := s.modules.Votes.Handler.WalletHandler(r.Context(), token)
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// allowVote keys the limiter by wallet; an unverifiable token is keyed by its
// digest and left for the use case to reject.
func (s *Server) allowVote(token string) bool {
	if s.opts.VoteLimiter == nil {
		return true
	}
	key := ""
	if s.opts.Sessions != nil {
		if wallet, err := s.opts.Sessions.VerifySession(token); err == nil {
			key = "wallet:" + wallet
		}
	}
	if key == "" {
		sum := sha256.Sum256([]byte(token))
		key = "token:" + hex.EncodeToString(sum[:8])
	}
	return s.opts.VoteLimiter.Allow(key)
}

func (s *Server) writeLedgerDomainError(w http.ResponseWriter, err error) {
	var cooldown *ledgerdomainerrors.CooldownError
	switch {
	case errors.As(err, &cooldown):
		writeJSON(w, http.StatusConflict, ledgerhttp.ErrorResponse{
			Code:     "cooldown_active",
			Message:  err.Error(),
			Cooldown: ledgerhttpadapter.CooldownPayload(cooldown),
		})
	case errors.Is(err, ledgerdomainerrors.ErrInvalidSession):
		writeLedgerError(w, http.StatusUnauthorized, "invalid_session", err.Error())
	case errors.Is(err, ledgerdomainerrors.ErrInvalidVoteInput),
		errors.Is(err, ledgerdomainerrors.ErrOptionNotInPoll):
		writeLedgerError(w, http.StatusBadRequest, "invalid_vote", err.Error())
	case errors.Is(err, ledgerdomainerrors.ErrPollNotFound),
		errors.Is(err, ledgerdomainerrors.ErrVoteNotFound):
		writeLedgerError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ledgerdomainerrors.ErrPollNotActive):
		writeLedgerError(w, http.StatusConflict, "poll_not_active", err.Error())
	case errors.Is(err, ledgerdomainerrors.ErrVotingWindowClosed):
		writeLedgerError(w, http.StatusConflict, "voting_window_closed", err.Error())
	case errors.Is(err, ledgerdomainerrors.ErrIdempotencyConflict):
		writeLedgerError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, ledgerdomainerrors.ErrConflict):
		writeLedgerError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("vote request failed",
			"event", "http_vote_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{Code: code, Message: message})
}

func writeGovernanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, decisionhttp.ErrorResponse{Code: code, Message: message})
}
